// Command slides-cli works on the same catalog as the server without
// running it.
//
// Usage:
//
//	slides-cli [--data-dir DIR] [--json] [--log-level LEVEL] <command>
//
// Commands:
//
//	dirs                 list linked directories
//	dirs set|add|remove  change linked directories
//	scan [--dir DIR]     scan and update the catalog; Ctrl+C stops after the current file
//	search [QUERY...]    search entries ("phrases", terms, * and ? wildcards)
//	clear                remove every entry, keep directories
//	export [-o FILE]     write the catalog as deterministic JSON
//	state                show directories, entry count and warnings
//	tools                show which PDF tools are installed
//
// Logs go to stderr so stdout can be piped. Per-file progress is printed
// during a scan when stdout is a terminal.
package main
