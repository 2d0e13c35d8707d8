// Package database persists the document catalog in a single SQLite file.
//
// Directories, entries, warnings and the last indexed time each live in
// their own table. Every write the catalog store issues runs in one
// transaction, so after a crash the file holds either the previous or the
// new state of an entry, never a mix.
//
// The file is opened in WAL mode and checked with PRAGMA quick_check. A
// file that cannot be opened or fails the check is moved aside as
// <path>.corrupt-<unix> and replaced with an empty catalog; New reports
// this through InitInfo.
//
// ExportJSON renders the stored catalog as deterministic indented JSON.
package database
