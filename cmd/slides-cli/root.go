package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"slides-indexer/internal/logging"
	"slides-indexer/internal/startup"
)

type options struct {
	dataDir  string
	logLevel string
	jsonOut  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "slides-cli",
		Short:        "Index and search presentations and PDFs from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.logLevel == "" {
				return nil
			}
			level, ok := logging.ParseLevel(opts.logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", opts.logLevel)
			}
			logging.SetLevel(level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", startup.FromEnv().DataDir, "directory holding catalog.db (env DATA_DIR)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		dirsCmd(opts),
		scanCmd(opts),
		searchCmd(opts),
		clearCmd(opts),
		exportCmd(opts),
		stateCmd(opts),
		toolsCmd(),
	)
	return root
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := marshalIndent(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
