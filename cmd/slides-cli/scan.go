package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"slides-indexer/internal/indexer"
)

func scanCmd(opts *options) *cobra.Command {
	var dir string
	var progress bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the linked directories and update the catalog",
		Long: "Scan walks every linked directory, or only --dir, re-extracting changed\n" +
			"documents. Interrupting stops after the current file; finished files stay saved.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("progress") {
				progress = isTerminal(out) && !opts.jsonOut
			}

			return withApp(cmd.Context(), opts, func(a *app) error {
				var wg sync.WaitGroup
				stopProgress := func() {}
				if progress {
					events, cancel := a.idx.Subscribe()
					stopProgress = cancel
					wg.Add(1)
					go func() {
						defer wg.Done()
						printProgress(out, events)
					}()
				}

				summary, err := a.idx.RunScan(cmd.Context(), dir)
				stopProgress()
				wg.Wait()
				if err != nil {
					return err
				}
				if err := printSummary(out, opts, summary); err != nil {
					return err
				}
				if summary.State == indexer.StateFailed {
					return fmt.Errorf("scan could not save the catalog")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "scan only this linked directory")
	cmd.Flags().BoolVar(&progress, "progress", false, "print per-file progress (default: when stdout is a terminal)")
	return cmd
}

// printProgress prints events until the end-of-scan marker or until the
// subscription is closed.
func printProgress(w io.Writer, events <-chan indexer.Event) {
	for e := range events {
		if e.IsTerminal() {
			return
		}
		if e.Detail != "" {
			fmt.Fprintf(w, "%-8s %s (%s)\n", e.Status, e.Path, e.Detail)
		} else {
			fmt.Fprintf(w, "%-8s %s\n", e.Status, e.Path)
		}
	}
}

func printSummary(w io.Writer, opts *options, s indexer.Summary) error {
	if opts.jsonOut {
		return printJSON(w, s)
	}
	fmt.Fprintf(w, "Scan %s in %v: %d indexed, %d scanned, %d cached, %d removed\n",
		s.State, s.Duration.Round(time.Millisecond), s.Indexed, s.Scanned, s.Cached, s.Removed)
	for _, warning := range s.Warnings {
		fmt.Fprintln(w, "warning:", warning)
	}
	return nil
}
