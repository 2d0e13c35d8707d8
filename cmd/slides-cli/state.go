package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func stateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show catalog status: directories, entry count, last scan and warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				state := a.idx.State()
				out := cmd.OutOrStdout()
				if opts.jsonOut {
					return printJSON(out, state)
				}

				fmt.Fprintf(out, "Entries:      %d\n", len(state.Items))
				last := "never"
				if state.LastIndexedAt != nil {
					last = time.UnixMilli(*state.LastIndexedAt).Format(time.RFC3339)
				}
				fmt.Fprintf(out, "Last indexed: %s\n", last)
				fmt.Fprintln(out, "Directories:")
				for _, d := range state.Directories {
					fmt.Fprintf(out, "  %s\n", d)
				}
				if len(state.Warnings) > 0 {
					fmt.Fprintln(out, "Warnings:")
					for _, w := range state.Warnings {
						fmt.Fprintf(out, "  %s\n", w)
					}
				}
				return nil
			})
		},
	}
}
