package main

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
)

func dirsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirs",
		Short: "List linked library directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				return printDirs(cmd.OutOrStdout(), opts, a.store.Directories())
			})
		},
	}

	cmd.AddCommand(
		dirsChangeCmd(opts, "set", "Replace the linked directories", func(_, args []string) []string {
			return args
		}),
		dirsChangeCmd(opts, "add", "Link more directories", func(current, args []string) []string {
			return append(current, args...)
		}),
		dirsChangeCmd(opts, "remove", "Unlink directories", func(current, args []string) []string {
			return slices.DeleteFunc(current, func(d string) bool { return slices.Contains(args, d) })
		}),
	)
	return cmd
}

func dirsChangeCmd(opts *options, use, short string, change func(current, args []string) []string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " DIR...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs := make([]string, 0, len(args))
			for _, arg := range args {
				p, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				abs = append(abs, p)
			}

			return withApp(cmd.Context(), opts, func(a *app) error {
				summary, err := a.idx.SubmitDirectories(cmd.Context(), change(a.store.Directories(), abs))
				if err != nil {
					return err
				}
				for _, w := range summary.Warnings {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
				}
				return printDirs(cmd.OutOrStdout(), opts, a.store.Directories())
			})
		},
	}
}

func printDirs(w io.Writer, opts *options, dirs []string) error {
	if opts.jsonOut {
		if dirs == nil {
			dirs = []string{}
		}
		return printJSON(w, dirs)
	}
	for _, d := range dirs {
		fmt.Fprintln(w, d)
	}
	return nil
}
