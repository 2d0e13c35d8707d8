package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slides-indexer/internal/extract"
)

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Show which external PDF tools were found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tools := extract.ResolveTools()
			out := cmd.OutOrStdout()
			for _, tool := range []struct{ name, path string }{
				{"pdftotext", tools.Pdftotext},
				{"pdftoppm", tools.Pdftoppm},
				{"tesseract", tools.Tesseract},
			} {
				path := tool.path
				if path == "" {
					path = "missing"
				}
				fmt.Fprintf(out, "%-10s %s\n", tool.name, path)
			}
			if msg := tools.Warning(); msg != "" {
				fmt.Fprintln(out, msg)
			}
			return nil
		},
	}
}
