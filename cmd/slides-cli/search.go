package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"slides-indexer/internal/indexer"
)

func searchCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [QUERY...]",
		Short: "Search the catalog",
		Long: "Terms are matched case-insensitively against name, path, snippet, slide text\n" +
			"and keywords. Quote phrases (\"quarterly review\") and use * or ? as wildcards.\n" +
			"With no query every entry is listed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				resp := a.idx.Query(strings.Join(args, " "))
				if limit > 0 && len(resp.Items) > limit {
					resp.Items = resp.Items[:limit]
				}
				if opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), resp)
				}
				return printResults(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many results (0 = all)")
	return cmd
}

func printResults(w io.Writer, resp indexer.SearchResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSLIDES\tMODIFIED\tPATH")
	for _, e := range resp.Items {
		slides := "-"
		if e.SlideCount != nil {
			slides = fmt.Sprint(*e.SlideCount)
		}
		modified := time.UnixMilli(e.ModifiedAt).Format("2006-01-02 15:04")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Kind.Label(), slides, modified, e.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d of %d matching\n", len(resp.Items), resp.Total)
	return nil
}
