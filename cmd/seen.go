package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var seenCmd = &cobra.Command{
	Use:   "seen",
	Short: "Show how many URLs are recorded per agency",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		urls, err := st.Load(ctx)
		if err != nil {
			return err
		}

		agencies := make([]string, 0, len(urls))
		for a := range urls {
			agencies = append(agencies, a)
		}
		sort.Strings(agencies)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "AGENCY\tURLS")
		for _, a := range agencies {
			fmt.Fprintf(w, "%s\t%d\n", a, len(urls[a]))
		}
		fmt.Fprintf(w, "TOTAL\t%d\n", urls.Total())
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(seenCmd)
}
