package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kaeva-factcheck/internal/tiers"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Show the credibility tier of each URL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := tiers.Load(cfg.Tiers.Path)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "URL\tTIER\tLABEL\tWEIGHT")
		for _, u := range args {
			m := c.Classify(u)
			if m == nil {
				fmt.Fprintf(w, "%s\t-\tUnranked\t-\n", u)
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\n", u, m.Tier, m.Label, m.Weight)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
