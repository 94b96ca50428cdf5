package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dagingaa/bank-transaction-review/internal/view"
)

var summaryFlags pipelineFlags

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print totals and per-category breakdown for a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		viewed, assignments, labels, err := runPipeline(cmd.Context(), &summaryFlags)
		if err != nil {
			return err
		}

		summary := view.Aggregate(viewed, assignments, labels)

		fmt.Printf("Transactions: %d\n", summary.Count)
		fmt.Printf("Total in:     %s\n", summary.TotalIn.StringFixed(2))
		fmt.Printf("Total out:    %s\n", summary.TotalOut.StringFixed(2))
		fmt.Printf("Balance:      %s\n", summary.Balance.StringFixed(2))

		names := make([]string, 0, len(summary.PerCategory))
		for name := range summary.PerCategory {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("\nPer category:")
		for _, name := range names {
			totals := summary.PerCategory[name]
			fmt.Printf("  %-24s in %12s  out %12s\n", name, totals.In.StringFixed(2), totals.Out.StringFixed(2))
		}
		return nil
	},
}

func init() {
	registerPipelineFlags(summaryCmd, &summaryFlags)
}
