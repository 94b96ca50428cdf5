package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dagingaa/bank-transaction-review/internal/export"
)

var exportFlags struct {
	pipelineFlags
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export a file's transactions as normalized CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		viewed, assignments, _, err := runPipeline(cmd.Context(), &exportFlags.pipelineFlags)
		if err != nil {
			return err
		}
		if len(viewed) == 0 {
			return fmt.Errorf("no transactions match the given range")
		}

		opts := export.Options{
			Delimiter:          cfg.ExportDelimiter(),
			InterestDateColumn: cfg.Export.InterestDateColumn,
		}
		content := export.Export(viewed, assignments, opts)

		out := exportFlags.output
		if out == "" {
			out = export.Filename(time.Now())
		}
		if out == "-" {
			fmt.Print(content)
			return nil
		}
		if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("Wrote %d transactions to %s\n", len(viewed), out)
		return nil
	},
}

func init() {
	registerPipelineFlags(exportCmd, &exportFlags.pipelineFlags)
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output path (default transactions_export_<date>.csv, - for stdout)")
}
