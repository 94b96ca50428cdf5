package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dagingaa/bank-transaction-review/internal/ingest"
)

var previewFlags struct {
	file      string
	delimiter string
	noHeader  bool
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show a file's headers, suggested column mapping and first rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(previewFlags.file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", previewFlags.file, err)
		}

		opts := ingest.Options{
			HasHeaderRow:   !previewFlags.noHeader,
			MaxPreviewRows: cfg.Import.PreviewRows,
		}
		if previewFlags.delimiter != "" {
			opts.Delimiter = rune(previewFlags.delimiter[0])
		}

		result, err := ingest.Parse(string(raw), opts)
		if err != nil {
			return err
		}

		fmt.Printf("Delimiter: %q\n", result.Delimiter)
		fmt.Println("Headers:")
		for _, h := range result.Headers {
			fmt.Printf("  %s\n", h)
		}

		mapping := ingest.SuggestMapping(result.Headers)
		fmt.Println("\nSuggested mapping:")
		fmt.Printf("  date:        %s\n", orUnset(mapping.Date))
		fmt.Printf("  description: %s\n", orUnset(mapping.Description))
		fmt.Printf("  amountIn:    %s\n", orUnset(mapping.AmountIn))
		fmt.Printf("  amountOut:   %s\n", orUnset(mapping.AmountOut))
		fmt.Printf("  category:    %s\n", orUnset(mapping.Category))

		fmt.Printf("\nFirst %d rows:\n", len(result.Records))
		for _, record := range result.Records {
			for i, h := range result.Headers {
				if i > 0 {
					fmt.Print(" | ")
				}
				fmt.Print(record[h])
			}
			fmt.Println()
		}
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(not matched)"
	}
	return s
}

func init() {
	previewCmd.Flags().StringVarP(&previewFlags.file, "file", "f", "", "path to the delimited export file")
	previewCmd.Flags().StringVar(&previewFlags.delimiter, "delimiter", "", "field delimiter (auto-detected when empty)")
	previewCmd.Flags().BoolVar(&previewFlags.noHeader, "no-header", false, "treat the first row as data")
	previewCmd.MarkFlagRequired("file")
}
