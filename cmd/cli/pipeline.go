package main

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/dagingaa/bank-transaction-review/internal/ingest"
	"github.com/dagingaa/bank-transaction-review/internal/session"
	"github.com/dagingaa/bank-transaction-review/internal/view"
)

// pipelineFlags are shared by the export and summary commands, which
// both run the full parse, build and derive pipeline over a file.
type pipelineFlags struct {
	file          string
	delimiter     string
	noHeader      bool
	dateColumn    string
	descColumn    string
	inColumn      string
	outColumn     string
	categoryCol   string
	startDate     string
	endDate       string
	sortField     string
	sortDirection string
}

func registerPipelineFlags(cmd *cobra.Command, f *pipelineFlags) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "path to the delimited export file")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "field delimiter (auto-detected when empty)")
	cmd.Flags().BoolVar(&f.noHeader, "no-header", false, "treat the first row as data")
	cmd.Flags().StringVar(&f.dateColumn, "date-column", "", "column holding the transaction date (auto-suggested when empty)")
	cmd.Flags().StringVar(&f.descColumn, "description-column", "", "column holding the description")
	cmd.Flags().StringVar(&f.inColumn, "amount-in-column", "", "column holding incoming amounts")
	cmd.Flags().StringVar(&f.outColumn, "amount-out-column", "", "column holding outgoing amounts")
	cmd.Flags().StringVar(&f.categoryCol, "category-column", "", "column holding an existing category label")
	cmd.Flags().StringVar(&f.startDate, "start", "", "start of the date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.endDate, "end", "", "end of the date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.sortField, "sort", "date", "sort field: date, description, amountIn, amountOut, category")
	cmd.Flags().StringVar(&f.sortDirection, "direction", "desc", "sort direction: asc or desc")
	cmd.MarkFlagRequired("file")
}

// runPipeline parses the file, builds transactions and derives the
// filtered, sorted view the flags describe.
func runPipeline(ctx context.Context, f *pipelineFlags) ([]*session.Transaction, map[string]string, []string, error) {
	raw, err := os.ReadFile(f.file)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s: %w", f.file, err)
	}

	opts := ingest.Options{HasHeaderRow: !f.noHeader}
	if f.delimiter != "" {
		opts.Delimiter = rune(f.delimiter[0])
	}
	result, err := ingest.Parse(string(raw), opts)
	if err != nil {
		return nil, nil, nil, err
	}

	mapping := resolveMapping(f, result.Headers)
	if !mapping.Validate() {
		return nil, nil, nil, fmt.Errorf("column mapping incomplete, pass --date-column, --description-column, --amount-in-column and --amount-out-column")
	}

	build, err := session.Build(ctx, result.Records, mapping, cfg.Import.BatchSize, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	rng, err := resolveRange(f, build)
	if err != nil {
		return nil, nil, nil, err
	}
	spec := view.SortSpec{
		Field:     view.SortField(f.sortField),
		Direction: view.SortDirection(f.sortDirection),
	}
	viewed := view.DeriveView(build.Transactions, rng, spec, build.Assignments)
	return viewed, build.Assignments, build.Labels, nil
}

func resolveMapping(f *pipelineFlags, headers []string) ingest.ColumnMapping {
	mapping := ingest.SuggestMapping(headers)
	if f.dateColumn != "" {
		mapping.Date = f.dateColumn
	}
	if f.descColumn != "" {
		mapping.Description = f.descColumn
	}
	if f.inColumn != "" {
		mapping.AmountIn = f.inColumn
	}
	if f.outColumn != "" {
		mapping.AmountOut = f.outColumn
	}
	if f.categoryCol != "" {
		mapping.Category = f.categoryCol
	}
	return mapping
}

func resolveRange(f *pipelineFlags, build *session.BuildResult) (view.DateRange, error) {
	rng := view.DateRange{Start: build.MinDate, End: build.MaxDate}
	if f.startDate != "" {
		d, err := civil.ParseDate(f.startDate)
		if err != nil {
			return view.DateRange{}, fmt.Errorf("parsing --start: %w", err)
		}
		rng.Start = d
	}
	if f.endDate != "" {
		d, err := civil.ParseDate(f.endDate)
		if err != nil {
			return view.DateRange{}, fmt.Errorf("parsing --end: %w", err)
		}
		rng.End = d
	}
	return rng, nil
}
