// Package export serializes a filtered, categorized view back to delimited
// text for download.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dagingaa/bank-transaction-review/internal/dates"
	"github.com/dagingaa/bank-transaction-review/internal/session"
	"github.com/dagingaa/bank-transaction-review/internal/view"
)

// Options controls the export format.
type Options struct {
	// Delimiter separates fields. The historical format uses semicolon;
	// later variants use comma. Zero defaults to semicolon.
	Delimiter rune

	// InterestDateColumn, when non-empty, adds the legacy "Interest Date"
	// column sourced from the named raw column of each transaction.
	InterestDateColumn string
}

// Export renders the view as delimited text: one header row, then one row
// per transaction. Textual cells are wrapped in double quotes with internal
// quotes doubled; numeric cells are emitted unquoted.
func Export(viewed []*session.Transaction, assignments map[string]string, opts Options) string {
	delimiter := string(opts.Delimiter)
	if opts.Delimiter == 0 {
		delimiter = ";"
	}

	headers := []string{"Date", "Description"}
	if opts.InterestDateColumn != "" {
		headers = append(headers, "Interest Date")
	}
	headers = append(headers, "Amount Out", "Amount In", "Category")

	var b strings.Builder
	writeRow(&b, quoteAll(headers), delimiter)

	for _, tx := range viewed {
		cells := []string{
			quote(dates.FormatDisplay(tx.Date)),
			quote(tx.Description),
		}
		if opts.InterestDateColumn != "" {
			cells = append(cells, quote(tx.Raw[opts.InterestDateColumn]))
		}
		cells = append(cells,
			formatAmount(tx.AmountOut),
			formatAmount(tx.AmountIn),
			quote(view.ResolveLabel(tx, assignments)),
		)
		writeRow(&b, cells, delimiter)
	}
	return b.String()
}

// Filename builds the download name for an export generated now.
func Filename(now time.Time) string {
	return fmt.Sprintf("transactions_export_%s.csv", now.Format("20060102"))
}

func writeRow(b *strings.Builder, cells []string, delimiter string) {
	b.WriteString(strings.Join(cells, delimiter))
	b.WriteByte('\n')
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = quote(c)
	}
	return out
}

func formatAmount(d decimal.Decimal) string {
	return d.String()
}
