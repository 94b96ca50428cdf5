package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dagingaa/bank-transaction-review/internal/dates"
	"github.com/dagingaa/bank-transaction-review/internal/ingest"
)

// DefaultBatchSize is how many records are processed between yield points.
const DefaultBatchSize = 100

// ProgressFunc is invoked after every processed batch with the running count.
type ProgressFunc func(processed, total int)

// BuildResult is the outcome of a full build.
type BuildResult struct {
	// Transactions are sorted by date descending, the default view order.
	Transactions []*Transaction

	// Assignments holds initial category assignments taken from a mapped
	// category column, keyed by transaction ID.
	Assignments map[string]string

	// Labels are the distinct category labels found in the category column,
	// in first-seen order. Empty when no category column was mapped.
	Labels []string

	// MinDate and MaxDate bound the dates observed in the batch and become
	// the default filter range. Zero when no row had a parseable date.
	MinDate civil.Date
	MaxDate civil.Date
}

// Build maps raw records into Transactions using the confirmed column
// mapping. Records are processed in fixed-size batches; between batches the
// context is checked and progress is reported, so a caller driving a UI can
// keep it responsive and cancel a runaway import.
func Build(ctx context.Context, records []ingest.Record, mapping ingest.ColumnMapping, batchSize int, progress ProgressFunc) (*BuildResult, error) {
	if !mapping.Validate() {
		return nil, fmt.Errorf("session.Build: column mapping is incomplete")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	result := &BuildResult{
		Transactions: make([]*Transaction, 0, len(records)),
		Assignments:  make(map[string]string),
	}
	seenLabels := make(map[string]bool)
	total := len(records)

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}

		for _, record := range records[start:end] {
			tx := buildOne(record, mapping)
			result.Transactions = append(result.Transactions, tx)

			if tx.HasDate() {
				if !result.MinDate.IsValid() || tx.Date.Before(result.MinDate) {
					result.MinDate = tx.Date
				}
				if !result.MaxDate.IsValid() || tx.Date.After(result.MaxDate) {
					result.MaxDate = tx.Date
				}
			}

			if mapping.Category != "" {
				if label := strings.TrimSpace(record[mapping.Category]); label != "" {
					result.Assignments[tx.ID] = label
					if !seenLabels[label] {
						seenLabels[label] = true
						result.Labels = append(result.Labels, label)
					}
				}
			}
		}

		// Yield point between batches.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if progress != nil {
			progress(end, total)
		}
	}

	// Newest first is the default view order.
	sort.SliceStable(result.Transactions, func(i, j int) bool {
		return dateKey(result.Transactions[j]).Before(dateKey(result.Transactions[i]))
	})

	return result, nil
}

func buildOne(record ingest.Record, mapping ingest.ColumnMapping) *Transaction {
	rawDate := record[mapping.Date]
	description := record[mapping.Description]

	date, _ := dates.Parse(rawDate)

	return &Transaction{
		ID:          transactionID(rawDate, description),
		Date:        date,
		Description: description,
		AmountOut:   parseAmount(record[mapping.AmountOut]),
		AmountIn:    parseAmount(record[mapping.AmountIn]),
		Raw:         record,
	}
}

// transactionID keeps the historical rawDate_description_suffix shape but
// draws the suffix from a UUID so collisions within a batch are not a
// practical concern.
func transactionID(rawDate, description string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%s_%s", rawDate, description, suffix)
}

// parseAmount cleans a numeric cell and parses it, defaulting to zero on
// failure. Commas followed by three digits are thousands separators and are
// dropped; a remaining comma is a decimal separator ("45,00" means 45.00).
func parseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			if countLeadingDigits(s[i+1:]) == 3 {
				continue // thousands separator
			}
			b.WriteByte('.')
			continue
		}
		b.WriteByte(s[i])
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func countLeadingDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// dateKey orders missing dates before every real date, mirroring the
// "null sorts as epoch zero" rule.
func dateKey(t *Transaction) civil.Date {
	if t.HasDate() {
		return t.Date
	}
	return civil.Date{Year: 1, Month: 1, Day: 1}
}
