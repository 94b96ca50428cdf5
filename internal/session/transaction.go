package session

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dagingaa/bank-transaction-review/internal/ingest"
)

// Transaction is one normalized ledger entry derived from an imported row.
// It is immutable after import; the category a user assigns to it lives in a
// separate assignment map so the entry itself never changes.
type Transaction struct {
	// ID is synthesized from the raw date string, the description and a
	// random suffix. Uniqueness is per import batch.
	ID string `json:"id"`

	// Date is the normalized calendar date. The zero value means the source
	// cell was missing or unparseable.
	Date civil.Date `json:"date"`

	Description string          `json:"description"`
	AmountOut   decimal.Decimal `json:"amountOut"`
	AmountIn    decimal.Decimal `json:"amountIn"`

	// Raw is the original record, retained opaquely for export fidelity.
	// Columns outside the mapping are never merged into the typed fields.
	Raw ingest.Record `json:"-"`
}

// HasDate reports whether the source date cell parsed to a valid date.
func (t *Transaction) HasDate() bool {
	return t.Date.IsValid()
}
