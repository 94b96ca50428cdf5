// Package view derives the filtered, sorted transaction view and its
// aggregate totals. Everything here is a pure function of its inputs and is
// recomputed whenever a filter, sort, or category assignment changes.
package view

import (
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dagingaa/bank-transaction-review/internal/presets"
	"github.com/dagingaa/bank-transaction-review/internal/session"
)

// SortField names a sortable transaction attribute.
type SortField string

const (
	SortByDate        SortField = "date"
	SortByDescription SortField = "description"
	SortByAmountIn    SortField = "amountIn"
	SortByAmountOut   SortField = "amountOut"
	SortByCategory    SortField = "category"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortSpec is the requested ordering. The zero value means the default
// order: date descending.
type SortSpec struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DateRange bounds the view by calendar date. A zero bound imposes no
// constraint on that side.
type DateRange struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

func (r DateRange) bounded() bool {
	return r.Start.IsValid() || r.End.IsValid()
}

// contains reports whether d falls inside the range. The upper bound is
// inclusive through the end of that day; with calendar dates that means
// d <= End.
func (r DateRange) contains(d civil.Date) bool {
	if r.Start.IsValid() && d.Before(r.Start) {
		return false
	}
	if r.End.IsValid() && d.After(r.End) {
		return false
	}
	return true
}

// DeriveView filters transactions by date range and orders them by the sort
// spec. Transactions without a date are excluded whenever any bound is set
// and included when the range is unbounded. The sort is stable: equal keys
// keep their pre-sort relative order.
func DeriveView(transactions []*session.Transaction, r DateRange, spec SortSpec, assignments map[string]string) []*session.Transaction {
	out := make([]*session.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if r.bounded() {
			if !tx.HasDate() || !r.contains(tx.Date) {
				continue
			}
		}
		out = append(out, tx)
	}

	if spec.Field == "" {
		spec = SortSpec{Field: SortByDate, Direction: Descending}
	}
	if spec.Direction == "" {
		spec.Direction = Ascending
	}

	less := lessFunc(spec.Field, assignments)
	sort.SliceStable(out, func(i, j int) bool {
		if spec.Direction == Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// ResolveLabel returns the assigned category label for a transaction, or the
// sentinel when unset.
func ResolveLabel(tx *session.Transaction, assignments map[string]string) string {
	if label, ok := assignments[tx.ID]; ok && label != "" {
		return label
	}
	return presets.SentinelLabel
}

func lessFunc(field SortField, assignments map[string]string) func(a, b *session.Transaction) bool {
	switch field {
	case SortByDescription:
		return func(a, b *session.Transaction) bool {
			return strings.ToLower(a.Description) < strings.ToLower(b.Description)
		}
	case SortByAmountIn:
		return func(a, b *session.Transaction) bool {
			return a.AmountIn.LessThan(b.AmountIn)
		}
	case SortByAmountOut:
		return func(a, b *session.Transaction) bool {
			return a.AmountOut.LessThan(b.AmountOut)
		}
	case SortByCategory:
		return func(a, b *session.Transaction) bool {
			return strings.ToLower(ResolveLabel(a, assignments)) < strings.ToLower(ResolveLabel(b, assignments))
		}
	default:
		// Date. A missing date sorts before every real date.
		return func(a, b *session.Transaction) bool {
			return dateKey(a).Before(dateKey(b))
		}
	}
}

func dateKey(t *session.Transaction) civil.Date {
	if t.HasDate() {
		return t.Date
	}
	return civil.Date{Year: 1, Month: 1, Day: 1}
}
