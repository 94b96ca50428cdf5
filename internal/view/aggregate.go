package view

import (
	"github.com/shopspring/decimal"

	"github.com/dagingaa/bank-transaction-review/internal/session"
)

// CategoryTotal is the in/out sums for one category label.
type CategoryTotal struct {
	In  decimal.Decimal `json:"in"`
	Out decimal.Decimal `json:"out"`
}

// Summary is the aggregate over a derived view.
type Summary struct {
	Count       int                      `json:"count"`
	TotalIn     decimal.Decimal          `json:"totalIn"`
	TotalOut    decimal.Decimal          `json:"totalOut"`
	Balance     decimal.Decimal          `json:"balance"`
	PerCategory map[string]CategoryTotal `json:"perCategory"`
}

// Aggregate computes totals over the view. Every known category label gets
// an entry even with zero activity, and a label met in the data but missing
// from knownCategories still shows up, so totals stay correct when a preset
// entry was removed after assignment.
func Aggregate(viewed []*session.Transaction, assignments map[string]string, knownCategories []string) Summary {
	s := Summary{
		Count:       len(viewed),
		TotalIn:     decimal.Zero,
		TotalOut:    decimal.Zero,
		PerCategory: make(map[string]CategoryTotal, len(knownCategories)+1),
	}

	for _, label := range knownCategories {
		s.PerCategory[label] = CategoryTotal{In: decimal.Zero, Out: decimal.Zero}
	}

	for _, tx := range viewed {
		s.TotalIn = s.TotalIn.Add(tx.AmountIn)
		s.TotalOut = s.TotalOut.Add(tx.AmountOut)

		label := ResolveLabel(tx, assignments)
		total, ok := s.PerCategory[label]
		if !ok {
			total = CategoryTotal{In: decimal.Zero, Out: decimal.Zero}
		}
		total.In = total.In.Add(tx.AmountIn)
		total.Out = total.Out.Add(tx.AmountOut)
		s.PerCategory[label] = total
	}

	s.Balance = s.TotalIn.Sub(s.TotalOut)
	return s
}
