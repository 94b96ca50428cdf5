package ingest

import "strings"

// ColumnMapping is the user-confirmed correspondence between source columns
// and the semantic fields the pipeline needs. Category is optional; the other
// four must be set before import proceeds.
type ColumnMapping struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountIn    string `json:"amountIn"`
	AmountOut   string `json:"amountOut"`
	Category    string `json:"category,omitempty"`
}

// Validate reports whether all required fields are mapped.
func (m ColumnMapping) Validate() bool {
	return m.Date != "" && m.Description != "" && m.AmountIn != "" && m.AmountOut != ""
}

// Synonym lists per field, matched case-insensitively as substrings. The
// Norwegian words cover the bank export the tool was originally built for.
var (
	dateSynonyms        = []string{"date", "time", "dato"}
	descriptionSynonyms = []string{"description", "desc", "narrative", "details", "forklaring", "text"}
	amountInSynonyms    = []string{"in", "credit", "deposit", "inn"}
	amountOutSynonyms   = []string{"out", "debit", "withdrawal", "ut"}
	categorySynonyms    = []string{"category", "type", "group", "kategori"}
)

// SuggestMapping guesses a column mapping from the parsed headers. Fields are
// filled in a fixed order (date, description, amountIn, amountOut, category)
// and each header is consumed by the first field that claims it, so an
// ambiguous header never backs two fields. The result is a suggestion only;
// the caller confirms or corrects it before ingestion.
func SuggestMapping(headers []string) ColumnMapping {
	used := make(map[string]bool, len(headers))

	pick := func(synonyms []string) string {
		for _, header := range headers {
			if used[header] {
				continue
			}
			lower := strings.ToLower(header)
			for _, syn := range synonyms {
				if strings.Contains(lower, syn) {
					used[header] = true
					return header
				}
			}
		}
		return ""
	}

	return ColumnMapping{
		Date:        pick(dateSynonyms),
		Description: pick(descriptionSynonyms),
		AmountIn:    pick(amountInSynonyms),
		AmountOut:   pick(amountOutSynonyms),
		Category:    pick(categorySynonyms),
	}
}
