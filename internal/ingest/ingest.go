// Package ingest turns raw delimited bank-export text into records keyed by
// header name, and guesses which columns carry the semantic fields the rest
// of the pipeline needs.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// ErrParse indicates the input text could not be tokenized as delimited data.
// The wrapped message is safe to show to the user; nothing partial is
// committed when it is returned.
var ErrParse = errors.New("parse error")

// Options controls how raw text is tokenized.
type Options struct {
	// Delimiter is the field separator. Zero means auto-detect between
	// semicolon and comma based on the first data line.
	Delimiter rune

	// HasHeaderRow treats the first row as column names. When false,
	// positional names (column_1, column_2, ...) are synthesized.
	HasHeaderRow bool

	// MaxPreviewRows limits how many data rows are materialized. Zero means
	// all rows. Used for the column-mapping preview before a full parse.
	MaxPreviewRows int
}

// Record is one data row, keyed by header name.
type Record map[string]string

// Result is the outcome of a successful parse.
type Result struct {
	Headers   []string
	Delimiter rune
	Records   []Record
}

// Parse tokenizes raw delimited text into records. Headers and cell values
// have a single layer of wrapping double-quotes stripped, which normalizes
// exports from systems that double-encode quoting. Blank lines are skipped.
//
// Quoting is lenient: bare or unbalanced quotes degrade to literal cell
// text instead of failing, matching the permissive parsers bank-export
// tooling is built against. ErrParse is still returned for inputs the
// reader cannot tokenize at all, such as an unusable delimiter.
func Parse(raw string, opts Options) (*Result, error) {
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = detectDelimiter(raw)
	}

	reader := csv.NewReader(strings.NewReader(raw))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, parseErr.Line, parseErr.Err)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	result := &Result{Delimiter: delimiter}

	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if result.Headers == nil {
			if opts.HasHeaderRow {
				result.Headers = stripQuotesAll(row)
				continue
			}
			result.Headers = positionalHeaders(len(row))
			// fall through: this row is data
		}

		record := make(Record, len(result.Headers))
		for i, header := range result.Headers {
			if i < len(row) {
				record[header] = stripQuotes(row[i])
			} else {
				record[header] = ""
			}
		}
		result.Records = append(result.Records, record)

		if opts.MaxPreviewRows > 0 && len(result.Records) >= opts.MaxPreviewRows {
			break
		}
	}

	if result.Headers == nil {
		result.Headers = []string{}
	}
	return result, nil
}

// detectDelimiter picks semicolon or comma by counting occurrences on the
// first non-blank line. Semicolon wins ties since the historical export
// format uses it.
func detectDelimiter(raw string) rune {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Count(line, ",") > strings.Count(line, ";") {
			return ','
		}
		return ';'
	}
	return ';'
}

// stripQuotes removes one layer of wrapping double-quotes, if present.
func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func stripQuotesAll(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = stripQuotes(cell)
	}
	return out
}

func positionalHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = fmt.Sprintf("column_%d", i+1)
	}
	return headers
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
