package ingest

import (
	"errors"
	"testing"
)

func TestParse_SemicolonWithHeader(t *testing.T) {
	raw := "Dato;Forklaring;Ut fra konto;Inn på konto\n" +
		"01.02.2024;Grocery store;123,45;\n" +
		"02.02.2024;Salary;;45000,00\n"

	result, err := Parse(raw, Options{HasHeaderRow: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.Delimiter != ';' {
		t.Errorf("Delimiter = %q, want ';'", result.Delimiter)
	}
	wantHeaders := []string{"Dato", "Forklaring", "Ut fra konto", "Inn på konto"}
	if len(result.Headers) != len(wantHeaders) {
		t.Fatalf("Headers = %v, want %v", result.Headers, wantHeaders)
	}
	for i, h := range wantHeaders {
		if result.Headers[i] != h {
			t.Errorf("Headers[%d] = %q, want %q", i, result.Headers[i], h)
		}
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if got := result.Records[0]["Forklaring"]; got != "Grocery store" {
		t.Errorf("Forklaring = %q, want %q", got, "Grocery store")
	}
	if got := result.Records[1]["Inn på konto"]; got != "45000,00" {
		t.Errorf("Inn på konto = %q, want %q", got, "45000,00")
	}
}

func TestParse_RecordCountMatchesDataRows(t *testing.T) {
	raw := "a;b\n1;2\n3;4\n\n5;6\n"

	result, err := Parse(raw, Options{HasHeaderRow: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// Blank lines are not data rows.
	if len(result.Records) != 3 {
		t.Errorf("got %d records, want 3", len(result.Records))
	}
}

func TestParse_QuoteStripping(t *testing.T) {
	raw := `"Date";"Description"` + "\n" + `"01.02.2024";"Coffee shop"` + "\n"

	result, err := Parse(raw, Options{HasHeaderRow: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Headers[0] != "Date" {
		t.Errorf("header = %q, want %q", result.Headers[0], "Date")
	}
	if got := result.Records[0]["Description"]; got != "Coffee shop" {
		t.Errorf("cell = %q, want %q", got, "Coffee shop")
	}
}

func TestParse_NoHeaderRow(t *testing.T) {
	raw := "01.02.2024;Coffee;12,50\n02.02.2024;Bus;40,00\n"

	result, err := Parse(raw, Options{HasHeaderRow: false})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	wantHeaders := []string{"column_1", "column_2", "column_3"}
	for i, h := range wantHeaders {
		if result.Headers[i] != h {
			t.Errorf("Headers[%d] = %q, want %q", i, result.Headers[i], h)
		}
	}
	// The first row is data, not headers.
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if got := result.Records[0]["column_2"]; got != "Coffee" {
		t.Errorf("column_2 = %q, want %q", got, "Coffee")
	}
}

func TestParse_MaxPreviewRows(t *testing.T) {
	raw := "a;b\n1;2\n3;4\n5;6\n7;8\n"

	result, err := Parse(raw, Options{HasHeaderRow: true, MaxPreviewRows: 2})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Records) != 2 {
		t.Errorf("got %d records, want 2", len(result.Records))
	}
}

func TestParse_ShortRowPadsEmpty(t *testing.T) {
	raw := "a;b;c\n1;2\n"

	result, err := Parse(raw, Options{HasHeaderRow: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := result.Records[0]["c"]; got != "" {
		t.Errorf("missing cell = %q, want empty", got)
	}
}

func TestParse_UnusableDelimiterReturnsErrParse(t *testing.T) {
	_, err := Parse("a;b\n1;2\n", Options{HasHeaderRow: true, Delimiter: '"'})
	if err == nil {
		t.Fatal("expected an error for an unusable delimiter")
	}
	if !errors.Is(err, ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}
}

func TestParse_LenientQuoting(t *testing.T) {
	// Bare quotes degrade to literal cell text rather than failing the
	// whole file.
	raw := "a;b\nit\"s fine;2\nrock \"n\" roll;4\n"

	result, err := Parse(raw, Options{HasHeaderRow: true, Delimiter: ';'})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if got := result.Records[0]["a"]; got != `it"s fine` {
		t.Errorf("cell = %q, want the bare quote kept", got)
	}
	if got := result.Records[1]["a"]; got != `rock "n" roll` {
		t.Errorf("cell = %q, want the bare quotes kept", got)
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want rune
	}{
		{"semicolons", "a;b;c\n1;2;3", ';'},
		{"commas", "a,b,c\n1,2,3", ','},
		{"tie prefers semicolon", "a;b,c\n", ';'},
		{"no delimiter prefers semicolon", "justoneword\n", ';'},
		{"empty input", "", ';'},
		{"leading blank lines", "\n\na,b,c\n", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectDelimiter(tt.raw); got != tt.want {
				t.Errorf("detectDelimiter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripQuotes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"quoted"`, "quoted"},
		{`""`, ""},
		{`plain`, "plain"},
		{`"one layer of ""inner"" quotes"`, `one layer of ""inner"" quotes`},
		{`"`, `"`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := stripQuotes(tt.input); got != tt.want {
			t.Errorf("stripQuotes(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
