// Package modeling turns uploaded CSV files into model requests, calls the
// model backend, and persists the resulting batches.
package modeling

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxBatchRows is the default cap on data rows sent per upload.
const MaxBatchRows = 120

// Cell is a raw, trimmed CSV field. Only the coercion helpers turn a Cell
// into typed values.
type Cell string

// Blank reports whether the cell is empty.
func (c Cell) Blank() bool {
	return c == ""
}

// Row maps lower-cased header names to cells.
type Row map[string]Cell

// Get returns the cell for header, or a blank cell when the column is absent.
func (r Row) Get(header string) Cell {
	return r[header]
}

// ParsedCSV is the result of ParseCSV.
type ParsedCSV struct {
	Headers []string
	Rows    []Row
	// TotalRows counts every non-blank data line, including those past the cap.
	TotalRows int
}

// Truncated reports whether data rows were dropped by the row cap.
func (p ParsedCSV) Truncated() bool {
	return p.TotalRows > len(p.Rows)
}

// HasHeader reports whether header is present.
func (p ParsedCSV) HasHeader(header string) bool {
	for _, h := range p.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// MissingHeaders returns the required headers that are absent, in order.
func (p ParsedCSV) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// ReadCSV reads all of r and parses it.
func ReadCSV(r io.Reader, maxRows int) (ParsedCSV, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ParsedCSV{}, fmt.Errorf("reading csv: %w", err)
	}
	return ParseCSV(string(data), maxRows), nil
}

// ParseCSV parses text into headers and at most maxRows data rows.
//
// Carriage returns are dropped everywhere, a leading byte-order mark is
// stripped, and lines are trimmed with blank lines skipped. Quoted fields
// may contain commas and doubled quotes, but not newlines. An unclosed quote
// runs to the end of its line. Short rows are padded with blank cells;
// extra values are ignored. When a header repeats, the later column wins.
func ParseCSV(text string, maxRows int) ParsedCSV {
	if maxRows < 0 {
		maxRows = 0
	}

	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimPrefix(text, "\ufeff")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = trimField(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return ParsedCSV{}
	}

	rawHeaders := splitRow(lines[0])
	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		headers[i] = normalizeToken(h)
	}

	data := lines[1:]
	parsed := ParsedCSV{Headers: headers, TotalRows: len(data)}
	if len(data) > maxRows {
		data = data[:maxRows]
	}

	parsed.Rows = make([]Row, 0, len(data))
	for _, line := range data {
		values := splitRow(line)
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(values) {
				row[h] = Cell(values[i])
			} else {
				row[h] = ""
			}
		}
		parsed.Rows = append(parsed.Rows, row)
	}

	return parsed
}

// splitRow splits one line on commas outside double quotes. Inside quotes
// a doubled quote is a literal quote; any other quote toggles quoting.
func splitRow(line string) []string {
	var (
		values  []string
		current strings.Builder
		quoted  bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if quoted && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				quoted = !quoted
			}
		case ch == ',' && !quoted:
			values = append(values, trimField(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(values, trimField(current.String()))
}

// trimField strips the whitespace set browsers strip from form text,
// which includes the byte-order mark but not NEL.
func trimField(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		if r == '\ufeff' {
			return true
		}
		return r != '\u0085' && unicode.IsSpace(r)
	})
}

// normalizeToken lower-cases and NFC-normalises a header or flag token so
// that decomposed Hangul from some spreadsheet exports still matches.
func normalizeToken(s string) string {
	return strings.ToLower(norm.NFC.String(trimField(s)))
}
