// Package listing reads the exchange symbol files (NASDAQ listed, NYSE/other
// listed, digital currencies) that seed a symbol sync.
package listing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Exchange names a listing file format.
type Exchange string

const (
	Nasdaq  Exchange = "NASDAQ"
	NYSE    Exchange = "NYSE"
	Digital Exchange = "DIGITAL"
)

// ParseExchange is case-insensitive.
func ParseExchange(s string) (Exchange, error) {
	switch Exchange(strings.ToUpper(strings.TrimSpace(s))) {
	case Nasdaq:
		return Nasdaq, nil
	case NYSE:
		return NYSE, nil
	case Digital:
		return Digital, nil
	}
	return "", fmt.Errorf("unknown exchange type: %s", s)
}

// symbolColumn is the column holding the ticker for each format.
func (e Exchange) symbolColumn() string {
	if e == NYSE {
		return "actsymbol"
	}
	return "symbol"
}

func (e Exchange) nameColumn() string {
	if e == Digital {
		return "name"
	}
	return "companyname"
}

// Entry is one listed symbol.
type Entry struct {
	Symbol string
	Name   string
	ETF    bool
}

// normalizeHeader lowercases and strips spaces so "ACT Symbol" and
// "actsymbol" select the same column.
func normalizeHeader(col string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(col), " ", ""))
}

// Parse reads a listing file. Rows with an empty symbol and test issues are
// skipped. Column order does not matter; extra columns are ignored.
func Parse(r io.Reader, ex Exchange) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int)
	for i, col := range header {
		colIdx[normalizeHeader(strings.TrimPrefix(col, "\ufeff"))] = i
	}

	symCol, nameCol := ex.symbolColumn(), ex.nameColumn()
	required := []string{symCol}
	if ex == Digital {
		required = append(required, nameCol)
	}
	for _, col := range required {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	optionalCol := func(record []string, col string) string {
		idx, ok := colIdx[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var entries []Entry
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: failed to read CSV record: %w", rowNum+1, err)
		}
		rowNum++

		symbol := optionalCol(record, symCol)
		if symbol == "" || strings.EqualFold(optionalCol(record, "testissue"), "Y") {
			continue
		}
		entries = append(entries, Entry{
			Symbol: symbol,
			Name:   optionalCol(record, nameCol),
			ETF:    strings.EqualFold(optionalCol(record, "etf"), "Y"),
		})
	}

	return entries, nil
}

// ReadFile opens path and parses it as ex.
func ReadFile(path string, ex Exchange) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s listing: %w", ex, err)
	}
	defer f.Close()
	return Parse(f, ex)
}

// Symbols returns just the tickers, in file order.
func Symbols(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Symbol)
	}
	return out
}
