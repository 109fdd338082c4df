// Package parser converts raw bank-statement exports into ordered raw rows.
// It auto-detects the delimiter and column layout, tolerates malformed rows
// by skipping them, and keeps the original source-line index of every row so
// later stages can break same-day ties deterministically.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRow is one parsed statement line. Amount keeps the sign exactly as the
// bank exported it; canonicalization happens in the normalizer.
type RawRow struct {
	// SourceIndex is the zero-based data-line index in the original export
	// (header excluded). Exports list newest-first.
	SourceIndex int

	Detail      string // detail/status code, e.g. DEBIT, CREDIT, DSLIP
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	TypeCode    string // bank type code, e.g. ACH_DEBIT, WIRE_INCOMING
	Balance     *decimal.Decimal
	CheckNumber string
}

// Result is the parser output. A statement that yields no rows is not an
// error; SkippedRows and Warnings tell the caller what was dropped.
type Result struct {
	Rows        []RawRow
	SkippedRows int
	Warnings    []string

	// Optional statement-level values carried by structured payloads.
	BeginningBalance *decimal.Decimal
	EndingBalance    *decimal.Decimal
	StatementPeriod  string
}

// minPopulatedFields is the threshold below which a row is considered
// malformed and skipped.
const minPopulatedFields = 4

// tabWinThreshold is how many tabs the header line needs before the file is
// treated as tab-delimited rather than comma-delimited.
const tabWinThreshold = 5

// DetectDelimiter inspects the header line and picks tab or comma.
func DetectDelimiter(header string) rune {
	if strings.Count(header, "\t") >= tabWinThreshold {
		return '\t'
	}
	return ','
}

// column roles in a statement export.
const (
	colDetail = iota
	colDate
	colDescription
	colAmount
	colType
	colBalance
	colCheck
	colCount
)

// defaultLayout is the positional fallback when header names are not
// recognizable.
var defaultLayout = [colCount]int{
	colDetail:      0,
	colDate:        1,
	colDescription: 2,
	colAmount:      3,
	colType:        4,
	colBalance:     5,
	colCheck:       6,
}

// detectLayout maps header cells to column roles by name. Falls back to the
// default positional layout when fewer than four roles are recognized.
func detectLayout(header []string) [colCount]int {
	layout := [colCount]int{}
	for i := range layout {
		layout[i] = -1
	}
	recognized := 0
	assign := func(role, idx int) {
		if layout[role] == -1 {
			layout[role] = idx
			recognized++
		}
	}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case strings.Contains(name, "detail") || strings.Contains(name, "status"):
			assign(colDetail, i)
		case strings.Contains(name, "date"):
			assign(colDate, i)
		case strings.Contains(name, "description") || strings.Contains(name, "memo"):
			assign(colDescription, i)
		case strings.Contains(name, "amount"):
			assign(colAmount, i)
		case strings.Contains(name, "balance"):
			assign(colBalance, i)
		case strings.Contains(name, "type"):
			assign(colType, i)
		case strings.Contains(name, "check") || strings.Contains(name, "slip"):
			assign(colCheck, i)
		}
	}
	if recognized < minPopulatedFields {
		return defaultLayout
	}
	return layout
}

// Parse reads a delimited export. Empty input yields an empty result, not an
// error; individual bad rows are skipped and counted, never fatal.
func Parse(input string) (*Result, error) {
	res := &Result{}

	input = strings.TrimLeft(input, "\uFEFF\r\n ")
	if strings.TrimSpace(input) == "" {
		return res, nil
	}

	headerLine := input
	if idx := strings.IndexByte(input, '\n'); idx != -1 {
		headerLine = input[:idx]
	}
	delim := DetectDelimiter(headerLine)

	r := csv.NewReader(strings.NewReader(input))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parser.Parse: read header: %w", err)
	}
	layout := detectLayout(header)

	sourceIndex := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.SkippedRows++
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %v", sourceIndex, err))
			sourceIndex++
			continue
		}

		row, ok := buildRow(record, layout, sourceIndex, res)
		if ok {
			res.Rows = append(res.Rows, row)
		}
		sourceIndex++
	}
	return res, nil
}

func buildRow(record []string, layout [colCount]int, sourceIndex int, res *Result) (RawRow, bool) {
	populated := 0
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			populated++
		}
	}
	if populated < minPopulatedFields {
		res.SkippedRows++
		return RawRow{}, false
	}

	field := func(role int) string {
		idx := layout[role]
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	date, err := parseDate(field(colDate))
	if err != nil {
		res.SkippedRows++
		res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: bad date %q", sourceIndex, field(colDate)))
		return RawRow{}, false
	}
	amount, err := parseAmount(field(colAmount))
	if err != nil {
		res.SkippedRows++
		res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: bad amount %q", sourceIndex, field(colAmount)))
		return RawRow{}, false
	}

	row := RawRow{
		SourceIndex: sourceIndex,
		Detail:      strings.ToUpper(field(colDetail)),
		Date:        date,
		Description: field(colDescription),
		Amount:      amount,
		TypeCode:    strings.ToUpper(field(colType)),
		CheckNumber: field(colCheck),
	}
	if balStr := field(colBalance); balStr != "" {
		if bal, err := parseAmount(balStr); err == nil {
			row.Balance = &bal
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: bad balance %q", sourceIndex, balStr))
		}
	}
	return row, true
}

var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAmount accepts bank-export money formats: optional $, thousands
// commas, and parentheses for negatives.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
