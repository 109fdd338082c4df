package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseStructured decodes a pre-structured payload: either a bare JSON array
// of transaction-like records, or an object carrying a "transactions" array
// plus optional statement-level balances. The payload may come from a manual
// upload or the PDF extraction collaborator; either way it is untrusted and
// validated row by row with the same skip-don't-abort policy as delimited
// input.
func ParseStructured(raw []byte) (*Result, error) {
	res := &Result{}
	if len(raw) == 0 {
		return res, nil
	}

	var records []map[string]any

	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("parser.ParseStructured: decode array: %w", err)
		}
	case strings.HasPrefix(trimmed, "{"):
		var envelope map[string]any
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("parser.ParseStructured: decode object: %w", err)
		}
		txAny, ok := envelope["transactions"]
		if !ok {
			return nil, fmt.Errorf("parser.ParseStructured: missing 'transactions' key")
		}
		txSlice, ok := txAny.([]any)
		if !ok {
			return nil, fmt.Errorf("parser.ParseStructured: 'transactions' is %T, want array", txAny)
		}
		for i, item := range txSlice {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("parser.ParseStructured: element %d is %T, want object", i, item)
			}
			records = append(records, obj)
		}
		res.BeginningBalance = optionalMoney(envelope, "beginning_balance")
		res.EndingBalance = optionalMoney(envelope, "ending_balance")
		if period, err := getStringField(envelope, "statement_period", false); err == nil {
			res.StatementPeriod = period
		}
	default:
		return nil, fmt.Errorf("parser.ParseStructured: payload is neither array nor object")
	}

	for i, obj := range records {
		row, err := structuredRow(obj, i)
		if err != nil {
			res.SkippedRows++
			res.Warnings = append(res.Warnings, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func structuredRow(obj map[string]any, index int) (RawRow, error) {
	dateStr, err := getStringField(obj, "date", true)
	if err != nil {
		return RawRow{}, err
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return RawRow{}, err
	}
	desc, err := getStringField(obj, "description", true)
	if err != nil {
		return RawRow{}, err
	}
	amount, err := getMoneyField(obj, "amount")
	if err != nil {
		return RawRow{}, err
	}

	detail, _ := getStringField(obj, "detail", false)
	typeCode, _ := getStringField(obj, "type", false)
	check, _ := getStringField(obj, "check_number", false)

	row := RawRow{
		SourceIndex: index,
		Detail:      strings.ToUpper(detail),
		Date:        date,
		Description: desc,
		Amount:      amount,
		TypeCode:    strings.ToUpper(typeCode),
		CheckNumber: check,
		Balance:     optionalMoney(obj, "balance_after"),
	}
	return row, nil
}

func getStringField(m map[string]any, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	if required && strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("required field %q is empty", key)
	}
	return s, nil
}

// getMoneyField accepts either a JSON number or a money-formatted string.
func getMoneyField(m map[string]any, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("missing required field %q", key)
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val).Round(2), nil
	case string:
		return parseAmount(val)
	default:
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number or string", key, v)
	}
}

func optionalMoney(m map[string]any, key string) *decimal.Decimal {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case float64:
		d := decimal.NewFromFloat(val).Round(2)
		return &d
	case string:
		if d, err := parseAmount(val); err == nil {
			return &d
		}
	}
	return nil
}
