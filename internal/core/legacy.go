package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Legacy records may carry ids and amounts as strings, or junk where a number
// belongs. Decoding of stored tiles is total: a numeric string is accepted and
// anything else leaves the field absent, like Date.

// UnmarshalJSON decodes a tile, tolerating string or malformed ids and amounts.
func (t *Tile) UnmarshalJSON(b []byte) error {
	type plain Tile
	aux := struct {
		*plain
		ID            json.RawMessage `json:"id"`
		CreditCardID  json.RawMessage `json:"creditCardId"`
		TabID         json.RawMessage `json:"tabId"`
		PaymentAmount json.RawMessage `json:"paymentAmount"`
		BudgetAmount  json.RawMessage `json:"budgetAmount"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	t.ID, _ = lenientInt64(aux.ID)
	t.CreditCardID = lenientInt64Ptr(aux.CreditCardID)
	t.TabID = lenientInt64Ptr(aux.TabID)
	t.PaymentAmount = lenientMoneyPtr(aux.PaymentAmount)
	t.BudgetAmount = lenientMoneyPtr(aux.BudgetAmount)
	return nil
}

// UnmarshalJSON decodes a history entry; malformed amounts read as zero.
func (e *BudgetHistoryEntry) UnmarshalJSON(b []byte) error {
	type plain BudgetHistoryEntry
	aux := struct {
		*plain
		Budget json.RawMessage `json:"budget"`
		Actual json.RawMessage `json:"actual"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	e.Budget, e.Actual = Money{}, Money{}
	if m := lenientMoneyPtr(aux.Budget); m != nil {
		e.Budget = *m
	}
	if m := lenientMoneyPtr(aux.Actual); m != nil {
		e.Actual = *m
	}
	return nil
}

func absent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || string(raw) == "null"
}

// lenientInt64 reads a JSON integer or a string holding one.
func lenientInt64(raw json.RawMessage) (int64, bool) {
	if absent(raw) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if v, err := n.Int64(); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(string(n), 64); err == nil && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}

func lenientInt64Ptr(raw json.RawMessage) *int64 {
	v, ok := lenientInt64(raw)
	if !ok {
		return nil
	}
	return &v
}

func lenientMoneyPtr(raw json.RawMessage) *Money {
	if absent(raw) {
		return nil
	}
	var m Money
	if err := m.UnmarshalJSON(raw); err != nil {
		return nil
	}
	return &m
}
