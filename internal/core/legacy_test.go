package core

import (
	"encoding/json"
	"testing"
)

func TestTileUnmarshalLegacyFields(t *testing.T) {
	raw := `{
		"id": "1700000000000",
		"name": "Legacy",
		"creditCardId": "42",
		"tabId": "not-a-number",
		"paymentAmount": "15,49",
		"budgetAmount": {"bad": true},
		"signupDate": "2024-01-15",
		"budgetHistory": {"2024-05": {"budget": "x", "actual": "12.00", "paidDate": "2024-05-03"}}
	}`

	var tile Tile
	if err := json.Unmarshal([]byte(raw), &tile); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if tile.ID != 1700000000000 {
		t.Errorf("ID = %d, want 1700000000000", tile.ID)
	}
	if tile.CreditCardID == nil || *tile.CreditCardID != 42 {
		t.Errorf("CreditCardID = %v, want 42", tile.CreditCardID)
	}
	if tile.TabID != nil {
		t.Errorf("TabID = %v, want absent", *tile.TabID)
	}
	if tile.PaymentAmount == nil || tile.PaymentAmount.Cents != 1549 {
		t.Errorf("PaymentAmount = %v, want 15.49", tile.PaymentAmount)
	}
	if tile.BudgetAmount != nil {
		t.Errorf("BudgetAmount = %v, want absent", tile.BudgetAmount)
	}
	if tile.Name != "Legacy" || tile.SignupDate.String() != "2024-01-15" {
		t.Errorf("plain fields lost: %+v", tile)
	}
	entry := tile.BudgetHistory["2024-05"]
	if entry.Budget.Cents != 0 || entry.Actual.Cents != 1200 || entry.PaidDate.String() != "2024-05-03" {
		t.Errorf("history entry = %+v", entry)
	}
}

func TestTileUnmarshalKeepsNumbers(t *testing.T) {
	var tile Tile
	if err := json.Unmarshal([]byte(`{"id":7,"name":"A","creditCardId":3,"paymentAmount":9.99}`), &tile); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if tile.ID != 7 || tile.CreditCardID == nil || *tile.CreditCardID != 3 || tile.PaymentAmount.Cents != 999 {
		t.Errorf("tile = %+v", tile)
	}

	b, err := json.Marshal(tile)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var again Tile
	if err := json.Unmarshal(b, &again); err != nil || again.ID != 7 || again.PaymentAmount.Cents != 999 {
		t.Errorf("re-decode = %+v (err=%v)", again, err)
	}
}

func TestTileUnmarshalRejectsNonObject(t *testing.T) {
	var tile Tile
	if err := json.Unmarshal([]byte(`"tile"`), &tile); err == nil {
		t.Error("expected an error for a non-object tile")
	}
}
