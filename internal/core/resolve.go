package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Uncategorized is the group key for tiles without a resolvable grouping.
const Uncategorized = "uncategorized"

// Field resolution for legacy records. Newer budget fields always win and the
// older payment fields are the fallback.

// Tracked reports whether the tile takes part in budget tracking at all.
func Tracked(t Tile) bool {
	return !t.IsWebLinkOnly
}

// ResolveAmount returns budgetAmount, falling back to paymentAmount.
func ResolveAmount(t Tile) (Money, bool) {
	if t.BudgetAmount != nil {
		return *t.BudgetAmount, true
	}
	if t.PaymentAmount != nil {
		return *t.PaymentAmount, true
	}
	return Money{}, false
}

// ResolveCadence returns budgetPeriod, falling back to paymentFrequency.
// Unknown values do not resolve.
func ResolveCadence(t Tile) (Frequency, bool) {
	if t.BudgetPeriod.Valid() {
		return t.BudgetPeriod, true
	}
	if t.BudgetPeriod == "" && t.PaymentFrequency.Valid() {
		return t.PaymentFrequency, true
	}
	return "", false
}

// ResolveCategory returns the budget category id, then the legacy category.
func ResolveCategory(t Tile) string {
	if t.BudgetCategory != nil && strings.TrimSpace(*t.BudgetCategory) != "" {
		return *t.BudgetCategory
	}
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return Uncategorized
}

// ResolveSubcategory returns the budget subcategory, then the legacy one.
func ResolveSubcategory(t Tile) string {
	if t.BudgetSubcategory != nil && strings.TrimSpace(*t.BudgetSubcategory) != "" {
		return *t.BudgetSubcategory
	}
	if s := strings.TrimSpace(t.Subcategory); s != "" {
		return s
	}
	return Uncategorized
}

// ResolvePaymentMethod returns the payment method id as a string key.
func ResolvePaymentMethod(t Tile) string {
	if t.CreditCardID != nil {
		return strconv.FormatInt(*t.CreditCardID, 10)
	}
	return Uncategorized
}

// MonthlyEquivalent is the exact per-month value of amount paid at cadence f.
func MonthlyEquivalent(amount Money, f Frequency) decimal.Decimal {
	if f == Annually {
		return amount.Decimal().Div(decimal.NewFromInt(12))
	}
	return amount.Decimal()
}

// AnnualEquivalent is the exact per-year value of amount paid at cadence f.
func AnnualEquivalent(amount Money, f Frequency) decimal.Decimal {
	if f == Monthly {
		return amount.Decimal().Mul(decimal.NewFromInt(12))
	}
	return amount.Decimal()
}
