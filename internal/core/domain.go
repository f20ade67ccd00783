package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Monthly  Frequency = "Monthly"
	Annually Frequency = "Annually"
)

const (
	Subscriber AnnualType = "Subscriber"
	Fiscal     AnnualType = "Fiscal"
	Calendar   AnnualType = "Calendar"
)

const (
	Bill         BudgetType = "Bill"
	Subscription BudgetType = "Subscription"
	Expense      BudgetType = "Expense"
	Savings      BudgetType = "Savings"
)

const (
	CreditCard MethodType = "Credit Card"
	ACH        MethodType = "ACH"
	Check      MethodType = "Check"
	Cash       MethodType = "Cash"
)

// MaxNameLength bounds tile, category and payment method names.
const MaxNameLength = 200

type (
	Frequency  string
	AnnualType string
	BudgetType string
	MethodType string

	Money struct {
		Cents int64
	}

	// BudgetHistoryEntry is one month of the budget-vs-actual ledger.
	BudgetHistoryEntry struct {
		Budget   Money  `json:"budget"`
		Actual   Money  `json:"actual"`
		PaidDate Date   `json:"paidDate"`
		Notes    string `json:"notes,omitempty"`
	}

	// Tile is one trackable item: an app shortcut, a recurring payment, or both.
	// Pointer fields are optional and may be absent on legacy records.
	Tile struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		URL         string `json:"url,omitempty"`
		Logo        string `json:"logo,omitempty"`

		// Legacy tab-based classification, superseded by BudgetCategory.
		Category    string `json:"category,omitempty"`
		Subcategory string `json:"subcategory,omitempty"`

		PaidSubscription bool       `json:"paidSubscription"`
		PaymentFrequency Frequency  `json:"paymentFrequency,omitempty"`
		AnnualType       AnnualType `json:"annualType,omitempty"`
		PaymentAmount    *Money     `json:"paymentAmount,omitempty"`
		SignupDate       Date       `json:"signupDate"`
		LastPaymentDate  Date       `json:"lastPaymentDate"`
		CreditCardID     *int64     `json:"creditCardId,omitempty"`

		IsWebLinkOnly     bool                            `json:"isWebLinkOnly"`
		BudgetType        BudgetType                      `json:"budgetType,omitempty"`
		BudgetAmount      *Money                          `json:"budgetAmount,omitempty"`
		BudgetPeriod      Frequency                       `json:"budgetPeriod,omitempty"`
		BudgetHistory     map[MonthKey]BudgetHistoryEntry `json:"budgetHistory,omitempty"`
		BudgetCategory    *string                         `json:"budgetCategory,omitempty"`
		BudgetSubcategory *string                         `json:"budgetSubcategory,omitempty"`

		TabID *int64 `json:"tabId,omitempty"`
	}

	BudgetCategory struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		Icon          string   `json:"icon"`
		Subcategories []string `json:"subcategories"`
	}

	// PaymentMethod is stored under the historical "creditCards" key.
	PaymentMethod struct {
		ID          int64      `json:"id"`
		Name        string     `json:"name"`
		MethodType  MethodType `json:"methodType"`
		LastFour    string     `json:"lastFour,omitempty"`
		BankName    string     `json:"bankName,omitempty"`
		AccountType string     `json:"accountType,omitempty"`
	}

	Tab struct {
		ID            int64    `json:"id"`
		Name          string   `json:"name"`
		HomePageTabID *int64   `json:"homePageTabId,omitempty"`
		StockTicker   bool     `json:"stockTicker"`
		Subcategories []string `json:"subcategories,omitempty"`
	}

	HomePageTab struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Order int    `json:"order"`
	}

	// Settings are the auxiliary values carried alongside the collections.
	Settings struct {
		DueSoonDays  int      `json:"dueSoonDays"`
		StockSymbols []string `json:"stockSymbols"`
		Currency     string   `json:"currency"`
	}
)

var (
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidAnnualType  = errors.New("invalid annual type")
	ErrInvalidBudgetType  = errors.New("invalid budget type")
	ErrInvalidMethodType  = errors.New("invalid payment method type")
	ErrInvalidLastFour    = errors.New("last four must be 4 digits")
	ErrMissingBankName    = errors.New("missing bank name")
	ErrMissingAccountType = errors.New("missing account type")
	ErrEmptyCategoryID    = errors.New("empty category id")
)

// DefaultSettings returns the settings used on first run.
func DefaultSettings() Settings {
	return Settings{DueSoonDays: 5, StockSymbols: []string{}, Currency: "USD"}
}

func (f Frequency) Valid() bool {
	return f == Monthly || f == Annually
}

func (a AnnualType) Valid() bool {
	return a == Subscriber || a == Fiscal || a == Calendar
}

func (b BudgetType) Valid() bool {
	switch b {
	case Bill, Subscription, Expense, Savings:
		return true
	}
	return false
}

func (m MethodType) Valid() bool {
	switch m {
	case CreditCard, ACH, Check, Cash:
		return true
	}
	return false
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Validate checks a tile at the edge. Empty optional enums are allowed.
func (t Tile) Validate() error {
	if err := validateName(t.Name); err != nil {
		return err
	}
	if t.PaymentFrequency != "" && !t.PaymentFrequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.PaymentFrequency)
	}
	if t.BudgetPeriod != "" && !t.BudgetPeriod.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.BudgetPeriod)
	}
	if t.AnnualType != "" && !t.AnnualType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAnnualType, t.AnnualType)
	}
	if t.BudgetType != "" && !t.BudgetType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBudgetType, t.BudgetType)
	}
	if t.PaymentAmount != nil && t.PaymentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if t.BudgetAmount != nil && t.BudgetAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	for k := range t.BudgetHistory {
		if _, err := ParseMonthKey(string(k)); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the type-conditional fields of a payment method.
func (p PaymentMethod) Validate() error {
	if err := validateName(p.Name); err != nil {
		return err
	}
	if !p.MethodType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethodType, p.MethodType)
	}
	if p.MethodType == CreditCard || p.MethodType == ACH {
		if !isFourDigits(p.LastFour) {
			return ErrInvalidLastFour
		}
	}
	if (p.MethodType == ACH || p.MethodType == Check) && strings.TrimSpace(p.BankName) == "" {
		return ErrMissingBankName
	}
	if p.MethodType == ACH && strings.TrimSpace(p.AccountType) == "" {
		return ErrMissingAccountType
	}
	return nil
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyCategoryID
	}
	return validateName(c.Name)
}

// HasSubcategory reports whether name is one of the category's subcategories.
func (c BudgetCategory) HasSubcategory(name string) bool {
	for _, s := range c.Subcategories {
		if s == name {
			return true
		}
	}
	return false
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
