package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"tiledash/internal/core"
	"tiledash/internal/middleware/trace"
	"tiledash/internal/services"
)

// maxBodyBytes bounds request bodies. Backups get a larger allowance.
const (
	maxBodyBytes   = 1 << 20
	maxBackupBytes = 32 << 20
)

// newValidator returns a validator with the dashboard's custom rules.
// Field names in errors use the json tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("annual_type", validateAnnualType)
	_ = v.RegisterValidation("budget_type", validateBudgetType)
	_ = v.RegisterValidation("method_type", validateMethodType)
	_ = v.RegisterValidation("month_key", validateMonthKey)
	_ = v.RegisterValidation("group_by", validateGroupBy)
	return v
}

func validateFrequency(fl validator.FieldLevel) bool {
	return core.Frequency(fl.Field().String()).Valid()
}

func validateAnnualType(fl validator.FieldLevel) bool {
	return core.AnnualType(fl.Field().String()).Valid()
}

func validateBudgetType(fl validator.FieldLevel) bool {
	return core.BudgetType(fl.Field().String()).Valid()
}

func validateMethodType(fl validator.FieldLevel) bool {
	return core.MethodType(fl.Field().String()).Valid()
}

func validateMonthKey(fl validator.FieldLevel) bool {
	_, err := core.ParseMonthKey(fl.Field().String())
	return err == nil
}

func validateGroupBy(fl validator.FieldLevel) bool {
	_, err := services.ParseGroupBy(fl.Field().String())
	return err == nil
}

// validationMessages flattens validator errors into field -> rule.
func validationMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[fe.Field()] = msg
	}
	return out
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest{errors.New("request body is empty")}
		}
		return badRequest{fmt.Errorf("invalid JSON: %w", err)}
	}
	return s.validate.Struct(dst)
}

// pathID parses a numeric route variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest{fmt.Errorf("invalid %s %q", name, raw)}
	}
	return id, nil
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest{fmt.Errorf("invalid %s %q", name, raw)}
	}
	return n, nil
}

// ReportQuery carries the query parameters shared by the report endpoints.
type ReportQuery struct {
	Offset int    `json:"offset"`
	Days   int    `json:"days" validate:"min=0,max=366"`
	By     string `json:"by" validate:"omitempty,group_by"`
	Month  string `json:"month" validate:"omitempty,month_key"`
}

// parseReportQuery reads offset, days, by and month from the query string.
func (s *Server) parseReportQuery(r *http.Request, defaultDays int) (ReportQuery, error) {
	var q ReportQuery
	var err error
	if q.Offset, err = queryInt(r, "offset", 0); err != nil {
		return q, err
	}
	if q.Days, err = queryInt(r, "days", defaultDays); err != nil {
		return q, err
	}
	q.By = strings.TrimSpace(r.URL.Query().Get("by"))
	q.Month = strings.TrimSpace(r.URL.Query().Get("month"))
	return q, s.validate.Struct(q)
}

// TileRequest is the writable part of a tile.
type TileRequest struct {
	Name              string      `json:"name" validate:"required,max=200"`
	Description       string      `json:"description" validate:"max=1000"`
	URL               string      `json:"url" validate:"omitempty,url"`
	Logo              string      `json:"logo" validate:"max=2048"`
	Category          string      `json:"category" validate:"max=200"`
	Subcategory       string      `json:"subcategory" validate:"max=200"`
	PaidSubscription  bool        `json:"paidSubscription"`
	PaymentFrequency  string      `json:"paymentFrequency" validate:"omitempty,frequency"`
	AnnualType        string      `json:"annualType" validate:"omitempty,annual_type"`
	PaymentAmount     *core.Money `json:"paymentAmount"`
	SignupDate        core.Date   `json:"signupDate"`
	LastPaymentDate   core.Date   `json:"lastPaymentDate"`
	CreditCardID      *int64      `json:"creditCardId"`
	IsWebLinkOnly     bool        `json:"isWebLinkOnly"`
	BudgetType        string      `json:"budgetType" validate:"omitempty,budget_type"`
	BudgetAmount      *core.Money `json:"budgetAmount"`
	BudgetPeriod      string      `json:"budgetPeriod" validate:"omitempty,frequency"`
	BudgetCategory    *string     `json:"budgetCategory" validate:"omitempty,max=200"`
	BudgetSubcategory *string     `json:"budgetSubcategory" validate:"omitempty,max=200"`
	TabID             *int64      `json:"tabId"`
}

func (t TileRequest) toTile() core.Tile {
	return core.Tile{
		Name:              strings.TrimSpace(t.Name),
		Description:       t.Description,
		URL:               t.URL,
		Logo:              t.Logo,
		Category:          t.Category,
		Subcategory:       t.Subcategory,
		PaidSubscription:  t.PaidSubscription,
		PaymentFrequency:  core.Frequency(t.PaymentFrequency),
		AnnualType:        core.AnnualType(t.AnnualType),
		PaymentAmount:     t.PaymentAmount,
		SignupDate:        t.SignupDate,
		LastPaymentDate:   t.LastPaymentDate,
		CreditCardID:      t.CreditCardID,
		IsWebLinkOnly:     t.IsWebLinkOnly,
		BudgetType:        core.BudgetType(t.BudgetType),
		BudgetAmount:      t.BudgetAmount,
		BudgetPeriod:      core.Frequency(t.BudgetPeriod),
		BudgetCategory:    t.BudgetCategory,
		BudgetSubcategory: t.BudgetSubcategory,
		TabID:             t.TabID,
	}
}

// MoveRequest re-categorizes a tile. An empty category clears it.
type MoveRequest struct {
	CategoryID  string `json:"categoryId" validate:"max=200"`
	Subcategory string `json:"subcategory" validate:"max=200,excluded_without=CategoryID"`
}

// ActualRequest records the actual spend of one month.
type ActualRequest struct {
	Actual   core.Money `json:"actual"`
	PaidDate core.Date  `json:"paidDate"`
	Notes    string     `json:"notes" validate:"max=1000"`
}

type CategoryRequest struct {
	ID            string   `json:"id" validate:"omitempty,max=64"`
	Name          string   `json:"name" validate:"required,max=200"`
	Icon          string   `json:"icon" validate:"max=64"`
	Subcategories []string `json:"subcategories" validate:"dive,required,max=200"`
}

type PaymentMethodRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	MethodType  string `json:"methodType" validate:"required,method_type"`
	LastFour    string `json:"lastFour" validate:"omitempty,len=4,numeric"`
	BankName    string `json:"bankName" validate:"max=200"`
	AccountType string `json:"accountType" validate:"max=64"`
}

func (p PaymentMethodRequest) toPaymentMethod() core.PaymentMethod {
	return core.PaymentMethod{
		Name:        strings.TrimSpace(p.Name),
		MethodType:  core.MethodType(p.MethodType),
		LastFour:    p.LastFour,
		BankName:    p.BankName,
		AccountType: p.AccountType,
	}
}

type TabRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	HomePageTabID *int64   `json:"homePageTabId"`
	StockTicker   bool     `json:"stockTicker"`
	Subcategories []string `json:"subcategories" validate:"dive,required,max=200"`
}

type HomePageTabRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Order int    `json:"order" validate:"min=0"`
}

type SettingsRequest struct {
	DueSoonDays  int      `json:"dueSoonDays" validate:"min=1,max=366"`
	StockSymbols []string `json:"stockSymbols" validate:"max=256,dive,required,max=16"`
	Currency     string   `json:"currency" validate:"omitempty,iso4217"`
}
