package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiledash/internal/core"
	"tiledash/internal/log"
	"tiledash/internal/quotes"
	"tiledash/internal/sheets/excel"
	"tiledash/internal/store"
)

var fixedNow = time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)

type stubQuotes []quotes.View

func (s stubQuotes) Views() []quotes.View { return s }

func newTestServer(t *testing.T, mutate ...func(*Deps)) (*Server, *store.Store) {
	t.Helper()
	st := store.New(core.EmptySnapshot())
	cfg := log.DefaultConfig()
	cfg.Handler = nil
	cfg.Output = io.Discard
	deps := Deps{
		Store:  st,
		Logger: log.New(cfg),
		Now:    func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&deps)
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv, st
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

const netflix = `{"name":"Netflix","paidSubscription":true,"paymentFrequency":"Monthly",
	"paymentAmount":15.49,"signupDate":"2024-01-15","budgetCategory":"streaming"}`

func TestHealthAndHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rr)["status"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	rr = do(t, srv, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "ready", body["status"])
	assert.EqualValues(t, 20, body["collections"].(map[string]any)["categories"])
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "route not found", decode[ErrorResponse](t, rr).Error)

	rr = do(t, srv, http.MethodPatch, "/api/tiles", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "method not allowed", decode[ErrorResponse](t, rr).Error)

	rr = do(t, srv, http.MethodPost, "/api/reports/upcoming.xlsx", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/reports/upcoming.csv", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "route not found", decode[ErrorResponse](t, rr).Error)

	rr = do(t, srv, http.MethodDelete, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func captureLogs(buf *bytes.Buffer) func(*Deps) {
	return func(d *Deps) {
		cfg := log.DefaultConfig()
		cfg.Handler = nil
		cfg.Output = buf
		d.Logger = log.New(cfg)
	}
}

func TestInternalErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	srv, st := newTestServer(t, captureLogs(&buf))
	st.SetOnChange(func(context.Context, string) error { return errors.New("disk full") })

	rr := do(t, srv, http.MethodPost, "/api/tiles", netflix)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal error", decode[ErrorResponse](t, rr).Error)
	assert.NotContains(t, rr.Body.String(), "disk full", "internal errors stay out of the response")

	logs := buf.String()
	assert.Contains(t, logs, `msg="Request failed"`)
	assert.Contains(t, logs, "disk full")
	assert.Contains(t, logs, "operation="+log.OpCreate)
	assert.Contains(t, logs, "request_id=")
}

func TestReportExportLogsWithExportComponent(t *testing.T) {
	var buf bytes.Buffer
	srv, _ := newTestServer(t, captureLogs(&buf))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/tiles", netflix).Code)

	rr := do(t, srv, http.MethodGet, "/api/reports/upcoming.xlsx", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var exported string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, `msg="Report exported"`) {
			exported = line
		}
	}
	require.NotEmpty(t, exported, buf.String())
	// The event field alone names export once; the rest comes from the
	// request logger the reports routes scope to the export component.
	assert.Greater(t, strings.Count(exported, "component=export"), 1, exported)
	assert.Contains(t, exported, "request_id=")
}

func TestTileLifecycle(t *testing.T) {
	srv, st := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/tiles", netflix)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[core.Tile](t, rr)
	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(1549), created.PaymentAmount.Cents)

	path := "/api/tiles/" + jsonID(created.ID)

	rr = do(t, srv, http.MethodPut, path+"/history/2024-05", `{"actual":14.99,"paidDate":"2024-05-15"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, srv, http.MethodPut, path, `{"name":"Netflix HD","paidSubscription":true,
		"paymentFrequency":"Monthly","paymentAmount":22.99,"signupDate":"2024-01-15"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[core.Tile](t, rr)
	assert.Equal(t, "Netflix HD", updated.Name)
	assert.Contains(t, updated.BudgetHistory, core.MonthKey("2024-05"), "history survives an update")

	rr = do(t, srv, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Netflix HD", decode[core.Tile](t, rr).Name)

	rr = do(t, srv, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, st.Tiles())

	rr = do(t, srv, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestCreateTile_Validation(t *testing.T) {
	srv, st := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"paidSubscription":true}`, "name"},
		{"bad frequency", `{"name":"x","paymentFrequency":"Weekly"}`, "paymentFrequency"},
		{"bad budget type", `{"name":"x","budgetType":"Luxury"}`, "budgetType"},
		{"bad url", `{"name":"x","url":"not a url"}`, "url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/tiles", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			resp := decode[ErrorResponse](t, rr)
			assert.Equal(t, "validation failed", resp.Error)
			assert.Contains(t, resp.Fields, tt.field)
		})
	}

	rr := do(t, srv, http.MethodPost, "/api/tiles", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/tiles", `{"name":"x","paymentAmount":-3}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Empty(t, st.Tiles())
}

func TestMoveTile(t *testing.T) {
	srv, _ := newTestServer(t)
	created := decode[core.Tile](t, do(t, srv, http.MethodPost, "/api/tiles", netflix))
	path := "/api/tiles/" + jsonID(created.ID) + "/move"

	rr := do(t, srv, http.MethodPost, path, `{"categoryId":"software","subcategory":"Security"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	moved := decode[core.Tile](t, rr)
	assert.Equal(t, "software", *moved.BudgetCategory)
	assert.Equal(t, "Security", *moved.BudgetSubcategory)

	rr = do(t, srv, http.MethodPost, path, `{"categoryId":"yachts"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodPost, path, `{"subcategory":"Security"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecordActual_BadMonth(t *testing.T) {
	srv, _ := newTestServer(t)
	created := decode[core.Tile](t, do(t, srv, http.MethodPost, "/api/tiles", netflix))

	rr := do(t, srv, http.MethodPut, "/api/tiles/"+jsonID(created.ID)+"/history/2024-13", `{"actual":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPut, "/api/tiles/42/history/2024-05", `{"actual":1}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/categories", `{"name":"Hobbies","icon":"🎨","subcategories":["Paint"]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "hobbies", decode[core.BudgetCategory](t, rr).ID)

	rr = do(t, srv, http.MethodPost, "/api/categories", `{"id":"hobbies","name":"Again"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodPut, "/api/categories/hobbies", `{"name":"Crafts","subcategories":["Paint","Clay"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Crafts", decode[core.BudgetCategory](t, rr).Name)

	rr = do(t, srv, http.MethodDelete, "/api/categories/hobbies", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodDelete, "/api/categories/hobbies", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	do(t, srv, http.MethodDelete, "/api/categories/housing", "")
	rr = do(t, srv, http.MethodPost, "/api/categories/reset", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.BudgetCategory](t, rr), 20)
}

func TestPaymentMethods(t *testing.T) {
	srv, _ := newTestServer(t)
	visa := `{"name":"Visa","methodType":"Credit Card","lastFour":"4242"}`

	rr := do(t, srv, http.MethodPost, "/api/payment-methods", visa)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	pm := decode[core.PaymentMethod](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/payment-methods", visa)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/payment-methods", `{"name":"Amex","methodType":"Credit Card"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "credit cards need the last four digits")

	rr = do(t, srv, http.MethodPost, "/api/payment-methods", `{"name":"Gold","methodType":"Barter"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPut, "/api/payment-methods/"+jsonID(pm.ID), `{"name":"Visa Gold","methodType":"Credit Card","lastFour":"4242"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Visa Gold", decode[core.PaymentMethod](t, rr).Name)

	rr = do(t, srv, http.MethodDelete, "/api/payment-methods/"+jsonID(pm.ID), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestTabsAndSettings(t *testing.T) {
	srv, st := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/home-tabs", `{"name":"Money","order":1}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	home := decode[core.HomePageTab](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/tabs", `{"name":"Bills","homePageTabId":`+jsonID(home.ID)+`}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	tab := decode[core.Tab](t, rr)

	rr = do(t, srv, http.MethodPut, "/api/tabs/"+jsonID(tab.ID), `{"name":"Monthly Bills"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Monthly Bills", st.Tabs()[0].Name)

	rr = do(t, srv, http.MethodDelete, "/api/tabs/99", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodPut, "/api/settings", `{"dueSoonDays":3,"stockSymbols":["aapl"," voo "]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	settings := decode[core.Settings](t, rr)
	assert.Equal(t, 3, settings.DueSoonDays)
	assert.Equal(t, []string{"AAPL", "VOO"}, settings.StockSymbols)
	assert.Equal(t, "USD", settings.Currency)

	rr = do(t, srv, http.MethodPut, "/api/settings", `{"dueSoonDays":0}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReports(t *testing.T) {
	srv, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/tiles", netflix).Code)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/tiles",
		`{"name":"Domain","paidSubscription":true,"paymentFrequency":"Annually","annualType":"Subscriber",
		"paymentAmount":12,"signupDate":"2023-06-02"}`).Code)

	t.Run("upcoming", func(t *testing.T) {
		rr := do(t, srv, http.MethodGet, "/api/upcoming", "")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[UpcomingResponse](t, rr)
		assert.Equal(t, core.MonthKey("2024-05"), resp.Month)
		require.Len(t, resp.Payments, 1)
		assert.Equal(t, "Netflix", resp.Payments[0].Tile.Name)
		assert.Equal(t, int64(1549), resp.Total.Cents)

		resp = decode[UpcomingResponse](t, do(t, srv, http.MethodGet, "/api/upcoming?offset=1", ""))
		assert.Equal(t, core.MonthKey("2024-06"), resp.Month)
		require.Len(t, resp.Payments, 1)
		assert.Equal(t, "Domain", resp.Payments[0].Tile.Name)

		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/upcoming?offset=soon", "").Code)
	})

	t.Run("due soon", func(t *testing.T) {
		resp := decode[DueSoonResponse](t, do(t, srv, http.MethodGet, "/api/due-soon", ""))
		assert.Equal(t, 5, resp.Days)
		require.Len(t, resp.Payments, 1)
		assert.Equal(t, 5, resp.Payments[0].DaysUntil)

		resp = decode[DueSoonResponse](t, do(t, srv, http.MethodGet, "/api/due-soon?days=4", ""))
		assert.Empty(t, resp.Payments)
	})

	t.Run("spend", func(t *testing.T) {
		rr := do(t, srv, http.MethodGet, "/api/spend", "")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[SpendResponse](t, rr)
		require.Len(t, resp.Groups, 2)
		assert.Equal(t, "streaming", resp.Groups[0].Key)
		assert.Equal(t, "Streaming", resp.Labels["streaming"])
		assert.Equal(t, int64(1549+100), resp.Total.Monthly.Cents)

		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/spend?by=color", "").Code)
	})

	t.Run("reconcile", func(t *testing.T) {
		rr := do(t, srv, http.MethodGet, "/api/reconcile?month=2024-04", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "2024-04", decode[map[string]any](t, rr)["month"])

		rr = do(t, srv, http.MethodGet, "/api/reconcile?month=April", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decode[ErrorResponse](t, rr).Fields, "month")
	})

	t.Run("xlsx", func(t *testing.T) {
		rr := do(t, srv, http.MethodGet, "/api/reports/upcoming.xlsx", "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Contains(t, rr.Header().Get("Content-Disposition"), "upcoming-2024-05-10.xlsx")

		grid, err := excel.ReadGrid(bytes.NewReader(rr.Body.Bytes()))
		require.NoError(t, err)
		require.Len(t, grid, 3)
		assert.Equal(t, "Netflix", grid[1][0])

		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/reports/ledger.xlsx", "").Code)
	})
}

func TestBackupRoundTrip(t *testing.T) {
	srv, st := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/tiles", netflix).Code)

	rr := do(t, srv, http.MethodGet, "/api/backup", "")
	require.Equal(t, http.StatusOK, rr.Code)
	exported := rr.Body.String()
	assert.Contains(t, exported, `"creditCards"`)

	other, other2 := newTestServer(t)
	rr = do(t, other, http.MethodPost, "/api/backup", exported)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.EqualValues(t, 1, decode[map[string]any](t, rr)["tiles"])
	assert.Equal(t, st.Tiles(), other2.Tiles())

	rr = do(t, other, http.MethodPost, "/api/backup", `[1,2,3]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, other, http.MethodPost, "/api/backup", `{"version":7}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, other2.Tiles(), 1, "failed import leaves the store untouched")
}

func TestQuotes(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/quotes", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	q := quotes.NewQuote("AAPL", 189.5, 187, "USD", fixedNow)
	srv, _ = newTestServer(t, func(d *Deps) {
		d.Quotes = stubQuotes{
			{Symbol: "AAPL", Status: "ok", Quote: &q},
			{Symbol: "VOO", Status: quotes.StatusLoading},
		}
	})
	views := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/quotes", ""))
	require.Len(t, views, 2)
	assert.Equal(t, "ok", views[0]["status"])
	assert.Equal(t, "loading", views[1]["status"])
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, func(d *Deps) { d.RateLimitPerMinute = 2 })

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", decode[ErrorResponse](t, rr).Error)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrDuplicatePaymentMethod, http.StatusConflict},
		{core.ErrInvalidLastFour, http.StatusBadRequest},
		{badRequest{io.ErrUnexpectedEOF}, http.StatusBadRequest},
		{io.ErrClosedPipe, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
