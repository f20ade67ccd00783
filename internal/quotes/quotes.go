// Package quotes fetches display-only stock prices. Lookups are best effort:
// a symbol without a quote is shown as loading until a refresh succeeds.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultYahooBaseURL is the v8 chart endpoint; the symbol is appended.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

var (
	ErrNoData        = errors.New("no quote data")
	ErrEmptySymbol   = errors.New("empty symbol")
	ErrUnexpectedAPI = errors.New("unexpected quote response")
)

// Quote is the latest price of one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Currency      string    `json:"currency,omitempty"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// Provider looks up a single symbol.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// NewQuote derives change and percent change from price and the previous
// close, rounded to cents and hundredths of a percent.
func NewQuote(symbol string, price, previousClose float64, currency string, at time.Time) Quote {
	p := decimal.NewFromFloat(price)
	q := Quote{
		Symbol:    strings.ToUpper(symbol),
		Price:     p.Round(2).InexactFloat64(),
		Currency:  currency,
		FetchedAt: at,
	}
	if previousClose > 0 {
		prev := decimal.NewFromFloat(previousClose)
		change := p.Sub(prev)
		q.Change = change.Round(2).InexactFloat64()
		q.ChangePercent = change.Div(prev).Shift(2).Round(2).InexactFloat64()
	}
	return q
}

// YahooProvider reads the public chart API. Timeouts come from the injected
// client's transport.
type YahooProvider struct {
	BaseURL string
	Client  *http.Client
	now     func() time.Time
}

var _ Provider = (*YahooProvider)(nil)

func NewYahooProvider(baseURL string, client *http.Client) *YahooProvider {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &YahooProvider{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, now: time.Now}
}

func (y *YahooProvider) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches symbol. A non-200 status, an API error or a zero price is an
// error.
func (y *YahooProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrEmptySymbol
	}

	u := fmt.Sprintf("%s/%s?interval=1d&range=1d", y.BaseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tiledash/1.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: %s returned %d", ErrUnexpectedAPI, symbol, resp.StatusCode)
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("decode %s: %w", symbol, err)
	}
	if body.Chart.Error != nil {
		return Quote{}, fmt.Errorf("%w: %s: %s", ErrUnexpectedAPI, body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}

	meta := body.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return Quote{}, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}
	prev := meta.PreviousClose
	if prev <= 0 {
		prev = meta.ChartPreviousClose
	}
	return NewQuote(symbol, meta.RegularMarketPrice, prev, meta.Currency, y.now().UTC()), nil
}
