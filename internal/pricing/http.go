package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

// HTTPQuoter fetches quotes from a JSON price endpoint:
//
//	GET <base>/quote?symbol=VTI  ->  {"symbol":"VTI","price":287.31}
//
// The endpoint is whatever the user points pricing.base_url at; no broker
// API specifics live here.
type HTTPQuoter struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPQuoter creates an HTTPQuoter with a bounded request timeout.
func NewHTTPQuoter(baseURL string) *HTTPQuoter {
	return &HTTPQuoter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Quote performs the HTTP lookup. Any transport or decode failure wraps
// ErrUnavailable so callers can degrade uniformly.
func (h *HTTPQuoter) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	addr := h.BaseURL + "/quote?" + url.Values{"symbol": {symbol}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrUnavailable)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("quote %s: %s: %w", symbol, resp.Status, ErrUnavailable)
	}

	// json.Number keeps the price string-exact for decimal parsing.
	var body struct {
		Symbol string      `json:"symbol"`
		Price  json.Number `json:"price"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrUnavailable)
	}

	price, err := decimal.NewFromString(body.Price.String())
	if err != nil || !price.IsPositive() {
		return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrUnavailable)
	}

	return model.Quote{Symbol: symbol, Price: price, Asof: time.Now()}, nil
}
