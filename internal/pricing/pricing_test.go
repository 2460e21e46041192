package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestStatic_Quote(t *testing.T) {
	q := Static{"AAPL": dec("175.50")}

	got, err := q.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.True(t, got.Price.Equal(dec("175.50")))

	_, err = q.Quote(context.Background(), "MSFT")
	require.ErrorIs(t, err, ErrUnavailable)
}

// countingQuoter records how many times the backing provider was hit.
type countingQuoter struct {
	Static
	calls int
}

func (c *countingQuoter) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	c.calls++
	return c.Static.Quote(ctx, symbol)
}

func TestCache_ServesFreshHitsWithoutRefetch(t *testing.T) {
	base := &countingQuoter{Static: Static{"AAPL": dec("175")}}
	c := NewCache(base, 30*time.Second)

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		q, err := c.Quote(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.True(t, q.Price.Equal(dec("175")))
	}
	assert.Equal(t, 1, base.calls)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	base := &countingQuoter{Static: Static{"AAPL": dec("175")}}
	c := NewCache(base, 30*time.Second)

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	now = now.Add(31 * time.Second)
	_, err = c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 2, base.calls)
}

func TestCache_CachesMisses(t *testing.T) {
	base := &countingQuoter{Static: Static{}}
	c := NewCache(base, 30*time.Second)

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := c.Quote(context.Background(), "GONE")
		require.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, 1, base.calls, "a dead symbol is retried at most once per window")
}

func TestCache_KeyIgnoresCase(t *testing.T) {
	base := &countingQuoter{Static: Static{"AAPL": dec("175")}}
	c := NewCache(base, 30*time.Second)

	_, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = c.Quote(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, 1, base.calls)
}

func TestHTTPQuoter_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":175.50}`))
	}))
	defer srv.Close()

	q, err := NewHTTPQuoter(srv.URL).Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.True(t, q.Price.Equal(dec("175.50")))
	assert.False(t, q.Asof.IsZero())
}

func TestHTTPQuoter_ErrorsWrapUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPQuoter(srv.URL).Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)

	// Unreachable endpoint degrades the same way.
	srv.Close()
	_, err = NewHTTPQuoter(srv.URL).Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)
}
