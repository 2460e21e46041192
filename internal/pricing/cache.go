package pricing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wealthtrack-dev/wealthtrack/internal/model"
)

// DefaultTTL is the freshness window for cached quotes. Tens of seconds
// bounds external-call volume without making displayed prices stale enough
// to matter.
const DefaultTTL = 30 * time.Second

// Cache wraps a Quoter with a short-lived per-symbol cache. Failed lookups
// are cached too, so a dead provider is hit at most once per window per
// symbol instead of on every ledger render.
type Cache struct {
	base Quoter
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote model.Quote
	miss  bool
	at    time.Time
}

// NewCache wraps base with a TTL cache. A non-positive ttl uses DefaultTTL.
func NewCache(base Quoter, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		base:    base,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Quote serves from cache within the TTL and falls through to the wrapped
// quoter otherwise. Provider failures surface as ErrUnavailable.
func (c *Cache) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if ok && c.now().Sub(e.at) < c.ttl {
		if e.miss {
			return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrUnavailable)
		}
		return e.quote, nil
	}

	q, err := c.base.Quote(ctx, symbol)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.entries[key] = cacheEntry{miss: true, at: c.now()}
		return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrUnavailable)
	}
	c.entries[key] = cacheEntry{quote: q, at: c.now()}
	return q, nil
}
