// Package inventory keeps the newest-first list of bags shown by the console.
package inventory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ariyeh/bagtag/pkg/models"
)

// Fetcher loads the full inventory from the server.
type Fetcher interface {
	ListBags(ctx context.Context) ([]models.InventoryRow, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]models.InventoryRow, error)

func (f FetcherFunc) ListBags(ctx context.Context) ([]models.InventoryRow, error) { return f(ctx) }

// Cache is a thread-safe, bounded, newest-first inventory. Prepend evicts the
// oldest rows once MaxRows is reached; Replace installs the server's list as is.
// Whichever of Refresh and Prepend finishes last determines the contents.
type Cache struct {
	mu      sync.RWMutex
	rows    []models.InventoryRow
	maxRows int
	loading bool
	lastErr error
	logger  *slog.Logger
}

// NewCache creates an empty cache. A nil cfg uses DefaultConfig.
func NewCache(cfg *Config, logger *slog.Logger) *Cache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	maxRows := cfg.MaxRows
	if maxRows < 1 {
		maxRows = DefaultMaxRows
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{maxRows: maxRows, logger: logger}
}

// MaxRows returns the prepend cap.
func (c *Cache) MaxRows() int { return c.maxRows }

// Prepend inserts row at the front and drops the oldest rows beyond the cap.
func (c *Cache) Prepend(row models.InventoryRow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.rows) + 1
	if n > c.maxRows {
		n = c.maxRows
	}
	next := make([]models.InventoryRow, 0, n)
	next = append(next, row)
	next = append(next, c.rows[:n-1]...)
	c.rows = next
}

// Replace installs rows in the order given.
func (c *Cache) Replace(rows []models.InventoryRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append([]models.InventoryRow(nil), rows...)
}

// Rows returns a copy of the current contents.
func (c *Cache) Rows() []models.InventoryRow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.InventoryRow(nil), c.rows...)
}

// Len returns the number of rows.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}

// Loading reports whether a Refresh is in flight.
func (c *Cache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// LastError returns the error of the most recent Refresh, or nil.
func (c *Cache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Refresh replaces the contents with the server's list. On error the
// contents are left untouched and the error is recorded.
func (c *Cache) Refresh(ctx context.Context, f Fetcher) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	rows, err := f.ListBags(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.lastErr = err
	if err != nil {
		c.logger.Warn("inventory refresh failed", "error", err)
		return err
	}
	c.rows = append([]models.InventoryRow(nil), rows...)
	c.logger.Debug("inventory refreshed", "rows", len(rows))
	return nil
}
