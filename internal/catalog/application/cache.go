package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ambatushop/pos-terminal/internal/catalog/domain"
)

// minQueryRunes is the shortest search input acted on; shorter queries come
// from half-typed input and would match most of the catalog.
const minQueryRunes = 2

// Cache is the read-through snapshot of the backend catalog. Reads never
// touch the network; Refresh replaces the snapshot wholesale.
type Cache struct {
	log     *slog.Logger
	fetcher ProductFetcher
	sfg     singleflight.Group

	mu        sync.RWMutex
	products  []domain.Product
	byID      map[int64]domain.Product
	fetchedAt time.Time
}

func NewCache(log *slog.Logger, fetcher ProductFetcher) *Cache {
	return &Cache{
		log:     log,
		fetcher: fetcher,
		byID:    make(map[int64]domain.Product),
	}
}

// Refresh fetches the product list and swaps it in. Concurrent callers are
// collapsed into a single fetch.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.sfg.Do("refresh", func() (any, error) {
		products, err := c.fetcher.FetchProducts(ctx)
		if err != nil {
			return nil, err
		}

		byID := make(map[int64]domain.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		c.mu.Lock()
		c.products = products
		c.byID = byID
		c.fetchedAt = time.Now()
		c.mu.Unlock()

		c.log.Info("catalog refreshed", "products", len(products))
		return nil, nil
	})
	return err
}

func (c *Cache) Product(id int64) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

func (c *Cache) List() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Search returns in-stock products whose name contains the query,
// case-insensitively. Queries shorter than two runes return nothing.
func (c *Cache) Search(query string) []domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if len([]rune(query)) < minQueryRunes {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.Product
	for _, p := range c.products {
		if p.InStock() && strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}
