package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambatushop/pos-terminal/internal/catalog/domain"
)

type stubFetcher struct {
	products []domain.Product
	err      error
	calls    int
}

func (f *stubFetcher) FetchProducts(_ context.Context) ([]domain.Product, error) {
	f.calls++
	return f.products, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Kopi Susu", Price: 15000, Stock: 5},
		{ID: 2, Name: "Kopi Hitam", Price: 10000, Stock: 0},
		{ID: 3, Name: "Teh Manis", Price: 8000, Stock: 7},
	}
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	fetcher := &stubFetcher{products: sampleProducts()}
	c := NewCache(discard(), fetcher)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 3, c.Len())
	assert.False(t, c.FetchedAt().IsZero())

	p, ok := c.Product(1)
	require.True(t, ok)
	assert.Equal(t, "Kopi Susu", p.Name)

	fetcher.products = sampleProducts()[:1]
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, c.Len())

	_, ok = c.Product(3)
	assert.False(t, ok)
}

func TestRefreshErrorKeepsOldSnapshot(t *testing.T) {
	fetcher := &stubFetcher{products: sampleProducts()}
	c := NewCache(discard(), fetcher)
	require.NoError(t, c.Refresh(context.Background()))

	fetcher.err = errors.New("backend down")
	err := c.Refresh(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 3, c.Len())
}

func TestSearchMinimumLength(t *testing.T) {
	fetcher := &stubFetcher{products: sampleProducts()}
	c := NewCache(discard(), fetcher)
	require.NoError(t, c.Refresh(context.Background()))

	assert.Nil(t, c.Search(""))
	assert.Nil(t, c.Search("k"))
	assert.NotEmpty(t, c.Search("ko"))
}

func TestSearchCaseInsensitiveSubstring(t *testing.T) {
	fetcher := &stubFetcher{products: sampleProducts()}
	c := NewCache(discard(), fetcher)
	require.NoError(t, c.Refresh(context.Background()))

	hits := c.Search("KOPI")
	require.Len(t, hits, 1, "out-of-stock kopi hitam excluded")
	assert.Equal(t, int64(1), hits[0].ID)

	hits = c.Search("manis")
	require.Len(t, hits, 1)
	assert.Equal(t, int64(3), hits[0].ID)
}

func TestSearchExcludesOutOfStock(t *testing.T) {
	fetcher := &stubFetcher{products: sampleProducts()}
	c := NewCache(discard(), fetcher)
	require.NoError(t, c.Refresh(context.Background()))

	assert.Empty(t, c.Search("hitam"))
}

func TestListReturnsCopy(t *testing.T) {
	fetcher := &stubFetcher{products: sampleProducts()}
	c := NewCache(discard(), fetcher)
	require.NoError(t, c.Refresh(context.Background()))

	list := c.List()
	list[0].Name = "mutated"

	assert.Equal(t, "Kopi Susu", c.List()[0].Name)
}
