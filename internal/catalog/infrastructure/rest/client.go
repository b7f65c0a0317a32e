package rest

import (
	"context"

	"github.com/ambatushop/pos-terminal/internal/backend"
	"github.com/ambatushop/pos-terminal/internal/catalog/domain"
)

type Client struct {
	backend *backend.Client
}

func NewClient(b *backend.Client) *Client {
	return &Client{backend: b}
}

func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.backend.GetJSON(ctx, "/api/produk", &products); err != nil {
		return nil, err
	}
	return products, nil
}
