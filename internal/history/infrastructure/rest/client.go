package rest

import (
	"context"
	"net/url"
	"time"

	"github.com/ambatushop/pos-terminal/internal/backend"
	checkout "github.com/ambatushop/pos-terminal/internal/checkout/domain"
)

type Client struct {
	backend *backend.Client
}

func NewClient(b *backend.Client) *Client {
	return &Client{backend: b}
}

func (c *Client) ListTransactions(ctx context.Context, start, end time.Time) ([]checkout.Transaction, error) {
	path := "/api/transaksi"
	q := url.Values{}
	if !start.IsZero() {
		q.Set("start", start.Format(time.RFC3339))
	}
	if !end.IsZero() {
		q.Set("end", end.Format(time.RFC3339))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var transactions []checkout.Transaction
	if err := c.backend.GetJSON(ctx, path, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}
