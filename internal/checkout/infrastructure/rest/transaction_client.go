package rest

import (
	"context"
	"fmt"

	"github.com/ambatushop/pos-terminal/internal/backend"
	"github.com/ambatushop/pos-terminal/internal/checkout/domain"
)

type TransactionClient struct {
	backend *backend.Client
}

func NewTransactionClient(b *backend.Client) *TransactionClient {
	return &TransactionClient{backend: b}
}

func (c *TransactionClient) Create(ctx context.Context, req domain.CreateRequest) (domain.Transaction, error) {
	var tx domain.Transaction
	if err := c.backend.PostJSON(ctx, "/api/transaksi", req, &tx); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

func (c *TransactionClient) ConfirmCash(ctx context.Context, transactionID int64) (domain.Transaction, error) {
	var tx domain.Transaction
	path := fmt.Sprintf("/api/transaksi/%d/confirm-cash", transactionID)
	if err := c.backend.PostJSON(ctx, path, nil, &tx); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}
