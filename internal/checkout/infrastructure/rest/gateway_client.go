package rest

import (
	"context"
	"fmt"

	"github.com/ambatushop/pos-terminal/internal/backend"
	"github.com/ambatushop/pos-terminal/internal/checkout/domain"
)

type GatewayClient struct {
	backend *backend.Client
}

func NewGatewayClient(b *backend.Client) *GatewayClient {
	return &GatewayClient{backend: b}
}

func (c *GatewayClient) InitiatePayment(ctx context.Context, transactionID int64) (domain.PaymentSession, error) {
	var sess domain.PaymentSession
	path := fmt.Sprintf("/api/payment/qris/%d", transactionID)
	if err := c.backend.PostJSON(ctx, path, nil, &sess); err != nil {
		return domain.PaymentSession{}, err
	}
	return sess, nil
}

func (c *GatewayClient) PaymentStatus(ctx context.Context, orderID string) (domain.PaymentStatus, error) {
	var res struct {
		OrderID       string               `json:"order_id"`
		PaymentStatus domain.PaymentStatus `json:"payment_status"`
	}
	if err := c.backend.GetJSON(ctx, "/api/payment/status/"+orderID, &res); err != nil {
		return "", err
	}
	return res.PaymentStatus, nil
}
