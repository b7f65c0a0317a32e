package application

import (
	"context"

	"github.com/ambatushop/pos-terminal/internal/checkout/domain"
)

type TransactionAPI interface {
	Create(ctx context.Context, req domain.CreateRequest) (domain.Transaction, error)
	ConfirmCash(ctx context.Context, transactionID int64) (domain.Transaction, error)
}

type PaymentGateway interface {
	InitiatePayment(ctx context.Context, transactionID int64) (domain.PaymentSession, error)
	PaymentStatus(ctx context.Context, orderID string) (domain.PaymentStatus, error)
}

// SubmissionGuard enforces at-most-once creation per checkout key.
type SubmissionGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
}

// TransitionSink receives every state change the orchestrator makes. The
// owning engine reacts to terminal transitions (cart reset, refreshes).
type TransitionSink interface {
	OnTransition(t Transition)
}
