package application

import (
	"context"
	"fmt"
	"log/slog"

	cart "github.com/ambatushop/pos-terminal/internal/cart/domain"
	"github.com/ambatushop/pos-terminal/internal/checkout/domain"
	"github.com/ambatushop/pos-terminal/pkg/idempotency"
)

// Submitter turns a cart snapshot into a transaction-creation call. Each
// checkout key is submitted at most once; a failed submission is never
// retried here, the caller must start a fresh checkout.
type Submitter struct {
	log   *slog.Logger
	api   TransactionAPI
	guard SubmissionGuard
}

func NewSubmitter(log *slog.Logger, api TransactionAPI, guard SubmissionGuard) *Submitter {
	return &Submitter{log: log, api: api, guard: guard}
}

func (s *Submitter) Submit(ctx context.Context, key string, lines []cart.Line, method domain.Method, actorID int64, cashierName string) (domain.Transaction, error) {
	if len(lines) == 0 {
		return domain.Transaction{}, ErrEmptyCart
	}

	seen, err := s.guard.Seen(ctx, idempotency.CheckoutKey(key))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("submission guard: %w", err)
	}
	if seen {
		return domain.Transaction{}, ErrDuplicateSubmission
	}

	req := buildRequest(lines, method, actorID, cashierName)
	tx, err := s.api.Create(ctx, req)
	if err != nil {
		s.log.Error("transaction create failed", "method", method, "total", req.Total, "err", err)
		return domain.Transaction{}, err
	}

	s.log.Info("transaction created",
		"transaction_id", tx.ID,
		"reference", tx.Reference,
		"method", method,
		"total", req.Total,
	)
	return tx, nil
}

func buildRequest(lines []cart.Line, method domain.Method, actorID int64, cashierName string) domain.CreateRequest {
	details := make([]domain.LineSnapshot, 0, len(lines))
	var total int64
	for _, l := range lines {
		details = append(details, domain.LineSnapshot{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
		total += l.Subtotal()
	}
	return domain.CreateRequest{
		Method:      method,
		Total:       total,
		ActorID:     actorID,
		CashierName: cashierName,
		Details:     details,
	}
}
