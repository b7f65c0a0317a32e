package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	cart "github.com/ambatushop/pos-terminal/internal/cart/domain"
	"github.com/ambatushop/pos-terminal/internal/checkout/domain"
)

// Transition is one state change, carrying snapshots of the transaction and
// session as they were at that moment.
type Transition struct {
	State       domain.State
	Transaction *domain.Transaction
	Session     *domain.PaymentSession
	Err         error
}

// Orchestrator drives a sale from submission to settlement: cash settles on
// a confirmation call, gateway payments through a polled session. Polling
// runs in a goroutine cancelled via context; a session generation counter
// makes responses that arrive after cancellation or settlement no-ops.
// Cancelling never voids the transaction server-side; the backend expires
// unpaid transactions on its own.
type Orchestrator struct {
	log       *slog.Logger
	submitter *Submitter
	api       TransactionAPI
	gateway   PaymentGateway
	sink      TransitionSink
	interval  time.Duration
	deadline  time.Duration

	mu       sync.Mutex
	state    domain.State
	tx       *domain.Transaction
	session  *domain.PaymentSession
	gen      uint64
	stopPoll context.CancelFunc
}

type Option func(*Orchestrator)

func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithPollDeadline bounds how long a gateway session may stay pending.
// Zero disables the bound.
func WithPollDeadline(d time.Duration) Option {
	return func(o *Orchestrator) { o.deadline = d }
}

func NewOrchestrator(log *slog.Logger, submitter *Submitter, api TransactionAPI, gateway PaymentGateway, sink TransitionSink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:       log,
		submitter: submitter,
		api:       api,
		gateway:   gateway,
		sink:      sink,
		interval:  5 * time.Second,
		deadline:  15 * time.Minute,
		state:     domain.StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() domain.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Transaction() *domain.Transaction {
	o.mu.Lock()
	defer o.mu.Unlock()
	return copyTx(o.tx)
}

func (o *Orchestrator) Session() *domain.PaymentSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return copySession(o.session)
}

// Checkout submits the sale. For cash it validates the tendered amount,
// confirms, and finishes in CASH_DONE. For the gateway it initiates a
// payment session and starts polling.
func (o *Orchestrator) Checkout(ctx context.Context, lines []cart.Line, method domain.Method, tendered, actorID int64, cashierName string) error {
	if !method.Valid() {
		return ErrInvalidMethod
	}
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	if method == domain.MethodCash {
		var total int64
		for _, l := range lines {
			total += l.Subtotal()
		}
		if tendered < total {
			return ErrInsufficientCash
		}
	}

	o.mu.Lock()
	switch o.state {
	case domain.StateSubmitting, domain.StateGatewayInit, domain.StateGatewayPolling:
		o.mu.Unlock()
		return ErrCheckoutInProgress
	}
	o.state = domain.StateSubmitting
	o.tx = nil
	o.session = nil
	tr := o.transitionLocked(nil)
	o.mu.Unlock()
	o.emit(tr)

	tx, err := o.submitter.Submit(ctx, uuid.NewString(), lines, method, actorID, cashierName)
	if err != nil {
		o.failSubmission(err)
		return err
	}

	if method == domain.MethodCash {
		return o.settleCash(ctx, tx)
	}
	return o.startGateway(ctx, tx)
}

// Cancel abandons an active gateway session. It stops the poll loop and
// invalidates in-flight responses; the backend is not told.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	if o.state != domain.StateGatewayInit && o.state != domain.StateGatewayPolling {
		o.mu.Unlock()
		return ErrNoActiveSession
	}
	o.stopLocked()
	o.state = domain.StateCancelled
	tr := o.transitionLocked(nil)
	o.mu.Unlock()

	o.log.Info("payment cancelled", "transaction_id", tr.txID())
	o.emit(tr)
	return nil
}

// RetryPayment re-initiates the gateway session for a failed gateway sale,
// reusing the already-created transaction.
func (o *Orchestrator) RetryPayment(ctx context.Context) error {
	o.mu.Lock()
	if o.state != domain.StateFailed || o.tx == nil || o.tx.Method != domain.MethodGateway {
		o.mu.Unlock()
		return ErrRetryUnavailable
	}
	tx := *o.tx
	o.mu.Unlock()

	return o.startGateway(ctx, tx)
}

// Reset returns to IDLE, dropping any transaction reference and stopping an
// active session. Used on explicit reset and when the sale view closes.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.stopLocked()
	o.state = domain.StateIdle
	o.tx = nil
	o.session = nil
	tr := o.transitionLocked(nil)
	o.mu.Unlock()
	o.emit(tr)
}

func (o *Orchestrator) settleCash(ctx context.Context, tx domain.Transaction) error {
	confirmed, err := o.api.ConfirmCash(ctx, tx.ID)
	if err != nil {
		o.log.Error("cash confirmation failed", "transaction_id", tx.ID, "err", err)
		o.failSubmission(err)
		return err
	}

	o.mu.Lock()
	o.state = domain.StateCashDone
	o.tx = &confirmed
	tr := o.transitionLocked(nil)
	o.mu.Unlock()

	o.log.Info("cash sale settled", "transaction_id", confirmed.ID, "reference", confirmed.Reference)
	o.emit(tr)
	return nil
}

func (o *Orchestrator) startGateway(ctx context.Context, tx domain.Transaction) error {
	o.mu.Lock()
	o.state = domain.StateGatewayInit
	o.tx = &tx
	tr := o.transitionLocked(nil)
	o.mu.Unlock()
	o.emit(tr)

	sess, err := o.gateway.InitiatePayment(ctx, tx.ID)
	if err != nil {
		o.log.Error("gateway initiation failed", "transaction_id", tx.ID, "err", err)
		o.mu.Lock()
		if o.state != domain.StateGatewayInit {
			// Cancelled while the call was in flight.
			o.mu.Unlock()
			return err
		}
		o.state = domain.StateFailed
		tr := o.transitionLocked(err)
		o.mu.Unlock()
		o.emit(tr)
		return err
	}
	if sess.Status == "" {
		sess.Status = domain.PaymentPending
	}

	o.mu.Lock()
	if o.state != domain.StateGatewayInit {
		o.mu.Unlock()
		return nil
	}
	o.gen++
	gen := o.gen
	pollCtx, cancel := context.WithCancel(context.Background())
	o.stopPoll = cancel
	o.session = &sess
	o.state = domain.StateGatewayPolling
	tr = o.transitionLocked(nil)
	o.mu.Unlock()

	o.log.Info("payment polling started",
		"transaction_id", tx.ID,
		"order_id", sess.OrderID,
		"amount", sess.Amount,
		"interval", o.interval,
	)
	o.emit(tr)

	go o.poll(pollCtx, gen, sess.OrderID)
	return nil
}

func (o *Orchestrator) poll(ctx context.Context, gen uint64, orderID string) {
	t := time.NewTicker(o.interval)
	defer t.Stop()

	var deadline <-chan time.Time
	if o.deadline > 0 {
		dt := time.NewTimer(o.deadline)
		defer dt.Stop()
		deadline = dt.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			o.deadlineExceeded(gen)
			return
		case <-t.C:
			status, err := o.gateway.PaymentStatus(ctx, orderID)
			if err != nil {
				// Transient by assumption; keep polling.
				o.log.Warn("payment status check failed", "order_id", orderID, "err", err)
				continue
			}
			o.applyStatus(gen, status)
		}
	}
}

// applyStatus applies a poll response unless the session it belongs to has
// been cancelled or settled since the request went out.
func (o *Orchestrator) applyStatus(gen uint64, status domain.PaymentStatus) {
	o.mu.Lock()
	if gen != o.gen || o.state != domain.StateGatewayPolling {
		o.mu.Unlock()
		return
	}

	switch status {
	case domain.PaymentPaid:
		o.session.Status = status
		o.stopLocked()
		o.state = domain.StatePaid
		tr := o.transitionLocked(nil)
		o.mu.Unlock()

		o.log.Info("payment settled", "transaction_id", tr.txID())
		o.emit(tr)

	case domain.PaymentFailed, domain.PaymentExpired:
		o.session.Status = status
		o.stopLocked()
		o.state = domain.StateFailed
		err := fmt.Errorf("%w: gateway reported %s", ErrPaymentFailed, status)
		tr := o.transitionLocked(err)
		o.mu.Unlock()

		o.log.Warn("payment failed", "transaction_id", tr.txID(), "status", status)
		o.emit(tr)

	default:
		// PENDING or an unknown status: poll again at the next tick.
		o.mu.Unlock()
	}
}

func (o *Orchestrator) deadlineExceeded(gen uint64) {
	o.mu.Lock()
	if gen != o.gen || o.state != domain.StateGatewayPolling {
		o.mu.Unlock()
		return
	}
	o.stopLocked()
	o.state = domain.StateFailed
	tr := o.transitionLocked(ErrPollDeadline)
	o.mu.Unlock()

	o.log.Warn("payment polling deadline exceeded", "transaction_id", tr.txID())
	o.emit(tr)
}

func (o *Orchestrator) failSubmission(err error) {
	o.mu.Lock()
	o.state = domain.StateIdle
	tr := o.transitionLocked(err)
	o.mu.Unlock()
	o.emit(tr)
}

// stopLocked halts polling and bumps the generation so in-flight responses
// are discarded. Callers hold the lock.
func (o *Orchestrator) stopLocked() {
	if o.stopPoll != nil {
		o.stopPoll()
		o.stopPoll = nil
	}
	o.gen++
}

func (o *Orchestrator) transitionLocked(err error) Transition {
	return Transition{
		State:       o.state,
		Transaction: copyTx(o.tx),
		Session:     copySession(o.session),
		Err:         err,
	}
}

func (o *Orchestrator) emit(tr Transition) {
	if o.sink != nil {
		o.sink.OnTransition(tr)
	}
}

func (t Transition) txID() int64 {
	if t.Transaction == nil {
		return 0
	}
	return t.Transaction.ID
}

func copyTx(tx *domain.Transaction) *domain.Transaction {
	if tx == nil {
		return nil
	}
	out := *tx
	if tx.Details != nil {
		out.Details = append([]domain.LineSnapshot(nil), tx.Details...)
	}
	return &out
}

func copySession(s *domain.PaymentSession) *domain.PaymentSession {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}
