// Package engine wires the sale components into one explicit object
// constructed at startup. There is no ambient global state: every
// operation goes through the Engine, and the rendering layer observes it
// through the event bus.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ambatushop/pos-terminal/internal/auth"
	cartdomain "github.com/ambatushop/pos-terminal/internal/cart/domain"
	catalogapp "github.com/ambatushop/pos-terminal/internal/catalog/application"
	catalogdomain "github.com/ambatushop/pos-terminal/internal/catalog/domain"
	checkoutapp "github.com/ambatushop/pos-terminal/internal/checkout/application"
	checkoutdomain "github.com/ambatushop/pos-terminal/internal/checkout/domain"
	historyapp "github.com/ambatushop/pos-terminal/internal/history/application"
	"github.com/ambatushop/pos-terminal/internal/pricing"
	scannerapp "github.com/ambatushop/pos-terminal/internal/scanner/application"
)

type Options struct {
	PollInterval time.Duration
	PollDeadline time.Duration
	HistoryLimit int
}

type Engine struct {
	log     *slog.Logger
	session *auth.Session
	catalog *catalogapp.Cache
	cart    *cartdomain.Cart
	orch    *checkoutapp.Orchestrator
	history *historyapp.Service
	scanner *scannerapp.Service
	bus     *Bus

	mu            sync.Mutex
	method        checkoutdomain.Method
	tendered      int64
	historyFilter historyapp.Filter
}

func New(
	log *slog.Logger,
	session *auth.Session,
	catalog *catalogapp.Cache,
	api checkoutapp.TransactionAPI,
	gateway checkoutapp.PaymentGateway,
	guard checkoutapp.SubmissionGuard,
	lister historyapp.TransactionLister,
	decoder scannerapp.Decoder,
	opts Options,
) *Engine {
	e := &Engine{
		log:           log,
		session:       session,
		catalog:       catalog,
		cart:          cartdomain.New(catalog),
		history:       historyapp.NewService(log, lister, opts.HistoryLimit),
		bus:           NewBus(),
		method:        checkoutdomain.MethodCash,
		historyFilter: historyapp.FilterToday,
	}

	submitter := checkoutapp.NewSubmitter(log, api, guard)
	e.orch = checkoutapp.NewOrchestrator(log, submitter, api, gateway, e,
		checkoutapp.WithPollInterval(opts.PollInterval),
		checkoutapp.WithPollDeadline(opts.PollDeadline),
	)
	e.scanner = scannerapp.NewService(log, decoder, cartAdder{e})
	return e
}

// Start performs the initial loads a sale view needs: the catalog and
// today's history. A history failure is reported but not fatal.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.RefreshCatalog(ctx); err != nil {
		return err
	}
	if _, err := e.History(ctx, e.currentFilter()); err != nil {
		e.log.Warn("initial history load failed", "err", err)
		e.notify(NoticeError, "could not load transaction history: "+err.Error())
	}
	return nil
}

func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.bus.Subscribe()
}

// ---- catalog ----

func (e *Engine) RefreshCatalog(ctx context.Context) error {
	if err := e.catalog.Refresh(ctx); err != nil {
		e.notify(NoticeError, "could not load products: "+err.Error())
		return err
	}
	e.bus.Publish(Event{Type: EventCatalogRefreshed})
	e.publishCart()
	return nil
}

func (e *Engine) Products() []catalogdomain.Product {
	return e.catalog.List()
}

func (e *Engine) SearchProducts(query string) []catalogdomain.Product {
	return e.catalog.Search(query)
}

// ---- cart ----

func (e *Engine) AddToCart(productID int64) error {
	if err := e.cart.Add(productID); err != nil {
		e.notify(NoticeError, err.Error())
		return err
	}
	e.publishCart()
	return nil
}

func (e *Engine) UpdateQuantity(productID int64, delta int) error {
	if err := e.cart.UpdateQuantity(productID, delta); err != nil {
		e.notify(NoticeError, err.Error())
		return err
	}
	e.publishCart()
	return nil
}

func (e *Engine) RemoveFromCart(productID int64) {
	e.cart.Remove(productID)
	e.publishCart()
}

func (e *Engine) SetMethod(m checkoutdomain.Method) error {
	if !m.Valid() {
		return checkoutapp.ErrInvalidMethod
	}
	e.mu.Lock()
	e.method = m
	e.mu.Unlock()
	e.publishCart()
	return nil
}

func (e *Engine) SetTendered(amount int64) {
	if amount < 0 {
		amount = 0
	}
	e.mu.Lock()
	e.tendered = amount
	e.mu.Unlock()
	e.publishCart()
}

func (e *Engine) CartView() CartState {
	e.mu.Lock()
	method, tendered := e.method, e.tendered
	e.mu.Unlock()

	total := pricing.Total(e.cart)
	return CartState{
		Lines:       e.cart.Lines(),
		Subtotal:    total,
		Total:       total,
		Method:      method,
		Tendered:    tendered,
		Change:      pricing.Change(total, tendered),
		CanComplete: pricing.CanComplete(e.cart, method, tendered),
	}
}

// ---- checkout ----

func (e *Engine) Checkout(ctx context.Context) error {
	e.mu.Lock()
	method, tendered := e.method, e.tendered
	e.mu.Unlock()

	err := e.orch.Checkout(ctx, e.cart.Lines(), method, tendered,
		e.session.ActorID(), e.session.Username())
	if err != nil {
		e.notify(NoticeError, err.Error())
	}
	return err
}

func (e *Engine) CancelPayment() error {
	return e.orch.Cancel()
}

func (e *Engine) RetryPayment(ctx context.Context) error {
	err := e.orch.RetryPayment(ctx)
	if err != nil {
		e.notify(NoticeError, err.Error())
	}
	return err
}

// ResetSale abandons the current sale: cart, tendered amount, and any
// orchestrator state, including an active gateway session.
func (e *Engine) ResetSale() {
	e.cart.Clear()
	e.mu.Lock()
	e.tendered = 0
	e.method = checkoutdomain.MethodCash
	e.mu.Unlock()
	e.orch.Reset()
	e.publishCart()
}

func (e *Engine) CheckoutView() CheckoutState {
	return CheckoutState{
		State:       e.orch.State(),
		Transaction: e.orch.Transaction(),
		Session:     e.orch.Session(),
	}
}

// OnTransition implements checkout/application.TransitionSink. Settled
// sales reset the cart and refresh the catalog and history, the same
// follow-up the original flow performed after payment.
func (e *Engine) OnTransition(tr checkoutapp.Transition) {
	st := CheckoutState{
		State:       tr.State,
		Transaction: tr.Transaction,
		Session:     tr.Session,
	}
	if tr.Err != nil {
		st.Error = tr.Err.Error()
	}
	e.bus.Publish(Event{Type: EventCheckoutState, Checkout: &st})

	if tr.Err != nil {
		e.notify(NoticeError, tr.Err.Error())
	}

	if tr.State.Settled() {
		e.cart.Clear()
		e.mu.Lock()
		e.tendered = 0
		e.mu.Unlock()
		e.publishCart()
		if tr.Transaction != nil {
			e.notify(NoticeInfo, "sale settled: "+tr.Transaction.Reference)
		}
		go e.postSettlement()
	}
}

func (e *Engine) postSettlement() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.RefreshCatalog(ctx); err != nil {
		e.log.Warn("catalog refresh after settlement failed", "err", err)
	}
	if _, err := e.History(ctx, e.currentFilter()); err != nil {
		e.log.Warn("history refresh after settlement failed", "err", err)
	}
}

// ---- history ----

func (e *Engine) History(ctx context.Context, f historyapp.Filter) (historyapp.Summary, error) {
	summary, err := e.history.Load(ctx, f)
	if err != nil {
		return historyapp.Summary{}, err
	}

	e.mu.Lock()
	e.historyFilter = f
	e.mu.Unlock()

	e.bus.Publish(Event{Type: EventHistoryRefreshed, History: &summary})
	return summary, nil
}

func (e *Engine) currentFilter() historyapp.Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.historyFilter
}

// ---- scanner ----

func (e *Engine) ScanImage(ctx context.Context, image []byte, filename string) (scannerapp.Result, error) {
	res, err := e.scanner.ScanImage(ctx, image, filename)
	if err != nil {
		e.notify(NoticeError, err.Error())
		return res, err
	}
	return res, nil
}

// ---- internals ----

func (e *Engine) publishCart() {
	state := e.CartView()
	e.bus.Publish(Event{Type: EventCartChanged, Cart: &state})
}

func (e *Engine) notify(level NoticeLevel, message string) {
	e.bus.Publish(Event{Type: EventNotice, Notice: &Notice{Level: level, Message: message}})
}

// cartAdder routes scanner hits through the engine so cart events fire.
type cartAdder struct {
	e *Engine
}

func (a cartAdder) Add(productID int64) error {
	return a.e.AddToCart(productID)
}
