package engine

import (
	"sync"

	cart "github.com/ambatushop/pos-terminal/internal/cart/domain"
	checkout "github.com/ambatushop/pos-terminal/internal/checkout/domain"
	history "github.com/ambatushop/pos-terminal/internal/history/application"
)

type EventType string

const (
	EventCartChanged      EventType = "cart_changed"
	EventCheckoutState    EventType = "checkout_state"
	EventCatalogRefreshed EventType = "catalog_refreshed"
	EventHistoryRefreshed EventType = "history_refreshed"
	EventNotice           EventType = "notice"
)

// CartState is the rendering layer's complete view of the sale in
// progress, recomputed after every mutation.
type CartState struct {
	Lines       []cart.Line     `json:"lines"`
	Subtotal    int64           `json:"subtotal"`
	Total       int64           `json:"total"`
	Method      checkout.Method `json:"method"`
	Tendered    int64           `json:"tendered"`
	Change      int64           `json:"change"`
	CanComplete bool            `json:"canComplete"`
}

type CheckoutState struct {
	State       checkout.State           `json:"state"`
	Transaction *checkout.Transaction    `json:"transaction,omitempty"`
	Session     *checkout.PaymentSession `json:"session,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

type Event struct {
	Type     EventType        `json:"type"`
	Cart     *CartState       `json:"cart,omitempty"`
	Checkout *CheckoutState   `json:"checkout,omitempty"`
	History  *history.Summary `json:"history,omitempty"`
	Notice   *Notice          `json:"notice,omitempty"`
}

const subscriberBuffer = 16

// Bus fans events out to subscribers. Publishing never blocks; a
// subscriber that stops draining loses events rather than stalling the
// engine.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
