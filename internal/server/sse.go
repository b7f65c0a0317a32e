package server

import (
	"encoding/json"
	"net/http"

	"github.com/ambatushop/pos-terminal/internal/engine"
)

// events streams the engine's event bus as server-sent events. The first
// messages carry the current cart and checkout state so a reconnecting
// client does not start from a blank view.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := h.engine.Subscribe()
	defer cancel()

	cart := h.engine.CartView()
	checkout := h.engine.CheckoutView()
	writeEvent(w, engine.Event{Type: engine.EventCartChanged, Cart: &cart})
	writeEvent(w, engine.Event{Type: engine.EventCheckoutState, Checkout: &checkout})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			writeEvent(w, ev)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("event: " + string(ev.Type) + "\n"))
	_, _ = w.Write([]byte("data: " + string(payload) + "\n\n"))
}
