// Package server exposes the terminal engine over HTTP for the rendering
// layer: JSON endpoints for every sale operation and an SSE stream that
// mirrors the engine's event bus.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ambatushop/pos-terminal/internal/backend"
	cartdomain "github.com/ambatushop/pos-terminal/internal/cart/domain"
	checkoutapp "github.com/ambatushop/pos-terminal/internal/checkout/application"
	checkoutdomain "github.com/ambatushop/pos-terminal/internal/checkout/domain"
	"github.com/ambatushop/pos-terminal/internal/engine"
	historyapp "github.com/ambatushop/pos-terminal/internal/history/application"
	scannerapp "github.com/ambatushop/pos-terminal/internal/scanner/application"
)

const maxScanUpload = 8 << 20

type Handler struct {
	log    *slog.Logger
	engine *engine.Engine
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, eng *engine.Engine) *Handler {
	return &Handler{
		log:    log,
		engine: eng,
		tracer: otel.Tracer("pos-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/produk", h.listProducts)
	r.Post("/api/produk/refresh", h.refreshCatalog)

	r.Get("/api/sale", h.saleState)
	r.Post("/api/sale/items", h.addItem)
	r.Patch("/api/sale/items/{productID}", h.updateQuantity)
	r.Delete("/api/sale/items/{productID}", h.removeItem)
	r.Put("/api/sale/method", h.setMethod)
	r.Put("/api/sale/tendered", h.setTendered)
	r.Post("/api/sale/checkout", h.checkout)
	r.Post("/api/sale/cancel", h.cancelPayment)
	r.Post("/api/sale/retry", h.retryPayment)
	r.Post("/api/sale/reset", h.resetSale)

	r.Get("/api/history", h.history)
	r.Post("/api/scan", h.scan)
	r.Get("/api/events", h.events)

	return r
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, h.engine.SearchProducts(q))
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Products())
}

func (h *Handler) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RefreshCatalog")
	defer span.End()

	if err := h.engine.RefreshCatalog(ctx); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Products())
}

func (h *Handler) saleState(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "SaleState")
	defer span.End()

	writeJSON(w, http.StatusOK, map[string]any{
		"cart":     h.engine.CartView(),
		"checkout": h.engine.CheckoutView(),
	})
}

type addItemReq struct {
	ProductID int64 `json:"productId"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "AddItem")
	defer span.End()

	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.engine.AddToCart(req.ProductID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.CartView())
}

type quantityReq struct {
	Delta int `json:"delta"`
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "UpdateQuantity")
	defer span.End()

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	var req quantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.engine.UpdateQuantity(productID, req.Delta); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.CartView())
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "RemoveItem")
	defer span.End()

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	h.engine.RemoveFromCart(productID)
	writeJSON(w, http.StatusOK, h.engine.CartView())
}

type methodReq struct {
	Method checkoutdomain.Method `json:"metodePembayaran"`
}

func (h *Handler) setMethod(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "SetMethod")
	defer span.End()

	var req methodReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.engine.SetMethod(req.Method); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.CartView())
}

type tenderedReq struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) setTendered(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "SetTendered")
	defer span.End()

	var req tenderedReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	h.engine.SetTendered(req.Amount)
	writeJSON(w, http.StatusOK, h.engine.CartView())
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	if err := h.engine.Checkout(ctx); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.CheckoutView())
}

func (h *Handler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "CancelPayment")
	defer span.End()

	if err := h.engine.CancelPayment(); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.CheckoutView())
}

func (h *Handler) retryPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RetryPayment")
	defer span.End()

	if err := h.engine.RetryPayment(ctx); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.CheckoutView())
}

func (h *Handler) resetSale(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "ResetSale")
	defer span.End()

	h.engine.ResetSale()
	writeJSON(w, http.StatusOK, h.engine.CartView())
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "History")
	defer span.End()

	filter := historyapp.Filter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = historyapp.FilterToday
	}
	if !filter.Valid() {
		http.Error(w, "unknown history filter", http.StatusBadRequest)
		return
	}
	summary, err := h.engine.History(ctx, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScanBarcode")
	defer span.End()

	if err := r.ParseMultipartForm(maxScanUpload); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxScanUpload))
	if err != nil {
		http.Error(w, "could not read image", http.StatusBadRequest)
		return
	}

	res, err := h.engine.ScanImage(ctx, image, header.Filename)
	if err != nil {
		if errors.Is(err, scannerapp.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, res)
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type errorResponse struct {
	Message string `json:"message"`
}

// writeError maps engine errors onto HTTP statuses. Backend APIErrors keep
// their own status and wording so the rendering layer shows what the
// backend said.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		writeJSON(w, apiErr.StatusCode, errorResponse{Message: apiErr.Message})
	case errors.Is(err, backend.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: err.Error()})
	case errors.Is(err, checkoutapp.ErrCheckoutInProgress),
		errors.Is(err, checkoutapp.ErrDuplicateSubmission):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	case errors.Is(err, cartdomain.ErrUnknownProduct):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, cartdomain.ErrOutOfStock),
		errors.Is(err, cartdomain.ErrInsufficientStock),
		errors.Is(err, checkoutapp.ErrEmptyCart),
		errors.Is(err, checkoutapp.ErrInvalidMethod),
		errors.Is(err, checkoutapp.ErrInsufficientCash),
		errors.Is(err, checkoutapp.ErrNoActiveSession),
		errors.Is(err, checkoutapp.ErrRetryUnavailable):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	default:
		h.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
