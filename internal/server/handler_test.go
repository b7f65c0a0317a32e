package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambatushop/pos-terminal/internal/auth"
	catalogapp "github.com/ambatushop/pos-terminal/internal/catalog/application"
	catalogdomain "github.com/ambatushop/pos-terminal/internal/catalog/domain"
	checkoutdomain "github.com/ambatushop/pos-terminal/internal/checkout/domain"
	"github.com/ambatushop/pos-terminal/internal/engine"
	scannerapp "github.com/ambatushop/pos-terminal/internal/scanner/application"
)

// stubBackend satisfies every engine port with canned data.
type stubBackend struct {
	mu           sync.Mutex
	products     []catalogdomain.Product
	nextID       int64
	transactions []checkoutdomain.Transaction
	scan         scannerapp.Result
}

func (s *stubBackend) FetchProducts(context.Context) ([]catalogdomain.Product, error) {
	return s.products, nil
}

func (s *stubBackend) Create(_ context.Context, req checkoutdomain.CreateRequest) (checkoutdomain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return checkoutdomain.Transaction{
		ID:        s.nextID,
		Reference: "TRX-20260831-001",
		Method:    req.Method,
		Total:     req.Total,
		Status:    checkoutdomain.PaymentPending,
	}, nil
}

func (s *stubBackend) ConfirmCash(_ context.Context, id int64) (checkoutdomain.Transaction, error) {
	return checkoutdomain.Transaction{ID: id, Method: checkoutdomain.MethodCash, Status: checkoutdomain.PaymentPaid}, nil
}

func (s *stubBackend) InitiatePayment(context.Context, int64) (checkoutdomain.PaymentSession, error) {
	return checkoutdomain.PaymentSession{OrderID: "ORDER-1", Amount: 15000, Status: checkoutdomain.PaymentPending}, nil
}

func (s *stubBackend) PaymentStatus(context.Context, string) (checkoutdomain.PaymentStatus, error) {
	return checkoutdomain.PaymentPending, nil
}

func (s *stubBackend) Seen(context.Context, string) (bool, error) { return false, nil }

func (s *stubBackend) ListTransactions(context.Context, time.Time, time.Time) ([]checkoutdomain.Transaction, error) {
	return s.transactions, nil
}

func (s *stubBackend) Decode(context.Context, []byte, string) (scannerapp.Result, error) {
	return s.scan, nil
}

func newTestServer(t *testing.T, b *stubBackend) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := catalogapp.NewCache(log, b)
	eng := engine.New(log, auth.NewStaticSession("tok", 7), catalog, b, b, b, b, b, engine.Options{
		PollInterval: 10 * time.Millisecond,
		HistoryLimit: 10,
	})
	require.NoError(t, eng.Start(context.Background()))

	srv := httptest.NewServer(NewHandler(log, eng).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func stubProducts() []catalogdomain.Product {
	return []catalogdomain.Product{
		{ID: 1, Name: "Kopi Susu", Price: 15000, Stock: 5},
		{ID: 2, Name: "Teh Manis", Price: 8000, Stock: 0},
	}
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestListProducts(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp, err := http.Get(srv.URL + "/api/produk")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []catalogdomain.Product
	decodeBody(t, resp, &products)
	assert.Len(t, products, 2)
}

func TestSearchProducts(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp, err := http.Get(srv.URL + "/api/produk?q=kopi")
	require.NoError(t, err)

	var products []catalogdomain.Product
	decodeBody(t, resp, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "Kopi Susu", products[0].Name)
}

func TestAddItemAndSaleState(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp := postJSON(t, srv.URL+"/api/sale/items", `{"productId":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cart engine.CartState
	decodeBody(t, resp, &cart)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(15000), cart.Total)
}

func TestAddUnknownItemReturns404(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp := postJSON(t, srv.URL+"/api/sale/items", `{"productId":99}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddOutOfStockItemReturns400(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp := postJSON(t, srv.URL+"/api/sale/items", `{"productId":2}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutEmptyCartReturns400(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp := postJSON(t, srv.URL+"/api/sale/checkout", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCashCheckoutFlow(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp := postJSON(t, srv.URL+"/api/sale/items", `{"productId":1}`)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/sale/tendered", strings.NewReader(`{"amount":20000}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var cart engine.CartState
	decodeBody(t, resp, &cart)
	assert.Equal(t, int64(5000), cart.Change)
	assert.True(t, cart.CanComplete)

	resp = postJSON(t, srv.URL+"/api/sale/checkout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state engine.CheckoutState
	decodeBody(t, resp, &state)
	assert.Equal(t, checkoutdomain.StateCashDone, state.State)
}

func TestCancelWithoutSessionReturns400(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp := postJSON(t, srv.URL+"/api/sale/cancel", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubBackend{
		products: stubProducts(),
		transactions: []checkoutdomain.Transaction{
			{ID: 1, Total: 15000, Status: checkoutdomain.PaymentPaid},
		},
	})

	resp, err := http.Get(srv.URL + "/api/history?filter=month")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		Filter     string `json:"filter"`
		Count      int    `json:"count"`
		TotalSales int64  `json:"totalSales"`
	}
	decodeBody(t, resp, &summary)
	assert.Equal(t, "month", summary.Filter)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, int64(15000), summary.TotalSales)
}

func TestHistoryRejectsUnknownFilter(t *testing.T) {
	srv := newTestServer(t, &stubBackend{products: stubProducts()})

	resp, err := http.Get(srv.URL + "/api/history?filter=yesterday")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScanEndpoint(t *testing.T) {
	p := stubProducts()[0]
	srv := newTestServer(t, &stubBackend{
		products: stubProducts(),
		scan:     scannerapp.Result{Success: true, Barcode: "899001", Found: true, Product: &p},
	})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "scan.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/api/scan", w.FormDataContentType(), &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res scannerapp.Result
	decodeBody(t, resp, &res)
	assert.Equal(t, "899001", res.Barcode)
}

func TestScanUnmatchedReturns404(t *testing.T) {
	srv := newTestServer(t, &stubBackend{
		products: stubProducts(),
		scan:     scannerapp.Result{Success: true, Barcode: "000", Found: false},
	})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "scan.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/api/scan", w.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
