package domain

import "time"

// Method is the payment method on the wire. The backend keeps the original
// Indonesian values: TUNAI is cash, NON_TUNAI the QR gateway.
type Method string

const (
	MethodCash    Method = "TUNAI"
	MethodGateway Method = "NON_TUNAI"
)

func (m Method) Valid() bool {
	return m == MethodCash || m == MethodGateway
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentExpired PaymentStatus = "EXPIRED"
)

// LineSnapshot is one transaction detail as submitted to the backend.
type LineSnapshot struct {
	ProductID int64 `json:"produkId"`
	Quantity  int   `json:"jumlah"`
	UnitPrice int64 `json:"hargaSatuan"`
	Subtotal  int64 `json:"subtotal"`
}

// CreateRequest is the transaction-creation payload.
type CreateRequest struct {
	Method      Method         `json:"metodePembayaran"`
	Total       int64          `json:"total"`
	ActorID     int64          `json:"akunId"`
	CashierName string         `json:"kasirName,omitempty"`
	Details     []LineSnapshot `json:"details"`
}

// Transaction mirrors the backend record. Immutable after creation except
// Status, which the backend advances as payment settles.
type Transaction struct {
	ID        int64          `json:"idTransaksi"`
	Reference string         `json:"referenceNumber"`
	Method    Method         `json:"metodePembayaran"`
	Total     int64          `json:"total"`
	Status    PaymentStatus  `json:"paymentStatus"`
	Timestamp time.Time      `json:"tanggal"`
	Details   []LineSnapshot `json:"details,omitempty"`
}
