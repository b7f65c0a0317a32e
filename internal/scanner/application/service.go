package application

import (
	"context"
	"errors"
	"log/slog"

	catalog "github.com/ambatushop/pos-terminal/internal/catalog/domain"
)

var ErrProductNotFound = errors.New("barcode did not match a product")

// Result is the decode collaborator's answer. Product is set when the
// decoded barcode matched a catalog entry.
type Result struct {
	Success bool             `json:"success"`
	Barcode string           `json:"barcode"`
	Found   bool             `json:"found"`
	Product *catalog.Product `json:"produk"`
}

type Decoder interface {
	Decode(ctx context.Context, image []byte, filename string) (Result, error)
}

// CartAdder is the one inbound edge from the scanner into the sale.
type CartAdder interface {
	Add(productID int64) error
}

type Service struct {
	log     *slog.Logger
	decoder Decoder
	cart    CartAdder
}

func NewService(log *slog.Logger, decoder Decoder, cart CartAdder) *Service {
	return &Service{log: log, decoder: decoder, cart: cart}
}

// ScanImage sends the image to the decode service and, when a product was
// matched, puts it in the cart.
func (s *Service) ScanImage(ctx context.Context, image []byte, filename string) (Result, error) {
	res, err := s.decoder.Decode(ctx, image, filename)
	if err != nil {
		return Result{}, err
	}
	if !res.Success || !res.Found || res.Product == nil {
		s.log.Info("barcode not matched", "barcode", res.Barcode, "decoded", res.Success)
		return res, ErrProductNotFound
	}

	if err := s.cart.Add(res.Product.ID); err != nil {
		return res, err
	}
	s.log.Info("scanned product added", "product_id", res.Product.ID, "barcode", res.Barcode)
	return res, nil
}
