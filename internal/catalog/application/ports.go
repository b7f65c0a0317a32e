package application

import (
	"context"

	"github.com/ambatushop/pos-terminal/internal/catalog/domain"
)

type ProductFetcher interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
}
