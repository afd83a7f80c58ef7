package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no product has the requested ID.
var ErrNotFound = errors.New("record not found")

// ProductFilters narrows List and Count. Zero values mean "no filter", except
// Active: nil restricts results to active products.
type ProductFilters struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Active   *bool
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters ProductFilters, limit, offset int) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	// UpdateFunc applies mutate to the stored product and saves the result
	// atomically. If mutate returns an error nothing is written and that error
	// is returned as is.
	UpdateFunc(ctx context.Context, id uuid.UUID, mutate func(*models.Product) error) (*models.Product, error)
	// Delete marks the product inactive; the row is kept.
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filters ProductFilters) (int64, error)
}

func (f ProductFilters) activeValue() bool {
	if f.Active == nil {
		return true
	}
	return *f.Active
}
