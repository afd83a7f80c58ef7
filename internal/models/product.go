package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MaxNameLength        = 255
	MaxCategoryLength    = 100
	MaxDescriptionLength = 1000
)

var hundred = decimal.NewFromInt(100)

// Product is the catalog aggregate. ID and the timestamps stay zero until the
// product has been persisted. A Product is not safe for concurrent mutation.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Price       Price     `json:"price"`
	Stock       Stock     `json:"stock"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductParams carries the input for NewProduct.
type ProductParams struct {
	Name        string
	Category    string
	Description string
	Price       Price
	Stock       Stock
	IsActive    bool
}

// NewProduct trims and validates params. It never coerces invalid input.
func NewProduct(params ProductParams) (*Product, error) {
	p := &Product{
		Name:        strings.TrimSpace(params.Name),
		Category:    strings.TrimSpace(params.Category),
		Description: strings.TrimSpace(params.Description),
		Price:       params.Price,
		Stock:       params.Stock,
		IsActive:    params.IsActive,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the descriptive fields. Price and Stock are valid by construction.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return &FieldError{Field: "name", Message: "cannot be empty"}
	case utf8.RuneCountInString(p.Name) > MaxNameLength:
		return &FieldError{Field: "name", Message: fmt.Sprintf("cannot exceed %d characters", MaxNameLength)}
	case p.Category == "":
		return &FieldError{Field: "category", Message: "cannot be empty"}
	case utf8.RuneCountInString(p.Category) > MaxCategoryLength:
		return &FieldError{Field: "category", Message: fmt.Sprintf("cannot exceed %d characters", MaxCategoryLength)}
	case utf8.RuneCountInString(p.Description) > MaxDescriptionLength:
		return &FieldError{Field: "description", Message: fmt.Sprintf("cannot exceed %d characters", MaxDescriptionLength)}
	}
	return nil
}

// ReduceStock removes quantity units. On failure the stock is left untouched.
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOperation, quantity)
	}
	if quantity > p.Stock.Value() {
		return fmt.Errorf("%w: only %d items available, requested %d", ErrInsufficientStock, p.Stock.Value(), quantity)
	}
	next, err := p.Stock.Sub(quantity)
	if err != nil {
		return err
	}
	p.Stock = next
	p.touch()
	return nil
}

// IncreaseStock adds quantity units.
func (p *Product) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOperation, quantity)
	}
	next, err := p.Stock.Add(quantity)
	if err != nil {
		return err
	}
	p.Stock = next
	p.touch()
	return nil
}

// ApplyDiscount returns the price after taking percentage (0..100) off.
// The product itself is not modified.
func (p *Product) ApplyDiscount(percentage decimal.Decimal) (Price, error) {
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return Price{}, fmt.Errorf("%w: percentage must be between 0 and 100, got %s", ErrInvalidDiscount, percentage.String())
	}
	factor := decimal.NewFromInt(1).Sub(percentage.Div(hundred))
	discounted := p.Price.Value().Mul(factor)
	if discounted.IsNegative() {
		return Price{}, fmt.Errorf("%w: discounted price cannot be negative", ErrInvalidDiscount)
	}
	return NewPrice(discounted)
}

// IsAvailable reports whether the product can be purchased right now.
func (p *Product) IsAvailable() bool {
	return p.IsActive && p.Stock.IsAvailable()
}

func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock.IsLowStock(threshold)
}

func (p *Product) Activate() {
	p.IsActive = true
	p.touch()
}

func (p *Product) Deactivate() {
	p.IsActive = false
	p.touch()
}

// ProductChanges is a partial update; nil fields are left as they are.
type ProductChanges struct {
	Name        *string
	Category    *string
	Description *string
	Price       *Price
	Stock       *Stock
	IsActive    *bool
}

// Empty reports whether no field is set.
func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.Category == nil && c.Description == nil &&
		c.Price == nil && c.Stock == nil && c.IsActive == nil
}

// Apply validates the changed product as a whole before writing anything to p.
func (p *Product) Apply(changes ProductChanges) error {
	candidate := *p
	if changes.Name != nil {
		candidate.Name = strings.TrimSpace(*changes.Name)
	}
	if changes.Category != nil {
		candidate.Category = strings.TrimSpace(*changes.Category)
	}
	if changes.Description != nil {
		candidate.Description = strings.TrimSpace(*changes.Description)
	}
	if changes.Price != nil {
		candidate.Price = *changes.Price
	}
	if changes.Stock != nil {
		candidate.Stock = *changes.Stock
	}
	if changes.IsActive != nil {
		candidate.IsActive = *changes.IsActive
	}
	if err := candidate.Validate(); err != nil {
		return err
	}
	*p = candidate
	p.touch()
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
