package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Routing keys for product events.
const (
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
	EventProductLowStock = "product.stock.low"
)

// EventPublisher delivers a serialized event under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductEvent is the body published for every product event.
type ProductEvent struct {
	Type       string          `json:"type"`
	ProductID  uuid.UUID       `json:"product_id"`
	Product    *models.Product `json:"product,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// CreateProductInput carries the fields for a new product.
type CreateProductInput struct {
	Name        string
	Category    string
	Description string
	Price       models.Price
	Stock       models.Stock
}

// ListResult is one page of products.
type ListResult struct {
	Items      []*models.Product `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo              repositories.ProductRepository
	events            EventPublisher
	logger            *zap.Logger
	lowStockThreshold int
}

// NewProductService creates a new ProductService. events may be nil, in which
// case nothing is published.
func NewProductService(repo repositories.ProductRepository, events EventPublisher, logger *zap.Logger, lowStockThreshold int) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lowStockThreshold < 0 {
		lowStockThreshold = models.DefaultLowStockThreshold
	}
	return &ProductService{
		repo:              repo,
		events:            events,
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
	}
}

// CreateProduct validates input and stores a new active product.
func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	product, err := models.NewProduct(models.ProductParams{
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.String("product_id", created.ID.String()), zap.String("name", created.Name))
	s.publish(EventProductCreated, created)
	return created, nil
}

// GetProduct returns the product with id, active or not.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return product, nil
}

// ListProducts returns one page. page is clamped to 1 and an out-of-range
// limit falls back to DefaultPageLimit.
func (s *ProductService) ListProducts(ctx context.Context, filters repositories.ProductFilters, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}

	items, err := s.repo.List(ctx, filters, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// UpdateProduct applies a partial update. Nothing is stored if any resulting
// field is invalid.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, changes models.ProductChanges) (*models.Product, error) {
	if changes.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrInvalidOperation)
	}
	return s.mutate(ctx, id, func(p *models.Product) error {
		return p.Apply(changes)
	})
}

// DeleteProduct soft-deletes the product.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateRepoError(err)
	}
	s.logger.Info("product deleted", zap.String("product_id", id.String()))
	product.Deactivate()
	s.publish(EventProductDeleted, product)
	return nil
}

// ReduceStock removes quantity units and announces when the product runs low.
// Concurrent reductions never sell more than the stored stock.
func (s *ProductService) ReduceStock(ctx context.Context, id uuid.UUID, quantity int) (*models.Product, error) {
	updated, err := s.mutate(ctx, id, func(p *models.Product) error {
		return p.ReduceStock(quantity)
	})
	if err != nil {
		return nil, err
	}
	if updated.IsLowStock(s.lowStockThreshold) {
		s.logger.Warn("product stock is low",
			zap.String("product_id", updated.ID.String()),
			zap.Int("stock", updated.Stock.Value()),
			zap.Int("threshold", s.lowStockThreshold),
		)
		s.publish(EventProductLowStock, updated)
	}
	return updated, nil
}

// IncreaseStock adds quantity units.
func (s *ProductService) IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) (*models.Product, error) {
	return s.mutate(ctx, id, func(p *models.Product) error {
		return p.IncreaseStock(quantity)
	})
}

// DiscountQuote is a discounted price together with the product it was computed from.
type DiscountQuote struct {
	Product         *models.Product
	Percentage      decimal.Decimal
	DiscountedPrice models.Price
}

// QuoteDiscount returns the discounted price without changing the product.
func (s *ProductService) QuoteDiscount(ctx context.Context, id uuid.UUID, percentage decimal.Decimal) (*DiscountQuote, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	price, err := product.ApplyDiscount(percentage)
	if err != nil {
		return nil, err
	}
	return &DiscountQuote{Product: product, Percentage: percentage, DiscountedPrice: price}, nil
}

// ActivateProduct makes a product visible in listings again.
func (s *ProductService) ActivateProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.mutate(ctx, id, func(p *models.Product) error {
		p.Activate()
		return nil
	})
}

// mutate runs change against the stored product atomically and publishes
// product.updated on success.
func (s *ProductService) mutate(ctx context.Context, id uuid.UUID, change func(*models.Product) error) (*models.Product, error) {
	updated, err := s.repo.UpdateFunc(ctx, id, change)
	if err != nil {
		return nil, translateRepoError(err)
	}
	s.publish(EventProductUpdated, updated)
	return updated, nil
}

func (s *ProductService) publish(eventType string, product *models.Product) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(ProductEvent{
		Type:       eventType,
		ProductID:  product.ID,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to encode product event", zap.String("event", eventType), zap.Error(err))
		return
	}
	if err := s.events.Publish(eventType, body); err != nil {
		s.logger.Error("failed to publish product event",
			zap.String("event", eventType),
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}
}

func translateRepoError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %v", models.ErrProductNotFound, err)
	}
	return err
}
