package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog/internal/models"

	"github.com/google/uuid"
)

// InMemoryProductRepository is a map-backed ProductRepository used for local
// runs (DATABASE_DRIVER=memory) and tests.
type InMemoryProductRepository struct {
	products map[uuid.UUID]models.Product
	mu       sync.RWMutex
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[uuid.UUID]models.Product),
	}
}

func (r *InMemoryProductRepository) Create(_ context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *product
	created.ID = uuid.New()
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.products[created.ID] = created

	out := created
	return &out, nil
}

func (r *InMemoryProductRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

func (r *InMemoryProductRepository) List(_ context.Context, filters ProductFilters, limit, offset int) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.match(filters)
	if offset >= len(matched) {
		return []*models.Product{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

func (r *InMemoryProductRepository) Update(_ context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	updated := *product
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.products[updated.ID] = updated

	out := updated
	return &out, nil
}

// UpdateFunc holds the write lock across the read, mutate and write.
func (r *InMemoryProductRepository) UpdateFunc(_ context.Context, id uuid.UUID, mutate func(*models.Product) error) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	if err := mutate(&product); err != nil {
		return nil, err
	}
	product.ID = id
	product.UpdatedAt = time.Now().UTC()
	r.products[id] = product

	out := product
	return &out, nil
}

func (r *InMemoryProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	product.IsActive = false
	product.UpdatedAt = time.Now().UTC()
	r.products[id] = product
	return nil
}

func (r *InMemoryProductRepository) Count(_ context.Context, filters ProductFilters) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.match(filters))), nil
}

// match must be called with r.mu held.
func (r *InMemoryProductRepository) match(f ProductFilters) []*models.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*models.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.IsActive != f.activeValue() {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price.Value().LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.Value().GreaterThan(*f.MaxPrice) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		product := p
		out = append(out, &product)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
