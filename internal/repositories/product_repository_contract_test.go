package repositories_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runProductRepositoryContract checks the behavior every ProductRepository
// implementation must share. newRepo must return an empty repository.
func runProductRepositoryContract(t *testing.T, newRepo func(t *testing.T) repositories.ProductRepository) {
	t.Run("create assigns identity", func(t *testing.T) {
		repo := newRepo(t)
		input := newProduct(t, "Laptop", "electronics", "1299.99", 5)

		created, err := repo.Create(context.Background(), input)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)
		assert.Equal(t, uuid.Nil, input.ID, "input is not modified")

		got, err := repo.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Laptop", got.Name)
		assert.Equal(t, "1299.99", got.Price.String())
		assert.Equal(t, 5, got.Stock.Value())
		assert.True(t, got.IsActive)
	})

	t.Run("get unknown id", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created, err := repo.Create(ctx, newProduct(t, "Mouse", "electronics", "25.00", 50))
		require.NoError(t, err)

		require.NoError(t, created.ReduceStock(10))
		price, err := models.NewPriceFromString("19.99")
		require.NoError(t, err)
		require.NoError(t, created.Apply(models.ProductChanges{Price: &price}))

		_, err = repo.Update(ctx, created)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 40, got.Stock.Value())
		assert.Equal(t, "19.99", got.Price.String())
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("update unknown id", func(t *testing.T) {
		repo := newRepo(t)
		ghost := newProduct(t, "Ghost", "none", "1.00", 1)
		ghost.ID = uuid.New()

		_, err := repo.Update(context.Background(), ghost)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		_, err = repo.GetByID(context.Background(), ghost.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound, "update must not insert")
	})

	t.Run("update func", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created, err := repo.Create(ctx, newProduct(t, "Cable", "electronics", "5.00", 10))
		require.NoError(t, err)

		updated, err := repo.UpdateFunc(ctx, created.ID, func(p *models.Product) error {
			return p.ReduceStock(4)
		})
		require.NoError(t, err)
		assert.Equal(t, 6, updated.Stock.Value())

		_, err = repo.UpdateFunc(ctx, created.ID, func(p *models.Product) error {
			p.Deactivate()
			return p.ReduceStock(100)
		})
		assert.ErrorIs(t, err, models.ErrInsufficientStock)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Stock.Value())
		assert.True(t, got.IsActive, "a failed mutation writes nothing")

		_, err = repo.UpdateFunc(ctx, uuid.New(), func(*models.Product) error { return nil })
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("concurrent reductions never oversell", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created, err := repo.Create(ctx, newProduct(t, "Console", "electronics", "499.00", 50))
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.UpdateFunc(ctx, created.ID, func(p *models.Product) error {
					return p.ReduceStock(30)
				})
				if err == nil {
					succeeded.Add(1)
					return
				}
				assert.ErrorIs(t, err, models.ErrInsufficientStock)
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, succeeded.Load())
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.Stock.Value())
	})

	t.Run("delete is soft", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created, err := repo.Create(ctx, newProduct(t, "Desk", "furniture", "150.00", 2))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ID))

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)

		total, err := repo.Count(ctx, repositories.ProductFilters{})
		require.NoError(t, err)
		assert.Zero(t, total)

		inactive := false
		total, err = repo.Count(ctx, repositories.ProductFilters{Active: &inactive})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)

		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), repositories.ErrNotFound)
	})

	t.Run("filters", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		for _, p := range []*models.Product{
			newProduct(t, "Red Chair", "furniture", "49.99", 3),
			newProduct(t, "Blue Chair", "furniture", "59.99", 3),
			newProduct(t, "Oak Table", "furniture", "199.00", 1),
			newProduct(t, "Desk Lamp", "lighting", "19.99", 8),
		} {
			_, err := repo.Create(ctx, p)
			require.NoError(t, err)
		}

		minPrice := decimal.RequireFromString("49.99")
		maxPrice := decimal.RequireFromString("59.99")

		tests := []struct {
			name    string
			filters repositories.ProductFilters
			want    int64
		}{
			{"none", repositories.ProductFilters{}, 4},
			{"category", repositories.ProductFilters{Category: "furniture"}, 3},
			{"category is exact", repositories.ProductFilters{Category: "Furniture"}, 0},
			{"search ignores case", repositories.ProductFilters{Search: "cHaIr"}, 2},
			{"price bounds inclusive", repositories.ProductFilters{MinPrice: &minPrice, MaxPrice: &maxPrice}, 2},
			{"combined", repositories.ProductFilters{Category: "furniture", MinPrice: &maxPrice}, 2},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				total, err := repo.Count(ctx, tt.filters)
				require.NoError(t, err)
				assert.Equal(t, tt.want, total)

				items, err := repo.List(ctx, tt.filters, 100, 0)
				require.NoError(t, err)
				assert.Len(t, items, int(tt.want))
			})
		}
	})

	t.Run("list pages in creation order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		names := []string{"A", "B", "C", "D", "E"}
		for _, name := range names {
			_, err := repo.Create(ctx, newProduct(t, name, "letters", "1.00", 1))
			require.NoError(t, err)
		}

		var seen []string
		for offset := 0; offset < len(names); offset += 2 {
			page, err := repo.List(ctx, repositories.ProductFilters{}, 2, offset)
			require.NoError(t, err)
			for _, p := range page {
				seen = append(seen, p.Name)
			}
		}
		assert.Equal(t, names, seen)

		page, err := repo.List(ctx, repositories.ProductFilters{}, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}

func newProduct(t *testing.T, name, category, price string, stock int) *models.Product {
	t.Helper()
	p, err := models.NewPriceFromString(price)
	require.NoError(t, err)
	s, err := models.NewStock(stock)
	require.NoError(t, err)
	product, err := models.NewProduct(models.ProductParams{
		Name:     name,
		Category: category,
		Price:    p,
		Stock:    s,
		IsActive: true,
	})
	require.NoError(t, err)
	return product
}
