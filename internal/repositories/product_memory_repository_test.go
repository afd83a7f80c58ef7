package repositories_test

import (
	"context"
	"sync"
	"testing"

	"catalog/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryProductRepository(t *testing.T) {
	runProductRepositoryContract(t, func(t *testing.T) repositories.ProductRepository {
		return repositories.NewInMemoryProductRepository()
	})
}

func TestInMemoryProductRepository_ReturnsCopies(t *testing.T) {
	repo := repositories.NewInMemoryProductRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newProduct(t, "Lamp", "lighting", "10.00", 5))
	require.NoError(t, err)

	created.Name = "mutated"
	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)
}

func TestInMemoryProductRepository_ConcurrentAccess(t *testing.T) {
	repo := repositories.NewInMemoryProductRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newProduct(t, "Item", "bulk", "1.00", 1))
			assert.NoError(t, err)
			_, err = repo.Count(ctx, repositories.ProductFilters{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total, err := repo.Count(ctx, repositories.ProductFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 20, total)
}
