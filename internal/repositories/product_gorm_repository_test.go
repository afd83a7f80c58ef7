package repositories_test

import (
	"fmt"
	"testing"

	"catalog/internal/database"
	"catalog/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGORMProductRepository_SQLite(t *testing.T) {
	runProductRepositoryContract(t, func(t *testing.T) repositories.ProductRepository {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err := database.Open(database.DriverSQLite, dsn, zap.NewNop())
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })
		return repositories.NewGORMProductRepository(db)
	})
}
