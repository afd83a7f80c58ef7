package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// productRecord is the products table row.
type productRecord struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	Name        string          `gorm:"type:varchar(255);not null;index"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;index"`
	Stock       int             `gorm:"not null;default:0"`
	Category    string          `gorm:"type:varchar(100);not null;index"`
	Description string          `gorm:"type:text"`
	IsActive    bool            `gorm:"not null;default:true;index"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime:false"`
}

func (productRecord) TableName() string { return "products" }

func toRecord(p *models.Product) productRecord {
	return productRecord{
		ID:          p.ID.String(),
		Name:        p.Name,
		Price:       p.Price.Value(),
		Stock:       p.Stock.Value(),
		Category:    p.Category,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r productRecord) toDomain() (*models.Product, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt product id %q: %w", r.ID, err)
	}
	price, err := models.NewPrice(r.Price)
	if err != nil {
		return nil, fmt.Errorf("corrupt price for product %s: %w", r.ID, err)
	}
	stock, err := models.NewStock(r.Stock)
	if err != nil {
		return nil, fmt.Errorf("corrupt stock for product %s: %w", r.ID, err)
	}
	return &models.Product{
		ID:          id,
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Price:       price,
		Stock:       stock,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns an ID and timestamps and inserts the product.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	created := *product
	created.ID = uuid.New()
	now := r.now()
	created.CreatedAt = now
	created.UpdatedAt = now

	rec := toRecord(&created)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &created, nil
}

// GetByID returns the product regardless of its active flag.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return rec.toDomain()
}

func (r *GORMProductRepository) List(ctx context.Context, filters ProductFilters, limit, offset int) ([]*models.Product, error) {
	var recs []productRecord
	err := r.filtered(ctx, filters).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*models.Product, 0, len(recs))
	for _, rec := range recs {
		p, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// Update writes every mutable column. Unknown IDs yield ErrNotFound.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	return r.write(r.db.WithContext(ctx), product)
}

// UpdateFunc loads the product inside a transaction, locking its row, and
// writes it back only if mutate succeeds. SQLite has no row locks; there the
// single connection opened by database.Open serializes writers.
func (r *GORMProductRepository) UpdateFunc(ctx context.Context, id uuid.UUID, mutate func(*models.Product) error) (*models.Product, error) {
	var updated *models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var rec productRecord
		if err := q.First(&rec, "id = ?", id.String()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to lock product %s: %w", id, err)
		}
		product, err := rec.toDomain()
		if err != nil {
			return err
		}
		if err := mutate(product); err != nil {
			return err
		}
		updated, err = r.write(tx, product)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GORMProductRepository) write(db *gorm.DB, product *models.Product) (*models.Product, error) {
	updated := *product
	updated.UpdatedAt = r.now()
	rec := toRecord(&updated)

	res := db.
		Model(&productRecord{}).
		Where("id = ?", rec.ID).
		Select("name", "price", "stock", "category", "description", "is_active", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return &updated, nil
}

func (r *GORMProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("id = ?", id.String()).
		Updates(map[string]any{"is_active": false, "updated_at": r.now()})
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMProductRepository) Count(ctx context.Context, filters ProductFilters) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filters).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

func (r *GORMProductRepository) filtered(ctx context.Context, f ProductFilters) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&productRecord{}).Where("is_active = ?", f.activeValue())
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	return q
}
