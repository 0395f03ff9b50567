package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/shashiranjanraj/apotek/pkg/cache"
	"gorm.io/gorm"
)

const catalogCacheKey = "catalog:products"

// CatalogRepository lists products for the register. Listings are cached
// briefly; every committed sale drops the cached copy.
type CatalogRepository struct {
	db    *gorm.DB
	cache *cache.Store
	ttl   time.Duration
}

func NewCatalogRepository(db *gorm.DB, c *cache.Store, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{db: db, cache: c, ttl: ttl}
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return cache.Remember(ctx, r.cache, catalogCacheKey, r.ttl, r.load)
}

func (r *CatalogRepository) load(ctx context.Context) ([]domain.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}

	out := make([]domain.Product, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.ToDomain())
	}
	return out, nil
}

// Invalidate drops the cached listing.
func (r *CatalogRepository) Invalidate(ctx context.Context) error {
	return r.cache.Forget(ctx, catalogCacheKey)
}
