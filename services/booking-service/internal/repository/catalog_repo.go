package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/trip-booking/services/booking-service/internal/domain"
)

type CatalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.CatalogItem{}, &domain.SeedMarker{})
}

// Seed inserts the starter catalog exactly once across restarts, keyed
// by a sentinel row rather than ambient process state.
func (r *CatalogRepo) Seed(ctx context.Context, items []domain.CatalogItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var marker domain.SeedMarker
		err := tx.First(&marker, "key = ?", "catalog").Error
		if err == nil {
			return nil // already seeded
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.NewString()
			}
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		log.Printf("[booking] seeded %d catalog items", len(items))
		return tx.Create(&domain.SeedMarker{Key: "catalog", SeededAt: time.Now().UTC()}).Error
	})
}

func (r *CatalogRepo) ByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *CatalogRepo) List(ctx context.Context, category domain.Category) ([]domain.CatalogItem, error) {
	qb := r.db.WithContext(ctx).Model(&domain.CatalogItem{})
	if category != "" {
		qb = qb.Where("category = ?", category)
	}
	var out []domain.CatalogItem
	if err := qb.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
