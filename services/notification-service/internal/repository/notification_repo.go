package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/trip-booking/services/notification-service/internal/domain"
)

type NotificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Notification{})
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepo) ByID(ctx context.Context, id string) (*domain.Notification, error) {
	var n domain.Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

// MarkRead sets read_at exactly once. Repeat calls keep the first
// timestamp; the conditional update simply matches zero rows.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	return r.ByID(ctx, id)
}

func (r *NotificationRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *NotificationRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{
		ByOutcome: map[string]int64{},
		ByType:    map[string]int64{},
	}
	if err := r.db.WithContext(ctx).Model(&domain.Notification{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}
	var rows []bucket
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Select("outcome AS key, COUNT(*) AS count").
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByOutcome[row.Key] = row.Count
	}

	rows = rows[:0]
	err = r.db.WithContext(ctx).Model(&domain.Notification{}).
		Select("type AS key, COUNT(*) AS count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByType[row.Key] = row.Count
	}
	return stats, nil
}
