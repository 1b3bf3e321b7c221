package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/trip-booking/pkg/outbox"
	"github.com/you/trip-booking/services/payment-service/internal/domain"
)

type PaymentRepo struct{ db *gorm.DB }

func NewPaymentRepo(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Payment{})
}

func (r *PaymentRepo) CreatePending(ctx context.Context, p *domain.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = domain.StatusPending
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil && p.RequestID != "" && isUniqueViolation(err) {
		return domain.ErrDuplicateRequest
	}
	return err
}

func (r *PaymentRepo) ByRef(ctx context.Context, ref string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ByRequestID makes retried submissions idempotent: the same request id
// always maps back to the first payment record.
func (r *PaymentRepo) ByRequestID(ctx context.Context, requestID string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// isUniqueViolation matches the postgres duplicate-key error without
// depending on driver error types (23505 is the SQLSTATE).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}

// Finish applies the single gateway outcome to the pending record and
// enqueues the outcome event in the same transaction.
func (r *PaymentRepo) Finish(ctx context.Context, id string, fields map[string]any, routingKey string, evt any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Payment{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrPaymentNotFound
		}
		return outbox.EnqueueTx(tx, routingKey, evt)
	})
}
