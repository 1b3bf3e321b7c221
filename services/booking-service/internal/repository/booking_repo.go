package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/trip-booking/pkg/events"
	"github.com/you/trip-booking/pkg/outbox"
	"github.com/you/trip-booking/services/booking-service/internal/domain"
)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Booking{}, &domain.EventConsumed{})
}

// CreateWithCapacity runs the capacity decrement, the booking insert and
// the booking.created outbox row in one transaction. The decrement is a
// conditional UPDATE, so two concurrent requests can never both pass a
// stale capacity check: the second one sees zero rows affected and fails.
func (r *BookingRepo) CreateWithCapacity(ctx context.Context, b *domain.Booking, evt events.BookingCreated) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.CatalogItem{}).
			Where("id = ? AND remaining >= ?", b.ItemID, b.PartySize).
			Update("remaining", gorm.Expr("remaining - ?", b.PartySize))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&domain.CatalogItem{}).Where("id = ?", b.ItemID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrItemNotFound
			}
			return domain.ErrCapacityExceeded
		}

		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}

		evt.BookingID = b.ID
		return outbox.EnqueueTx(tx, events.RKBookingCreated, evt)
	})
}

func (r *BookingRepo) ByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// UpdateStatus is an idempotent field update keyed by booking id.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, to domain.BookingStatus) (*domain.Booking, error) {
	return r.update(ctx, id, map[string]any{"status": to})
}

func (r *BookingRepo) UpdatePaymentStatus(ctx context.Context, id string, to domain.PaymentStatus) (*domain.Booking, error) {
	return r.update(ctx, id, map[string]any{"payment_status": to})
}

func (r *BookingRepo) update(ctx context.Context, id string, fields map[string]any) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookingNotFound
			}
			return err
		}
		if err := tx.Model(&b).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&b, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Cancel flips a pending or confirmed booking to cancelled, hands its
// capacity back and enqueues booking.cancelled. Cancelling an already
// cancelled booking is a no-op.
func (r *BookingRepo) Cancel(ctx context.Context, id string, evt events.BookingCancelled) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookingNotFound
			}
			return err
		}
		if b.Status == domain.BookingStatusCancelled {
			return nil
		}
		if err := tx.Model(&b).Update("status", domain.BookingStatusCancelled).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.CatalogItem{}).
			Where("id = ?", b.ItemID).
			Update("remaining", gorm.Expr("remaining + ?", b.PartySize)).Error; err != nil {
			return err
		}
		b.Status = domain.BookingStatusCancelled
		evt.BookingID = b.ID
		evt.AccountID = b.AccountID
		return outbox.EnqueueTx(tx, events.RKBookingCancelled, evt)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ApplyPaymentEventOnce applies a payment outcome exactly once per event
// id. Redeliveries find the event_consumed row and return the current
// booking unchanged.
func (r *BookingRepo) ApplyPaymentEventOnce(ctx context.Context, bookingID, eventID, eventKey string, to domain.PaymentStatus, confirm bool) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&domain.EventConsumed{}).Where("id = ?", eventID).Count(&seen).Error; err != nil {
			return err
		}
		if err := tx.First(&b, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookingNotFound
			}
			return err
		}
		if seen > 0 {
			return nil
		}

		fields := map[string]any{"payment_status": to}
		if confirm && b.Status == domain.BookingStatusPending {
			fields["status"] = domain.BookingStatusConfirmed
		}
		if err := tx.Model(&b).Updates(fields).Error; err != nil {
			return err
		}
		if err := tx.First(&b, "id = ?", bookingID).Error; err != nil {
			return err
		}
		rec := domain.EventConsumed{ID: eventID, EventKey: eventKey, ProcessedAt: time.Now().UTC()}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}
