package service

import (
	"context"
	"fmt"
	"time"

	"github.com/you/trip-booking/pkg/events"
	"github.com/you/trip-booking/services/booking-service/internal/domain"
)

type CatalogStore interface {
	ByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	List(ctx context.Context, category domain.Category) ([]domain.CatalogItem, error)
}

type BookingStore interface {
	CreateWithCapacity(ctx context.Context, b *domain.Booking, evt events.BookingCreated) error
	ByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, to domain.BookingStatus) (*domain.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, to domain.PaymentStatus) (*domain.Booking, error)
	Cancel(ctx context.Context, id string, evt events.BookingCancelled) (*domain.Booking, error)
}

type BookingSvc struct {
	catalog  CatalogStore
	bookings BookingStore
}

func NewBookingSvc(catalog CatalogStore, bookings BookingStore) *BookingSvc {
	return &BookingSvc{catalog: catalog, bookings: bookings}
}

const dateLayout = "2006-01-02"

// Create books party_size places on an item for a date. The total is
// the unit price at creation time; later price changes never touch it.
func (s *BookingSvc) Create(ctx context.Context, accountID, itemID, date string, partySize int) (*domain.Booking, error) {
	if partySize < 1 {
		return nil, domain.ErrInvalidPartySize
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	item, err := s.catalog.ByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if partySize > item.Remaining {
		return nil, domain.ErrCapacityExceeded
	}

	b := &domain.Booking{
		AccountID:     accountID,
		ItemID:        item.ID,
		Date:          day.UTC(),
		PartySize:     partySize,
		Total:         item.UnitPrice * int64(partySize),
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
	}
	evt := events.BookingCreated{
		AccountID: accountID,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Date:      date,
		PartySize: partySize,
		Total:     b.Total,
	}
	if err := s.bookings.CreateWithCapacity(ctx, b, evt); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookingSvc) Get(ctx context.Context, accountID, id string) (*domain.Booking, error) {
	b, err := s.bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AccountID != accountID {
		return nil, domain.ErrNotOwner
	}
	return b, nil
}

func (s *BookingSvc) ListByAccount(ctx context.Context, accountID string) ([]domain.Booking, error) {
	return s.bookings.ListByAccount(ctx, accountID)
}

func (s *BookingSvc) Cancel(ctx context.Context, accountID, id string) (*domain.Booking, error) {
	b, err := s.bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AccountID != accountID {
		return nil, domain.ErrNotOwner
	}
	return s.cancel(ctx, id)
}

func (s *BookingSvc) cancel(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := s.catalog.ByID(ctx, b.ItemID)
	itemName := b.ItemID
	if err == nil {
		itemName = item.Name
	}
	return s.bookings.Cancel(ctx, id, events.BookingCancelled{ItemName: itemName})
}

func (s *BookingSvc) UpdateStatus(ctx context.Context, id string, to domain.BookingStatus) (*domain.Booking, error) {
	if !domain.ValidBookingStatus(to) {
		return nil, fmt.Errorf("unknown booking status %q", to)
	}
	// cancellation always goes through the capacity-restoring path
	if to == domain.BookingStatusCancelled {
		return s.cancel(ctx, id)
	}
	return s.bookings.UpdateStatus(ctx, id, to)
}

func (s *BookingSvc) UpdatePaymentStatus(ctx context.Context, id string, to domain.PaymentStatus) (*domain.Booking, error) {
	if !domain.ValidPaymentStatus(to) {
		return nil, fmt.Errorf("unknown payment status %q", to)
	}
	return s.bookings.UpdatePaymentStatus(ctx, id, to)
}

func (s *BookingSvc) Item(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return s.catalog.ByID(ctx, id)
}

func (s *BookingSvc) Items(ctx context.Context, category domain.Category) ([]domain.CatalogItem, error) {
	if category != "" && !domain.ValidCategory(category) {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	return s.catalog.List(ctx, category)
}
