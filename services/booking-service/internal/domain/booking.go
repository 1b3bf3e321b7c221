package domain

import (
	"errors"
	"time"
)

var (
	ErrItemNotFound     = errors.New("catalog item not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrInvalidPartySize = errors.New("party size must be at least 1")
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrCapacityExceeded = errors.New("party size exceeds remaining capacity")
	ErrNotOwner         = errors.New("booking belongs to another account")
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type Booking struct {
	ID            string `gorm:"primaryKey"`
	AccountID     string `gorm:"index"`
	ItemID        string `gorm:"index"`
	Date          time.Time
	PartySize     int
	Total         int64         // cents, unit price x party size at creation time
	Status        BookingStatus `gorm:"index;size:16"`
	PaymentStatus PaymentStatus `gorm:"size:16"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventConsumed records which payment events were already applied so a
// redelivered message cannot flip a booking twice.
type EventConsumed struct {
	ID          string `gorm:"primaryKey"` // event envelope id
	EventKey    string `gorm:"index;size:64"`
	ProcessedAt time.Time
}
