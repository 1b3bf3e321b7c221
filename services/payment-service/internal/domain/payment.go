package domain

import (
	"errors"
	"time"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrNotRefundable     = errors.New("payment is not refundable")
	ErrDuplicateRequest  = errors.New("request id already used")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is owned exclusively by this service; the booking and account
// ids are opaque references, never joined against.
type Payment struct {
	ID            string `gorm:"primaryKey"`
	Ref           string `gorm:"uniqueIndex;size:32"` // external reference, e.g. PAY-...
	// client idempotency key, optional; the partial unique index lets
	// any number of rows omit it while rejecting a concurrent duplicate
	RequestID string `gorm:"index:idx_payments_request_id,unique,where:request_id <> '';size:64"`
	BookingID     string `gorm:"index"`
	AccountID     string `gorm:"index"`
	Amount        int64  // cents, copied from the booking total at submission time
	Method        string `gorm:"size:16"`
	Status        Status `gorm:"index;size:16"`
	TransactionID string
	FailureReason string
	RefundRef     string
	RefundReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
