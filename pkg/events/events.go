package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Routing keys carried over the topic exchanges.
const (
	RKBookingCreated   = "booking.created"
	RKBookingCancelled = "booking.cancelled"

	RKPaymentCompleted = "payment.completed"
	RKPaymentFailed    = "payment.failed"
	RKPaymentRefunded  = "payment.refunded"
)

// Envelope wraps every event. ID is unique per event and is what
// consumers record to stay idempotent under redelivery.
type Envelope struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	Version    int             `json:"version"`
	OccurredAt string          `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

func NewEnvelope(event string, data any) (Envelope, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s data: %w", event, err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Event:      event,
		Version:    1,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Data:       b,
	}, nil
}

type BookingCreated struct {
	BookingID string `json:"booking_id"`
	AccountID string `json:"account_id"`
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	Date      string `json:"date"`
	PartySize int    `json:"party_size"`
	Total     int64  `json:"total"` // cents
}

type BookingCancelled struct {
	BookingID string `json:"booking_id"`
	AccountID string `json:"account_id"`
	ItemName  string `json:"item_name"`
}

type PaymentCompleted struct {
	PaymentID     string `json:"payment_id"`
	BookingID     string `json:"booking_id"`
	AccountID     string `json:"account_id"`
	Amount        int64  `json:"amount"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

type PaymentFailed struct {
	PaymentID string `json:"payment_id"`
	BookingID string `json:"booking_id"`
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Reason    string `json:"reason"`
}

type PaymentRefunded struct {
	PaymentID string `json:"payment_id"`
	BookingID string `json:"booking_id"`
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

func Decode[T any](e Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(e.Data, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return t, nil
}

func Unmarshal(body []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}
