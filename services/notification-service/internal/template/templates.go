// Package template renders the closed set of notification messages.
package template

import (
	"fmt"

	"github.com/you/trip-booking/services/notification-service/internal/domain"
)

const (
	TypeBookingCreated   = "booking_created"
	TypeBookingCancelled = "booking_cancelled"
	TypePaymentSuccess   = "payment_success"
	TypePaymentFailed    = "payment_failed"
	TypeRefundProcessed  = "refund_processed"
)

// Data carries the contextual fields a template may reference. Missing
// fields render as empty strings, matching a best-effort mailer.
type Data map[string]string

func (d Data) get(k string) string { return d[k] }

func Known(typ string) bool {
	switch typ {
	case TypeBookingCreated, TypeBookingCancelled, TypePaymentSuccess, TypePaymentFailed, TypeRefundProcessed:
		return true
	}
	return false
}

// Render returns the subject and body for a notification type.
func Render(typ string, d Data) (subject, body string, err error) {
	switch typ {
	case TypeBookingCreated:
		return "Booking received",
			fmt.Sprintf("Your booking %s for %s on %s (party of %s) was received. Total: %s.",
				d.get("booking_id"), d.get("item_name"), d.get("date"), d.get("party_size"), d.get("total")),
			nil
	case TypeBookingCancelled:
		return "Booking cancelled",
			fmt.Sprintf("Your booking %s for %s has been cancelled.",
				d.get("booking_id"), d.get("item_name")),
			nil
	case TypePaymentSuccess:
		return "Payment confirmed",
			fmt.Sprintf("Payment %s for booking %s succeeded (transaction %s). Amount: %s.",
				d.get("payment_id"), d.get("booking_id"), d.get("transaction_id"), d.get("amount")),
			nil
	case TypePaymentFailed:
		return "Payment failed",
			fmt.Sprintf("Payment for booking %s failed: %s. Please try again.",
				d.get("booking_id"), d.get("reason")),
			nil
	case TypeRefundProcessed:
		return "Refund processed",
			fmt.Sprintf("Your refund for payment %s has been processed. Amount: %s.",
				d.get("payment_id"), d.get("amount")),
			nil
	default:
		return "", "", domain.ErrUnknownTemplate
	}
}
