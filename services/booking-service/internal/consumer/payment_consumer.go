package consumer

import (
	"context"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/you/trip-booking/pkg/events"
	"github.com/you/trip-booking/services/booking-service/internal/domain"
)

type PaymentApplier interface {
	ApplyPaymentEventOnce(ctx context.Context, bookingID, eventID, eventKey string, to domain.PaymentStatus, confirm bool) (*domain.Booking, error)
}

// PaymentConsumer applies payment outcomes to bookings. A completed
// payment also confirms a still-pending booking.
type PaymentConsumer struct {
	repo PaymentApplier
}

func NewPaymentConsumer(repo PaymentApplier) *PaymentConsumer {
	return &PaymentConsumer{repo: repo}
}

func (pc *PaymentConsumer) Handle(ctx context.Context, d amqp.Delivery) error {
	env, err := events.Unmarshal(d.Body)
	if err != nil {
		// malformed payloads are dropped, requeueing cannot fix them
		log.Printf("[booking] drop malformed event key=%s: %v", d.RoutingKey, err)
		return nil
	}

	var (
		bookingID string
		to        domain.PaymentStatus
		confirm   bool
	)
	switch d.RoutingKey {
	case events.RKPaymentCompleted:
		ev, err := events.Decode[events.PaymentCompleted](env)
		if err != nil {
			log.Printf("[booking] drop %s: %v", env.Event, err)
			return nil
		}
		bookingID, to, confirm = ev.BookingID, domain.PaymentStatusCompleted, true
	case events.RKPaymentFailed:
		ev, err := events.Decode[events.PaymentFailed](env)
		if err != nil {
			log.Printf("[booking] drop %s: %v", env.Event, err)
			return nil
		}
		bookingID, to = ev.BookingID, domain.PaymentStatusFailed
	case events.RKPaymentRefunded:
		ev, err := events.Decode[events.PaymentRefunded](env)
		if err != nil {
			log.Printf("[booking] drop %s: %v", env.Event, err)
			return nil
		}
		bookingID, to = ev.BookingID, domain.PaymentStatusRefunded
	default:
		return nil
	}

	if bookingID == "" || env.ID == "" {
		log.Printf("[booking] drop %s: missing booking or event id", d.RoutingKey)
		return nil
	}

	_, err = pc.repo.ApplyPaymentEventOnce(ctx, bookingID, env.ID, d.RoutingKey, to, confirm)
	if errors.Is(err, domain.ErrBookingNotFound) {
		// payment for a booking this instance never saw; nothing to retry
		log.Printf("[booking] %s for unknown booking %s", d.RoutingKey, bookingID)
		return nil
	}
	return err
}
