// Package worker turns booking and payment events into notifications.
package worker

import (
	"context"
	"errors"
	"log"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/you/trip-booking/pkg/events"
	"github.com/you/trip-booking/services/notification-service/internal/domain"
	"github.com/you/trip-booking/services/notification-service/internal/template"
)

type Sender interface {
	Send(ctx context.Context, accountID, typ string, data template.Data) (*domain.Notification, error)
}

type EventWorker struct {
	svc Sender
}

func NewEventWorker(svc Sender) *EventWorker {
	return &EventWorker{svc: svc}
}

// Handle maps a routing key onto a template and sends through the same
// path the HTTP endpoint uses. Persistence errors propagate so the
// delivery is nacked and retried; malformed payloads are dropped.
func (w *EventWorker) Handle(ctx context.Context, d amqp.Delivery) error {
	env, err := events.Unmarshal(d.Body)
	if err != nil {
		log.Printf("[notify] drop malformed event key=%s: %v", d.RoutingKey, err)
		return nil
	}

	var (
		accountID string
		typ       string
		data      template.Data
	)
	switch d.RoutingKey {
	case events.RKBookingCreated:
		ev, err := events.Decode[events.BookingCreated](env)
		if err != nil {
			log.Printf("[notify] drop %s: %v", env.Event, err)
			return nil
		}
		accountID, typ = ev.AccountID, template.TypeBookingCreated
		data = template.Data{
			"booking_id": ev.BookingID,
			"item_name":  ev.ItemName,
			"date":       ev.Date,
			"party_size": strconv.Itoa(ev.PartySize),
			"total":      cents(ev.Total),
		}
	case events.RKBookingCancelled:
		ev, err := events.Decode[events.BookingCancelled](env)
		if err != nil {
			log.Printf("[notify] drop %s: %v", env.Event, err)
			return nil
		}
		accountID, typ = ev.AccountID, template.TypeBookingCancelled
		data = template.Data{
			"booking_id": ev.BookingID,
			"item_name":  ev.ItemName,
		}
	case events.RKPaymentCompleted:
		ev, err := events.Decode[events.PaymentCompleted](env)
		if err != nil {
			log.Printf("[notify] drop %s: %v", env.Event, err)
			return nil
		}
		accountID, typ = ev.AccountID, template.TypePaymentSuccess
		data = template.Data{
			"payment_id":     ev.PaymentID,
			"booking_id":     ev.BookingID,
			"transaction_id": ev.TransactionID,
			"amount":         cents(ev.Amount),
		}
	case events.RKPaymentFailed:
		ev, err := events.Decode[events.PaymentFailed](env)
		if err != nil {
			log.Printf("[notify] drop %s: %v", env.Event, err)
			return nil
		}
		accountID, typ = ev.AccountID, template.TypePaymentFailed
		data = template.Data{
			"booking_id": ev.BookingID,
			"reason":     ev.Reason,
		}
	case events.RKPaymentRefunded:
		ev, err := events.Decode[events.PaymentRefunded](env)
		if err != nil {
			log.Printf("[notify] drop %s: %v", env.Event, err)
			return nil
		}
		accountID, typ = ev.AccountID, template.TypeRefundProcessed
		data = template.Data{
			"payment_id": ev.PaymentID,
			"amount":     cents(ev.Amount),
		}
	default:
		return nil
	}

	if accountID == "" {
		log.Printf("[notify] drop %s: missing account id", d.RoutingKey)
		return nil
	}

	_, err = w.svc.Send(ctx, accountID, typ, data)
	if errors.Is(err, domain.ErrUnknownTemplate) {
		// cannot happen for the keys above, but never requeue it
		log.Printf("[notify] drop %s: %v", d.RoutingKey, err)
		return nil
	}
	return err
}

func cents(v int64) string {
	whole, frac := v/100, v%100
	if frac < 0 {
		frac = -frac
	}
	return strconv.FormatInt(whole, 10) + "." + pad2(frac)
}

func pad2(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
