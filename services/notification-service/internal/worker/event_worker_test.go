package worker

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/trip-booking/pkg/events"
	"github.com/you/trip-booking/services/notification-service/internal/domain"
	"github.com/you/trip-booking/services/notification-service/internal/template"
)

type sentCall struct {
	accountID string
	typ       string
	data      template.Data
}

type fakeSender struct {
	calls []sentCall
	err   error
}

func (f *fakeSender) Send(_ context.Context, accountID, typ string, data template.Data) (*domain.Notification, error) {
	f.calls = append(f.calls, sentCall{accountID: accountID, typ: typ, data: data})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Notification{ID: "ntf-1", AccountID: accountID, Type: typ}, nil
}

func delivery(t *testing.T, key string, payload any) amqp.Delivery {
	t.Helper()
	env, err := events.NewEnvelope(key, payload)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return amqp.Delivery{RoutingKey: key, Body: body}
}

func TestBookingCreatedBecomesNotification(t *testing.T) {
	sender := &fakeSender{}
	w := NewEventWorker(sender)

	err := w.Handle(context.Background(), delivery(t, events.RKBookingCreated, events.BookingCreated{
		BookingID: "bk-1",
		AccountID: "acc-1",
		ItemName:  "BKK-SIN Morning Flight",
		Date:      "2026-10-02",
		PartySize: 3,
		Total:     29700,
	}))
	require.NoError(t, err)

	require.Len(t, sender.calls, 1)
	call := sender.calls[0]
	assert.Equal(t, "acc-1", call.accountID)
	assert.Equal(t, template.TypeBookingCreated, call.typ)
	assert.Equal(t, "bk-1", call.data["booking_id"])
	assert.Equal(t, "3", call.data["party_size"])
	assert.Equal(t, "297.00", call.data["total"])
}

func TestPaymentEventsMapToTemplates(t *testing.T) {
	cases := []struct {
		key     string
		payload any
		typ     string
	}{
		{events.RKPaymentCompleted, events.PaymentCompleted{PaymentID: "PAY-1", BookingID: "bk-1", AccountID: "acc-1", Amount: 5000, TransactionID: "txn_1"}, template.TypePaymentSuccess},
		{events.RKPaymentFailed, events.PaymentFailed{PaymentID: "PAY-2", BookingID: "bk-1", AccountID: "acc-1", Reason: "card declined"}, template.TypePaymentFailed},
		{events.RKPaymentRefunded, events.PaymentRefunded{PaymentID: "PAY-1", BookingID: "bk-1", AccountID: "acc-1", Amount: 5000}, template.TypeRefundProcessed},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			sender := &fakeSender{}
			w := NewEventWorker(sender)

			require.NoError(t, w.Handle(context.Background(), delivery(t, tc.key, tc.payload)))
			require.Len(t, sender.calls, 1)
			assert.Equal(t, tc.typ, sender.calls[0].typ)
		})
	}
}

func TestMalformedBodyIsDroppedNotRequeued(t *testing.T) {
	sender := &fakeSender{}
	w := NewEventWorker(sender)

	err := w.Handle(context.Background(), amqp.Delivery{
		RoutingKey: events.RKBookingCreated,
		Body:       []byte("not json"),
	})
	assert.NoError(t, err)
	assert.Empty(t, sender.calls)
}

func TestMissingAccountIsDropped(t *testing.T) {
	sender := &fakeSender{}
	w := NewEventWorker(sender)

	err := w.Handle(context.Background(), delivery(t, events.RKBookingCancelled, events.BookingCancelled{
		BookingID: "bk-1",
	}))
	assert.NoError(t, err)
	assert.Empty(t, sender.calls)
}

func TestUnknownRoutingKeyIgnored(t *testing.T) {
	sender := &fakeSender{}
	w := NewEventWorker(sender)

	err := w.Handle(context.Background(), delivery(t, "booking.audited", events.BookingCreated{AccountID: "acc-1"}))
	assert.NoError(t, err)
	assert.Empty(t, sender.calls)
}

func TestStoreErrorPropagatesForRequeue(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}
	w := NewEventWorker(sender)

	err := w.Handle(context.Background(), delivery(t, events.RKPaymentCompleted, events.PaymentCompleted{
		PaymentID: "PAY-1", BookingID: "bk-1", AccountID: "acc-1",
	}))
	assert.Error(t, err)
}
