package consumer

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/trip-booking/pkg/events"
	"github.com/you/trip-booking/services/booking-service/internal/domain"
)

type appliedEvent struct {
	bookingID string
	eventID   string
	status    domain.PaymentStatus
	confirm   bool
}

type fakeApplier struct {
	applied []appliedEvent
	err     error
}

func (f *fakeApplier) ApplyPaymentEventOnce(ctx context.Context, bookingID, eventID, eventKey string, to domain.PaymentStatus, confirm bool) (*domain.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.applied = append(f.applied, appliedEvent{bookingID, eventID, to, confirm})
	return &domain.Booking{ID: bookingID, PaymentStatus: to}, nil
}

func delivery(t *testing.T, key string, data any) amqp.Delivery {
	t.Helper()
	env, err := events.NewEnvelope(key, data)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return amqp.Delivery{RoutingKey: key, Body: body}
}

func TestCompletedPaymentConfirmsBooking(t *testing.T) {
	applier := &fakeApplier{}
	pc := NewPaymentConsumer(applier)

	d := delivery(t, events.RKPaymentCompleted, events.PaymentCompleted{BookingID: "bk-1", PaymentID: "PAY-1"})
	require.NoError(t, pc.Handle(context.Background(), d))

	require.Len(t, applier.applied, 1)
	assert.Equal(t, "bk-1", applier.applied[0].bookingID)
	assert.Equal(t, domain.PaymentStatusCompleted, applier.applied[0].status)
	assert.True(t, applier.applied[0].confirm)
	assert.NotEmpty(t, applier.applied[0].eventID)
}

func TestFailedPaymentDoesNotConfirm(t *testing.T) {
	applier := &fakeApplier{}
	pc := NewPaymentConsumer(applier)

	d := delivery(t, events.RKPaymentFailed, events.PaymentFailed{BookingID: "bk-1", Reason: "card declined"})
	require.NoError(t, pc.Handle(context.Background(), d))

	require.Len(t, applier.applied, 1)
	assert.Equal(t, domain.PaymentStatusFailed, applier.applied[0].status)
	assert.False(t, applier.applied[0].confirm)
}

func TestMalformedBodyIsDroppedNotRequeued(t *testing.T) {
	applier := &fakeApplier{}
	pc := NewPaymentConsumer(applier)

	d := amqp.Delivery{RoutingKey: events.RKPaymentCompleted, Body: []byte("not json")}
	assert.NoError(t, pc.Handle(context.Background(), d), "malformed payload must be acked, not requeued forever")
	assert.Empty(t, applier.applied)
}

func TestUnknownBookingIsDropped(t *testing.T) {
	applier := &fakeApplier{err: domain.ErrBookingNotFound}
	pc := NewPaymentConsumer(applier)

	d := delivery(t, events.RKPaymentRefunded, events.PaymentRefunded{BookingID: "ghost"})
	assert.NoError(t, pc.Handle(context.Background(), d))
}

func TestUnknownRoutingKeyIgnored(t *testing.T) {
	applier := &fakeApplier{}
	pc := NewPaymentConsumer(applier)

	d := delivery(t, "payment.something_else", map[string]string{"x": "y"})
	assert.NoError(t, pc.Handle(context.Background(), d))
	assert.Empty(t, applier.applied)
}
