package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/trip-booking/services/notification-service/internal/domain"
	"github.com/you/trip-booking/services/notification-service/internal/template"
)

type fakeNotificationStore struct {
	byID   map[string]*domain.Notification
	nextID int
}

func newFakeStore() *fakeNotificationStore {
	return &fakeNotificationStore{byID: map[string]*domain.Notification{}}
}

func (f *fakeNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	f.nextID++
	n.ID = fmt.Sprintf("ntf-%d", f.nextID)
	n.CreatedAt = time.Now()
	cp := *n
	f.byID[n.ID] = &cp
	return nil
}

func (f *fakeNotificationStore) ByID(_ context.Context, id string) (*domain.Notification, error) {
	n, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	n, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	if n.ReadAt == nil {
		now := time.Now().UTC()
		n.ReadAt = &now
	}
	return f.ByID(ctx, id)
}

func (f *fakeNotificationStore) ListByAccount(_ context.Context, accountID string) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.byID {
		if n.AccountID == accountID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) Stats(_ context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{ByOutcome: map[string]int64{}, ByType: map[string]int64{}}
	for _, n := range f.byID {
		stats.Total++
		stats.ByOutcome[string(n.Outcome)]++
		stats.ByType[n.Type]++
	}
	return stats, nil
}

// alwaysDeliver yields draws below the success threshold.
func alwaysDeliver() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestSendUnknownTypePersistsNothing(t *testing.T) {
	store := newFakeStore()
	svc := NewWithRand(store, alwaysDeliver())

	_, err := svc.Send(context.Background(), "acc-1", "marketing_blast", nil)
	assert.True(t, errors.Is(err, domain.ErrUnknownTemplate))
	assert.Empty(t, store.byID)
}

func TestSendRendersAndPersists(t *testing.T) {
	store := newFakeStore()
	svc := NewWithRand(store, alwaysDeliver())

	n, err := svc.Send(context.Background(), "3f8a2c64-aaaa-bbbb-cccc-000000000001", template.TypeBookingCreated, template.Data{
		"booking_id": "bk-1",
		"item_name":  "Seaside Resort - Ocean View",
		"date":       "2026-09-12",
		"party_size": "2",
		"total":      "370.00",
	})
	require.NoError(t, err)

	assert.Equal(t, "Booking received", n.Subject)
	assert.Contains(t, n.Body, "Seaside Resort - Ocean View")
	assert.Contains(t, n.Body, "370.00")
	assert.Equal(t, "user3f8a2c64@mail.local", n.Recipient)
	require.Len(t, store.byID, 1)
	assert.Equal(t, domain.OutcomeSent, store.byID[n.ID].Outcome)
}

func TestSendPersistsFailedDeliveries(t *testing.T) {
	store := newFakeStore()
	svc := NewWithRand(store, alwaysDeliver())

	seen := map[domain.Outcome]int{}
	for i := 0; i < 500; i++ {
		n, err := svc.Send(context.Background(), "acc-1", template.TypePaymentFailed, template.Data{
			"booking_id": "bk-1", "reason": "card declined",
		})
		require.NoError(t, err)
		seen[n.Outcome]++
	}

	// every attempt leaves a row, whatever the simulated outcome
	assert.Len(t, store.byID, 500)
	assert.Greater(t, seen[domain.OutcomeSent], seen[domain.OutcomeFailed])
}

func TestMarkReadKeepsFirstTimestamp(t *testing.T) {
	store := newFakeStore()
	svc := NewWithRand(store, alwaysDeliver())

	n, err := svc.Send(context.Background(), "acc-1", template.TypeRefundProcessed, template.Data{
		"payment_id": "PAY-1", "amount": "120.00",
	})
	require.NoError(t, err)

	first, err := svc.MarkRead(context.Background(), n.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	again, err := svc.MarkRead(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ReadAt, again.ReadAt)
}

func TestMarkReadUnknownID(t *testing.T) {
	svc := NewWithRand(newFakeStore(), alwaysDeliver())

	_, err := svc.MarkRead(context.Background(), "ntf-missing")
	assert.True(t, errors.Is(err, domain.ErrNotificationNotFound))
}

func TestStatsCountByOutcomeAndType(t *testing.T) {
	store := newFakeStore()
	svc := NewWithRand(store, alwaysDeliver())

	for i := 0; i < 3; i++ {
		_, err := svc.Send(context.Background(), "acc-1", template.TypeBookingCreated, template.Data{"booking_id": "bk-1"})
		require.NoError(t, err)
	}
	_, err := svc.Send(context.Background(), "acc-2", template.TypeBookingCancelled, template.Data{"booking_id": "bk-2"})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.ByType[template.TypeBookingCreated])
	assert.Equal(t, int64(1), stats.ByType[template.TypeBookingCancelled])
	var outcomes int64
	for _, c := range stats.ByOutcome {
		outcomes += c
	}
	assert.Equal(t, int64(4), outcomes)
}
