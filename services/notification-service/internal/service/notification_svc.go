package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/you/trip-booking/services/notification-service/internal/domain"
	"github.com/you/trip-booking/services/notification-service/internal/template"
)

const deliverySuccessRate = 0.95

type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	ByID(ctx context.Context, id string) (*domain.Notification, error)
	MarkRead(ctx context.Context, id string) (*domain.Notification, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Notification, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type NotificationSvc struct {
	repo NotificationStore

	mu  sync.Mutex
	rng *rand.Rand
}

func NewNotificationSvc(repo NotificationStore) *NotificationSvc {
	return &NotificationSvc{repo: repo, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithRand pins delivery outcomes for tests.
func NewWithRand(repo NotificationStore, rng *rand.Rand) *NotificationSvc {
	return &NotificationSvc{repo: repo, rng: rng}
}

// Send renders the template, simulates the delivery and persists the
// attempt whether it went out or not.
func (s *NotificationSvc) Send(ctx context.Context, accountID, typ string, data template.Data) (*domain.Notification, error) {
	if !template.Known(typ) {
		return nil, domain.ErrUnknownTemplate
	}
	subject, body, err := template.Render(typ, data)
	if err != nil {
		return nil, err
	}

	n := &domain.Notification{
		AccountID: accountID,
		Type:      typ,
		Subject:   subject,
		Body:      body,
		Recipient: recipientFor(accountID),
		Outcome:   domain.OutcomeSent,
		SentAt:    time.Now().UTC(),
	}
	if s.roll() >= deliverySuccessRate {
		n.Outcome = domain.OutcomeFailed
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}
	log.Printf("[notify] %s -> %s (%s): %s", n.Type, n.Recipient, n.Outcome, n.Subject)
	return n, nil
}

func (s *NotificationSvc) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	return s.repo.MarkRead(ctx, id)
}

func (s *NotificationSvc) ListByAccount(ctx context.Context, accountID string) ([]domain.Notification, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

func (s *NotificationSvc) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *NotificationSvc) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// recipientFor synthesizes the delivery address; the service owns no
// account data beyond the opaque id.
func recipientFor(accountID string) string {
	short := accountID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("user%s@mail.local", short)
}
