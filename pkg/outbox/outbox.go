package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/you/trip-booking/pkg/events"
)

const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
)

// Message is the durable intent record. It is inserted inside the same
// transaction as the primary write, so a committed booking or payment
// can never lose its side effect silently.
type Message struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	RoutingKey string `gorm:"size:64;not null"`
	Payload    string `gorm:"type:text;not null"`
	Status     string `gorm:"size:16;index;not null;default:PENDING"`
	RetryCount int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Message) TableName() string { return "outbox_messages" }

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Migrate() error {
	return r.db.AutoMigrate(&Message{})
}

// EnqueueTx wraps an event payload in an envelope and stores it using
// the caller's transaction handle.
func EnqueueTx(tx *gorm.DB, routingKey string, data any) error {
	env, err := events.NewEnvelope(routingKey, data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	msg := Message{RoutingKey: routingKey, Payload: string(body), Status: StatusPending}
	if err := tx.Create(&msg).Error; err != nil {
		return fmt.Errorf("insert outbox row: %w", err)
	}
	return nil
}

func (r *Repo) Pending(ctx context.Context, limit int) ([]*Message, error) {
	var out []*Message
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load pending outbox rows: %w", err)
	}
	return out, nil
}

func (r *Repo) MarkSent(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ?", id).
		Update("status", StatusSent).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ?", id).
		Update("status", StatusFailed).Error
}

func (r *Repo) IncrementRetry(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ?", id).
		Update("retry_count", gorm.Expr("retry_count + 1")).Error
}
