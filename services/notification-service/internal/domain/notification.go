package domain

import (
	"errors"
	"time"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnknownTemplate      = errors.New("unknown notification type")
)

type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// Notification is the delivery log: one row per send attempt, persisted
// whether or not the simulated delivery succeeded.
type Notification struct {
	ID        string `gorm:"primaryKey"`
	AccountID string `gorm:"index"`
	Type      string `gorm:"index;size:32"`
	Subject   string
	Body      string
	Recipient string
	Outcome   Outcome `gorm:"index;size:8"`
	SentAt    time.Time
	ReadAt    *time.Time
	CreatedAt time.Time
}

type Stats struct {
	Total     int64            `json:"total"`
	ByOutcome map[string]int64 `json:"by_outcome"`
	ByType    map[string]int64 `json:"by_type"`
}
