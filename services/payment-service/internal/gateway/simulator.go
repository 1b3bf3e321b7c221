// Package gateway models the external payment processors. Each method
// is a fixed-latency, fixed-probability outcome generator; there is no
// real network call behind it.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Outcome struct {
	Success       bool
	TransactionID string // set on success
	Reason        string // human-readable, set on failure
}

type profile struct {
	latency     time.Duration
	successRate float64
}

var methods = map[string]profile{
	"stripe":   {latency: 2 * time.Second, successRate: 0.90},
	"paypal":   {latency: 2500 * time.Millisecond, successRate: 0.85},
	"razorpay": {latency: 1500 * time.Millisecond, successRate: 0.80},
}

const (
	refundLatency     = time.Second
	refundSuccessRate = 0.90
)

func Supported(method string) bool {
	_, ok := methods[method]
	return ok
}

type Simulator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	sleep bool
}

// New seeds from the clock; NewWithRand pins the outcome sequence for
// tests (latency is skipped there as well).
func New() *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(time.Now().UnixNano())), sleep: true}
}

func NewWithRand(rng *rand.Rand) *Simulator {
	return &Simulator{rng: rng}
}

func (s *Simulator) Charge(ctx context.Context, method string, amount int64) Outcome {
	p, ok := methods[method]
	if !ok {
		return Outcome{Reason: fmt.Sprintf("unknown method %q", method)}
	}
	s.wait(ctx, p.latency)
	if s.roll() < p.successRate {
		return Outcome{Success: true, TransactionID: "txn_" + uuid.NewString()}
	}
	return Outcome{Reason: declineReason(method)}
}

func (s *Simulator) Refund(ctx context.Context, method string, amount int64) Outcome {
	s.wait(ctx, refundLatency)
	if s.roll() < refundSuccessRate {
		return Outcome{Success: true, TransactionID: "rfn_" + uuid.NewString()}
	}
	return Outcome{Reason: "refund rejected by processor"}
}

func (s *Simulator) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Simulator) wait(ctx context.Context, d time.Duration) {
	if !s.sleep {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func declineReason(method string) string {
	switch method {
	case "stripe":
		return "card declined by issuer"
	case "paypal":
		return "insufficient funds in PayPal balance"
	default:
		return "transaction declined"
	}
}
