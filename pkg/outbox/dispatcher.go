package outbox

import (
	"context"
	"log"
	"time"
)

// Publisher is what the dispatcher delivers through; *mq.Publisher
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, body []byte) error
}

type Store interface {
	Pending(ctx context.Context, limit int) ([]*Message, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
	IncrementRetry(ctx context.Context, id int64) error
}

type Dispatcher struct {
	store      Store
	pub        Publisher
	name       string
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewDispatcher(store Store, pub Publisher, serviceName string, interval time.Duration, batchSize, maxRetries int) *Dispatcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Dispatcher{
		store:      store,
		pub:        pub,
		name:       serviceName,
		interval:   interval,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

// Start sweeps pending rows until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	log.Printf("[%s] outbox dispatcher started (interval=%v)", d.name, d.interval)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[%s] outbox dispatcher stopped", d.name)
			return
		case <-ticker.C:
			d.Sweep(ctx)
		}
	}
}

// Sweep delivers one batch of pending messages.
func (d *Dispatcher) Sweep(ctx context.Context) {
	msgs, err := d.store.Pending(ctx, d.batchSize)
	if err != nil {
		log.Printf("[%s] outbox load: %v", d.name, err)
		return
	}
	for _, msg := range msgs {
		d.deliver(ctx, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg *Message) {
	err := d.pub.Publish(ctx, msg.RoutingKey, []byte(msg.Payload))
	if err == nil {
		if err := d.store.MarkSent(ctx, msg.ID); err != nil {
			log.Printf("[%s] outbox mark sent id=%d: %v", d.name, msg.ID, err)
		}
		return
	}

	log.Printf("[%s] outbox publish id=%d key=%s: %v", d.name, msg.ID, msg.RoutingKey, err)
	if err := d.store.IncrementRetry(ctx, msg.ID); err != nil {
		log.Printf("[%s] outbox bump retry id=%d: %v", d.name, msg.ID, err)
		return
	}
	if msg.RetryCount+1 >= d.maxRetries {
		if err := d.store.MarkFailed(ctx, msg.ID); err != nil {
			log.Printf("[%s] outbox mark failed id=%d: %v", d.name, msg.ID, err)
		} else {
			log.Printf("[%s] outbox id=%d exceeded %d retries, marked FAILED", d.name, msg.ID, d.maxRetries)
		}
	}
}
