package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

const publishTimeout = 5 * time.Second

// LedgerNotifier publishes committed ledger entries from a bounded worker
// pool. Publishing never blocks the request path: when every worker is busy
// the event is dropped and Notify reports it.
type LedgerNotifier struct {
	publisher ports.EventPublisher
	pool      *ants.Pool
	log       zerolog.Logger
}

// NewLedgerNotifier creates a notifier with the given number of workers.
// A nil publisher only logs events, which is how the service runs without Kafka.
func NewLedgerNotifier(publisher ports.EventPublisher, workers int, log zerolog.Logger) (*LedgerNotifier, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create notifier pool: %w", err)
	}

	return &LedgerNotifier{
		publisher: publisher,
		pool:      pool,
		log:       log,
	}, nil
}

// Notify schedules publication of entry. The caller's cancellation does not
// reach the publish; it has its own timeout.
func (n *LedgerNotifier) Notify(ctx context.Context, entry domain.LedgerEntry) error {
	event := domain.NewLedgerEvent(entry)
	ctx = context.WithoutCancel(ctx)

	err := n.pool.Submit(func() {
		n.publish(ctx, *event)
	})
	if err != nil {
		return fmt.Errorf("submit ledger event %s: %w", event.EventID, err)
	}
	return nil
}

func (n *LedgerNotifier) publish(ctx context.Context, event domain.LedgerEvent) {
	if n.publisher == nil {
		n.log.Debug().
			Str("event_id", event.EventID.String()).
			Str("entry_id", event.Entry.ID.String()).
			Str("type", string(event.Entry.Type)).
			Msg("ledger event (no publisher)")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := n.publisher.Publish(ctx, event.PartitionKey(), event); err != nil {
		n.log.Warn().Err(err).
			Str("event_id", event.EventID.String()).
			Str("entry_id", event.Entry.ID.String()).
			Msg("ledger event publish failed")
	}
}

// Close waits up to timeout for in-flight events, then releases the pool.
func (n *LedgerNotifier) Close(timeout time.Duration) error {
	if err := n.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("release notifier pool: %w", err)
	}
	return nil
}
