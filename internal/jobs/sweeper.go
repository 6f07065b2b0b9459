package jobs

import (
	"context"
	"log"
	"time"
)

// CartStore is the slice of the cart repository the sweep jobs need.
type CartStore interface {
	MarkAbandoned(ctx context.Context, idleSince time.Time) ([]int64, error)
	DestroyAbandoned(ctx context.Context, abandonedBefore time.Time) ([]int64, error)
}

// EventsPublisher emits the cart lifecycle events. A nil publisher
// disables publishing.
type EventsPublisher interface {
	PublishCartAbandoned(ctx context.Context, cartID int64) error
	PublishCartDestroyed(ctx context.Context, cartID int64) error
}

type Config struct {
	// MarkInterval is how often idle carts are flagged; AbandonAfter is
	// the idle threshold that makes a cart eligible.
	MarkInterval time.Duration
	AbandonAfter time.Duration

	// DestroyInterval is how often flagged carts are purged; DestroyAfter
	// is how long a cart stays abandoned before deletion.
	DestroyInterval time.Duration
	DestroyAfter    time.Duration
}

// Sweeper ages carts through the abandonment lifecycle with two periodic
// jobs. Both are idempotent and side-effect only through the store, so a
// failed run is retried once and otherwise just waits for the next tick.
type Sweeper struct {
	cfg    Config
	store  CartStore
	events EventsPublisher
	logger *log.Logger
}

func NewSweeper(cfg Config, store CartStore, events EventsPublisher, logger *log.Logger) *Sweeper {
	return &Sweeper{cfg: cfg, store: store, events: events, logger: logger}
}

// Run launches both job loops. They stop when ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	go s.runJob(ctx, "mark-cart-as-abandoned", s.cfg.MarkInterval, s.RunMarkAbandoned)
	go s.runJob(ctx, "destroy-abandoned-carts", s.cfg.DestroyInterval, s.RunDestroyAbandoned)
}

func (s *Sweeper) runJob(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, name, fn)
		}
	}
}

// runOnce executes a job run with a single retry on failure.
func (s *Sweeper) runOnce(ctx context.Context, name string, fn func(context.Context) error) {
	err := fn(ctx)
	if err == nil {
		return
	}
	s.logger.Printf("%s: %v, retrying", name, err)

	if err := fn(ctx); err != nil {
		s.logger.Printf("%s: retry failed: %v", name, err)
	}
}

// RunMarkAbandoned flags every cart idle for longer than AbandonAfter.
func (s *Sweeper) RunMarkAbandoned(ctx context.Context) error {
	ids, err := s.store.MarkAbandoned(ctx, time.Now().Add(-s.cfg.AbandonAfter))
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		s.logger.Printf("mark-cart-as-abandoned: flagged %d carts", len(ids))
	}

	s.publish(ctx, ids, func(ctx context.Context, id int64) error {
		return s.events.PublishCartAbandoned(ctx, id)
	})
	return nil
}

// RunDestroyAbandoned deletes every cart abandoned for longer than
// DestroyAfter, lines included.
func (s *Sweeper) RunDestroyAbandoned(ctx context.Context) error {
	ids, err := s.store.DestroyAbandoned(ctx, time.Now().Add(-s.cfg.DestroyAfter))
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		s.logger.Printf("destroy-abandoned-carts: deleted %d carts", len(ids))
	}

	s.publish(ctx, ids, func(ctx context.Context, id int64) error {
		return s.events.PublishCartDestroyed(ctx, id)
	})
	return nil
}

// publish is best-effort: the sweep already committed, so a broker
// hiccup is logged rather than failing the run.
func (s *Sweeper) publish(ctx context.Context, ids []int64, fn func(context.Context, int64) error) {
	if s.events == nil {
		return
	}
	for _, id := range ids {
		if err := fn(ctx, id); err != nil {
			s.logger.Printf("publish cart event for cart %d: %v", id, err)
		}
	}
}
