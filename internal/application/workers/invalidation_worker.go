package workers

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/cache"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/queue"
)

// InvalidationQueue is the slice of the queue client the worker needs.
type InvalidationQueue interface {
	ReceiveInvalidations(ctx context.Context, maxMessages, waitSeconds int32) ([]queue.Message, error)
	DeleteMessage(ctx context.Context, receiptHandle string) error
}

// InvalidationWorkerConfig tunes the poll loop.
type InvalidationWorkerConfig struct {
	MaxMessages int32
	WaitSeconds int32
	// IdempotencyTTL is how long a processed message ID is remembered.
	IdempotencyTTL time.Duration
}

// InvalidationWorker polls the queue for entity-change events and translates
// them into cache invalidations, so instances that did not perform a write
// still drop their stale entries. Processing is idempotent: each message ID
// is recorded through the cache layer itself and redeliveries are acked
// without re-invalidating.
type InvalidationWorker struct {
	queue  InvalidationQueue
	cache  ports.Cache
	cfg    InvalidationWorkerConfig
	logger *logrus.Logger
}

func NewInvalidationWorker(q InvalidationQueue, c ports.Cache, cfg InvalidationWorkerConfig, logger *logrus.Logger) *InvalidationWorker {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 5
	}
	if cfg.WaitSeconds <= 0 {
		cfg.WaitSeconds = 10
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &InvalidationWorker{queue: q, cache: c, cfg: cfg, logger: logger}
}

// Run polls until ctx is cancelled. Receive failures back off exponentially
// and never terminate the loop.
func (w *InvalidationWorker) Run(ctx context.Context) error {
	w.logger.Info("invalidation worker started")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0

	for {
		if ctx.Err() != nil {
			w.logger.Info("invalidation worker stopped")
			return ctx.Err()
		}

		messages, err := w.queue.ReceiveInvalidations(ctx, w.cfg.MaxMessages, w.cfg.WaitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("invalidation worker stopped")
				return ctx.Err()
			}
			wait := bo.NextBackOff()
			w.logger.WithError(err).WithFields(logrus.Fields{"retry_in": wait}).Warn("failed to receive invalidation events")
			select {
			case <-ctx.Done():
				w.logger.Info("invalidation worker stopped")
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		for _, msg := range messages {
			w.processMessage(ctx, msg)
		}
	}
}

// processMessage applies one invalidation event and acknowledges the
// message. Malformed bodies are acked without processing so they cannot
// poison the queue.
func (w *InvalidationWorker) processMessage(ctx context.Context, msg queue.Message) {
	if msg.Event == nil {
		w.logger.WithFields(logrus.Fields{"message_id": msg.ID}).Warn("dropping malformed invalidation message")
		w.ack(ctx, msg)
		return
	}

	processedKey := cache.ProcessedEventKey(msg.ID)
	if _, seen := w.cache.Get(ctx, processedKey); seen {
		w.logger.WithFields(logrus.Fields{"message_id": msg.ID}).Debug("skipping already processed invalidation")
		w.ack(ctx, msg)
		return
	}

	w.applyEvent(ctx, msg.Event)

	w.cache.Set(ctx, processedKey, []byte("1"), w.cfg.IdempotencyTTL)
	w.ack(ctx, msg)
}

func (w *InvalidationWorker) applyEvent(ctx context.Context, event *queue.InvalidationEvent) {
	if key, ok := entityKey(event); ok {
		w.cache.Delete(ctx, key)
	}
	for _, pattern := range event.Patterns {
		if err := w.cache.DeletePattern(ctx, pattern); err != nil {
			w.logger.WithFields(logrus.Fields{"pattern": pattern}).WithError(err).Warn("skipping invalid invalidation pattern")
		}
	}
	w.logger.WithFields(logrus.Fields{
		"entity":    event.Entity,
		"entity_id": event.EntityID,
		"patterns":  event.Patterns,
	}).Info("cache invalidation applied")
}

func (w *InvalidationWorker) ack(ctx context.Context, msg queue.Message) {
	if msg.ReceiptHandle == "" {
		return
	}
	if err := w.queue.DeleteMessage(ctx, msg.ReceiptHandle); err != nil {
		w.logger.WithFields(logrus.Fields{"message_id": msg.ID}).WithError(err).Warn("failed to delete invalidation message")
	}
}

// entityKey maps an event's entity reference to its cache key.
func entityKey(event *queue.InvalidationEvent) (string, bool) {
	if event.EntityID == "" {
		return "", false
	}
	id, err := uuid.Parse(event.EntityID)
	if err != nil {
		return "", false
	}
	switch event.Entity {
	case queue.EntityHospital:
		return cache.HospitalKey(id), true
	case queue.EntityPet:
		return cache.PetKey(id), true
	default:
		return "", false
	}
}
