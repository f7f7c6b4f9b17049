package workers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/queue"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// cacheMock records the invalidation calls the worker makes.
type cacheMock struct {
	mu       sync.Mutex
	stored   map[string][]byte
	deleted  []string
	patterns []string
}

func newCacheMock() *cacheMock {
	return &cacheMock{stored: make(map[string][]byte)}
}

func (m *cacheMock) Get(ctx context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.stored[key]
	return v, ok
}

func (m *cacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored[key] = value
}

func (m *cacheMock) Delete(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stored, key)
	m.deleted = append(m.deleted, key)
}

func (m *cacheMock) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	return nil
}

func (m *cacheMock) GetOrSet(ctx context.Context, key string, producer ports.Producer, ttl time.Duration) (json.RawMessage, error) {
	v, err := producer(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (m *cacheMock) Connected() bool { return true }
func (m *cacheMock) Close() error    { return nil }

var _ ports.Cache = (*cacheMock)(nil)

// queueMock serves scripted batches and records acknowledgements. Once the
// script runs out it cancels the context so Run returns.
type queueMock struct {
	mu      sync.Mutex
	batches [][]queue.Message
	acked   []string
	cancel  context.CancelFunc
	recvErr error
}

func (m *queueMock) ReceiveInvalidations(ctx context.Context, maxMessages, waitSeconds int32) ([]queue.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recvErr != nil {
		err := m.recvErr
		m.recvErr = nil
		return nil, err
	}
	if len(m.batches) == 0 {
		m.cancel()
		return nil, ctx.Err()
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

func (m *queueMock) DeleteMessage(ctx context.Context, receiptHandle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, receiptHandle)
	return nil
}

func runWorker(t *testing.T, q *queueMock, c ports.Cache) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.cancel = cancel

	w := NewInvalidationWorker(q, c, InvalidationWorkerConfig{MaxMessages: 5, WaitSeconds: 1}, testLogger())
	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func eventMessage(t *testing.T, id string, event queue.InvalidationEvent) queue.Message {
	t.Helper()
	return queue.Message{ID: id, ReceiptHandle: "rh-" + id, Event: &event}
}

func TestWorkerAppliesInvalidations(t *testing.T) {
	hospitalID := uuid.New()
	q := &queueMock{batches: [][]queue.Message{{
		eventMessage(t, "m1", queue.InvalidationEvent{
			Entity:   queue.EntityHospital,
			EntityID: hospitalID.String(),
			Patterns: []string{"hospitals:list:*", "search:*"},
		}),
	}}}
	c := newCacheMock()

	runWorker(t, q, c)

	assert.Equal(t, []string{"hospital:" + hospitalID.String()}, c.deleted)
	assert.Equal(t, []string{"hospitals:list:*", "search:*"}, c.patterns)
	assert.Equal(t, []string{"rh-m1"}, q.acked)
	_, seen := c.Get(context.Background(), "invalidation:processed:m1")
	assert.True(t, seen, "processed marker must be recorded")
}

func TestWorkerSkipsProcessedMessages(t *testing.T) {
	petID := uuid.New()
	msg := eventMessage(t, "m1", queue.InvalidationEvent{
		Entity:   queue.EntityPet,
		EntityID: petID.String(),
		Patterns: []string{"pets:list:*"},
	})
	// Same message delivered twice across batches.
	q := &queueMock{batches: [][]queue.Message{{msg}, {msg}}}
	c := newCacheMock()

	runWorker(t, q, c)

	assert.Len(t, c.deleted, 1, "a redelivered message must not re-invalidate")
	assert.Equal(t, []string{"pets:list:*"}, c.patterns)
	assert.Equal(t, []string{"rh-m1", "rh-m1"}, q.acked, "both deliveries must be acked")
}

func TestWorkerAcksMalformedMessages(t *testing.T) {
	q := &queueMock{batches: [][]queue.Message{{
		{ID: "bad", ReceiptHandle: "rh-bad", Event: nil},
	}}}
	c := newCacheMock()

	runWorker(t, q, c)

	assert.Empty(t, c.deleted)
	assert.Empty(t, c.patterns)
	assert.Equal(t, []string{"rh-bad"}, q.acked, "poison messages must be acked and dropped")
}

func TestWorkerRecoversFromReceiveError(t *testing.T) {
	hospitalID := uuid.New()
	q := &queueMock{
		recvErr: errors.New("throttled"),
		batches: [][]queue.Message{{
			eventMessage(t, "m1", queue.InvalidationEvent{
				Entity:   queue.EntityHospital,
				EntityID: hospitalID.String(),
			}),
		}},
	}
	c := newCacheMock()

	runWorker(t, q, c)

	assert.Len(t, c.deleted, 1, "the batch after a receive error must still be processed")
}

func TestWorkerIgnoresUnknownEntity(t *testing.T) {
	q := &queueMock{batches: [][]queue.Message{{
		eventMessage(t, "m1", queue.InvalidationEvent{
			Entity:   "doctor",
			EntityID: uuid.NewString(),
			Patterns: []string{"doctors:list:*"},
		}),
	}}}
	c := newCacheMock()

	runWorker(t, q, c)

	assert.Empty(t, c.deleted, "unknown entities have no entity key to delete")
	assert.Equal(t, []string{"doctors:list:*"}, c.patterns, "patterns still apply")
}
