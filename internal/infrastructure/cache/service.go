package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	config "github.com/vetcloud/vetcare-platform/configs"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
)

const (
	scanBatchSize = 200

	defaultOpTimeout     = 2 * time.Second
	defaultProbeInterval = 15 * time.Second
)

// connEvent is a primary-backend connectivity observation. Events originate
// from the monitor probe and from operations that hit the backend; a single
// consumer goroutine applies them to the connected flag.
type connEvent struct {
	up     bool
	reason string
}

// Service implements ports.Cache over a primary Redis backend with a bounded
// in-process fallback that serves reads and writes while the primary is
// unreachable. One instance is shared by all request handlers.
type Service struct {
	client   redis.Cmdable
	fallback *fallbackStore
	matchers *matcherCache
	logger   *logrus.Logger

	opTimeout     time.Duration
	probeInterval time.Duration

	// connected is written only by the event consumer goroutine and read
	// atomically by every operation.
	connected atomic.Bool
	events    chan connEvent

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ ports.Cache = (*Service)(nil)

// NewService creates the cache layer and starts its backend monitor.
// Construction never fails because the backend is down: a failed initial
// probe is logged and the layer starts disconnected.
func NewService(client redis.Cmdable, cfg *config.CacheConfig, logger *logrus.Logger) (*Service, error) {
	fallback, err := newFallbackStore(cfg.FallbackMaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback store: %w", err)
	}

	s := &Service{
		client:        client,
		fallback:      fallback,
		matchers:      newMatcherCache(),
		logger:        logger,
		opTimeout:     cfg.OpTimeout,
		probeInterval: cfg.ProbeInterval,
		events:        make(chan connEvent, 16),
		done:          make(chan struct{}),
	}
	if s.opTimeout <= 0 {
		s.opTimeout = defaultOpTimeout
	}
	if s.probeInterval <= 0 {
		s.probeInterval = defaultProbeInterval
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		cacheConnected.Set(0)
		s.logger.WithError(err).Warn("primary cache backend unreachable at startup, starting disconnected")
	} else {
		s.connected.Store(true)
		cacheConnected.Set(1)
	}

	s.wg.Add(2)
	go s.consumeEvents()
	go s.monitor()

	return s, nil
}

// Connected reports whether the primary backend is currently usable.
func (s *Service) Connected() bool {
	return s.connected.Load()
}

// Close stops the monitor and event consumer and clears the fallback store.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.fallback.purge()
		fallbackSize.Set(0)
	})
	return nil
}

// Get returns the cached bytes for key. It never returns an error: every
// backend failure is logged, counted and reported to the caller as a miss.
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.connected.Load() {
		return s.fallbackGet(key)
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	val, err := s.client.Get(opCtx, key).Bytes()
	if err == redis.Nil {
		cacheMisses.WithLabelValues(backendPrimary).Inc()
		return nil, false
	}
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		s.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("primary cache read failed")
		s.observeError(err)
		return nil, false
	}
	cacheHits.WithLabelValues(backendPrimary).Inc()
	return val, true
}

func (s *Service) fallbackGet(key string) ([]byte, bool) {
	val, ok := s.fallback.get(key, time.Now())
	fallbackSize.Set(float64(s.fallback.len()))
	if !ok {
		cacheMisses.WithLabelValues(backendFallback).Inc()
		return nil, false
	}
	cacheHits.WithLabelValues(backendFallback).Inc()
	return val, true
}

// Set stores value under key with the given TTL. Writes are best-effort:
// a primary write error is logged and swallowed. While disconnected the
// value goes to the fallback store and already-expired fallback entries are
// swept opportunistically.
func (s *Service) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !s.connected.Load() {
		now := time.Now()
		s.fallback.set(key, value, ttl, now)
		s.fallback.sweepExpired(now)
		fallbackSize.Set(float64(s.fallback.len()))
		return
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.client.Set(opCtx, key, value, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		s.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("primary cache write failed")
		s.observeError(err)
	}
}

// Delete removes key from the primary (when connected) and from the fallback
// unconditionally. Absence is not an error.
func (s *Service) Delete(ctx context.Context, key string) {
	if s.connected.Load() {
		opCtx, cancel := s.opContext(ctx)
		if err := s.client.Del(opCtx, key).Err(); err != nil {
			cacheErrors.WithLabelValues("delete").Inc()
			s.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("primary cache delete failed")
			s.observeError(err)
		}
		cancel()
	}
	s.fallback.remove(key)
	fallbackSize.Set(float64(s.fallback.len()))
}

// DeletePattern removes every key matching the glob pattern, where `*`
// matches any sequence of characters and the whole key must match. The
// fallback is always scanned regardless of connection state so stale entries
// cannot outlive an invalidation aimed at the primary. An invalid pattern is
// a caller defect and returns an error.
func (s *Service) DeletePattern(ctx context.Context, pattern string) error {
	re, err := s.matchers.compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid cache pattern %q: %w", pattern, err)
	}

	removed := 0
	if s.connected.Load() {
		n, err := s.deletePrimaryPattern(ctx, pattern, re)
		if err != nil {
			cacheErrors.WithLabelValues("delete_pattern").Inc()
			s.logger.WithFields(logrus.Fields{"pattern": pattern}).WithError(err).Warn("primary cache pattern delete failed")
			s.observeError(err)
		}
		removed += n
	}

	removed += s.fallback.removePattern(re)
	fallbackSize.Set(float64(s.fallback.len()))
	if removed > 0 {
		cacheInvalidations.Add(float64(removed))
		s.logger.WithFields(logrus.Fields{"pattern": pattern, "keys": removed}).Debug("cache keys invalidated")
	}
	return nil
}

// deletePrimaryPattern enumerates matching primary keys with SCAN and
// deletes them in batches. The MATCH argument is escaped so Redis's extra
// glob metacharacters match literally, and the compiled matcher filters the
// returned keys so both backends always delete the same key set. Returns
// how many keys were deleted before the first error, if any.
func (s *Service) deletePrimaryPattern(ctx context.Context, pattern string, re *regexp.Regexp) (int, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	match := redisMatchPattern(pattern)
	deleted := 0
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(opCtx, cursor, match, scanBatchSize).Result()
		if err != nil {
			return deleted, err
		}
		matched := keys[:0]
		for _, key := range keys {
			if re.MatchString(key) {
				matched = append(matched, key)
			}
		}
		if len(matched) > 0 {
			if err := s.client.Del(opCtx, matched...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(matched)
		}
		cursor = next
		if cursor == 0 { // done scanning all keys
			break
		}
	}
	return deleted, nil
}

// GetOrSet returns the cached value for key or, on a miss, invokes producer,
// caches the marshaled result best-effort and returns it. Producer errors
// propagate unchanged; any cache malfunction degrades to calling the
// producer and skipping the cache. A nil producer result is returned as nil
// and never cached. A producer result that cannot be marshaled is returned
// as an error: the degradation guarantee covers backend faults, not values
// the caller hands over in an unserializable shape.
func (s *Service) GetOrSet(ctx context.Context, key string, producer ports.Producer, ttl time.Duration) (json.RawMessage, error) {
	if cached, ok := s.safeGet(ctx, key); ok {
		return json.RawMessage(cached), nil
	}

	value, err := producer(ctx)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal produced value for key %s: %w", key, err)
	}
	if string(data) != "null" {
		s.safeSet(ctx, key, data, ttl)
	}
	return data, nil
}

// safeGet is Get with panic containment so GetOrSet can always fall through
// to the producer.
func (s *Service) safeGet(ctx context.Context, key string) (value []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			cacheErrors.WithLabelValues("get").Inc()
			s.logger.WithFields(logrus.Fields{"key": key, "panic": r}).Error("cache get panicked")
			value, ok = nil, false
		}
	}()
	return s.Get(ctx, key)
}

// safeSet is Set with panic containment; a failed write only costs a future
// cache hit.
func (s *Service) safeSet(ctx context.Context, key string, value []byte, ttl time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			cacheErrors.WithLabelValues("set").Inc()
			s.logger.WithFields(logrus.Fields{"key": key, "panic": r}).Error("cache set panicked")
		}
	}()
	s.Set(ctx, key, value, ttl)
}

// opContext bounds a primary-backend call so a hung backend cannot stall the
// calling request beyond the configured timeout.
func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// observeError posts a disconnect event when err looks like a connectivity
// failure rather than a server-side reply.
func (s *Service) observeError(err error) {
	if !isConnError(err) {
		return
	}
	s.reportDown(err)
}

func (s *Service) reportUp() {
	select {
	case s.events <- connEvent{up: true}:
	default:
	}
}

func (s *Service) reportDown(err error) {
	ev := connEvent{}
	if err != nil {
		ev.reason = err.Error()
	}
	select {
	case s.events <- ev:
	default:
	}
}

// consumeEvents is the sole writer of the connected flag. Duplicate
// observations are ignored; transitions are logged and exported.
func (s *Service) consumeEvents() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			if ev.up == s.connected.Load() {
				continue
			}
			s.connected.Store(ev.up)
			if ev.up {
				cacheConnected.Set(1)
				s.logger.Info("primary cache backend connected")
			} else {
				cacheConnected.Set(0)
				s.logger.WithFields(logrus.Fields{"reason": ev.reason}).Warn("primary cache backend lost, serving from fallback")
			}
		}
	}
}

// monitor probes the primary backend for liveness: at the probe interval
// while connected, with exponential backoff while disconnected. Probe
// outcomes feed the event channel like any other backend observation.
func (s *Service) monitor() {
	defer s.wg.Done()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = s.probeInterval
	bo.MaxElapsedTime = 0

	for {
		var wait time.Duration
		if s.connected.Load() {
			bo.Reset()
			wait = s.probeInterval
		} else {
			wait = bo.NextBackOff()
		}

		select {
		case <-s.done:
			return
		case <-time.After(wait):
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
		err := s.client.Ping(ctx).Err()
		cancel()
		if err != nil {
			s.observeError(err)
			continue
		}
		s.reportUp()
	}
}

// isConnError reports whether err indicates the backend is unreachable, as
// opposed to a server-side error reply.
func isConnError(err error) bool {
	if err == nil || err == redis.Nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET)
}
