package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/vetcloud/vetcare-platform/configs"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/hospital"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/cache"
)

// innerHospitalRepo is a func-field stand-in for the origin store that also
// counts how often each operation reaches it.
type innerHospitalRepo struct {
	mu          sync.Mutex
	getCalls    int
	listCalls   int
	countCalls  int
	searchCalls int

	getByIDFn func(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
	listFn    func(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, error)
	countFn   func(ctx context.Context, filter *hospital.Filter) (int, error)
	searchFn  func(ctx context.Context, query string, limit int) ([]*hospital.Hospital, error)
}

func (m *innerHospitalRepo) Create(ctx context.Context, h *hospital.Hospital) error { return nil }
func (m *innerHospitalRepo) Update(ctx context.Context, h *hospital.Hospital) error { return nil }
func (m *innerHospitalRepo) Delete(ctx context.Context, id uuid.UUID) error         { return nil }

func (m *innerHospitalRepo) GetByID(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	m.mu.Lock()
	m.getCalls++
	m.mu.Unlock()
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("hospital not found")
}

func (m *innerHospitalRepo) List(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listFn != nil {
		return m.listFn(ctx, filter, limit, offset)
	}
	return nil, nil
}

func (m *innerHospitalRepo) Count(ctx context.Context, filter *hospital.Filter) (int, error) {
	m.mu.Lock()
	m.countCalls++
	m.mu.Unlock()
	if m.countFn != nil {
		return m.countFn(ctx, filter)
	}
	return 0, nil
}

func (m *innerHospitalRepo) Search(ctx context.Context, query string, limit int) ([]*hospital.Hospital, error) {
	m.mu.Lock()
	m.searchCalls++
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

// setupCache starts a real cache layer over miniredis.
func setupCache(t *testing.T) (ports.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.CacheConfig{OpTimeout: time.Second, ProbeInterval: time.Minute, FallbackMaxEntries: 128}
	svc, err := cache.NewService(client, cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

func sampleHospital(id uuid.UUID) *hospital.Hospital {
	return &hospital.Hospital{ID: id, Name: "Central Vet", City: "Austin", Specialty: hospital.SpecialtyGeneral, Beds: 10, Rating: 4.5}
}

func TestCachingHospitalRepository_GetByIDCachesOrigin(t *testing.T) {
	c, _ := setupCache(t)
	id := uuid.New()
	inner := &innerHospitalRepo{getByIDFn: func(ctx context.Context, got uuid.UUID) (*hospital.Hospital, error) {
		return sampleHospital(id), nil
	}}
	repo := NewCachingHospitalRepository(inner, c, time.Minute, time.Minute, time.Minute)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.getCalls, "second read must be served from cache")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Name, second.Name)
}

func TestCachingHospitalRepository_OriginErrorPropagates(t *testing.T) {
	c, _ := setupCache(t)
	errOrigin := errors.New("origin down")
	inner := &innerHospitalRepo{getByIDFn: func(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error) {
		return nil, errOrigin
	}}
	repo := NewCachingHospitalRepository(inner, c, time.Minute, time.Minute, time.Minute)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errOrigin)
}

func TestCachingHospitalRepository_CorruptPayloadFallsThrough(t *testing.T) {
	c, mr := setupCache(t)
	id := uuid.New()
	inner := &innerHospitalRepo{getByIDFn: func(ctx context.Context, got uuid.UUID) (*hospital.Hospital, error) {
		return sampleHospital(id), nil
	}}
	repo := NewCachingHospitalRepository(inner, c, time.Minute, time.Minute, time.Minute)

	// A payload that is valid JSON for GetOrSet but not for the entity type.
	require.NoError(t, mr.Set("hospital:"+id.String(), `"not a hospital"`))

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 1, inner.getCalls, "a corrupt cached payload must be treated as a miss")
}

func TestCachingHospitalRepository_UpdateInvalidates(t *testing.T) {
	c, mr := setupCache(t)
	id := uuid.New()
	inner := &innerHospitalRepo{
		getByIDFn: func(ctx context.Context, got uuid.UUID) (*hospital.Hospital, error) {
			return sampleHospital(id), nil
		},
		countFn: func(ctx context.Context, filter *hospital.Filter) (int, error) { return 1, nil },
		listFn: func(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, error) {
			return []*hospital.Hospital{sampleHospital(id)}, nil
		},
	}
	repo := NewCachingHospitalRepository(inner, c, time.Minute, time.Minute, time.Minute)
	ctx := context.Background()

	// Prime entity, list and search caches.
	_, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	_, err = repo.List(ctx, nil, 10, 0)
	require.NoError(t, err)
	_, err = repo.Search(ctx, "central", 10)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, sampleHospital(id)))

	assert.False(t, mr.Exists("hospital:"+id.String()), "entity key must be dropped on update")
	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "hospitals:list:", "list keys must be dropped on update")
		assert.NotContains(t, key, "search:", "search keys must be dropped on update")
	}

	_, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.getCalls, "post-invalidation read must reach the origin")
}

func TestCachingHospitalRepository_ListPaginatesCachedResult(t *testing.T) {
	c, _ := setupCache(t)
	all := []*hospital.Hospital{
		sampleHospital(uuid.New()), sampleHospital(uuid.New()), sampleHospital(uuid.New()),
	}
	inner := &innerHospitalRepo{
		countFn: func(ctx context.Context, filter *hospital.Filter) (int, error) { return len(all), nil },
		listFn: func(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, error) {
			return all, nil
		},
	}
	repo := NewCachingHospitalRepository(inner, c, time.Minute, time.Minute, time.Minute)
	ctx := context.Background()

	page1, err := repo.List(ctx, nil, 2, 0)
	require.NoError(t, err)
	page2, err := repo.List(ctx, nil, 2, 2)
	require.NoError(t, err)

	assert.Len(t, page1, 2)
	assert.Len(t, page2, 1)
	assert.Equal(t, 1, inner.listCalls, "both pages must come from one cached load")
	assert.Equal(t, all[2].ID, page2[0].ID)
}

func TestCachingHospitalRepository_SearchKeyIncludesLimit(t *testing.T) {
	c, _ := setupCache(t)
	inner := &innerHospitalRepo{searchFn: func(ctx context.Context, query string, limit int) ([]*hospital.Hospital, error) {
		return []*hospital.Hospital{}, nil
	}}
	repo := NewCachingHospitalRepository(inner, c, time.Minute, time.Minute, time.Minute)
	ctx := context.Background()

	_, err := repo.Search(ctx, "central", 10)
	require.NoError(t, err)
	_, err = repo.Search(ctx, "central", 20)
	require.NoError(t, err)
	_, err = repo.Search(ctx, "central", 10)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.searchCalls, "different limits are different cache entries")
}

func TestCachingHospitalRepository_ConcurrentListsCoalesce(t *testing.T) {
	c, _ := setupCache(t)
	release := make(chan struct{})
	inner := &innerHospitalRepo{
		countFn: func(ctx context.Context, filter *hospital.Filter) (int, error) {
			<-release
			return 1, nil
		},
		listFn: func(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, error) {
			return []*hospital.Hospital{sampleHospital(uuid.New())}, nil
		},
	}
	repo := NewCachingHospitalRepository(inner, c, time.Minute, time.Minute, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.List(ctx, nil, 10, 0)
			assert.NoError(t, err)
		}()
	}
	// Let the goroutines pile onto the singleflight gate, then open it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, inner.listCalls, "concurrent identical loads must coalesce")
}
