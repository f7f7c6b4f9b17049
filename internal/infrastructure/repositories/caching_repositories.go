package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/hospital"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/pet"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/cache"
	"golang.org/x/sync/singleflight"
)

// Utility helpers

// getOrSetTyped loads a typed value through the cache. A cached payload that
// no longer unmarshals is treated as a miss and the origin is queried
// directly.
func getOrSetTyped[T any](ctx context.Context, c ports.Cache, key string, producer func(context.Context) (T, error), ttl time.Duration) (T, error) {
	var zero T
	if c == nil {
		return producer(ctx)
	}
	raw, err := c.GetOrSet(ctx, key, func(ctx context.Context) (any, error) {
		return producer(ctx)
	}, ttl)
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return producer(ctx)
	}
	return v, nil
}

// loadListWithSingleflight coalesces concurrent cache-miss loads of one list
// key so a single origin query serves all waiters.
func loadListWithSingleflight[T any](ctx context.Context, c ports.Cache, key string, ttl time.Duration, loader func(context.Context) ([]T, error)) ([]T, error) {
	res, err, _ := sf.Do(key, func() (any, error) {
		return getOrSetTyped(ctx, c, key, loader, ttl)
	})
	if err != nil {
		return nil, err
	}
	list, ok := res.([]T)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return list, nil
}

// paginate slices a cached full list the same way the database would.
func paginate[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// CachingHospitalRepository decorates a HospitalRepository with cache-aside
// reads and invalidation-on-write.
type CachingHospitalRepository struct {
	inner     ports.HospitalRepository
	cache     ports.Cache
	ttl       time.Duration
	listTTL   time.Duration
	searchTTL time.Duration
}

func NewCachingHospitalRepository(inner ports.HospitalRepository, c ports.Cache, ttl, listTTL, searchTTL time.Duration) ports.HospitalRepository {
	return &CachingHospitalRepository{inner: inner, cache: c, ttl: ttl, listTTL: listTTL, searchTTL: searchTTL}
}

func (c *CachingHospitalRepository) Create(ctx context.Context, h *hospital.Hospital) error {
	if err := c.inner.Create(ctx, h); err != nil {
		return err
	}
	c.invalidateDerived(ctx)
	return nil
}

func (c *CachingHospitalRepository) GetByID(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	return getOrSetTyped(ctx, c.cache, cache.HospitalKey(id), func(ctx context.Context) (*hospital.Hospital, error) {
		return c.inner.GetByID(ctx, id)
	}, c.ttl)
}

func (c *CachingHospitalRepository) Update(ctx context.Context, h *hospital.Hospital) error {
	if err := c.inner.Update(ctx, h); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Delete(ctx, cache.HospitalKey(h.ID))
	}
	c.invalidateDerived(ctx)
	return nil
}

func (c *CachingHospitalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Delete(ctx, cache.HospitalKey(id))
	}
	c.invalidateDerived(ctx)
	return nil
}

func (c *CachingHospitalRepository) List(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, error) {
	if c.cache == nil {
		return c.inner.List(ctx, filter, limit, offset)
	}
	listKey := cache.HospitalListKey(cache.FilterHash(filter))
	all, err := loadListWithSingleflight(ctx, c.cache, listKey, c.listTTL, func(ctx context.Context) ([]*hospital.Hospital, error) {
		cnt, err := c.inner.Count(ctx, filter)
		if err != nil {
			return nil, err
		}
		if cnt == 0 {
			return []*hospital.Hospital{}, nil
		}
		return c.inner.List(ctx, filter, cnt, 0)
	})
	if err != nil {
		return nil, err
	}
	return paginate(all, limit, offset), nil
}

func (c *CachingHospitalRepository) Count(ctx context.Context, filter *hospital.Filter) (int, error) {
	return getOrSetTyped(ctx, c.cache, cache.HospitalCountKey(cache.FilterHash(filter)), func(ctx context.Context) (int, error) {
		return c.inner.Count(ctx, filter)
	}, c.listTTL)
}

func (c *CachingHospitalRepository) Search(ctx context.Context, query string, limit int) ([]*hospital.Hospital, error) {
	if c.cache == nil {
		return c.inner.Search(ctx, query, limit)
	}
	// The limit is part of the cached result, so it belongs in the key.
	key := cache.SearchKey(fmt.Sprintf("%s|%d", query, limit))
	return loadListWithSingleflight(ctx, c.cache, key, c.searchTTL, func(ctx context.Context) ([]*hospital.Hospital, error) {
		return c.inner.Search(ctx, query, limit)
	})
}

// invalidateDerived drops every cached hospital listing, count and search
// result. Entity keys are removed individually by the write that names them.
func (c *CachingHospitalRepository) invalidateDerived(ctx context.Context) {
	if c.cache == nil {
		return
	}
	_ = c.cache.DeletePattern(ctx, cache.HospitalListPattern)
	_ = c.cache.DeletePattern(ctx, cache.HospitalCountPattern)
	_ = c.cache.DeletePattern(ctx, cache.SearchPattern)
}

// CachingPetRepository decorates a PetRepository with cache-aside reads and
// invalidation-on-write.
type CachingPetRepository struct {
	inner   ports.PetRepository
	cache   ports.Cache
	ttl     time.Duration
	listTTL time.Duration
}

func NewCachingPetRepository(inner ports.PetRepository, c ports.Cache, ttl, listTTL time.Duration) ports.PetRepository {
	return &CachingPetRepository{inner: inner, cache: c, ttl: ttl, listTTL: listTTL}
}

func (c *CachingPetRepository) Create(ctx context.Context, p *pet.Pet) error {
	if err := c.inner.Create(ctx, p); err != nil {
		return err
	}
	c.invalidateDerived(ctx)
	return nil
}

func (c *CachingPetRepository) GetByID(ctx context.Context, id uuid.UUID) (*pet.Pet, error) {
	return getOrSetTyped(ctx, c.cache, cache.PetKey(id), func(ctx context.Context) (*pet.Pet, error) {
		return c.inner.GetByID(ctx, id)
	}, c.ttl)
}

func (c *CachingPetRepository) Update(ctx context.Context, p *pet.Pet) error {
	if err := c.inner.Update(ctx, p); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Delete(ctx, cache.PetKey(p.ID))
	}
	c.invalidateDerived(ctx)
	return nil
}

func (c *CachingPetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Delete(ctx, cache.PetKey(id))
	}
	c.invalidateDerived(ctx)
	return nil
}

func (c *CachingPetRepository) List(ctx context.Context, filter *pet.Filter, limit, offset int) ([]*pet.Pet, error) {
	if c.cache == nil {
		return c.inner.List(ctx, filter, limit, offset)
	}
	listKey := cache.PetListKey(cache.FilterHash(filter))
	all, err := loadListWithSingleflight(ctx, c.cache, listKey, c.listTTL, func(ctx context.Context) ([]*pet.Pet, error) {
		cnt, err := c.inner.Count(ctx, filter)
		if err != nil {
			return nil, err
		}
		if cnt == 0 {
			return []*pet.Pet{}, nil
		}
		return c.inner.List(ctx, filter, cnt, 0)
	})
	if err != nil {
		return nil, err
	}
	return paginate(all, limit, offset), nil
}

func (c *CachingPetRepository) Count(ctx context.Context, filter *pet.Filter) (int, error) {
	return getOrSetTyped(ctx, c.cache, cache.PetCountKey(cache.FilterHash(filter)), func(ctx context.Context) (int, error) {
		return c.inner.Count(ctx, filter)
	}, c.listTTL)
}

// invalidateDerived drops every cached pet listing and count.
func (c *CachingPetRepository) invalidateDerived(ctx context.Context) {
	if c.cache == nil {
		return
	}
	_ = c.cache.DeletePattern(ctx, cache.PetListPattern)
	_ = c.cache.DeletePattern(ctx, cache.PetCountPattern)
}

// Simple validation to ensure decorators implement interfaces at compile time
var _ ports.HospitalRepository = (*CachingHospitalRepository)(nil)
var _ ports.PetRepository = (*CachingPetRepository)(nil)

// singleflight group for coalescing cache-miss loads in-process
var sf singleflight.Group
