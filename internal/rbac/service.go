package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Service resolves principals, caching them briefly in Redis.
type Service struct {
	store Store
	cache *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewService constructs a Service. A nil cache disables caching.
func NewService(store Store, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{store: store, cache: cache, ttl: ttl}
}

// Principal returns the principal for userID.
func (s *Service) Principal(ctx context.Context, userID int64) (*Principal, error) {
	if p, ok := s.cached(ctx, userID); ok {
		return p, nil
	}
	key := strconv.FormatInt(userID, 10)
	v, err, _ := s.group.Do(key, func() (any, error) {
		p, err := s.store.LoadPrincipal(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.remember(ctx, &p)
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*Principal)
	return &p, nil
}

// Invalidate drops the cached principal so the next request reloads roles.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, cacheKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *Service) cached(ctx context.Context, userID int64) (*Principal, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return nil, false
	}
	data, err := s.cache.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var p Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (s *Service) remember(ctx context.Context, p *Principal) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, cacheKey(p.ID), data, s.ttl).Err()
}

func cacheKey(userID int64) string {
	return "backoffice:principal:" + strconv.FormatInt(userID, 10)
}
