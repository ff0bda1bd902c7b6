package lesson

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
)

// Cache is a byte cache for lesson reads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func contentKey(id string) string { return "lesson:content:" + id }

// CachedStore serves reads through a cache and drops the cached entry of a
// lesson whenever its content is updated. A read that overlapped an update
// is returned but not cached.
type CachedStore struct {
	next  Store
	cache Cache
	ttl   time.Duration
	log   *logger.Logger

	mu  sync.Mutex
	gen map[string]uint64 // bumped per committed update
}

func NewCachedStore(next Store, cache Cache, ttl time.Duration, log *logger.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl, log: log, gen: map[string]uint64{}}
}

func (s *CachedStore) GetLessonContent(ctx context.Context, id string) (Content, error) {
	key := contentKey(id)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var c Content
		if err := json.Unmarshal(raw, &c); err == nil {
			return c, nil
		}
	} else if err != nil {
		s.warn("lesson cache get failed", "lesson_id", id, "error", err)
	}

	s.mu.Lock()
	g := s.gen[id]
	s.mu.Unlock()

	c, err := s.next.GetLessonContent(ctx, id)
	if err != nil {
		return Content{}, err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return c, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[id] != g {
		return c, nil
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.warn("lesson cache set failed", "lesson_id", id, "error", err)
	}
	return c, nil
}

func (s *CachedStore) UpdateLessonContent(ctx context.Context, req UpdateContentRequest) (Content, error) {
	c, err := s.next.UpdateLessonContent(ctx, req)
	if err != nil {
		return Content{}, err
	}
	s.mu.Lock()
	s.gen[req.ID]++
	s.mu.Unlock()
	if err := s.Invalidate(ctx, req.ID); err != nil {
		s.warn("lesson cache invalidate failed", "lesson_id", req.ID, "error", err)
	}
	return c, nil
}

func (s *CachedStore) Invalidate(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, contentKey(id))
}

func (s *CachedStore) warn(msg string, kv ...interface{}) {
	if s.log != nil {
		s.log.Warn(msg, kv...)
	}
}

type memEntry struct {
	val     []byte
	expires time.Time
}

// MemoryCache is the offline-mode cache used when no redis is configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memEntry{}, now: time.Now}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
