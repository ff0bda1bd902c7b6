package lesson

import (
	"context"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
)

type memoryStore struct {
	mu      sync.RWMutex
	lessons map[string]Content
}

func NewInMemoryStore() Store {
	return &memoryStore{lessons: map[string]Content{}}
}

func (m *memoryStore) GetLessonContent(ctx context.Context, id string) (Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.lessons[id]
	if !ok {
		return Content{}, ErrNotFound
	}
	c.LessonContent.Blocks = c.LessonContent.Blocks.Clone()
	return c, nil
}

func (m *memoryStore) UpdateLessonContent(ctx context.Context, req UpdateContentRequest) (Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.lessons[req.ID]
	c := Content{
		ID:            req.ID,
		LessonContent: LessonContent{Blocks: req.LessonContent.Blocks.Clone()},
		Revision:      prev.Revision + 1,
		UpdatedAt:     time.Now().Unix(),
	}
	m.lessons[req.ID] = c
	c.LessonContent.Blocks = c.LessonContent.Blocks.Clone()
	return c, nil
}

type hookedStore struct {
	Store
	hooks []UpdateHook
	log   *logger.Logger
}

// WithHooks runs hooks in order after every successful update. A failing
// hook is logged and does not fail the update, which is already durable.
func WithHooks(s Store, log *logger.Logger, hooks ...UpdateHook) Store {
	return &hookedStore{Store: s, hooks: hooks, log: log}
}

func (h *hookedStore) UpdateLessonContent(ctx context.Context, req UpdateContentRequest) (Content, error) {
	c, err := h.Store.UpdateLessonContent(ctx, req)
	if err != nil {
		return Content{}, err
	}
	for _, hook := range h.hooks {
		if herr := hook(ctx, c); herr != nil && h.log != nil {
			h.log.Warn("lesson update hook failed", "lesson_id", c.ID, "revision", c.Revision, "error", herr)
		}
	}
	return c, nil
}
