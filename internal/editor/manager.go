package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
)

var ErrSessionNotFound = errors.New("editing session not found")

// Outcome is what the editor last reported through Host.SetIsSuccessVisible.
type Outcome struct {
	Visible   bool   `json:"visible"`
	IsSuccess bool   `json:"is_success"`
	Error     string `json:"error,omitempty"`
}

// outcomeHost records host callbacks so API clients can poll them.
type outcomeHost struct {
	mu       sync.Mutex
	editable bool
	outcome  *Outcome
}

func (h *outcomeHost) SetQuizContentEditable() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editable = false
}

func (h *outcomeHost) SetIsSuccessVisible(id string, visible, isSuccess bool, errMsg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcome = &Outcome{Visible: visible, IsSuccess: isSuccess, Error: errMsg}
}

func (h *outcomeHost) snapshot() (bool, *Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.outcome == nil {
		return h.editable, nil
	}
	o := *h.outcome
	return h.editable, &o
}

type entry struct {
	s        *Session
	host     *outcomeHost
	lastUsed time.Time
}

// Manager keeps the open editing sessions of the service. Sessions leave the
// registry when they are cancelled, saved, or idle longer than IdleTTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	store    lesson.Store
	loads    singleflight.Group
	opts     Options
	idleTTL  time.Duration
	now      func() time.Time

	// saves that were still running when their session left the registry
	draining sync.WaitGroup
}

func NewManager(store lesson.Store, opts Options) *Manager {
	opts = opts.withDefaults()
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{
		sessions: map[string]*entry{},
		store:    store,
		opts:     opts,
		idleTTL:  ttl,
		now:      time.Now,
	}
}

// Open starts a session seeded from the stored content of lessonID. A lesson
// that was never saved opens with an empty block list.
func (m *Manager) Open(ctx context.Context, lessonID string, locale language.Tag) (string, *Session, error) {
	c, err := m.load(ctx, lessonID)
	if err != nil {
		return "", nil, err
	}
	opts := m.opts
	if locale != language.Und {
		opts.Locale = locale
	}
	host := &outcomeHost{editable: true}
	s := NewSession(c, host, m.store, opts)

	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &entry{s: s, host: host, lastUsed: m.now()}
	m.mu.Unlock()
	m.opts.Log.Debug("editing session opened", "session_id", id, "lesson_id", lessonID, "revision", c.Revision)
	return id, s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	return e.s, nil
}

func (m *Manager) View(id string) (EditorView, error) {
	e, err := m.entry(id)
	if err != nil {
		return EditorView{}, err
	}
	return e.view(id), nil
}

func (e *entry) view(id string) EditorView {
	v := e.s.View()
	v.SessionID = id
	editable, out := e.host.snapshot()
	v.Editable = v.Editable && editable
	v.Outcome = out
	return v
}

// Submit submits the session and returns the view as of the outcome. A
// successful save ends the session and removes it from the registry; a
// failed await-mode save keeps it open for a retry.
func (m *Manager) Submit(ctx context.Context, id string) (SubmitResult, EditorView, error) {
	e, err := m.entry(id)
	if err != nil {
		return SubmitResult{}, EditorView{}, err
	}
	res, err := e.s.Submit(ctx)
	if err != nil {
		return res, e.view(id), err
	}
	v := e.view(id)
	m.remove(id)
	m.opts.Log.Debug("editing session saved", "session_id", id, "lesson_id", res.Payload.ID)
	return res, v, nil
}

// Refresh reloads the lesson from the store and resets the session if the
// stored revision moved on since the session was seeded.
func (m *Manager) Refresh(ctx context.Context, id string) (bool, error) {
	e, err := m.entry(id)
	if err != nil {
		return false, err
	}
	c, err := m.load(ctx, e.s.LessonID())
	if err != nil {
		return false, err
	}
	return e.s.Sync(c), nil
}

// Close cancels a session; unsaved edits are dropped.
func (m *Manager) Close(id string) error {
	if !m.remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Expire closes sessions unused since before now minus the idle TTL. Sessions
// with a save in flight are kept until the save returns.
func (m *Manager) Expire(now time.Time) int {
	cutoff := now.Add(-m.idleTTL)
	m.mu.Lock()
	var stale []string
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) && !e.s.Saving() {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()
	n := 0
	for _, id := range stale {
		if m.remove(id) {
			n++
		}
	}
	if n > 0 {
		m.opts.Log.Info("expired idle editing sessions", "count", n)
	}
	return n
}

// Len is the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Wait blocks until every background save has returned, including saves of
// sessions already removed from the registry.
func (m *Manager) Wait() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		all = append(all, e.s)
	}
	m.mu.Unlock()
	for _, s := range all {
		s.Wait()
	}
	m.draining.Wait()
}

// remove drops a session from the registry and closes it. A save it still
// runs is tracked until it returns.
func (m *Manager) remove(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		m.draining.Add(1)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.s.Close()
	go func() {
		defer m.draining.Done()
		e.s.Wait()
	}()
	return true
}

func (m *Manager) entry(id string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = m.now()
	return e, nil
}

// load reads a lesson once for all concurrent callers asking for it. The
// shared read does not inherit the first caller's cancellation.
func (m *Manager) load(ctx context.Context, lessonID string) (lesson.Content, error) {
	v, err, _ := m.loads.Do(lessonID, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.Timeout)
		defer cancel()
		c, err := m.store.GetLessonContent(lctx, lessonID)
		if errors.Is(err, lesson.ErrNotFound) {
			return lesson.Content{ID: lessonID, LessonContent: lesson.LessonContent{Blocks: lesson.Blocks{}}}, nil
		}
		return c, err
	})
	if err != nil {
		return lesson.Content{}, err
	}
	return v.(lesson.Content), nil
}
