package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
)

func seedLesson(t *testing.T, st lesson.Store, id string, blocks lesson.Blocks) lesson.Content {
	t.Helper()
	c, err := st.UpdateLessonContent(context.Background(), lesson.UpdateContentRequest{
		ID:            id,
		LessonContent: lesson.LessonContent{Blocks: blocks},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return c
}

func TestManagerOpenUnsavedLesson(t *testing.T) {
	m := NewManager(lesson.NewInMemoryStore(), Options{})
	id, s, err := m.Open(context.Background(), "new-lesson", language.Und)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id == "" || s.Len() != 0 || s.LessonID() != "new-lesson" {
		t.Fatalf("id=%q len=%d lesson=%q", id, s.Len(), s.LessonID())
	}
	v, err := m.View(id)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !v.Editable || v.Outcome != nil || v.SessionID != id {
		t.Fatalf("view = %+v", v)
	}
}

func TestManagerSubmitRecordsOutcome(t *testing.T) {
	st := lesson.NewInMemoryStore()
	m := NewManager(st, Options{Mode: SubmitAwait})
	id, s, err := m.Open(context.Background(), "l1", language.Und)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.AddFixedLettersBlock()
	mustSet(t, s, "blocks.0.question", "Spell dog")
	mustSet(t, s, "blocks.0.answer", "dog")

	_, v, err := m.Submit(context.Background(), id)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v.Editable || v.Outcome == nil || !v.Outcome.IsSuccess || !v.Outcome.Visible {
		t.Fatalf("view = %+v outcome=%+v", v, v.Outcome)
	}
	c, err := st.GetLessonContent(context.Background(), "l1")
	if err != nil || len(c.LessonContent.Blocks) != 1 || c.Revision != 1 {
		t.Fatalf("stored = %+v, %v", c, err)
	}
}

func TestManagerRefreshResetsOnExternalUpdate(t *testing.T) {
	st := lesson.NewInMemoryStore()
	seedLesson(t, st, "l1", lesson.Blocks{&lesson.FixedLettersAnswerBlock{ID: "f1", Question: "q", Answer: "a"}})
	m := NewManager(st, Options{})
	id, s, err := m.Open(context.Background(), "l1", language.Und)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustSet(t, s, "blocks.0.question", "local edit")

	if reset, err := m.Refresh(context.Background(), id); err != nil || reset {
		t.Fatalf("Refresh with no change = %v, %v", reset, err)
	}
	if got := s.Blocks()[0].(*lesson.FixedLettersAnswerBlock).Question; got != "local edit" {
		t.Fatalf("edit lost: %q", got)
	}

	seedLesson(t, st, "l1", lesson.Blocks{})
	if reset, err := m.Refresh(context.Background(), id); err != nil || !reset {
		t.Fatalf("Refresh after update = %v, %v", reset, err)
	}
	if s.Len() != 0 || s.Revision() != 2 {
		t.Fatalf("len=%d revision=%d", s.Len(), s.Revision())
	}
}

func TestManagerLocale(t *testing.T) {
	m := NewManager(lesson.NewInMemoryStore(), Options{})
	_, s, err := m.Open(context.Background(), "l1", language.Spanish)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.AddFixedLettersBlock()
	errs, _ := s.SetField("blocks.0.question", "")
	if got := errs["blocks.0.question"].Message; got != "La pregunta es obligatoria" {
		t.Fatalf("message = %q", got)
	}
}

func TestManagerClose(t *testing.T) {
	m := NewManager(lesson.NewInMemoryStore(), Options{})
	id, s, _ := m.Open(context.Background(), "l1", language.Und)
	if err := m.Close(id); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get after close = %v", err)
	}
	if err := m.Close(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second Close = %v", err)
	}
	if _, err := s.AddQuestionAnswerBlock(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("edit after close = %v", err)
	}
}

// gatedStore blocks updates until release is closed.
type gatedStore struct {
	lesson.Store
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) UpdateLessonContent(ctx context.Context, req lesson.UpdateContentRequest) (lesson.Content, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Store.UpdateLessonContent(ctx, req)
}

// ctxStore fails reads whose context is done.
type ctxStore struct{ lesson.Store }

func (c ctxStore) GetLessonContent(ctx context.Context, id string) (lesson.Content, error) {
	if err := ctx.Err(); err != nil {
		return lesson.Content{}, err
	}
	return c.Store.GetLessonContent(ctx, id)
}

func openFilled(t *testing.T, m *Manager, lessonID string) string {
	t.Helper()
	id, s, err := m.Open(context.Background(), lessonID, language.Und)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.AddFixedLettersBlock()
	mustSet(t, s, "blocks.0.question", "Spell "+lessonID)
	mustSet(t, s, "blocks.0.answer", lessonID)
	return id
}

func TestManagerDropsSavedSessions(t *testing.T) {
	for _, mode := range []SubmitMode{SubmitAwait, SubmitDetached} {
		t.Run(string(mode), func(t *testing.T) {
			m := NewManager(lesson.NewInMemoryStore(), Options{Mode: mode})
			for _, l := range []string{"a", "b", "c"} {
				id := openFilled(t, m, l)
				if _, _, err := m.Submit(context.Background(), id); err != nil {
					t.Fatalf("Submit %s: %v", l, err)
				}
				if _, err := m.Get(id); !errors.Is(err, ErrSessionNotFound) {
					t.Fatalf("Get after save = %v", err)
				}
			}
			m.Wait()
			if n := m.Len(); n != 0 {
				t.Fatalf("sessions after saves = %d, want 0", n)
			}
		})
	}
}

func TestManagerKeepsFailedAwaitSession(t *testing.T) {
	m := NewManager(lesson.NewInMemoryStore(), Options{Mode: SubmitAwait})
	id, s, _ := m.Open(context.Background(), "l1", language.Und)
	s.AddFixedLettersBlock()

	var verr *ValidationError
	if _, _, err := m.Submit(context.Background(), id); !errors.As(err, &verr) {
		t.Fatalf("Submit invalid = %v", err)
	}
	if _, err := m.Get(id); err != nil {
		t.Fatalf("session dropped after failed submit: %v", err)
	}
}

func TestManagerWaitCoversRemovedSessions(t *testing.T) {
	st := &gatedStore{Store: lesson.NewInMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(st, Options{Mode: SubmitDetached})
	id := openFilled(t, m, "l1")
	if _, _, err := m.Submit(context.Background(), id); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-st.entered

	waited := make(chan struct{})
	go func() {
		m.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		t.Fatalf("Wait returned while a save was running")
	case <-time.After(20 * time.Millisecond):
	}
	close(st.release)
	<-waited

	c, err := st.GetLessonContent(context.Background(), "l1")
	if err != nil || c.Revision != 1 {
		t.Fatalf("stored = %+v, %v", c, err)
	}
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	m := NewManager(lesson.NewInMemoryStore(), Options{IdleTTL: time.Hour})
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return t0 }
	idle, _, _ := m.Open(context.Background(), "l1", language.Und)
	busy, _, _ := m.Open(context.Background(), "l2", language.Und)

	m.now = func() time.Time { return t0.Add(50 * time.Minute) }
	if _, err := m.Get(busy); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := m.Expire(t0.Add(70 * time.Minute)); n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}
	if _, err := m.Get(idle); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("idle session still open: %v", err)
	}
	if _, err := m.Get(busy); err != nil {
		t.Fatalf("used session expired: %v", err)
	}
}

func TestManagerLoadIgnoresCallerCancel(t *testing.T) {
	st := lesson.NewInMemoryStore()
	seedLesson(t, st, "l1", lesson.Blocks{&lesson.FixedLettersAnswerBlock{ID: "f1", Question: "q", Answer: "a"}})
	m := NewManager(ctxStore{st}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, s, err := m.Open(ctx, "l1", language.Und)
	if err != nil {
		t.Fatalf("Open with cancelled request: %v", err)
	}
	if s.Len() != 1 || s.Revision() != 1 {
		t.Fatalf("len=%d revision=%d", s.Len(), s.Revision())
	}
}
