// Package progress answers the learner statistics shown next to the editor:
// completed course/module/lesson counts and lessons completed per day.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type Kind string

const (
	KindCourse Kind = "course"
	KindModule Kind = "module"
	KindLesson Kind = "lesson"
)

var ErrBadKind = errors.New("unknown progress kind")

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCourse, KindModule, KindLesson:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadKind, s)
}

type CompleteCounts struct {
	Courses int `json:"courses_progress_length"`
	Modules int `json:"modules_progress_length"`
	Lessons int `json:"lessons_progress_length"`
}

type DayCount struct {
	Date        string `json:"date"` // YYYY-MM-DD in the caller's location
	LessonCount int    `json:"lessonCount"`
}

type Store interface {
	// MarkComplete records the first completion of refID; repeats are ignored.
	MarkComplete(ctx context.Context, userID string, kind Kind, refID string, at time.Time) error
	CompleteCounts(ctx context.Context, userID string) (CompleteCounts, error)
	// LessonCompletions returns completion times of lessons in [from, to).
	LessonCompletions(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error)
}

// Last7DaysLessons returns one entry per day for the week ending on now's
// day, oldest first. Days without completions have a zero count.
func Last7DaysLessons(ctx context.Context, s Store, userID string, now time.Time) ([]DayCount, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	from := today.AddDate(0, 0, -6)
	to := today.AddDate(0, 0, 1)

	times, err := s.LessonCompletions(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	days := make([]DayCount, 7)
	index := make(map[string]int, 7)
	for i := range days {
		d := from.AddDate(0, 0, i).Format(time.DateOnly)
		days[i].Date = d
		index[d] = i
	}
	for _, t := range times {
		if i, ok := index[t.In(loc).Format(time.DateOnly)]; ok {
			days[i].LessonCount++
		}
	}
	return days, nil
}

type completion struct {
	kind Kind
	ref  string
}

type memoryStore struct {
	mu   sync.RWMutex
	done map[string]map[completion]time.Time
}

func NewInMemoryStore() Store {
	return &memoryStore{done: map[string]map[completion]time.Time{}}
}

func (m *memoryStore) MarkComplete(ctx context.Context, userID string, kind Kind, refID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.done[userID]
	if u == nil {
		u = map[completion]time.Time{}
		m.done[userID] = u
	}
	c := completion{kind, refID}
	if _, ok := u[c]; !ok {
		u[c] = at
	}
	return nil
}

func (m *memoryStore) CompleteCounts(ctx context.Context, userID string) (CompleteCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out CompleteCounts
	for c := range m.done[userID] {
		switch c.kind {
		case KindCourse:
			out.Courses++
		case KindModule:
			out.Modules++
		case KindLesson:
			out.Lessons++
		}
	}
	return out, nil
}

func (m *memoryStore) LessonCompletions(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []time.Time{}
	for c, at := range m.done[userID] {
		if c.kind == KindLesson && !at.Before(from) && at.Before(to) {
			out = append(out, at)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
