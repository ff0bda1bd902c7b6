package lesson

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("lesson not found")

// Store persists lesson quiz content.
type Store interface {
	GetLessonContent(ctx context.Context, id string) (Content, error)
	// UpdateLessonContent replaces the whole block list of a lesson, creating
	// the record if needed, and returns the stored content with its new revision.
	UpdateLessonContent(ctx context.Context, req UpdateContentRequest) (Content, error)
}

// UpdateHook runs after a successful update.
type UpdateHook func(ctx context.Context, c Content) error
