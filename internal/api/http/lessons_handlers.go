package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-quizcontent/internal/editor"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
	syncx "github.com/mind-engage/mindengage-quizcontent/internal/sync"
)

// GET /lessons/{lessonID}/content
func GetLessonContentHandler(store lesson.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "lessonID")
		c, err := store.GetLessonContent(r.Context(), id)
		if errors.Is(err, lesson.ErrNotFound) {
			http.Error(w, "lesson not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("get lesson content failed", "lesson_id", id, "error", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// PUT /lessons/{lessonID}/content  {"blocks": [...]}
// Replaces the block list without an editing session, with the same rules.
func PutLessonContentHandler(store lesson.Store, defLocale language.Tag, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "lessonID")
		var body lesson.LessonContent
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if body.Blocks == nil {
			body.Blocks = lesson.Blocks{}
		}
		locale := requestLocale(r)
		if locale == language.Und {
			locale = defLocale
		}
		if errs := editor.ValidateBlocks(body.Blocks, locale); len(errs) > 0 {
			writeValidation(w, errs)
			return
		}
		c, err := store.UpdateLessonContent(r.Context(), lesson.UpdateContentRequest{ID: id, LessonContent: body})
		if err != nil {
			log.Error("put lesson content failed", "lesson_id", id, "error", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

type EventLister interface {
	ListByKey(ctx context.Context, key string, limit int) ([]syncx.Event, error)
}

// GET /lessons/{lessonID}/history?limit=
func LessonHistoryHandler(events EventLister, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "lessonID")
		list, err := events.ListByKey(r.Context(), id, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			log.Error("list lesson history failed", "lesson_id", id, "error", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
