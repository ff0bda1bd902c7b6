package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quizcontent/internal/editor"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
)

// Handlers only; routes are wired in cmd/gateway/routes.go

// POST /lessons/{lessonID}/editor
func OpenEditorHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lessonID := strings.TrimSpace(chi.URLParam(r, "lessonID"))
		if lessonID == "" {
			http.Error(w, "lesson id required", http.StatusBadRequest)
			return
		}
		id, _, err := m.Open(r.Context(), lessonID, requestLocale(r))
		if err != nil {
			log.Error("open editor failed", "lesson_id", lessonID, "error", err)
			http.Error(w, "load lesson", http.StatusInternalServerError)
			return
		}
		v, err := m.View(id)
		if err != nil {
			writeEditorError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"session_id": id, "view": v})
	}
}

// GET /editor/{sessionID}
func GetEditorHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeView(w, m, log, chi.URLParam(r, "sessionID"))
	}
}

// POST /editor/{sessionID}/refresh
func RefreshEditorHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		if _, err := m.Refresh(r.Context(), id); err != nil {
			writeEditorError(w, log, err)
			return
		}
		writeView(w, m, log, id)
	}
}

// POST /editor/{sessionID}/blocks  {"type": "QUESTION_ANSWER"}
func AddBlockHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type lesson.BlockType `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		withSession(w, r, m, log, func(s *editor.Session) error {
			_, err := s.AddBlock(req.Type)
			return err
		})
	}
}

// DELETE /editor/{sessionID}/blocks/{index}
func RemoveBlockHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, ok := intParam(r, "index")
		if !ok {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		withSession(w, r, m, log, func(s *editor.Session) error { return s.RemoveBlock(i) })
	}
}

// POST /editor/{sessionID}/blocks/{index}/answers
func AppendAnswerHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, ok := intParam(r, "index")
		if !ok {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		withSession(w, r, m, log, func(s *editor.Session) error {
			_, err := s.AppendIncorrectAnswer(i)
			return err
		})
	}
}

// DELETE /editor/{sessionID}/blocks/{index}/answers/{answerIndex}
func RemoveAnswerHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bi, ok1 := intParam(r, "index")
		ai, ok2 := intParam(r, "answerIndex")
		if !ok1 || !ok2 {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		withSession(w, r, m, log, func(s *editor.Session) error { return s.RemoveIncorrectAnswer(bi, ai) })
	}
}

// PATCH /editor/{sessionID}/fields  {"path": "blocks.0.question", "value": "..."}
func SetFieldHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path  string `json:"path"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		withSession(w, r, m, log, func(s *editor.Session) error {
			_, err := s.SetField(req.Path, req.Value)
			return err
		})
	}
}

// POST /editor/{sessionID}/submit
func SubmitEditorHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, v, err := m.Submit(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeEditorError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"payload": res.Payload,
			"content": res.Content,
			"view":    v,
		})
	}
}

// DELETE /editor/{sessionID}
func CloseEditorHandler(m *editor.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.Close(chi.URLParam(r, "sessionID")); err != nil {
			writeEditorError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func withSession(w http.ResponseWriter, r *http.Request, m *editor.Manager, log *logger.Logger, fn func(*editor.Session) error) {
	id := chi.URLParam(r, "sessionID")
	s, err := m.Get(id)
	if err != nil {
		writeEditorError(w, log, err)
		return
	}
	if err := fn(s); err != nil {
		writeEditorError(w, log, err)
		return
	}
	writeView(w, m, log, id)
}

func writeView(w http.ResponseWriter, m *editor.Manager, log *logger.Logger, id string) {
	v, err := m.View(id)
	if err != nil {
		writeEditorError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
