package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
	"github.com/mind-engage/mindengage-quizcontent/internal/progress"
)

// GET /users/{userID}/progress/counts
func CompleteCountsHandler(store progress.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		c, err := store.CompleteCounts(r.Context(), userID)
		if err != nil {
			log.Error("complete counts failed", "user_id", userID, "error", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// GET /users/{userID}/progress/last7days?tz_offset_min=
// tz_offset_min is the client's UTC offset in minutes and decides where a
// day starts.
func Last7DaysHandler(store progress.Store, now func() time.Time, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		t := now().UTC()
		if v := r.URL.Query().Get("tz_offset_min"); v != "" {
			off, err := strconv.Atoi(v)
			if err != nil || off < -14*60 || off > 14*60 {
				http.Error(w, "bad tz_offset_min", http.StatusBadRequest)
				return
			}
			t = t.In(time.FixedZone("client", off*60))
		}
		days, err := progress.Last7DaysLessons(r.Context(), store, userID, t)
		if err != nil {
			log.Error("last 7 days failed", "user_id", userID, "error", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, days)
	}
}

// POST /users/{userID}/progress  {"kind": "lesson", "ref_id": "..."}
func RecordProgressHandler(store progress.Store, now func() time.Time, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		var req struct {
			Kind  string `json:"kind"`
			RefID string `json:"ref_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.RefID) == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		kind, err := progress.ParseKind(req.Kind)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.MarkComplete(r.Context(), userID, kind, req.RefID, now()); err != nil {
			log.Error("record progress failed", "user_id", userID, "error", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
