package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-quizcontent/internal/editor"
	"github.com/mind-engage/mindengage-quizcontent/internal/form/fieldarray"
	"github.com/mind-engage/mindengage-quizcontent/internal/form/validate"
	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeValidation(w http.ResponseWriter, errs validate.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
}

// writeEditorError maps editor and list errors to status codes.
func writeEditorError(w http.ResponseWriter, log *logger.Logger, err error) {
	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Errors)
	case errors.Is(err, editor.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, editor.ErrSubmitInFlight), errors.Is(err, editor.ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, fieldarray.ErrIndexOutOfRange),
		errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrUnknownType),
		errors.Is(err, editor.ErrNoAnswerList),
		errors.Is(err, editor.ErrUneditable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error("editor request failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func intParam(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	return v, err == nil
}

// requestLocale picks the message locale from Accept-Language; Und leaves
// the configured default in place.
func requestLocale(r *http.Request) language.Tag {
	return validate.MatchLocale(r.Header.Get("Accept-Language"), language.Und)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
