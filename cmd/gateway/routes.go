package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/text/language"

	api "github.com/mind-engage/mindengage-quizcontent/internal/api/http"
	auth "github.com/mind-engage/mindengage-quizcontent/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quizcontent/internal/editor"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
	"github.com/mind-engage/mindengage-quizcontent/internal/progress"
	rbac "github.com/mind-engage/mindengage-quizcontent/internal/rbac"
)

type deps struct {
	log         *logger.Logger
	authSvc     *auth.AuthService
	creds       *auth.Credentials // nil: local login disabled
	corsOrigins []string
	locale      language.Tag

	lessons  lesson.Store
	events   api.EventLister
	editors  *editor.Manager
	progress progress.Store
	now      func() time.Time
	ready    func(ctx context.Context) error
}

func newRouter(d deps) http.Handler {
	if d.now == nil {
		d.now = time.Now
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.creds != nil {
		r.Post("/auth/login", auth.LoginHandler(d.authSvc, *d.creds))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.authSvc))

		pr.With(rbac.Require("lesson:view")).
			Get("/lessons/{lessonID}/content", api.GetLessonContentHandler(d.lessons, d.log))
		pr.With(rbac.Require("lesson:edit")).
			Put("/lessons/{lessonID}/content", api.PutLessonContentHandler(d.lessons, d.locale, d.log))
		if d.events != nil {
			pr.With(rbac.Require("lesson:history")).
				Get("/lessons/{lessonID}/history", api.LessonHistoryHandler(d.events, d.log))
		}

		// Editing sessions
		pr.With(rbac.Require("lesson:edit")).
			Post("/lessons/{lessonID}/editor", api.OpenEditorHandler(d.editors, d.log))
		pr.Route("/editor/{sessionID}", func(er chi.Router) {
			er.Use(rbac.Require("lesson:edit"))
			er.Get("/", api.GetEditorHandler(d.editors, d.log))
			er.Delete("/", api.CloseEditorHandler(d.editors, d.log))
			er.Post("/refresh", api.RefreshEditorHandler(d.editors, d.log))
			er.Post("/blocks", api.AddBlockHandler(d.editors, d.log))
			er.Delete("/blocks/{index}", api.RemoveBlockHandler(d.editors, d.log))
			er.Post("/blocks/{index}/answers", api.AppendAnswerHandler(d.editors, d.log))
			er.Delete("/blocks/{index}/answers/{answerIndex}", api.RemoveAnswerHandler(d.editors, d.log))
			er.Patch("/fields", api.SetFieldHandler(d.editors, d.log))
			er.Post("/submit", api.SubmitEditorHandler(d.editors, d.log))
		})

		// Progress: own data, or anyone's with progress:view-all
		isSelf := func(r *http.Request) bool {
			sub := auth.SubjectFromContext(r.Context())
			return sub != "" && sub == chi.URLParam(r, "userID")
		}
		pr.Route("/users/{userID}/progress", func(ur chi.Router) {
			ur.With(rbac.RequireAny("progress:view-own", "progress:view-all"), rbac.RequireOwnerOr("progress:view-all", isSelf)).
				Get("/counts", api.CompleteCountsHandler(d.progress, d.log))
			ur.With(rbac.RequireAny("progress:view-own", "progress:view-all"), rbac.RequireOwnerOr("progress:view-all", isSelf)).
				Get("/last7days", api.Last7DaysHandler(d.progress, d.now, d.log))
			ur.With(rbac.RequireOwnerOr("progress:record-all", isSelf), rbac.RequireAny("progress:record-own", "progress:record-all")).
				Post("/", api.RecordProgressHandler(d.progress, d.now, d.log))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.ready != nil {
			if err := d.ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
