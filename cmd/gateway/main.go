package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auth "github.com/mind-engage/mindengage-quizcontent/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quizcontent/internal/config"
	"github.com/mind-engage/mindengage-quizcontent/internal/db"
	"github.com/mind-engage/mindengage-quizcontent/internal/editor"
	"github.com/mind-engage/mindengage-quizcontent/internal/form/validate"
	"github.com/mind-engage/mindengage-quizcontent/internal/lesson"
	"github.com/mind-engage/mindengage-quizcontent/internal/logger"
	"github.com/mind-engage/mindengage-quizcontent/internal/progress"
	syncx "github.com/mind-engage/mindengage-quizcontent/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err)
	}
	defer dbh.Close()

	// --- Lesson content: SQL → event log hook → read cache ---
	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	var lessons lesson.Store = lesson.WithHooks(lesson.NewSQLStore(dbh, cfg.DBDriver), log, events.LessonUpdatedHook())

	var cache lesson.Cache
	if cfg.RedisAddr != "" {
		rc, err := lesson.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect failed", "addr", cfg.RedisAddr, "error", err)
		}
		defer rc.Close()
		cache = rc
	} else {
		cache = lesson.NewMemoryCache()
	}
	lessons = lesson.NewCachedStore(lessons, cache, cfg.CacheTTL, log)

	locale := validate.ParseLocale(cfg.DefaultLocale)
	editors := editor.NewManager(lessons, editor.Options{
		Mode:    editor.ParseSubmitMode(cfg.SubmitMode),
		Timeout: cfg.SubmitTimeout,
		IdleTTL: cfg.EditorIdleTTL,
		Locale:  locale,
		Log:     log,
	})
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case now := <-t.C:
				editors.Expire(now)
			}
		}
	}()

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)
	var creds *auth.Credentials
	if cfg.EnableLocalAuth {
		creds = &auth.Credentials{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			DevLogins:     cfg.Mode == config.ModeOffline,
		}
	}

	h := newRouter(deps{
		log:         log,
		authSvc:     authSvc,
		creds:       creds,
		corsOrigins: cfg.CORSOrigins(),
		locale:      locale,
		lessons:     lessons,
		events:      events,
		editors:     editors,
		progress:    progress.NewSQLStore(dbh),
		ready:       dbh.PingContext,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "submit_mode", cfg.SubmitMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	// Let detached saves reach the store before the DB closes.
	editors.Wait()
	log.Info("stopped")
}
