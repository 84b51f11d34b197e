package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eduforge/eduforge/internal/ai"
	"github.com/eduforge/eduforge/internal/course"
	"github.com/eduforge/eduforge/internal/generator"
	"github.com/eduforge/eduforge/internal/platform/cache"
	"github.com/eduforge/eduforge/internal/platform/config"
	"github.com/eduforge/eduforge/internal/platform/database"
	"github.com/eduforge/eduforge/internal/progress"
	"github.com/eduforge/eduforge/internal/tutor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	// Bot credentials are checked per request, not at startup: the catalog
	// and progress endpoints work without them.
	if err := cfg.Validate(); err != nil {
		slog.Warn("config incomplete, bot-backed endpoints will fail", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app := buildApp(ctx, cfg)
	defer app.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      newMux(app),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // generation holds the request open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// buildApp dials the external stores and wires the application. Postgres
// and Redis are optional: without them everything runs on in-memory stores,
// which is fine for development and loses state on restart.
func buildApp(ctx context.Context, cfg *config.Config) *app {
	a := &app{
		courses:  course.NewMemoryStore(),
		progress: progress.NewMemoryStore(),
		events:   progress.NopEventLogger{},
	}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			slog.Error("database unavailable, falling back to memory stores", "error", err)
		} else {
			a.db = db
			if store, err := course.NewPostgresStore(db.Pool); err == nil {
				a.courses = store
			}
			a.events = progress.NewPostgresEventLogger(db.Pool)
		}
	} else {
		slog.Warn("EDU_DATABASE_URL not set, state is in-memory only")
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			slog.Error("cache unavailable, live progress updates disabled", "error", err)
		} else {
			a.cache = c
		}
	}

	// Live subscriptions need the redis fan-out, so the durable progress
	// store requires both backends.
	if a.db != nil && a.cache != nil {
		if store, err := progress.NewPostgresStore(a.db.Pool, a.cache.Client); err == nil {
			a.progress = store
		}
	}

	if catalog, err := course.NewLoader(cfg.ContentDir); err != nil {
		slog.Warn("built-in catalog not loaded", "dir", cfg.ContentDir, "error", err)
	} else {
		a.catalog = catalog
	}

	bot := ai.NewBotClient(cfg.Bot.APIURL, cfg.Bot.Token, cfg.Bot.BotID,
		ai.WithTimeout(time.Duration(cfg.Generation.RequestTimeout)*time.Second))
	a.pipeline = generator.NewPipeline(bot,
		generator.WithModuleDelay(time.Duration(cfg.Generation.ModuleDelaySeconds)*time.Second))
	a.tutor = tutor.New(bot)
	a.requestTimeout = time.Duration(cfg.Generation.RequestTimeout) * time.Second
	return a
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
