package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/use-agent/vitrina/api"
	"github.com/use-agent/vitrina/browser"
	"github.com/use-agent/vitrina/cache"
	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/extract"
	"github.com/use-agent/vitrina/scraper"
	"github.com/use-agent/vitrina/session"
	"github.com/use-agent/vitrina/webhook"
)

func main() {
	quickTerm := flag.String("quick", "", "run a one-shot search and print JSON instead of serving")
	quickLimit := flag.Int("limit", 0, "result limit for -quick")
	flag.Parse()

	// ── 1. Load configuration ───────────────────────────────────────
	_ = godotenv.Load()
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)

	// A malformed locator in a schema table would otherwise act like a
	// permanently absent field.
	if err := extract.ValidateSchemas(); err != nil {
		slog.Error("schema validation failed", "error", err)
		os.Exit(1)
	}

	if *quickTerm != "" {
		runQuick(cfg, *quickTerm, *quickLimit)
		return
	}

	slog.Info("vitrina starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"store", cfg.Store.BaseURL,
	)

	// ── 3. Launch browser ───────────────────────────────────────────
	b, err := browser.New(cfg.Browser, browser.Pacing{
		KeyMin: cfg.Session.TypeDelayMin,
		KeyMax: cfg.Session.TypeDelayMax,
	})
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer func() { _ = b.Close() }()

	// ── 4. Session manager + keeper ─────────────────────────────────
	notify := webhook.Notifier(cfg.Webhook.URL, cfg.Webhook.Secret)
	mgr := session.NewManager(b, cfg.Store, cfg.Session, notify)

	// ── 5. Scraper facade + cache ───────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)
	sc := scraper.New(mgr, cc, cfg.Store, cfg.Browser.ScreenshotDir)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := sc.Initialize(initCtx); err != nil {
		cancelInit()
		slog.Error("session initialization failed", "error", err)
		os.Exit(1)
	}
	cancelInit()

	keeper := session.NewKeeper(mgr, cfg.Session.KeepAliveInterval)
	keeper.Start()

	// ── 6. Start HTTP server ────────────────────────────────────────
	router := api.NewRouter(sc, cfg)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	keeper.Stop()
	if err := sc.Close(ctx); err != nil {
		slog.Error("session close failed", "error", err)
	}

	// The deferred b.Close() kills Chrome.
	slog.Info("vitrina stopped")
}

// runQuick performs a one-shot search on a dedicated browser and prints
// the results as JSON to stdout.
func runQuick(cfg *config.Config, term string, limit int) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	products, err := scraper.Quick(ctx, cfg, term, limit)
	if err != nil {
		slog.Error("quick search failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(products); err != nil {
		slog.Error("encode results failed", "error", err)
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
