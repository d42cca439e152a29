// Package browser is the rod-backed implementation of the driver capability.
// It owns launcher flags, stealth injection, and per-page identity (user
// agent, locale, viewport, headers); everything above it only sees
// driver.Browser and driver.Page.
package browser

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/models"
)

// Pacing bounds the randomized keystroke delay used by Page.Type.
// A fixed, non-adaptive policy: enough jitter to avoid the metronome
// signature of scripted input, nothing smarter.
type Pacing struct {
	KeyMin time.Duration
	KeyMax time.Duration
}

// Browser launches and owns one Chromium process.
type Browser struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
	pacing  Pacing

	closeOnce sync.Once
	closeErr  error
}

// New launches a Chromium with anti-automation flags and connects to it.
func New(cfg config.BrowserConfig, pacing Pacing) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeInternal,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeInternal,
			"failed to connect to browser",
			err,
		)
	}

	return &Browser{browser: b, cfg: cfg, pacing: pacing}, nil
}

// Close kills the browser process. Safe to call more than once.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		slog.Info("closing browser")
		b.closeErr = b.browser.Close()
	})
	return b.closeErr
}
