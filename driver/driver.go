// Package driver defines the rendering-automation capability consumed by the
// session and scraper layers. The concrete implementation (package browser)
// drives a headless Chromium over CDP; tests substitute fakes.
package driver

import (
	"context"
	"net/http"
	"time"
)

// Browser owns a browser-level process and hands out isolated pages.
type Browser interface {
	// NewPage opens a fresh rendering context. Cookies and storage are
	// shared at the browser level, so a new page after login stays
	// authenticated.
	NewPage(ctx context.Context) (Page, error)

	// Close tears down the browser process. Safe to call more than once.
	Close() error
}

// Page is one navigable rendering context. All methods honor ctx deadlines;
// none blocks indefinitely.
type Page interface {
	// Navigate loads url and waits for the DOM to settle.
	Navigate(ctx context.Context, url string) error

	// Has waits up to timeout for at least one element matching selector.
	// A missed selector is reported as (false, nil), not an error.
	Has(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// Type clicks the element matching selector and types text into it
	// with the implementation's keystroke pacing.
	Type(ctx context.Context, selector, text string) error

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// Press sends a bare key press (e.g. "Enter") to the focused element.
	Press(ctx context.Context, key string) error

	// Eval runs a JS function expression in the page and returns the
	// result rendered as a string.
	Eval(ctx context.Context, js string) (string, error)

	// HTML returns the current serialized DOM.
	HTML(ctx context.Context) (string, error)

	// URL returns the page's current location.
	URL(ctx context.Context) (string, error)

	// Title returns document.title.
	Title(ctx context.Context) (string, error)

	// Cookies exports the page's cookies for out-of-band probes.
	Cookies(ctx context.Context) ([]*http.Cookie, error)

	// Screenshot writes a full-page capture to path.
	Screenshot(path string) error

	// Close releases the page. Safe to call more than once.
	Close() error
}
