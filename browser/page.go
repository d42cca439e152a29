package browser

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/vitrina/driver"
	"github.com/use-agent/vitrina/models"
)

// NewPage opens a page with the configured identity. Stealth JS and headers
// are installed first because they only take effect for navigations that
// happen after they are in place.
func (b *Browser) NewPage(ctx context.Context) (driver.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeInternal,
			"failed to open page",
			err,
		)
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		_ = page.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeInternal,
			"stealth injection failed",
			err,
		)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      b.cfg.UserAgent,
		AcceptLanguage: b.cfg.AcceptLanguage,
	}); err != nil {
		_ = page.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeInternal,
			"failed to set user agent",
			err,
		)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.ViewportWidth,
		Height:            b.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = page.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeInternal,
			"failed to set viewport",
			err,
		)
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language":           b.cfg.AcceptLanguage,
			"Upgrade-Insecure-Requests": "1",
		}),
	}.Call(page)

	return &rodPage{page: page, pacing: b.pacing}, nil
}

// rodPage adapts one *rod.Page to driver.Page.
type rodPage struct {
	page   *rod.Page
	pacing Pacing

	closeOnce sync.Once
	closeErr  error
}

// Navigate loads url and waits for the DOM to stop mutating. A DOM that
// never converges is tolerated: the content-container probe downstream is
// the real readiness signal.
func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return categorizeError(err, "navigation failed")
	}
	if err := pg.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		if ctx.Err() != nil {
			return categorizeError(ctx.Err(), "navigation timed out")
		}
	}
	return nil
}

// Has waits up to timeout for selector. Absence is (false, nil).
func (p *rodPage) Has(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := p.page.Context(probeCtx).Element(selector); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return true, nil
}

// Type clicks the field and inserts the text one rune at a time with
// randomized pacing between keystrokes.
func (p *rodPage) Type(ctx context.Context, selector, text string) error {
	pg := p.page.Context(ctx)
	el, err := pg.Element(selector)
	if err != nil {
		return categorizeError(err, "input field not found")
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, "failed to focus input field")
	}

	for _, r := range text {
		if err := pg.InsertText(string(r)); err != nil {
			return categorizeError(err, "typing failed")
		}
		select {
		case <-time.After(p.keyDelay()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *rodPage) keyDelay() time.Duration {
	min, max := p.pacing.KeyMin, p.pacing.KeyMax
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return categorizeError(err, "click target not found")
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, "click failed")
	}
	return nil
}

func (p *rodPage) Press(ctx context.Context, key string) error {
	var k input.Key
	switch key {
	case "Enter":
		k = input.Enter
	case "Tab":
		k = input.Tab
	case "Escape":
		k = input.Escape
	default:
		return models.NewScrapeError(models.ErrCodeInvalidInput, "unsupported key: "+key, nil)
	}
	if err := p.page.Context(ctx).Keyboard.Press(k); err != nil {
		return categorizeError(err, "key press failed")
	}
	return nil
}

func (p *rodPage) Eval(ctx context.Context, js string) (string, error) {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return "", categorizeError(err, "page evaluation failed")
	}
	return res.Value.Str(), nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to read page HTML")
	}
	return html, nil
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", categorizeError(err, "failed to read page info")
	}
	return info.URL, nil
}

func (p *rodPage) Title(ctx context.Context) (string, error) {
	return p.Eval(ctx, `() => document.title`)
}

// Cookies exports the page's cookie jar for the HTTP liveness probe.
func (p *rodPage) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	raw, err := p.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, categorizeError(err, "failed to read cookies")
	}
	cookies := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return cookies, nil
}

func (p *rodPage) Screenshot(path string) error {
	data, err := p.page.Screenshot(true, nil)
	if err != nil {
		return categorizeError(err, "screenshot failed")
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *rodPage) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.page.Close()
	})
	return p.closeErr
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
