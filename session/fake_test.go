package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/driver"
)

// fakePage is a scriptable driver.Page for state-machine tests.
type fakePage struct {
	mu        sync.Mutex
	selectors map[string]bool
	url       string
	html      string
	title     string
	typed     map[string]string
	navigated []string
	hasCalls  int
	closed    bool

	// onNavigate, when set, runs after each navigation records; tests use
	// it to interleave manager calls with an in-flight login.
	onNavigate func()
}

func newFakePage() *fakePage {
	return &fakePage{
		selectors: make(map[string]bool),
		typed:     make(map[string]string),
	}
}

func (p *fakePage) set(selector string, present bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectors[selector] = present
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	p.url = url
	hook := p.onNavigate
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (p *fakePage) Has(_ context.Context, selector string, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasCalls++
	return p.selectors[selector], nil
}

func (p *fakePage) Type(_ context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed[selector] = text
	return nil
}

func (p *fakePage) Click(context.Context, string) error { return nil }
func (p *fakePage) Press(context.Context, string) error { return nil }

func (p *fakePage) Eval(context.Context, string) (string, error) { return "", nil }

func (p *fakePage) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Title(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *fakePage) Cookies(context.Context) ([]*http.Cookie, error) {
	return nil, errors.New("no cookie transport in tests")
}

func (p *fakePage) Screenshot(string) error { return nil }

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// loginSucceeds scripts the page so the full login flow passes: fields
// resolvable, indicator present, URL leaves the login path on navigate.
func (p *fakePage) loginSucceeds() {
	p.set(`input[type="email"]`, true)
	p.set(`input[type="password"]`, true)
	p.set(`button[type="submit"]`, true)
	p.set(".user-menu", true)
	p.url = "https://simple.ripley.cl/home"
}

// loginRejected scripts a credentials-rejected page: fields resolvable but
// no indicator, the URL stays on the login path and the body carries a
// failure keyword.
func (p *fakePage) loginRejected() {
	p.set(`input[type="email"]`, true)
	p.set(`input[type="password"]`, true)
	p.set(`button[type="submit"]`, true)
	p.html = "<body>Usuario o contraseña incorrecto</body>"
}

// fakeBrowser hands out pages from a factory and counts NewPage calls.
type fakeBrowser struct {
	mu           sync.Mutex
	factory      func() *fakePage
	pages        []*fakePage
	newPageCalls int
}

func (b *fakeBrowser) NewPage(context.Context) (driver.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.newPageCalls++
	p := b.factory()
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *fakeBrowser) Close() error { return nil }

func (b *fakeBrowser) pageCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newPageCalls
}

func testStoreConfig() config.StoreConfig {
	return config.StoreConfig{
		BaseURL:        "https://simple.ripley.cl",
		LoginURL:       "https://simple.ripley.cl/cuenta/iniciar-sesion",
		OrdersURL:      "https://simple.ripley.cl/mi-cuenta/mis-compras",
		Email:          "user@example.test",
		Password:       "hunter2",
		NavTimeout:     time.Second,
		ContentTimeout: 50 * time.Millisecond,
		MaxRetries:     2,
		SearchLimit:    20,
		OrdersLimit:    50,
		NavRate:        1000,
		NavBurst:       1000,
	}
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		SettleTimeout:     30 * time.Millisecond,
		IndicatorTimeout:  20 * time.Millisecond,
		KeepAliveInterval: time.Minute,
		ChallengeGrace:    10 * time.Millisecond,
		TypeDelayMin:      time.Millisecond,
		TypeDelayMax:      2 * time.Millisecond,
		FieldDelayMin:     time.Millisecond,
		FieldDelayMax:     2 * time.Millisecond,
	}
}
