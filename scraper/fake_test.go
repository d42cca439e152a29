package scraper

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/driver"
	"github.com/use-agent/vitrina/session"
)

// pageState is what the fake storefront serves at one URL.
type pageState struct {
	selectors map[string]bool
	html      string
	title     string
	finalURL  string // overrides the page URL after navigation, e.g. a login bounce
}

// fakePage serves scripted states keyed by navigated URL.
type fakePage struct {
	mu        sync.Mutex
	site      map[string]pageState
	url       string
	navigated []string
	closed    bool
}

func (p *fakePage) state() pageState {
	return p.site[p.url]
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	p.url = url
	if st, ok := p.site[url]; ok && st.finalURL != "" {
		p.url = st.finalURL
	}
	return nil
}

func (p *fakePage) Has(_ context.Context, selector string, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state().selectors[selector], nil
}

func (p *fakePage) Type(context.Context, string, string) error { return nil }
func (p *fakePage) Click(context.Context, string) error        { return nil }
func (p *fakePage) Press(context.Context, string) error        { return nil }

func (p *fakePage) Eval(context.Context, string) (string, error) { return "", nil }

func (p *fakePage) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state().html, nil
}

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Title(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state().title, nil
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

type fakeBrowser struct {
	mu           sync.Mutex
	site         map[string]pageState
	newPageCalls int
}

func (b *fakeBrowser) NewPage(context.Context) (driver.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.newPageCalls++
	return &fakePage{site: b.site}, nil
}

func (b *fakeBrowser) Close() error { return nil }

func (b *fakeBrowser) pageCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newPageCalls
}

const (
	testBase     = "https://simple.ripley.cl"
	testLoginURL = testBase + "/cuenta/iniciar-sesion"
)

func testStore() config.StoreConfig {
	return config.StoreConfig{
		BaseURL:        testBase,
		LoginURL:       testLoginURL,
		OrdersURL:      testBase + "/mi-cuenta/mis-compras",
		Email:          "user@example.test",
		Password:       "hunter2",
		NavTimeout:     time.Second,
		ContentTimeout: 30 * time.Millisecond,
		MaxRetries:     2,
		SearchLimit:    20,
		OrdersLimit:    50,
		NavRate:        1000,
		NavBurst:       1000,
	}
}

func testSession() config.SessionConfig {
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

// loginState makes the login flow succeed: fields resolvable, indicator
// present so verification passes without leaving the login URL.
func loginState() pageState {
	return pageState{selectors: map[string]bool{
		`input[type="email"]`:    true,
		`input[type="password"]`: true,
		`button[type="submit"]`:  true,
		".user-menu":             true,
	}}
}

// newTestScraper builds a scraper over a scripted storefront and logs in.
func newTestScraper(t interface{ Fatalf(string, ...any) }, site map[string]pageState) (*Scraper, *fakeBrowser) {
	b := &fakeBrowser{site: site}
	mgr := session.NewManager(b, testStore(), testSession(), nil)
	s := New(mgr, nil, testStore(), ".")
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s, b
}
