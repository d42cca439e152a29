package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/use-agent/vitrina/config"
	"github.com/use-agent/vitrina/driver"
	"github.com/use-agent/vitrina/extract"
	"github.com/use-agent/vitrina/models"
)

// loginFieldBudget bounds the resolver wait for the email/password inputs.
const loginFieldBudget = 10 * time.Second

// submitBudget bounds the resolver wait for the submit control; a miss is
// fine, Enter on the focused field is the fallback.
const submitBudget = 5 * time.Second

// Handle is one authenticated rendering context. The generation counter
// increments on every successful (re)login; operations that straddle a
// generation change compare it to detect staleness. The Manager owns the
// handle exclusively; fetch operations borrow it and never mutate it.
type Handle struct {
	Page       driver.Page
	Generation uint64
}

// Notifier receives session lifecycle events (session.authenticated,
// session.expired, session.recovered, session.failed). May be nil.
type Notifier func(event string, data map[string]any)

// Manager is the authentication state machine. It establishes, verifies
// and recovers the logged-in session and hands out the current Handle.
type Manager struct {
	browser driver.Browser
	store   config.StoreConfig
	cfg     config.SessionConfig
	notify  Notifier

	mu     sync.Mutex
	state  State
	handle *Handle
	gen    uint64

	// opMu serializes DOM-affecting work (fetch operations and the
	// keeper's DOM probe) against the single rendering context.
	opMu sync.Mutex

	// flight deduplicates concurrent login/reauthentication attempts.
	flight singleflight.Group
}

// NewManager creates an uninitialized session manager. No navigation
// happens until EnsureSession.
func NewManager(b driver.Browser, store config.StoreConfig, cfg config.SessionConfig, notify Notifier) *Manager {
	return &Manager{
		browser: b,
		store:   store,
		cfg:     cfg,
		notify:  notify,
		state:   StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Generation returns the current handle generation; 0 before first login.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Current returns the current handle, or nil when not authenticated.
func (m *Manager) Current() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return nil
	}
	return m.handle
}

// StillCurrent reports whether h survived without a generation change.
// A fetch result produced against a stale handle must be discarded.
func (m *Manager) StillCurrent(h *Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated && m.handle == h && m.gen == h.Generation
}

// LockOps serializes one navigation-bound operation against the session.
func (m *Manager) LockOps() { m.opMu.Lock() }

// UnlockOps releases the operation lock.
func (m *Manager) UnlockOps() { m.opMu.Unlock() }

// TryLockOps acquires the operation lock without blocking.
func (m *Manager) TryLockOps() bool { return m.opMu.TryLock() }

// EnsureSession returns a valid authenticated handle, performing the first
// login or a reauthentication as needed. Terminal states are surfaced as
// errors, never retried here.
func (m *Manager) EnsureSession(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	switch m.state {
	case StateClosed:
		m.mu.Unlock()
		return nil, models.NewScrapeError(models.ErrCodeSessionClosed, "session is closed", nil)
	case StateFailed:
		m.mu.Unlock()
		return nil, models.NewScrapeError(models.ErrCodeLoginFailed,
			"session permanently failed; restart required", nil)
	case StateAuthenticated:
		h := m.handle
		m.mu.Unlock()
		return h, nil
	case StateExpired, StateReauthenticating:
		m.mu.Unlock()
		return m.Reauthenticate(ctx)
	}
	m.mu.Unlock()

	v, err, _ := m.flight.Do("login", func() (any, error) {
		// A concurrent caller may have finished the login already.
		if h := m.Current(); h != nil {
			return h, nil
		}
		if err := m.terminal(); err != nil {
			return nil, err
		}
		m.setState(StateAuthenticating)
		h, err := m.login(ctx)
		if err != nil {
			m.fail(err)
			return nil, err
		}
		m.emit("session.authenticated", h.Generation)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Reauthenticate re-runs the login procedure on a fresh rendering context,
// reusing the same browser. On success the handle is swapped and the
// generation strictly increases; on failure the session is terminally
// failed. Concurrent callers share one attempt.
func (m *Manager) Reauthenticate(ctx context.Context) (*Handle, error) {
	v, err, _ := m.flight.Do("reauth", func() (any, error) {
		if h := m.Current(); h != nil {
			return h, nil
		}
		if err := m.terminal(); err != nil {
			return nil, err
		}
		m.setState(StateReauthenticating)

		// Drop the dead context first; in-flight borrowers will see
		// errors and discard their results via the generation check.
		m.mu.Lock()
		old := m.handle
		m.handle = nil
		m.mu.Unlock()
		if old != nil {
			_ = old.Page.Close()
		}

		h, err := m.login(ctx)
		if err != nil {
			m.fail(err)
			return nil, err
		}
		m.emit("session.recovered", h.Generation)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// MarkExpired moves an authenticated session to expired. Called by the
// keeper on a negative probe or by a fetch that hit an unauthenticated
// response. No-op in any other state.
func (m *Manager) MarkExpired(reason string) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.state = StateExpired
	gen := m.gen
	m.mu.Unlock()

	slog.Warn("session expired", "reason", reason, "generation", gen)
	m.emit("session.expired", gen)
}

// Close logs out best-effort and tears the session down. Idempotent.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	wasAuthenticated := m.state == StateAuthenticated
	h := m.handle
	m.handle = nil
	m.state = StateClosed
	m.mu.Unlock()

	if h != nil {
		if wasAuthenticated {
			m.logout(ctx, h.Page)
		}
		_ = h.Page.Close()
	}
	slog.Info("session closed")
	return nil
}

// login drives the full authentication procedure on a new page.
func (m *Manager) login(ctx context.Context) (*Handle, error) {
	// Fail fast, before any navigation.
	if m.store.Email == "" || m.store.Password == "" {
		return nil, models.NewScrapeError(models.ErrCodeMissingCredentials,
			"storefront credentials are not configured", nil)
	}

	page, err := m.browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	adopted := false
	defer func() {
		if !adopted {
			_ = page.Close()
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, m.store.NavTimeout)
	defer cancel()
	if err := page.Navigate(navCtx, m.store.LoginURL); err != nil {
		return nil, err
	}
	if err := m.PassChallenge(ctx, page); err != nil {
		return nil, err
	}

	emailLoc, found, err := extract.Resolve(ctx, page, emailCandidates, loginFieldBudget)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewScrapeError(models.ErrCodeLoginFailed, "email field not found", nil)
	}
	if err := page.Type(ctx, string(emailLoc), m.store.Email); err != nil {
		return nil, err
	}
	m.fieldPause(ctx)

	passLoc, found, err := extract.Resolve(ctx, page, passwordCandidates, loginFieldBudget)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewScrapeError(models.ErrCodeLoginFailed, "password field not found", nil)
	}
	if err := page.Type(ctx, string(passLoc), m.store.Password); err != nil {
		return nil, err
	}
	m.fieldPause(ctx)

	if submitLoc, found, _ := extract.Resolve(ctx, page, submitCandidates, submitBudget); found {
		if err := page.Click(ctx, string(submitLoc)); err != nil {
			return nil, err
		}
	} else if err := page.Press(ctx, "Enter"); err != nil {
		return nil, err
	}

	// Some layouts submit in place without navigating; absence of a
	// navigation is tolerated, verification decides.
	m.settle(ctx, page)

	verified, reason := m.Verify(ctx, page)
	if !verified {
		m.debugShot(page)
		slog.Warn("login verification failed", "reason", reason)
		return nil, models.NewScrapeError(models.ErrCodeLoginFailed,
			"login verification failed: "+reason, nil)
	}

	m.mu.Lock()
	// Close may have landed while the login was in flight; the terminal
	// state wins and the fresh page is torn down, not adopted.
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil, models.NewScrapeError(models.ErrCodeSessionClosed,
			"session closed during login", nil)
	}
	m.gen++
	h := &Handle{Page: page, Generation: m.gen}
	old := m.handle
	m.handle = h
	m.state = StateAuthenticated
	m.mu.Unlock()

	if old != nil {
		_ = old.Page.Close()
	}
	adopted = true
	slog.Info("login successful", "generation", h.Generation)
	return h, nil
}

// Verify decides whether the page belongs to an authenticated session.
// Precedence matters: a resolved logged-in indicator is the strongest
// positive signal and is checked before the URL heuristic; anything
// ambiguous defaults to not-authenticated.
func (m *Manager) Verify(ctx context.Context, page driver.Page) (bool, string) {
	if loc, found, _ := extract.Resolve(ctx, page, loggedInIndicators, m.cfg.IndicatorTimeout); found {
		return true, "indicator " + string(loc)
	}

	if url, err := page.URL(ctx); err == nil && url != "" && !onLoginPath(url) {
		return true, "navigated off login path"
	}

	if raw, err := page.HTML(ctx); err == nil {
		body := strings.ToLower(visibleText(raw))
		for _, kw := range failureKeywords {
			if strings.Contains(body, kw) {
				return false, "failure keyword " + kw
			}
		}
	}

	return false, "no positive signal"
}

// Probe is the keeper's liveness check. The cookie-based HTTP probe is
// tried first because it never touches the shared rendering context; the
// DOM check runs only when no fetch is in flight.
func (m *Manager) Probe(ctx context.Context) bool {
	h := m.Current()
	if h == nil {
		return false
	}

	if cookies, err := h.Page.Cookies(ctx); err == nil && len(cookies) > 0 {
		if alive, err := probeHTTP(ctx, m.store.OrdersURL, cookies); err == nil {
			return alive
		}
	}

	if !m.TryLockOps() {
		// A fetch owns the context right now; it will surface an expiry
		// itself if the session is dead.
		return true
	}
	defer m.UnlockOps()

	_, _ = h.Page.Eval(ctx, `() => { window.scrollBy(0, 10); window.scrollBy(0, -10); }`)
	alive, _ := m.Verify(ctx, h.Page)
	return alive
}

// PassChallenge tolerates an anti-bot interstitial once: wait a grace
// period and re-check; a persistent challenge escalates. Every navigation
// toward the storefront runs through this, not just the login page.
func (m *Manager) PassChallenge(ctx context.Context, page driver.Page) error {
	title, _ := page.Title(ctx)
	if !isChallenge(title) {
		return nil
	}

	slog.Warn("anti-bot challenge detected, waiting", "grace", m.cfg.ChallengeGrace)
	select {
	case <-time.After(m.cfg.ChallengeGrace):
	case <-ctx.Done():
		return ctx.Err()
	}

	title, _ = page.Title(ctx)
	if isChallenge(title) {
		return models.NewScrapeError(models.ErrCodeChallenge,
			"anti-bot challenge did not clear", nil)
	}
	return nil
}

// settle waits for the post-submit navigation, up to SettleTimeout.
// Leaving the login path ends the wait early; a timeout is not an error.
func (m *Manager) settle(ctx context.Context, page driver.Page) {
	deadline := time.Now().Add(m.cfg.SettleTimeout)
	for time.Now().Before(deadline) {
		if url, err := page.URL(ctx); err == nil && url != "" && !onLoginPath(url) {
			return
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
}

// debugShot captures the failed login page for offline diagnosis.
func (m *Manager) debugShot(page driver.Page) {
	if m.cfg.DebugDir == "" {
		return
	}
	path := filepath.Join(m.cfg.DebugDir, fmt.Sprintf("login-failure-%d.png", time.Now().Unix()))
	if err := page.Screenshot(path); err != nil {
		slog.Debug("debug screenshot failed", "error", err)
		return
	}
	slog.Info("debug screenshot written", "path", path)
}

// logout is best-effort; the context is torn down regardless.
func (m *Manager) logout(ctx context.Context, page driver.Page) {
	loc, found, _ := extract.Resolve(ctx, page, logoutCandidates, 2*time.Second)
	if !found {
		return
	}
	if err := page.Click(ctx, string(loc)); err != nil {
		slog.Debug("logout click failed", "error", err)
	}
}

// terminal reports an error when the state machine can no longer attempt
// a login; a joiner that lost a singleflight race must not restart one.
func (m *Manager) terminal() error {
	switch m.State() {
	case StateClosed:
		return models.NewScrapeError(models.ErrCodeSessionClosed, "session is closed", nil)
	case StateFailed:
		return models.NewScrapeError(models.ErrCodeLoginFailed,
			"session permanently failed; restart required", nil)
	}
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// fail records a terminal failure. A session closed meanwhile stays
// closed and emits nothing.
func (m *Manager) fail(err error) {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.state = StateFailed
	m.mu.Unlock()

	slog.Error("session failed", "error", err)
	m.emit("session.failed", m.Generation())
}

func (m *Manager) emit(event string, gen uint64) {
	if m.notify == nil {
		return
	}
	m.notify(event, map[string]any{"generation": gen})
}

// fieldPause sleeps a randomized inter-field delay.
func (m *Manager) fieldPause(ctx context.Context) {
	min, max := m.cfg.FieldDelayMin, m.cfg.FieldDelayMax
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func onLoginPath(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range loginPathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isChallenge(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
