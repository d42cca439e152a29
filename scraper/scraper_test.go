package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/use-agent/vitrina/extract"
	"github.com/use-agent/vitrina/models"
	"github.com/use-agent/vitrina/session"
)

func scrapeCode(t *testing.T, err error) string {
	t.Helper()
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected *models.ScrapeError, got %T: %v", err, err)
	}
	return se.Code
}

func searchURL(term string) string {
	return testBase + "/search/" + url.PathEscape(term)
}

func TestSearchProducts_EmptyWhenNoContainers(t *testing.T) {
	site := map[string]pageState{
		testLoginURL: loginState(),
		searchURL("nada"): {
			html: `<div class="unrelated">sin resultados</div>`,
		},
	}
	s, _ := newTestScraper(t, site)

	products, _, _, err := s.SearchProducts(context.Background(), "nada", 0, 0)
	if err != nil {
		t.Fatalf("zero matches must not be an error: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("expected empty result, got %d products", len(products))
	}
}

func TestSearchProducts_ExtractsAndTruncates(t *testing.T) {
	tiles := `
		<div class="product-item"><h3>Uno</h3><span class="price">$1</span><a href="/p/1">x</a></div>
		<div class="product-item"><span class="price">$0</span></div>
		<div class="product-item"><h3>Dos</h3><span class="price">$2</span><a href="/p/2">x</a></div>
		<div class="product-item"><h3>Tres</h3><span class="price">$3</span><a href="/p/3">x</a></div>`
	site := map[string]pageState{
		testLoginURL: loginState(),
		searchURL("zapato"): {
			selectors: map[string]bool{".product-item": true},
			html:      tiles,
		},
	}
	s, _ := newTestScraper(t, site)

	products, timing, cacheStatus, err := s.SearchProducts(context.Background(), "zapato", 2, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("limit not applied: got %d products", len(products))
	}
	// The titleless tile is skipped, not emitted as a sentinel product.
	if products[0].Title != "Uno" || products[1].Title != "Dos" {
		t.Errorf("unexpected titles: %q, %q", products[0].Title, products[1].Title)
	}
	if products[0].Link != testBase+"/p/1" {
		t.Errorf("relative link not resolved: %q", products[0].Link)
	}
	if timing.TotalMs < 0 {
		t.Errorf("timing not recorded: %+v", timing)
	}
	if cacheStatus != "miss" {
		t.Errorf("cache status = %q, want miss", cacheStatus)
	}
}

func TestSearchProducts_EmptyTermRejected(t *testing.T) {
	site := map[string]pageState{testLoginURL: loginState()}
	s, _ := newTestScraper(t, site)

	_, _, _, err := s.SearchProducts(context.Background(), "  ", 0, 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := scrapeCode(t, err); code != models.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", code, models.ErrCodeInvalidInput)
	}
}

func TestGetProductDetails_RejectsBeforeInitialize(t *testing.T) {
	b := &fakeBrowser{site: map[string]pageState{}}
	mgr := session.NewManager(b, testStore(), testSession(), nil)
	s := New(mgr, nil, testStore(), ".")

	_, _, _, err := s.GetProductDetails(context.Background(), testBase+"/p/1", 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := scrapeCode(t, err); code != models.ErrCodeNotInitialized {
		t.Errorf("code = %q, want %q", code, models.ErrCodeNotInitialized)
	}
	if b.pageCount() != 0 {
		t.Errorf("no navigation may happen before initialize, pages = %d", b.pageCount())
	}
}

func TestGetProductDetails_Success(t *testing.T) {
	productURL := testBase + "/p/zapato-42"
	site := map[string]pageState{
		testLoginURL: loginState(),
		productURL: {
			selectors: map[string]bool{".product-detail": true},
			html: `
				<div class="product-detail">
					<h1>Zapato 42</h1>
					<span data-sku="SKU-42"></span>
					<span class="price">$29.990</span>
					<span class="old-price">$39.990</span>
					<div class="description"><p>Cuero <b>genuino</b>.</p></div>
					<span class="brand">RipleyHome</span>
					<div class="gallery"><img src="/img/1.jpg"><img src="/img/2.jpg"></div>
					<ul class="specifications"><li>Talla 42</li></ul>
				</div>`,
		},
	}
	s, _ := newTestScraper(t, site)

	detail, _, _, err := s.GetProductDetails(context.Background(), productURL, 0)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if detail.Title != "Zapato 42" {
		t.Errorf("title = %q", detail.Title)
	}
	if detail.Price != "$29.990" || detail.OriginalPrice != "$39.990" {
		t.Errorf("prices = %q / %q", detail.Price, detail.OriginalPrice)
	}
	if detail.SKU != "SKU-42" {
		t.Errorf("sku attribute fallback not applied: %q", detail.SKU)
	}
	if !strings.Contains(detail.Description, "Cuero") {
		t.Errorf("description lost: %q", detail.Description)
	}
	if len(detail.Images) != 2 || !strings.HasPrefix(detail.Images[0], testBase) {
		t.Errorf("images = %v, want resolved absolute urls", detail.Images)
	}
	if len(detail.Specs) != 1 || detail.Specs[0] != "Talla 42" {
		t.Errorf("specs = %v", detail.Specs)
	}
	if detail.URL == "" {
		t.Error("source url missing")
	}
}

func TestGetProductDetails_NoTitleRaises(t *testing.T) {
	productURL := testBase + "/p/roto"
	site := map[string]pageState{
		testLoginURL: loginState(),
		productURL: {
			selectors: map[string]bool{".product-detail": true},
			html:      `<div class="product-detail"><span class="price">$1</span></div>`,
		},
	}
	s, _ := newTestScraper(t, site)

	_, _, _, err := s.GetProductDetails(context.Background(), productURL, 0)
	if err == nil {
		t.Fatal("a detail page without a title must raise")
	}
	if code := scrapeCode(t, err); code != models.ErrCodeMissingContent {
		t.Errorf("code = %q, want %q", code, models.ErrCodeMissingContent)
	}
}

func TestGetProductDetails_ForeignHostRejected(t *testing.T) {
	site := map[string]pageState{testLoginURL: loginState()}
	s, _ := newTestScraper(t, site)

	_, _, _, err := s.GetProductDetails(context.Background(), "https://evil.example/p/1", 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := scrapeCode(t, err); code != models.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", code, models.ErrCodeInvalidInput)
	}
}

func TestGetOrders_NumbersFallbackAndLimit(t *testing.T) {
	store := testStore()
	site := map[string]pageState{
		testLoginURL: loginState(),
		store.OrdersURL: {
			selectors: map[string]bool{".order-item": true},
			html: `
				<div class="order-item"><span class="order-number">N-77</span><span class="order-total">$10</span></div>
				<div class="order-item"><span class="order-total">$20</span></div>
				<div class="order-item"><span class="order-total">$30</span></div>`,
		},
	}
	s, _ := newTestScraper(t, site)

	orders, _, err := s.GetOrders(context.Background(), 2)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("limit not applied: %d orders", len(orders))
	}
	if orders[0].OrderNumber != "N-77" {
		t.Errorf("order number = %q", orders[0].OrderNumber)
	}
	if orders[1].OrderNumber != "ORDER-2" {
		t.Errorf("positional fallback = %q, want ORDER-2", orders[1].OrderNumber)
	}
	// Missing date degrades to the sentinel, never breaks the record.
	if orders[0].Date == "" {
		t.Error("date must carry the sentinel, not empty")
	}
}

func TestGetOrders_AfterExpiryRecoversOnNewGeneration(t *testing.T) {
	store := testStore()
	site := map[string]pageState{
		testLoginURL: loginState(),
		store.OrdersURL: {
			selectors: map[string]bool{".order-item": true},
			html:      `<div class="order-item"><span class="order-total">$1</span></div>`,
		},
	}
	b := &fakeBrowser{site: site}
	mgr := session.NewManager(b, store, testSession(), nil)
	s := New(mgr, nil, store, ".")
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	gen1 := mgr.Generation()

	mgr.MarkExpired("probe negative")

	orders, _, err := s.GetOrders(context.Background(), 0)
	if err != nil {
		t.Fatalf("orders after expiry: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(orders))
	}
	if mgr.Generation() <= gen1 {
		t.Errorf("generation %d not advanced past %d", mgr.Generation(), gen1)
	}
}

func TestRetriableSession(t *testing.T) {
	if !retriableSession(staleErr()) {
		t.Error("stale errors must trigger the single retry")
	}
	expired := models.NewScrapeError(models.ErrCodeSessionExpired, "x", nil)
	if !retriableSession(expired) {
		t.Error("expiry errors must trigger the single retry")
	}
	nav := models.NewScrapeError(models.ErrCodeNavigation, "x", nil)
	if retriableSession(nav) {
		t.Error("navigation errors are not session turnovers")
	}
	if retriableSession(errors.New("plain")) {
		t.Error("untyped errors are not retriable")
	}
}

func TestAbsoluteURL(t *testing.T) {
	site := map[string]pageState{testLoginURL: loginState()}
	s, _ := newTestScraper(t, site)

	cases := []struct{ in, want string }{
		{"/p/1", testBase + "/p/1"},
		{"https://cdn.example/img.jpg", "https://cdn.example/img.jpg"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := s.absoluteURL(tc.in); got != tc.want {
			t.Errorf("absoluteURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSearchProducts_ChallengeEscalates(t *testing.T) {
	site := map[string]pageState{
		testLoginURL: loginState(),
		searchURL("tv"): {
			title: "Just a moment...",
			html:  `<div class="unrelated"></div>`,
		},
	}
	s, _ := newTestScraper(t, site)

	// An interstitial fronting the results page must surface as an error,
	// never as a legitimate empty result.
	products, _, _, err := s.SearchProducts(context.Background(), "tv", 5, 0)
	if err == nil {
		t.Fatalf("expected a challenge error, got %d products", len(products))
	}
	if code := scrapeCode(t, err); code != models.ErrCodeChallenge {
		t.Errorf("code = %q, want %q", code, models.ErrCodeChallenge)
	}
}

func TestBuildDetailLeavesRecordIntact(t *testing.T) {
	site := map[string]pageState{testLoginURL: loginState()}
	s, _ := newTestScraper(t, site)

	rec := extract.Record{
		Fields: map[string]string{"title": "Zapato"},
		Lists:  map[string][]string{"images": {"/img/a.png", "/img/b.png"}},
	}
	snap := &capture{url: testBase + "/p/1"}

	detail := s.buildDetail(rec, snap)
	if detail.Images[0] != testBase+"/img/a.png" {
		t.Errorf("image not resolved: %q", detail.Images[0])
	}
	if rec.Lists["images"][0] != "/img/a.png" {
		t.Errorf("record list mutated: %v", rec.Lists["images"])
	}
}
