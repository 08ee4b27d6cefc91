package indicators

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/datalabmx/inegimcp/internal/upstream"
)

// failingDoer fails the test if any request goes out.
type failingDoer struct{ t *testing.T }

func (f *failingDoer) Do(req *http.Request) (*http.Response, error) {
	f.t.Errorf("unexpected network call: %s", req.URL)
	return &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader("{}")), Header: make(http.Header)}, nil
}

func newTestResolver(doer upstream.Doer) *Resolver {
	return NewResolver(upstream.NewClient(upstream.WithDoer(doer)), testIndicatorsConfig())
}

func TestResolve_CuratedByName(t *testing.T) {
	r := newTestResolver(&failingDoer{t: t})

	res, err := r.Resolve(context.Background(), "desempleo")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Ref.Code != "444612" {
		t.Errorf("code = %q", res.Ref.Code)
	}
	if res.FromCatalog {
		t.Errorf("curated hit flagged as catalog")
	}
}

func TestResolve_CuratedAccentInsensitive(t *testing.T) {
	r := newTestResolver(&failingDoer{t: t})

	for _, q := range []string{"poblacion total", "Población Total", "POBLACION"} {
		res, err := r.Resolve(context.Background(), q)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", q, err)
		}
		if res.Ref.Code != "1002000001" {
			t.Errorf("Resolve(%q) = %q", q, res.Ref.Code)
		}
	}
}

func TestResolve_CuratedCode(t *testing.T) {
	r := newTestResolver(&failingDoer{t: t})

	res, err := r.Resolve(context.Background(), "216906")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Ref.Name != "Índice Nacional de Precios al Consumidor (INPC)" {
		t.Errorf("name = %q", res.Ref.Name)
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	r := newTestResolver(&failingDoer{t: t})

	if _, err := r.Resolve(context.Background(), ""); !upstream.IsKind(err, upstream.KindInvalidParameter) {
		t.Errorf("err = %v", err)
	}
}

func TestResolve_CatalogFallback(t *testing.T) {
	doer := &fakeDoer{body: `{"CODE":[
		{"value":"6204130537","description":"Exportaciones totales"},
		{"value":"6204130538","description":"Exportaciones petroleras"}
	]}`}
	r := newTestResolver(doer)

	res, err := r.Resolve(context.Background(), "exportaciones")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.FromCatalog {
		t.Errorf("catalog hit not flagged")
	}
	if res.Ref.Code != "6204130537" {
		t.Errorf("top hit = %q", res.Ref.Code)
	}
	if len(res.Candidates) != 2 {
		t.Errorf("candidates = %d", len(res.Candidates))
	}
	if len(doer.urls) != 1 || !strings.Contains(doer.urls[0], "CL_INDICATOR/null/") {
		t.Errorf("catalog URL = %v", doer.urls)
	}
	if !strings.Contains(doer.urls[0], "search=exportaciones") {
		t.Errorf("search param missing: %v", doer.urls)
	}
}

func TestResolve_CatalogEmptyIsNotFound(t *testing.T) {
	doer := &fakeDoer{body: `{"CODE":[]}`}
	r := newTestResolver(doer)

	_, err := r.Resolve(context.Background(), "zzzqqq123 sin sentido")
	if !upstream.IsKind(err, upstream.KindNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolve_UnknownCodeViaCatalog(t *testing.T) {
	doer := &fakeDoer{body: `{"CODE":[{"value":"6204130537","description":"Exportaciones totales"}]}`}
	r := newTestResolver(doer)

	res, err := r.Resolve(context.Background(), "6204130537")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Ref.Name != "Exportaciones totales" {
		t.Errorf("name = %q", res.Ref.Name)
	}
	if !strings.Contains(doer.urls[0], "CL_INDICATOR/6204130537/") {
		t.Errorf("lookup URL = %v", doer.urls)
	}
}

func TestResolve_UnknownCodeNotInCatalog(t *testing.T) {
	doer := &fakeDoer{body: `{"CODE":[{"value":"111","description":"Otro"}]}`}
	r := newTestResolver(doer)

	_, err := r.Resolve(context.Background(), "99999999")
	if !upstream.IsKind(err, upstream.KindNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolve_MissingTokenOnCatalogPath(t *testing.T) {
	cfg := testIndicatorsConfig()
	cfg.Token = ""
	doer := &fakeDoer{body: `{"CODE":[]}`}
	r := NewResolver(upstream.NewClient(upstream.WithDoer(doer)), cfg)

	// Curated hits never need the token.
	if _, err := r.Resolve(context.Background(), "inflación"); err != nil {
		t.Fatalf("curated resolve failed: %v", err)
	}

	// The live catalog does.
	_, err := r.Resolve(context.Background(), "exportaciones")
	if !upstream.IsKind(err, upstream.KindMissingCredential) {
		t.Fatalf("err = %v", err)
	}
	if len(doer.urls) != 0 {
		t.Errorf("network called without token")
	}
}

func TestSearchCatalog_SkipsCuratedTable(t *testing.T) {
	doer := &fakeDoer{body: `{"CODE":[{"value":"555","description":"Tasa de desempleo urbano"}]}`}
	r := newTestResolver(doer)

	// "desempleo" hits the curated table in Resolve; SearchCatalog must
	// still go upstream.
	res, err := r.SearchCatalog(context.Background(), "desempleo")
	if err != nil {
		t.Fatalf("SearchCatalog failed: %v", err)
	}
	if !res.FromCatalog || res.Ref.Code != "555" {
		t.Errorf("res = %+v", res)
	}
	if len(doer.urls) != 1 {
		t.Errorf("calls = %d", len(doer.urls))
	}
}
