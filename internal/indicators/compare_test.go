package indicators

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/datalabmx/inegimcp/internal/geo"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

// routingDoer picks status and body per request URL; safe for the
// concurrent fetches Compare issues.
type routingDoer struct {
	mu    sync.Mutex
	urls  []string
	route func(url string) (int, string)
}

func (d *routingDoer) Do(req *http.Request) (*http.Response, error) {
	u := req.URL.String()
	d.mu.Lock()
	d.urls = append(d.urls, u)
	d.mu.Unlock()
	status, body := d.route(u)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func seriesFor(value string) string {
	return `{"Series":[{"INDICADOR":"444612","FREQ":"9","UNIT":"Porcentaje",
		"OBSERVATIONS":[{"TIME_PERIOD":"2024/01","OBS_VALUE":"` + value + `"}]}]}`
}

func TestCompare_PreservesOrderAndIsolatesFailures(t *testing.T) {
	doer := &routingDoer{route: func(u string) (int, string) {
		switch {
		case strings.Contains(u, "/31000/"):
			return 200, seriesFor("2.1")
		case strings.Contains(u, "/09000/"):
			return 500, "error interno"
		default:
			return 200, seriesFor("3.4")
		}
	}}
	f := NewFetcher(upstream.NewClient(upstream.WithDoer(doer)), testIndicatorsConfig())

	ref, _ := CuratedByCode("444612")
	yuc, _ := geo.StateScope("31")
	cdmx, _ := geo.StateScope("09")
	jal, _ := geo.StateScope("14")

	comps := f.Compare(context.Background(), ref, []geo.Scope{yuc, cdmx, jal}, false)
	if len(comps) != 3 {
		t.Fatalf("comparisons = %d", len(comps))
	}

	// Results come back in input order regardless of completion order.
	if comps[0].Scope.Code != "31" || comps[1].Scope.Code != "09" || comps[2].Scope.Code != "14" {
		t.Fatalf("order = %s %s %s", comps[0].Scope.Code, comps[1].Scope.Code, comps[2].Scope.Code)
	}

	if comps[0].Err != nil {
		t.Errorf("yucatán failed: %v", comps[0].Err)
	}
	latest, ok := comps[0].Series.Latest()
	if !ok || *latest.Value != 2.1 {
		t.Errorf("yucatán latest = %+v", latest)
	}

	// One state failing does not fail the comparison.
	if comps[1].Err == nil {
		t.Errorf("cdmx should carry its error")
	}
	if !upstream.IsKind(comps[1].Err, upstream.KindUnavailable) {
		t.Errorf("cdmx err = %v", comps[1].Err)
	}
	if comps[2].Err != nil {
		t.Errorf("jalisco failed: %v", comps[2].Err)
	}
}

func TestCompare_Empty(t *testing.T) {
	f := newTestFetcher(&fakeDoer{body: seriesFor("1")})
	ref, _ := CuratedByCode("444612")
	if comps := f.Compare(context.Background(), ref, nil, false); len(comps) != 0 {
		t.Errorf("comparisons = %d", len(comps))
	}
}
