package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestGet_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/INDICATOR/123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("type") != "json" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c := NewClient()
	raw, err := c.Get(context.Background(), ts.URL+"/api", []string{"INDICATOR", "123"}, url.Values{"type": {"json"}})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("body = %s", raw)
	}
}

func TestGet_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{401, KindAuthFailure},
		{403, KindAuthFailure},
		{404, KindNotFound},
		{429, KindRateLimited},
		{500, KindUnavailable},
		{503, KindUnavailable},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		c := NewClient()
		_, err := c.Get(context.Background(), ts.URL, []string{"x"}, nil)
		ts.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := KindOf(err); got != tc.want {
			t.Errorf("status %d: kind = %q want %q", tc.status, got, tc.want)
		}
		var ue *Error
		if !errors.As(err, &ue) {
			t.Fatalf("status %d: error is not *Error: %v", tc.status, err)
		}
		if ue.Status != tc.status {
			t.Errorf("status %d: error carries status %d", tc.status, ue.Status)
		}
	}
}

func TestGet_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer ts.Close()

	c := NewClient()
	_, err := c.Get(context.Background(), ts.URL, []string{"x"}, nil)
	if !IsKind(err, KindMalformedResponse) {
		t.Errorf("kind = %q want %q", KindOf(err), KindMalformedResponse)
	}
}

func TestGet_Timeout(t *testing.T) {
	c := NewClient(WithDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})), WithTimeout(20*time.Millisecond))

	_, err := c.Get(context.Background(), "http://example.invalid", []string{"x"}, nil)
	if !IsKind(err, KindTimeout) {
		t.Errorf("kind = %q want %q", KindOf(err), KindTimeout)
	}
}

func TestGet_TransportError(t *testing.T) {
	c := NewClient(WithDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})))

	_, err := c.Get(context.Background(), "http://example.invalid", []string{"x"}, nil)
	if !IsKind(err, KindUnavailable) {
		t.Errorf("kind = %q want %q", KindOf(err), KindUnavailable)
	}
}

func TestRedactURL(t *testing.T) {
	c := NewClient(WithRedacted("secreto-123", ""))
	got := c.redactURL("https://api/INDICATOR/secreto-123?type=json")
	if strings.Contains(got, "secreto-123") {
		t.Errorf("token leaked: %s", got)
	}
	if !strings.Contains(got, "***") {
		t.Errorf("no redaction marker: %s", got)
	}
}

func TestBuildURL_EscapesSegments(t *testing.T) {
	u, err := buildURL("https://api/base/", []string{"Buscar", "café y pan", "tok"}, nil)
	if err != nil {
		t.Fatalf("buildURL failed: %v", err)
	}
	if strings.Contains(u, " ") {
		t.Errorf("unescaped space in %s", u)
	}
	if !strings.HasPrefix(u, "https://api/base/Buscar/") {
		t.Errorf("unexpected prefix: %s", u)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Kind: KindUnavailable, Message: "x", Err: inner}
	if !errors.Is(err, inner) {
		t.Errorf("Unwrap lost the cause")
	}
}

func TestDescribe(t *testing.T) {
	err := Errorf(KindMissingCredential, "configura INEGI_DENUE_TOKEN")
	got := Describe(err)
	if !strings.Contains(got, "Falta credencial") {
		t.Errorf("Describe = %q", got)
	}

	plain := Describe(errors.New("algo"))
	if !strings.Contains(plain, "algo") {
		t.Errorf("Describe(plain) = %q", plain)
	}
}
