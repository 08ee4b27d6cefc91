package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultTimeout = 30 * time.Second

// Doer issues a single HTTP request (allows mocking in tests).
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the shared transport adapter for both INEGI APIs. It knows
// nothing about tokens or path conventions; API-specific builders
// compose the path segments and the client maps transport-level
// outcomes onto the unified error taxonomy. No retries here: repeated
// calls against a metered API belong to the invoking agent.
type Client struct {
	doer    Doer
	timeout time.Duration
	// Redact is stripped from logged URLs. Set to the token so log
	// lines never leak credentials.
	redact []string
}

type ClientOption func(*Client)

// WithDoer injects a custom HTTP doer (for testing).
func WithDoer(d Doer) ClientOption {
	return func(c *Client) { c.doer = d }
}

// WithTimeout bounds each individual upstream call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRedacted registers secrets to blank out of log lines.
func WithRedacted(secrets ...string) ClientOption {
	return func(c *Client) {
		for _, s := range secrets {
			if s != "" {
				c.redact = append(c.redact, s)
			}
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.doer == nil {
		c.doer = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Get issues a GET against baseURL joined with the path segments and
// query, and returns the decoded JSON body on 2xx. Every non-2xx
// status and transport failure comes back as an *Error.
func (c *Client) Get(ctx context.Context, baseURL string, segments []string, query url.Values) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := buildURL(baseURL, segments, query)
	if err != nil {
		return nil, Errorf(KindInvalidParameter, "construir URL: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, Errorf(KindInvalidParameter, "crear petición: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	reqID := uuid.NewString()[:8]
	start := time.Now()

	resp, err := c.doer.Do(req)
	if err != nil {
		if isTimeout(err) {
			log.Printf("[upstream] %s GET %s timeout after %s", reqID, c.redactURL(u), time.Since(start).Round(time.Millisecond))
			return nil, &Error{Kind: KindTimeout, Message: "la petición excedió el tiempo límite", Err: err}
		}
		log.Printf("[upstream] %s GET %s transport error: %v", reqID, c.redactURL(u), err)
		return nil, &Error{Kind: KindUnavailable, Message: "fallo de red hacia el INEGI", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "no se pudo leer la respuesta", Err: err}
	}

	log.Printf("[upstream] %s GET %s -> %d (%dB, %s)", reqID, c.redactURL(u), resp.StatusCode, len(body), time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(truncateBody(body)),
		}
	}

	if !json.Valid(body) {
		return nil, Errorf(KindMalformedResponse, "el cuerpo no es JSON válido")
	}
	return json.RawMessage(body), nil
}

func buildURL(baseURL string, segments []string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c *Client) redactURL(u string) string {
	for _, s := range c.redact {
		u = strings.ReplaceAll(u, s, "***")
		u = strings.ReplaceAll(u, url.PathEscape(s), "***")
	}
	return u
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Timeout()
	}
	return false
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
