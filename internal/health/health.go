// Package health runs scheduled reachability probes against both
// INEGI APIs, so token or upstream problems surface in the logs before
// a tool call hits them.
package health

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/datalabmx/inegimcp/internal/config"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

// probeIndicator is a stable, always-published series (población
// total) used as the indicator API canary.
const probeIndicator = "1002000001"

const probeTimeout = 10 * time.Second

// Result is the outcome of the latest probe of one API.
type Result struct {
	API     string
	OK      bool
	Detail  string
	Elapsed time.Duration
	At      time.Time
}

// Service schedules the probes with cron and keeps the latest result
// per API.
type Service struct {
	cfg    *config.Config
	client *upstream.Client
	cron   *rcron.Cron

	mu      sync.Mutex
	results map[string]Result
}

func NewService(cfg *config.Config, client *upstream.Client) *Service {
	return &Service{
		cfg:     cfg,
		client:  client,
		results: make(map[string]Result),
	}
}

// Start registers the probe job and fires an immediate first round.
// It returns without blocking; Stop ends the schedule.
func (s *Service) Start(ctx context.Context) error {
	schedule := s.cfg.Health.Schedule
	if schedule == "" {
		schedule = config.DefaultHealthSchedule
	}

	s.cron = rcron.New()
	if _, err := s.cron.AddFunc(schedule, func() { s.probeAll(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[health] probes scheduled: %s", schedule)

	go s.probeAll(ctx)
	return nil
}

func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		log.Printf("[health] stop timeout waiting for running probes")
	}
	log.Printf("[health] stopped")
}

// Results returns the latest outcome per API, keyed "indicators" and
// "denue".
func (s *Service) Results() map[string]Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Result, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}

func (s *Service) probeAll(ctx context.Context) {
	s.record(s.probeIndicators(ctx))
	s.record(s.probeDenue(ctx))
}

func (s *Service) record(r Result) {
	s.mu.Lock()
	s.results[r.API] = r
	s.mu.Unlock()
	if r.OK {
		log.Printf("[health] %s ok (%s)", r.API, r.Elapsed.Round(time.Millisecond))
		return
	}
	log.Printf("[health] %s failing: %s", r.API, r.Detail)
}

func (s *Service) probeIndicators(ctx context.Context) Result {
	cfg := s.cfg.Indicators
	if cfg.Token == "" {
		return skipped("indicators", "sin token configurado")
	}
	segments := []string{"INDICATOR", probeIndicator, cfg.Language, "00", "true", cfg.Source, cfg.Version, cfg.Token}
	return s.probe(ctx, "indicators", cfg.BaseURL, segments, url.Values{"type": {"json"}})
}

func (s *Service) probeDenue(ctx context.Context) Result {
	cfg := s.cfg.Denue
	if cfg.Token == "" {
		return skipped("denue", "sin token configurado")
	}
	// Cuantificar with wildcards is the cheapest DENUE round trip: one
	// aggregate row for the whole country.
	segments := []string{"Cuantificar", "0", "0", "0", cfg.Token}
	return s.probe(ctx, "denue", cfg.BaseURL, segments, nil)
}

func (s *Service) probe(ctx context.Context, api, baseURL string, segments []string, query url.Values) Result {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	_, err := s.client.Get(ctx, baseURL, segments, query)
	r := Result{API: api, Elapsed: time.Since(start), At: time.Now()}
	if err != nil {
		r.Detail = err.Error()
		return r
	}
	r.OK = true
	return r
}

func skipped(api, detail string) Result {
	return Result{API: api, Detail: detail, At: time.Now()}
}
