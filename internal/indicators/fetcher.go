package indicators

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/datalabmx/inegimcp/internal/config"
	"github.com/datalabmx/inegimcp/internal/geo"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

// SeriesPoint is one observation. Value nil means upstream reported
// no data for that period; it is never coerced to zero.
type SeriesPoint struct {
	Period string
	Value  *float64
}

// TimeSeries is the normalized result of one indicator/scope fetch.
// Points are chronologically ascending with no duplicate periods.
type TimeSeries struct {
	Indicator IndicatorRef
	Scope     geo.Scope
	Points    []SeriesPoint
	// LastUpdate is the upstream publication timestamp, when given.
	LastUpdate string
}

// Latest returns the newest point, or false if the series is empty.
func (s *TimeSeries) Latest() (SeriesPoint, bool) {
	if len(s.Points) == 0 {
		return SeriesPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Metadata is the descriptive block the BISE returns alongside every
// series.
type Metadata struct {
	Code       string
	Freq       string
	Topic      string
	Unit       string
	UnitMult   string
	Note       string
	Source     string
	LastUpdate string
	Status     string
}

// Fetcher builds and issues indicator requests.
type Fetcher struct {
	client *upstream.Client
	cfg    config.IndicatorsConfig
}

func NewFetcher(client *upstream.Client, cfg config.IndicatorsConfig) *Fetcher {
	return &Fetcher{client: client, cfg: cfg}
}

// BISE wire shapes.
type biseResponse struct {
	Series []biseSeries `json:"Series"`
}

type biseSeries struct {
	Indicador    string            `json:"INDICADOR"`
	Freq         string            `json:"FREQ"`
	Topic        string            `json:"TOPIC"`
	Unit         string            `json:"UNIT"`
	UnitMult     string            `json:"UNIT_MULT"`
	Note         string            `json:"NOTE"`
	Source       string            `json:"SOURCE"`
	LastUpdate   string            `json:"LASTUPDATE"`
	Status       string            `json:"STATUS"`
	Observations []biseObservation `json:"OBSERVATIONS"`
}

type biseObservation struct {
	TimePeriod string  `json:"TIME_PERIOD"`
	ObsValue   *string `json:"OBS_VALUE"`
}

// Fetch requests one (indicator, scope) series. historical=false asks
// upstream for only the latest period. The scope is validated against
// the indicator's coverage before any network call.
func (f *Fetcher) Fetch(ctx context.Context, ref IndicatorRef, scope geo.Scope, historical bool) (*TimeSeries, error) {
	if !ref.CoversLevel(scope.Level) {
		return nil, upstream.Errorf(upstream.KindUnsupportedScope,
			"el indicador %s (%s) no publica datos a nivel %s", ref.Name, ref.Code, scope.Level)
	}

	serie, err := f.fetchSeries(ctx, ref.Code, scope, historical)
	if err != nil {
		return nil, err
	}

	ts := &TimeSeries{Indicator: ref, Scope: scope, LastUpdate: serie.LastUpdate}
	if ts.Indicator.Unit == "" {
		ts.Indicator.Unit = serie.Unit
	}
	if ts.Indicator.Periodicity == "" {
		ts.Indicator.Periodicity = periodicityFromFreq(serie.Freq)
	}

	for _, obs := range serie.Observations {
		period := strings.TrimSpace(obs.TimePeriod)
		if period == "" {
			continue
		}
		ts.Points = append(ts.Points, SeriesPoint{Period: period, Value: parseObsValue(obs.ObsValue)})
	}
	sortAndDedupe(ts)
	return ts, nil
}

// Metadata fetches the descriptive block for an indicator (latest
// period only, national scope: the metadata is scope-independent).
func (f *Fetcher) Metadata(ctx context.Context, code string) (*Metadata, error) {
	serie, err := f.fetchSeries(ctx, code, geo.Nacional, false)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		Code:       serie.Indicador,
		Freq:       serie.Freq,
		Topic:      serie.Topic,
		Unit:       serie.Unit,
		UnitMult:   serie.UnitMult,
		Note:       serie.Note,
		Source:     serie.Source,
		LastUpdate: serie.LastUpdate,
		Status:     serie.Status,
	}, nil
}

func (f *Fetcher) fetchSeries(ctx context.Context, code string, scope geo.Scope, historical bool) (*biseSeries, error) {
	if f.cfg.Token == "" {
		return nil, upstream.Errorf(upstream.KindMissingCredential, "configura INEGI_INDICADORES_TOKEN para consultar indicadores")
	}

	latestOnly := "true"
	if historical {
		latestOnly = "false"
	}
	segments := []string{
		"INDICATOR", code, f.cfg.Language, scope.BiseArea(),
		latestOnly, f.cfg.Source, f.cfg.Version, f.cfg.Token,
	}

	raw, err := f.client.Get(ctx, f.cfg.BaseURL, segments, url.Values{"type": {"json"}})
	if err != nil {
		return nil, err
	}

	var decoded biseResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &upstream.Error{Kind: upstream.KindMalformedResponse, Message: "serie con forma inesperada", Err: err}
	}
	if len(decoded.Series) == 0 {
		return nil, upstream.Errorf(upstream.KindNotFound,
			"sin datos para el indicador %s en %s", code, scope.Name())
	}
	return &decoded.Series[0], nil
}

// parseObsValue maps the upstream string value to a float, or nil for
// the null/empty placeholders the BISE uses for "no data".
func parseObsValue(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" || strings.EqualFold(s, "null") || s == "N/D" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// sortAndDedupe orders points chronologically ascending and keeps the
// first occurrence of a repeated period. BISE period labels
// (e.g. "2020", "2023/02") sort correctly as strings within a series.
func sortAndDedupe(ts *TimeSeries) {
	sort.SliceStable(ts.Points, func(i, j int) bool {
		return ts.Points[i].Period < ts.Points[j].Period
	})
	out := ts.Points[:0]
	var last string
	for _, p := range ts.Points {
		if p.Period == last {
			continue
		}
		out = append(out, p)
		last = p.Period
	}
	ts.Points = out
}
