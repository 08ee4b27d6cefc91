package indicators

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/datalabmx/inegimcp/internal/config"
	"github.com/datalabmx/inegimcp/internal/geo"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

// codePattern matches BISE indicator identifiers (numeric, 4-10
// digits in the published catalog).
var codePattern = regexp.MustCompile(`^[0-9]{4,10}$`)

// Candidate is one live-catalog search hit, in upstream rank order.
type Candidate struct {
	Code string
	Name string
}

// Resolution is a resolved indicator plus, when the live catalog was
// consulted, the full candidate list so ambiguity stays visible.
type Resolution struct {
	Ref        IndicatorRef
	Candidates []Candidate
	// FromCatalog is true when the match came from the live catalog
	// rather than the curated table.
	FromCatalog bool
}

// Resolver turns free text or a bare code into an IndicatorRef, using
// the curated table first and the live catalog as fallback. The
// curated table wins whenever it matches at all.
type Resolver struct {
	client *upstream.Client
	cfg    config.IndicatorsConfig
}

func NewResolver(client *upstream.Client, cfg config.IndicatorsConfig) *Resolver {
	return &Resolver{client: client, cfg: cfg}
}

func (r *Resolver) Resolve(ctx context.Context, query string) (*Resolution, error) {
	if query == "" {
		return nil, upstream.Errorf(upstream.KindInvalidParameter, "se requiere un término de búsqueda o un ID de indicador")
	}

	if codePattern.MatchString(query) {
		if ref, ok := CuratedByCode(query); ok {
			return &Resolution{Ref: ref}, nil
		}
		return r.lookupCode(ctx, query)
	}

	if matches := curatedMatches(query); len(matches) > 0 {
		res := &Resolution{Ref: matches[0]}
		for _, m := range matches {
			res.Candidates = append(res.Candidates, Candidate{Code: m.Code, Name: m.Name})
		}
		return res, nil
	}

	return r.searchCatalog(ctx, query)
}

// SearchCatalog bypasses the curated table and always consults the
// live CL_INDICATOR catalog, for callers who want the full breadth of
// what the BISE publishes.
func (r *Resolver) SearchCatalog(ctx context.Context, query string) (*Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, upstream.Errorf(upstream.KindInvalidParameter, "se requiere un término de búsqueda")
	}
	return r.searchCatalog(ctx, query)
}

// catalogEntry is the BISE CL_INDICATOR wire shape.
type catalogEntry struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

type catalogResponse struct {
	Codes []catalogEntry `json:"CODE"`
}

// lookupCode resolves a code outside the curated table against the
// live catalog.
func (r *Resolver) lookupCode(ctx context.Context, code string) (*Resolution, error) {
	entries, err := r.fetchCatalog(ctx, code, "")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Value == code {
			return &Resolution{
				Ref:         refFromCatalog(e),
				FromCatalog: true,
			}, nil
		}
	}
	return nil, upstream.Errorf(upstream.KindNotFound, "no existe un indicador con ID %q", code)
}

// searchCatalog runs the upstream free-text search and takes the top
// hit, keeping the whole ranked list as candidates.
func (r *Resolver) searchCatalog(ctx context.Context, query string) (*Resolution, error) {
	entries, err := r.fetchCatalog(ctx, "null", query)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, upstream.Errorf(upstream.KindNotFound, "ningún indicador coincide con %q", query)
	}

	res := &Resolution{
		Ref:         refFromCatalog(entries[0]),
		FromCatalog: true,
	}
	for _, e := range entries {
		res.Candidates = append(res.Candidates, Candidate{Code: e.Value, Name: e.Description})
	}
	return res, nil
}

func (r *Resolver) fetchCatalog(ctx context.Context, id, search string) ([]catalogEntry, error) {
	if r.cfg.Token == "" {
		return nil, upstream.Errorf(upstream.KindMissingCredential, "configura INEGI_INDICADORES_TOKEN para consultar el catálogo")
	}

	segments := []string{"CL_INDICATOR", id, r.cfg.Language, r.cfg.Source, r.cfg.Version, r.cfg.Token}
	query := url.Values{"type": {"json"}}
	if search != "" {
		query.Set("search", search)
	}

	raw, err := r.client.Get(ctx, r.cfg.BaseURL, segments, query)
	if err != nil {
		return nil, err
	}

	var decoded catalogResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &upstream.Error{Kind: upstream.KindMalformedResponse, Message: "catálogo con forma inesperada", Err: err}
	}
	return decoded.Codes, nil
}

// refFromCatalog builds a reference for an indicator the curated table
// does not know. Unit and periodicity are unknown until a series is
// fetched; coverage is left open at every level so the scope check
// never rejects what upstream might actually publish.
func refFromCatalog(e catalogEntry) IndicatorRef {
	return IndicatorRef{
		Code:     e.Value,
		Name:     e.Description,
		Coverage: []geo.Level{geo.National, geo.State, geo.Municipal},
	}
}
