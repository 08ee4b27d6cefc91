package denue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/datalabmx/inegimcp/internal/config"
	"github.com/datalabmx/inegimcp/internal/geo"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

const (
	// DefaultLimit applies when a tool passes no limit.
	DefaultLimit = 10
	// wildcard is the DENUE "no filter" path value.
	wildcard = "0"
)

// SearchEngine issues DENUE queries and accumulates paginated results.
type SearchEngine struct {
	client *upstream.Client
	cfg    config.DenueConfig
}

func NewSearchEngine(client *upstream.Client, cfg config.DenueConfig) *SearchEngine {
	return &SearchEngine{client: client, cfg: cfg}
}

// SearchByTerm finds establishments matching a free-text condition.
// With a nil scope the DENUE Buscar endpoint matches across name,
// activity and location; with a scope the paged BuscarAreaAct endpoint
// matches the name within that area.
func (s *SearchEngine) SearchByTerm(ctx context.Context, term string, scope *geo.Scope, limit int) (*Page, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, upstream.Errorf(upstream.KindInvalidParameter, "se requiere un término de búsqueda")
	}
	limit = normalizeLimit(limit)

	if scope == nil || scope.Level == geo.National {
		records, err := s.call(ctx, "Buscar", term, s.cfg.Token)
		if err != nil {
			return nil, err
		}
		return singlePage(records, limit), nil
	}

	return s.paginateAreaAct(ctx, areaActFilter{
		Entidad:   scope.StateCode(),
		Municipio: municipalityOf(*scope),
		Nombre:    term,
	}, limit)
}

// SearchByArea lists establishments inside a state or municipality,
// optionally filtered by name. An empty name matches everything in
// the area.
func (s *SearchEngine) SearchByArea(ctx context.Context, scope geo.Scope, name string, limit int) (*Page, error) {
	if scope.Level == geo.National {
		return nil, upstream.Errorf(upstream.KindInvalidParameter,
			"se requiere al menos una entidad federativa para acotar la búsqueda")
	}
	return s.paginateAreaAct(ctx, areaActFilter{
		Entidad:   scope.StateCode(),
		Municipio: municipalityOf(scope),
		Nombre:    strings.TrimSpace(name),
	}, normalizeLimit(limit))
}

// SearchByRadius finds every establishment within radiusMeters of the
// given point. The radius is validated against the DENUE bound before
// any network call.
func (s *SearchEngine) SearchByRadius(ctx context.Context, lat, lon float64, radiusMeters, limit int) (*Page, error) {
	return s.searchNear(ctx, "todos", lat, lon, radiusMeters, limit)
}

// SearchByTermNear combines a free-text condition with a coordinate
// radius, the DENUE Buscar "term near point" form.
func (s *SearchEngine) SearchByTermNear(ctx context.Context, term string, lat, lon float64, radiusMeters, limit int) (*Page, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		term = "todos"
	}
	return s.searchNear(ctx, term, lat, lon, radiusMeters, limit)
}

func (s *SearchEngine) searchNear(ctx context.Context, term string, lat, lon float64, radiusMeters, limit int) (*Page, error) {
	if radiusMeters <= 0 || radiusMeters > s.cfg.MaxRadiusMeters {
		return nil, upstream.Errorf(upstream.KindInvalidParameter,
			"el radio debe estar entre 1 y %d metros, se recibió %d", s.cfg.MaxRadiusMeters, radiusMeters)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, upstream.Errorf(upstream.KindInvalidParameter,
			"coordenadas fuera de rango: %v, %v", lat, lon)
	}
	limit = normalizeLimit(limit)

	coords := fmt.Sprintf("%v,%v", lat, lon)
	records, err := s.call(ctx, "Buscar", term, coords, strconv.Itoa(radiusMeters), s.cfg.Token)
	if err != nil {
		return nil, err
	}
	return singlePage(records, limit), nil
}

// SearchByActivityAndArea finds establishments of one economic
// activity inside a geographic area. The activity code length selects
// the SCIAN aggregation level (2=sector .. 6=clase).
func (s *SearchEngine) SearchByActivityAndArea(ctx context.Context, activityCode string, scope geo.Scope, limit int) (*Page, error) {
	filter, err := activityFilter(activityCode)
	if err != nil {
		return nil, err
	}
	filter.Entidad = scope.StateCode()
	filter.Municipio = municipalityOf(scope)
	return s.paginateAreaAct(ctx, filter, normalizeLimit(limit))
}

// Ficha fetches the full record of a single establishment by id.
func (s *SearchEngine) Ficha(ctx context.Context, id string) (*Establishment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, upstream.Errorf(upstream.KindInvalidParameter, "se requiere el ID del establecimiento")
	}
	records, err := s.call(ctx, "Ficha", id, s.cfg.Token)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, upstream.Errorf(upstream.KindNotFound, "no existe un establecimiento con ID %q", id)
	}
	est := records[0].toEstablishment()
	return &est, nil
}

// areaActFilter is the BuscarAreaAct slot set; zero values become the
// DENUE wildcard.
type areaActFilter struct {
	Entidad   string
	Municipio string
	Sector    string
	Subsector string
	Rama      string
	Clase     string
	Nombre    string
}

// activityFilter places a SCIAN code in its aggregation slot.
func activityFilter(code string) (areaActFilter, error) {
	code = strings.TrimSpace(code)
	if code == "" || !isDigits(code) {
		return areaActFilter{}, upstream.Errorf(upstream.KindInvalidParameter,
			"código de actividad económica inválido: %q", code)
	}
	var f areaActFilter
	switch len(code) {
	case 2:
		f.Sector = code
	case 3:
		f.Subsector = code
	case 4:
		f.Rama = code
	case 5, 6:
		f.Clase = code
	default:
		return areaActFilter{}, upstream.Errorf(upstream.KindInvalidParameter,
			"código de actividad de %d dígitos; se esperan de 2 a 6", len(code))
	}
	return f, nil
}

// paginateAreaAct walks BuscarAreaAct in registro_inicial/registro_final
// windows bounded by the per-request record cap, stopping at the
// caller's limit or at the first short page.
func (s *SearchEngine) paginateAreaAct(ctx context.Context, filter areaActFilter, limit int) (*Page, error) {
	page := &Page{TotalAvailable: TotalUnknown}
	offset := 0

	for len(page.Items) < limit {
		count := limit - len(page.Items)
		if count > s.cfg.MaxPageSize {
			count = s.cfg.MaxPageSize
		}

		records, err := s.call(ctx, "BuscarAreaAct",
			orWildcard(filter.Entidad),
			orWildcard(filter.Municipio),
			wildcard, // localidad
			wildcard, // ageb
			wildcard, // manzana
			orWildcard(filter.Sector),
			orWildcard(filter.Subsector),
			orWildcard(filter.Rama),
			orWildcard(filter.Clase),
			orWildcard(filter.Nombre),
			strconv.Itoa(offset+1),
			strconv.Itoa(offset+count),
			wildcard, // id
			s.cfg.Token,
		)
		if err != nil {
			// Partial results beat discarding fetched pages; the
			// failure is surfaced only when nothing arrived at all.
			if len(page.Items) > 0 {
				page.HasMore = true
				return page, nil
			}
			return nil, err
		}

		for _, rec := range records {
			page.Items = append(page.Items, rec.toEstablishment())
		}
		offset += count

		if len(records) < count {
			// Short page: upstream is exhausted.
			page.TotalAvailable = len(page.Items)
			return page, nil
		}
	}

	page.HasMore = true
	return page, nil
}

// call issues one DENUE request. A 404 from the registry means "no
// matches", which is a valid empty result, not a failure.
func (s *SearchEngine) call(ctx context.Context, segments ...string) ([]denueRecord, error) {
	if s.cfg.Token == "" {
		return nil, upstream.Errorf(upstream.KindMissingCredential, "configura INEGI_DENUE_TOKEN para consultar el DENUE")
	}

	raw, err := s.client.Get(ctx, s.cfg.BaseURL, segments, nil)
	if err != nil {
		if upstream.IsKind(err, upstream.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var records []denueRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &upstream.Error{Kind: upstream.KindMalformedResponse, Message: "listado DENUE con forma inesperada", Err: err}
	}
	return records, nil
}

func singlePage(records []denueRecord, limit int) *Page {
	page := &Page{TotalAvailable: len(records)}
	for _, rec := range records {
		if len(page.Items) >= limit {
			page.HasMore = true
			break
		}
		page.Items = append(page.Items, rec.toEstablishment())
	}
	return page
}

func municipalityOf(scope geo.Scope) string {
	if scope.Level == geo.Municipal {
		return scope.Code[2:]
	}
	return ""
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func orWildcard(s string) string {
	if strings.TrimSpace(s) == "" {
		return wildcard
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
