package denue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/datalabmx/inegimcp/internal/geo"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

// maxAggregateRecords bounds how many records an exhaustive count will
// page through before giving up on exactness.
const maxAggregateRecords = 10000

// SectorCount is the aggregation result for one activity/area pair.
// Count comes from exhausting result pages. ReportedTotal is the
// upstream Cuantificar figure (TotalUnknown when unavailable); when
// both exist and disagree, Warning explains the mismatch. A warning is
// data-quality information, never a failure.
type SectorCount struct {
	SectorCode string
	SectorName string
	Area       geo.Scope
	Count      int
	Reported   int
	Warning    string
}

// Aggregator reduces registry listings into counts.
type Aggregator struct {
	engine *SearchEngine
}

func NewAggregator(engine *SearchEngine) *Aggregator {
	return &Aggregator{engine: engine}
}

// cuantificarRow is the DENUE Cuantificar wire shape: one row per
// (actividad, área) combination.
type cuantificarRow struct {
	AE    string `json:"AE"`
	AG    string `json:"AG"`
	Total string `json:"Total"`
}

// CountBySector counts establishments of one economic activity inside
// an area. The count always comes from exhausting search pages; the
// reported total is cross-checked, not trusted.
func (a *Aggregator) CountBySector(ctx context.Context, activityCode string, scope geo.Scope) (*SectorCount, error) {
	page, err := a.engine.SearchByActivityAndArea(ctx, activityCode, scope, maxAggregateRecords)
	if err != nil {
		return nil, err
	}

	result := &SectorCount{
		SectorCode: activityCode,
		SectorName: SectorName(activityCode),
		Area:       scope,
		Count:      len(page.Items),
		Reported:   TotalUnknown,
	}
	if page.HasMore {
		result.Warning = fmt.Sprintf("el conteo se truncó en %d registros; hay más disponibles", maxAggregateRecords)
		return result, nil
	}

	reported, err := a.reportedTotal(ctx, activityCode, scope)
	if err != nil {
		// The cross-check is best effort; the exhaustive count stands.
		log.Printf("[denue] cuantificar cross-check failed for %s/%s: %v", activityCode, scope.DenueArea(), err)
		return result, nil
	}
	result.Reported = reported

	if reported != result.Count {
		result.Warning = fmt.Sprintf(
			"el total reportado por el DENUE (%d) no coincide con el conteo de registros (%d)",
			reported, result.Count)
	}
	return result, nil
}

// reportedTotal asks the Cuantificar endpoint for its figure, summing
// rows (multi-area keys return one row per area).
func (a *Aggregator) reportedTotal(ctx context.Context, activityCode string, scope geo.Scope) (int, error) {
	if a.engine.cfg.Token == "" {
		return TotalUnknown, upstream.Errorf(upstream.KindMissingCredential, "configura INEGI_DENUE_TOKEN")
	}

	segments := []string{"Cuantificar", activityCode, scope.DenueArea(), "0", a.engine.cfg.Token}
	raw, err := a.engine.client.Get(ctx, a.engine.cfg.BaseURL, segments, nil)
	if err != nil {
		return TotalUnknown, err
	}

	var rows []cuantificarRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return TotalUnknown, &upstream.Error{Kind: upstream.KindMalformedResponse, Message: "cuantificación con forma inesperada", Err: err}
	}
	if len(rows) == 0 {
		return TotalUnknown, upstream.Errorf(upstream.KindNotFound, "cuantificación vacía")
	}

	total := 0
	for _, row := range rows {
		n, err := strconv.Atoi(strings.TrimSpace(row.Total))
		if err != nil {
			return TotalUnknown, upstream.Errorf(upstream.KindMalformedResponse, "total no numérico: %q", row.Total)
		}
		total += n
	}
	return total, nil
}

// sectorNames labels the SCIAN codes the tools mention most; unknown
// codes surface as "Actividad <code>" so the code never travels alone.
var sectorNames = map[string]string{
	"43":     "Comercio al por mayor",
	"46":     "Comercio al por menor",
	"462":    "Comercio al por menor en tiendas de autoservicio y departamentales",
	"464":    "Comercio al por menor de artículos para el cuidado de la salud",
	"462112": "Comercio al por menor en minisupers",
	"72":     "Servicios de alojamiento temporal y de preparación de alimentos",
	"722":    "Servicios de preparación de alimentos y bebidas",
	"11":     "Agricultura, cría y explotación de animales",
	"111":    "Agricultura",
	"112":    "Cría y explotación de animales",
}

// SectorName returns the human label for an activity code.
func SectorName(code string) string {
	if name, ok := sectorNames[code]; ok {
		return name
	}
	return "Actividad " + code
}
