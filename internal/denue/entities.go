// Package denue talks to the DENUE business-registry API: term,
// radius and activity-scoped search, plus count aggregation.
package denue

import (
	"strconv"
	"strings"
)

// Establishment is one registry record, normalized from either DENUE
// payload shape. Coordinates and AGEB/manzana stay empty when upstream
// has none on file; a missing location is never (0,0).
type Establishment struct {
	ID                  string
	Name                string
	ActivityCode        string
	ActivityDescription string
	Address             string
	Latitude            *float64
	Longitude           *float64
	AGEB                string
	Manzana             string
	Phone               string
	Email               string
	Website             string
}

// HasCoordinates reports whether the record carries a location.
func (e Establishment) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// TotalUnknown marks a page whose upstream total was not reported.
const TotalUnknown = -1

// Page is one accumulated search result. TotalAvailable is
// TotalUnknown when upstream gave no figure; HasMore means upstream
// may hold more records past the caller's limit.
type Page struct {
	Items          []Establishment
	TotalAvailable int
	HasMore        bool
}

// denueRecord covers both wire shapes the DENUE returns (Buscar and
// BuscarAreaAct use different field sets; Ficha a third overlap).
type denueRecord struct {
	ID             string `json:"Id"`
	CLEE           string `json:"CLEE"`
	Nombre         string `json:"Nombre"`
	RazonSocial    string `json:"Razon_social"`
	ClaseActividad string `json:"Clase_actividad"`
	NombreAct      string `json:"Nombre_act"`
	Calle          string `json:"Calle"`
	NumExterior    string `json:"Num_Exterior"`
	NumInterior    string `json:"Num_Interior"`
	Colonia        string `json:"Colonia"`
	CP             string `json:"CP"`
	Ubicacion      string `json:"Ubicacion"`
	Telefono       string `json:"Telefono"`
	CorreoE        string `json:"Correo_e"`
	SitioInternet  string `json:"Sitio_internet"`
	Latitud        string `json:"Latitud"`
	Longitud       string `json:"Longitud"`
	AGEB           string `json:"AGEB"`
	Manzana        string `json:"Manzana"`
	SectorID       string `json:"SECTOR_ACTIVIDAD_ID"`
	SubsectorID    string `json:"SUBSECTOR_ACTIVIDAD_ID"`
	RamaID         string `json:"RAMA_ACTIVIDAD_ID"`
	ClaseID        string `json:"CLASE_ACTIVIDAD_ID"`
}

func (r denueRecord) toEstablishment() Establishment {
	e := Establishment{
		ID:      firstNonEmpty(r.ID, r.CLEE),
		Name:    firstNonEmpty(r.Nombre, r.RazonSocial, "Sin nombre"),
		AGEB:    cleanField(r.AGEB),
		Manzana: cleanField(r.Manzana),
		Phone:   cleanField(r.Telefono),
		Email:   cleanField(r.CorreoE),
		Website: cleanField(r.SitioInternet),
	}

	e.ActivityDescription = firstNonEmpty(r.ClaseActividad, r.NombreAct)
	e.ActivityCode = firstNonEmpty(r.ClaseID, r.RamaID, r.SubsectorID, r.SectorID)
	e.Address = buildAddress(r)
	e.Latitude = parseCoordinate(r.Latitud)
	e.Longitude = parseCoordinate(r.Longitud)
	return e
}

func buildAddress(r denueRecord) string {
	street := strings.TrimSpace(strings.Join(nonEmpty(r.Calle, r.NumExterior, r.NumInterior), " "))
	parts := nonEmpty(street, r.Colonia)
	if cp := cleanField(r.CP); cp != "" {
		parts = append(parts, "CP "+cp)
	}
	if len(parts) == 0 {
		return cleanField(r.Ubicacion)
	}
	return strings.Join(parts, ", ")
}

// parseCoordinate keeps absence distinct from the origin: empty or
// unparseable values come back nil, never 0.
func parseCoordinate(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func cleanField(s string) string {
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
