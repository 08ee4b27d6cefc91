// Package indicators talks to the INEGI indicator (BISE) API: catalog
// resolution, time-series fetching and cross-state comparison.
package indicators

import (
	"strings"

	"github.com/datalabmx/inegimcp/internal/geo"
)

type Periodicity string

const (
	Annual    Periodicity = "anual"
	Quarterly Periodicity = "trimestral"
	Monthly   Periodicity = "mensual"
)

// IndicatorRef identifies one BISE indicator plus the metadata needed
// to surface it: the caller always gets code and human name together.
type IndicatorRef struct {
	Code        string
	Name        string
	Unit        string
	Periodicity Periodicity
	Coverage    []geo.Level
}

// CoversLevel reports whether the indicator publishes data at the
// given geographic level.
func (r IndicatorRef) CoversLevel(level geo.Level) bool {
	for _, l := range r.Coverage {
		if l == level {
			return true
		}
	}
	return false
}

var (
	allLevels      = []geo.Level{geo.National, geo.State, geo.Municipal}
	nationalState  = []geo.Level{geo.National, geo.State}
	nationalLevels = []geo.Level{geo.National}
)

// Curated is the static indicator table. It resolves the common
// queries synchronously, without touching the network; anything it
// misses falls through to the live catalog.
var Curated = []IndicatorRef{
	{Code: "1002000001", Name: "Población total", Unit: "Personas", Periodicity: Annual, Coverage: allLevels},
	{Code: "1002000002", Name: "Población femenina", Unit: "Personas", Periodicity: Annual, Coverage: allLevels},
	{Code: "1002000003", Name: "Población masculina", Unit: "Personas", Periodicity: Annual, Coverage: allLevels},
	{Code: "6200240326", Name: "Densidad de población", Unit: "Habitantes por kilómetro cuadrado", Periodicity: Annual, Coverage: nationalState},
	{Code: "381016", Name: "Producto Interno Bruto (PIB)", Unit: "Millones de pesos", Periodicity: Quarterly, Coverage: nationalLevels},
	{Code: "381017", Name: "PIB per cápita", Unit: "Pesos", Periodicity: Annual, Coverage: nationalLevels},
	{Code: "444612", Name: "Tasa de desempleo", Unit: "Porcentaje", Periodicity: Quarterly, Coverage: nationalState},
	{Code: "444603", Name: "Tasa de ocupación", Unit: "Porcentaje", Periodicity: Quarterly, Coverage: nationalState},
	{Code: "444604", Name: "Población económicamente activa", Unit: "Personas", Periodicity: Quarterly, Coverage: nationalState},
	{Code: "444605", Name: "Población ocupada", Unit: "Personas", Periodicity: Quarterly, Coverage: nationalState},
	{Code: "444606", Name: "Población desocupada", Unit: "Personas", Periodicity: Quarterly, Coverage: nationalState},
	{Code: "216906", Name: "Índice Nacional de Precios al Consumidor (INPC)", Unit: "Índice", Periodicity: Monthly, Coverage: nationalLevels},
	{Code: "216668", Name: "Inflación anual", Unit: "Porcentaje", Periodicity: Monthly, Coverage: nationalLevels},
	{Code: "628194", Name: "Inflación mensual", Unit: "Porcentaje", Periodicity: Monthly, Coverage: nationalLevels},
	{Code: "6207019887", Name: "Número de viviendas particulares habitadas", Unit: "Viviendas", Periodicity: Annual, Coverage: allLevels},
	{Code: "6207019888", Name: "Promedio de ocupantes por vivienda", Unit: "Personas", Periodicity: Annual, Coverage: allLevels},
	{Code: "1002000022", Name: "Grado promedio de escolaridad", Unit: "Años de escolaridad", Periodicity: Annual, Coverage: allLevels},
	{Code: "1002000023", Name: "Porcentaje de población analfabeta", Unit: "Porcentaje", Periodicity: Annual, Coverage: allLevels},
	{Code: "6200028214", Name: "Tasa de mortalidad infantil", Unit: "Defunciones por cada mil nacidos vivos", Periodicity: Annual, Coverage: nationalState},
	{Code: "6200028221", Name: "Esperanza de vida al nacimiento", Unit: "Años", Periodicity: Annual, Coverage: nationalState},
	{Code: "628195", Name: "Índice de marginación", Unit: "Índice", Periodicity: Annual, Coverage: nationalState},
}

// Categories groups the curated table for listing tools. Order is the
// presentation order.
var Categories = []struct {
	Name  string
	Codes []string
}{
	{"Demografía", []string{"1002000001", "1002000002", "1002000003", "6200240326"}},
	{"Economía", []string{"381016", "381017"}},
	{"Empleo", []string{"444612", "444603", "444604", "444605", "444606"}},
	{"Precios", []string{"216906", "216668", "628194"}},
	{"Vivienda", []string{"6207019887", "6207019888"}},
	{"Educación", []string{"1002000022", "1002000023"}},
	{"Salud", []string{"6200028214", "6200028221"}},
	{"Desarrollo Social", []string{"628195"}},
}

// CuratedByCode returns the curated entry for a code, if present.
func CuratedByCode(code string) (IndicatorRef, bool) {
	for _, ref := range Curated {
		if ref.Code == code {
			return ref, true
		}
	}
	return IndicatorRef{}, false
}

// curatedMatches does case- and accent-insensitive substring matching
// against the curated names.
func curatedMatches(query string) []IndicatorRef {
	needle := normalizeText(query)
	if needle == "" {
		return nil
	}
	var out []IndicatorRef
	for _, ref := range Curated {
		if strings.Contains(normalizeText(ref.Name), needle) {
			out = append(out, ref)
		}
	}
	return out
}

var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

func normalizeText(s string) string {
	return accentFold.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// periodicityFromFreq maps BISE CL_FREQ identifiers onto the three
// periodicities the curated table distinguishes.
func periodicityFromFreq(freq string) Periodicity {
	switch strings.TrimSpace(freq) {
	case "9":
		return Quarterly
	case "6":
		return Monthly
	default:
		return Annual
	}
}
