package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datalabmx/inegimcp/internal/denue"
	"github.com/datalabmx/inegimcp/internal/indicators"
)

// Renderers turn domain results into the Spanish markdown the tools
// hand back to the calling agent. Absent values always render as
// "N/D", never as zero.

const noData = "N/D"

// maxSeriesRows bounds how many observations a single series answer
// lists; older periods are summarized, not dropped silently.
const maxSeriesRows = 40

func formatValue(v *float64) string {
	if v == nil {
		return noData
	}
	return formatNumber(*v)
}

// formatNumber renders with thousands separators on the integer part,
// keeping whatever decimals the value actually has.
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var grouped strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}
	out := grouped.String()
	if neg {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}

func renderResolution(query string, res *indicators.Resolution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Indicadores para %q\n\n", query)
	fmt.Fprintf(&b, "**Mejor coincidencia:** %s (`%s`)\n", res.Ref.Name, res.Ref.Code)
	if res.Ref.Unit != "" {
		fmt.Fprintf(&b, "- Unidad: %s\n", res.Ref.Unit)
	}
	if res.Ref.Periodicity != "" {
		fmt.Fprintf(&b, "- Periodicidad: %s\n", res.Ref.Periodicity)
	}
	if res.FromCatalog {
		b.WriteString("- Fuente: catálogo completo del BISE\n")
	}
	if len(res.Candidates) > 1 {
		b.WriteString("\n**Otras coincidencias:**\n")
		for _, c := range res.Candidates {
			if c.Code == res.Ref.Code {
				continue
			}
			fmt.Fprintf(&b, "- `%s` %s\n", c.Code, c.Name)
		}
	}
	b.WriteString("\nUsa `obtener_serie_temporal` con el ID para consultar los datos.\n")
	return b.String()
}

func renderSeries(ts *indicators.TimeSeries) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", ts.Indicator.Name)
	fmt.Fprintf(&b, "**ID:** `%s`\n", ts.Indicator.Code)
	fmt.Fprintf(&b, "**Ámbito:** %s\n", ts.Scope.Name())
	if ts.Indicator.Unit != "" {
		fmt.Fprintf(&b, "**Unidad:** %s\n", ts.Indicator.Unit)
	}
	if ts.LastUpdate != "" {
		fmt.Fprintf(&b, "**Última actualización:** %s\n", ts.LastUpdate)
	}

	points := ts.Points
	if len(points) == 0 {
		b.WriteString("\nLa serie no contiene observaciones.\n")
		return b.String()
	}
	if latest, ok := ts.Latest(); ok {
		fmt.Fprintf(&b, "**Dato más reciente:** %s (%s)\n", formatValue(latest.Value), latest.Period)
	}

	start := 0
	if len(points) > maxSeriesRows {
		start = len(points) - maxSeriesRows
		fmt.Fprintf(&b, "\nMostrando los %d periodos más recientes de %d.\n", maxSeriesRows, len(points))
	}
	b.WriteString("\n| Periodo | Valor |\n|---|---|\n")
	for _, p := range points[start:] {
		fmt.Fprintf(&b, "| %s | %s |\n", p.Period, formatValue(p.Value))
	}
	return b.String()
}

func renderComparison(ref indicators.IndicatorRef, comps []indicators.Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Comparación entre estados: %s\n\n", ref.Name)
	fmt.Fprintf(&b, "**ID:** `%s`\n", ref.Code)
	if ref.Unit != "" {
		fmt.Fprintf(&b, "**Unidad:** %s\n", ref.Unit)
	}
	b.WriteString("\n| Entidad | Valor | Periodo |\n|---|---|---|\n")
	var failed []string
	for _, c := range comps {
		if c.Err != nil {
			failed = append(failed, fmt.Sprintf("- %s: %s", c.Scope.Name(), describeErr(c.Err)))
			fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Scope.Name(), noData, noData)
			continue
		}
		latest, ok := c.Series.Latest()
		if !ok {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Scope.Name(), noData, noData)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Scope.Name(), formatValue(latest.Value), latest.Period)
	}
	if len(failed) > 0 {
		b.WriteString("\n**Entidades sin datos:**\n")
		for _, f := range failed {
			b.WriteString(f + "\n")
		}
	}
	return b.String()
}

func renderIndicatorList() string {
	var b strings.Builder
	b.WriteString("## Indicadores disponibles\n")
	for _, cat := range indicators.Categories {
		fmt.Fprintf(&b, "\n### %s\n", cat.Name)
		for _, code := range cat.Codes {
			ref, ok := indicators.CuratedByCode(code)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- `%s` %s (%s, %s)\n", ref.Code, ref.Name, ref.Unit, ref.Periodicity)
		}
	}
	b.WriteString("\nEl catálogo completo del BISE se consulta con `buscar_catalogo_completo`.\n")
	return b.String()
}

func renderMetadata(meta *indicators.Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Metadatos del indicador `%s`\n\n", meta.Code)
	rows := []struct{ label, value string }{
		{"Tema", meta.Topic},
		{"Frecuencia", meta.Freq},
		{"Unidad", meta.Unit},
		{"Multiplicador de unidad", meta.UnitMult},
		{"Fuente", meta.Source},
		{"Última actualización", meta.LastUpdate},
		{"Estatus", meta.Status},
		{"Nota", meta.Note},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		fmt.Fprintf(&b, "**%s:** %s\n", row.label, row.value)
	}
	return b.String()
}

func renderEstablishments(title string, page *denue.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	if len(page.Items) == 0 {
		b.WriteString("No se encontraron establecimientos.\n")
		return b.String()
	}
	b.WriteString(availabilityNote(page))
	for i, est := range page.Items {
		fmt.Fprintf(&b, "\n**%d. %s**\n", i+1, est.Name)
		if est.ActivityDescription != "" {
			fmt.Fprintf(&b, "- Actividad: %s\n", est.ActivityDescription)
		}
		if est.Address != "" {
			fmt.Fprintf(&b, "- Dirección: %s\n", est.Address)
		}
		if est.Phone != "" {
			fmt.Fprintf(&b, "- Teléfono: %s\n", est.Phone)
		}
		if est.ID != "" {
			fmt.Fprintf(&b, "- ID: `%s`\n", est.ID)
		}
	}
	return b.String()
}

func renderCoordinates(title string, page *denue.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	located := 0
	for _, est := range page.Items {
		if est.HasCoordinates() {
			located++
		}
	}
	if located == 0 {
		b.WriteString("Ninguno de los establecimientos encontrados tiene coordenadas registradas.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d de %d establecimientos tienen coordenadas.\n", located, len(page.Items))
	b.WriteString("\n| Nombre | Latitud | Longitud |\n|---|---|---|\n")
	for _, est := range page.Items {
		if !est.HasCoordinates() {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", est.Name,
			strconv.FormatFloat(*est.Latitude, 'f', -1, 64),
			strconv.FormatFloat(*est.Longitude, 'f', -1, 64))
	}
	if page.HasMore {
		b.WriteString("\nHay más resultados disponibles; aumenta el límite para verlos.\n")
	}
	return b.String()
}

func renderSectorCount(count *denue.SectorCount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Establecimientos de %s\n\n", count.SectorName)
	fmt.Fprintf(&b, "**Actividad:** `%s`\n", count.SectorCode)
	fmt.Fprintf(&b, "**Área:** %s\n", count.Area.Name())
	fmt.Fprintf(&b, "**Conteo:** %s establecimientos\n", formatNumber(float64(count.Count)))
	if count.Reported != denue.TotalUnknown {
		fmt.Fprintf(&b, "**Total reportado por el DENUE:** %s\n", formatNumber(float64(count.Reported)))
	}
	if count.Warning != "" {
		fmt.Fprintf(&b, "\n**Advertencia:** %s\n", count.Warning)
	}
	return b.String()
}

func renderFicha(est *denue.Establishment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", est.Name)
	rows := []struct{ label, value string }{
		{"ID", est.ID},
		{"Actividad", est.ActivityDescription},
		{"Código de actividad", est.ActivityCode},
		{"Dirección", est.Address},
		{"Teléfono", est.Phone},
		{"Correo", est.Email},
		{"Sitio web", est.Website},
		{"AGEB", est.AGEB},
		{"Manzana", est.Manzana},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		fmt.Fprintf(&b, "**%s:** %s\n", row.label, row.value)
	}
	if est.HasCoordinates() {
		fmt.Fprintf(&b, "**Coordenadas:** %s, %s\n",
			strconv.FormatFloat(*est.Latitude, 'f', -1, 64),
			strconv.FormatFloat(*est.Longitude, 'f', -1, 64))
	}
	return b.String()
}

// availabilityNote is the "Mostrando N de M" line under every listing.
func availabilityNote(page *denue.Page) string {
	switch {
	case page.TotalAvailable != denue.TotalUnknown && page.TotalAvailable > len(page.Items):
		return fmt.Sprintf("Mostrando %d de %d establecimientos.\n", len(page.Items), page.TotalAvailable)
	case page.HasMore:
		return fmt.Sprintf("Mostrando %d establecimientos; hay más disponibles.\n", len(page.Items))
	default:
		return fmt.Sprintf("Se encontraron %d establecimientos.\n", len(page.Items))
	}
}
