package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/datalabmx/inegimcp/internal/denue"
	"github.com/datalabmx/inegimcp/internal/geo"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

// defaultNearRadius is the DENUE radius applied when a tool gets
// coordinates without an explicit radius, in meters.
const defaultNearRadius = 1000

func (s *Server) registerTools(srv *mcpsdk.Server) {
	s.addTool(srv, &mcpsdk.Tool{
		Name:        "buscar_indicadores",
		Description: "Busca indicadores económicos y demográficos de INEGI por palabra clave o ID. Devuelve el mejor candidato y las demás coincidencias.",
		InputSchema: objectSchema(map[string]any{
			"keyword": stringProp("Palabra clave (por ejemplo \"empleo\") o ID numérico del indicador"),
		}, "keyword"),
	}, s.handleBuscarIndicadores)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "buscar_catalogo_completo",
		Description: "Busca en el catálogo completo del BISE, más allá de la tabla curada de indicadores comunes.",
		InputSchema: objectSchema(map[string]any{
			"keyword": stringProp("Término de búsqueda en el catálogo CL_INDICATOR"),
		}, "keyword"),
	}, s.handleBuscarCatalogo)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "obtener_serie_temporal",
		Description: "Obtiene la serie temporal de un indicador. Con historica=false devuelve solo el dato más reciente.",
		InputSchema: objectSchema(map[string]any{
			"indicador_id":    stringProp("ID numérico del indicador o su nombre"),
			"historica":       boolProp("true para la serie completa, false para el último dato"),
			"area_geografica": stringProp("Código de área opcional: \"00\" nacional, 2 dígitos entidad, 5 dígitos municipio"),
		}, "indicador_id"),
	}, s.handleSerieTemporal)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "comparar_estados",
		Description: "Compara el valor más reciente de un indicador entre varias entidades federativas.",
		InputSchema: objectSchema(map[string]any{
			"indicador_id": stringProp("ID numérico del indicador o su nombre"),
			"estados": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Entidades por nombre o código de dos dígitos (por ejemplo [\"Yucatán\", \"09\"])",
			},
			"historica": boolProp("true para incluir la serie completa de cada entidad"),
		}, "indicador_id", "estados"),
	}, s.handleCompararEstados)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "listar_indicadores_disponibles",
		Description: "Lista los indicadores de consulta directa, agrupados por categoría.",
		InputSchema: objectSchema(nil),
	}, s.handleListarIndicadores)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "obtener_metadatos",
		Description: "Obtiene los metadatos descriptivos de un indicador: tema, unidad, fuente y fecha de actualización.",
		InputSchema: objectSchema(map[string]any{
			"indicador_id": stringProp("ID numérico del indicador"),
		}, "indicador_id"),
	}, s.handleMetadatos)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "buscar_establecimientos",
		Description: "Busca establecimientos en el DENUE por término libre, opcionalmente alrededor de un punto.",
		InputSchema: objectSchema(map[string]any{
			"termino": stringProp("Término de búsqueda: nombre, actividad o ubicación"),
			"limite":  intProp("Número máximo de resultados (10 por omisión)"),
			"latitud": map[string]any{"type": "number", "description": "Latitud del punto de búsqueda"},
			"longitud": map[string]any{
				"type": "number", "description": "Longitud del punto de búsqueda",
			},
			"radio": intProp("Radio de búsqueda en metros alrededor del punto (máximo 5000)"),
		}, "termino"),
	}, s.handleBuscarEstablecimientos)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "buscar_area_act",
		Description: "Lista establecimientos dentro de una entidad o municipio, con filtro opcional por nombre.",
		InputSchema: objectSchema(map[string]any{
			"entidad":   stringProp("Entidad federativa por nombre o código de dos dígitos"),
			"municipio": stringProp("Código de municipio de tres dígitos, opcional"),
			"nombre":    stringProp("Filtro por nombre del establecimiento, opcional"),
			"limite":    intProp("Número máximo de resultados (10 por omisión)"),
		}, "entidad"),
	}, s.handleBuscarAreaAct)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "cuantificar_establecimientos",
		Description: "Cuenta los establecimientos de una actividad económica (código SCIAN de 2 a 6 dígitos) en un área geográfica.",
		InputSchema: objectSchema(map[string]any{
			"actividad_economica": stringProp("Código SCIAN: 2 dígitos sector, 3 subsector, 4 rama, 5-6 clase"),
			"area_geografica":     stringProp("Código de área: \"0\" nacional, 2 dígitos entidad, 5 dígitos municipio"),
		}, "actividad_economica"),
	}, s.handleCuantificar)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "obtener_coordenadas_establecimientos",
		Description: "Busca establecimientos y devuelve sus coordenadas geográficas, omitiendo los que no tienen ubicación registrada.",
		InputSchema: objectSchema(map[string]any{
			"termino": stringProp("Término de búsqueda: nombre, actividad o ubicación"),
			"limite":  intProp("Número máximo de resultados (10 por omisión)"),
		}, "termino"),
	}, s.handleCoordenadas)

	s.addTool(srv, &mcpsdk.Tool{
		Name:        "obtener_ficha_establecimiento",
		Description: "Obtiene la ficha completa de un establecimiento del DENUE por su ID.",
		InputSchema: objectSchema(map[string]any{
			"id_establecimiento": stringProp("ID del establecimiento, tal como lo devuelven las búsquedas"),
		}, "id_establecimiento"),
	}, s.handleFicha)
}

func (s *Server) handleBuscarIndicadores(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	res, err := s.resolver.Resolve(ctx, strings.TrimSpace(args.Keyword))
	if err != nil {
		return errResult(err), nil
	}
	return textResult(renderResolution(args.Keyword, res)), nil
}

func (s *Server) handleBuscarCatalogo(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	res, err := s.resolver.SearchCatalog(ctx, args.Keyword)
	if err != nil {
		return errResult(err), nil
	}
	return textResult(renderResolution(args.Keyword, res)), nil
}

func (s *Server) handleSerieTemporal(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		IndicadorID    string `json:"indicador_id"`
		Historica      bool   `json:"historica"`
		AreaGeografica string `json:"area_geografica"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	res, err := s.resolver.Resolve(ctx, strings.TrimSpace(args.IndicadorID))
	if err != nil {
		return errResult(err), nil
	}
	scope, err := geo.ParseArea(args.AreaGeografica)
	if err != nil {
		return errResult(err), nil
	}
	ts, err := s.fetcher.Fetch(ctx, res.Ref, scope, args.Historica)
	if err != nil {
		return errResult(err), nil
	}
	return textResult(renderSeries(ts)), nil
}

func (s *Server) handleCompararEstados(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		IndicadorID string   `json:"indicador_id"`
		Estados     []string `json:"estados"`
		Historica   bool     `json:"historica"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	if len(args.Estados) == 0 {
		return errResult(upstream.Errorf(upstream.KindInvalidParameter, "se requiere al menos una entidad en estados")), nil
	}
	res, err := s.resolver.Resolve(ctx, strings.TrimSpace(args.IndicadorID))
	if err != nil {
		return errResult(err), nil
	}
	scopes := make([]geo.Scope, 0, len(args.Estados))
	for _, e := range args.Estados {
		scope, err := geo.FindState(e)
		if err != nil {
			return errResult(err), nil
		}
		scopes = append(scopes, scope)
	}
	comps := s.fetcher.Compare(ctx, res.Ref, scopes, args.Historica)
	return textResult(renderComparison(res.Ref, comps)), nil
}

func (s *Server) handleListarIndicadores(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	return textResult(renderIndicatorList()), nil
}

func (s *Server) handleMetadatos(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		IndicadorID string `json:"indicador_id"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	meta, err := s.fetcher.Metadata(ctx, strings.TrimSpace(args.IndicadorID))
	if err != nil {
		return errResult(err), nil
	}
	return textResult(renderMetadata(meta)), nil
}

func (s *Server) handleBuscarEstablecimientos(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Termino  string   `json:"termino"`
		Limite   int      `json:"limite"`
		Latitud  *float64 `json:"latitud"`
		Longitud *float64 `json:"longitud"`
		Radio    int      `json:"radio"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}

	var (
		page *denue.Page
		err  error
	)
	switch {
	case args.Latitud != nil && args.Longitud != nil:
		radius := args.Radio
		if radius == 0 {
			radius = defaultNearRadius
		}
		page, err = s.search.SearchByTermNear(ctx, args.Termino, *args.Latitud, *args.Longitud, radius, args.Limite)
	case args.Latitud != nil || args.Longitud != nil:
		err = upstream.Errorf(upstream.KindInvalidParameter, "latitud y longitud deben darse juntas")
	default:
		page, err = s.search.SearchByTerm(ctx, args.Termino, nil, args.Limite)
	}
	if err != nil {
		return errResult(err), nil
	}
	title := fmt.Sprintf("Establecimientos para %q", args.Termino)
	return textResult(renderEstablishments(title, page)), nil
}

func (s *Server) handleBuscarAreaAct(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Entidad   string `json:"entidad"`
		Municipio string `json:"municipio"`
		Nombre    string `json:"nombre"`
		Limite    int    `json:"limite"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	scope, err := geo.FindState(args.Entidad)
	if err != nil {
		return errResult(err), nil
	}
	if strings.TrimSpace(args.Municipio) != "" {
		scope, err = geo.MunicipalScope(scope.Code, args.Municipio)
		if err != nil {
			return errResult(err), nil
		}
	}
	page, err := s.search.SearchByArea(ctx, scope, args.Nombre, args.Limite)
	if err != nil {
		return errResult(err), nil
	}
	title := "Establecimientos en " + scope.Name()
	if strings.TrimSpace(args.Nombre) != "" {
		title = fmt.Sprintf("Establecimientos %q en %s", args.Nombre, scope.Name())
	}
	return textResult(renderEstablishments(title, page)), nil
}

func (s *Server) handleCuantificar(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		ActividadEconomica string `json:"actividad_economica"`
		AreaGeografica     string `json:"area_geografica"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	scope, err := geo.ParseArea(args.AreaGeografica)
	if err != nil {
		return errResult(err), nil
	}
	count, err := s.aggregator.CountBySector(ctx, strings.TrimSpace(args.ActividadEconomica), scope)
	if err != nil {
		return errResult(err), nil
	}
	return textResult(renderSectorCount(count)), nil
}

func (s *Server) handleCoordenadas(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Termino string `json:"termino"`
		Limite  int    `json:"limite"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	page, err := s.search.SearchByTerm(ctx, args.Termino, nil, args.Limite)
	if err != nil {
		return errResult(err), nil
	}
	title := fmt.Sprintf("Coordenadas de establecimientos para %q", args.Termino)
	return textResult(renderCoordinates(title, page)), nil
}

func (s *Server) handleFicha(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		ID string `json:"id_establecimiento"`
	}
	if err := decodeArgs(req, &args); err != nil {
		return errResult(err), nil
	}
	est, err := s.search.Ficha(ctx, args.ID)
	if err != nil {
		return errResult(err), nil
	}
	return textResult(renderFicha(est)), nil
}

func decodeArgs(req *mcpsdk.CallToolRequest, into any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, into); err != nil {
		return upstream.Errorf(upstream.KindInvalidParameter, "argumentos inválidos: %v", err)
	}
	return nil
}

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

// errResult reports a failure as tool output so the calling agent can
// read it and adjust, instead of surfacing a protocol error.
func errResult(err error) *mcpsdk.CallToolResult {
	log.Printf("[server] tool error: %v", err)
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: describeErr(err)}},
	}
}

func describeErr(err error) string {
	return upstream.Describe(err)
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object"}
	if len(props) > 0 {
		schema["properties"] = props
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}
