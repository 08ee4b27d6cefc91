// Package geo models the geographic granularity used by both INEGI
// APIs: national, state (entidad federativa) and municipal scopes,
// plus the area-code formats each API expects.
package geo

import (
	"fmt"
	"strings"

	"github.com/datalabmx/inegimcp/internal/upstream"
)

type Level string

const (
	National  Level = "national"
	State     Level = "state"
	Municipal Level = "municipal"
)

// Scope is a geographic area at one of the three levels. Code is
// empty for national, the two-digit state code for state level, and
// the five-digit state+municipality code for municipal level.
type Scope struct {
	Level Level
	Code  string
}

var Nacional = Scope{Level: National}

// StateNames maps two-digit entidad codes to their names, as published
// by the DENUE.
var StateNames = map[string]string{
	"01": "Aguascalientes",
	"02": "Baja California",
	"03": "Baja California Sur",
	"04": "Campeche",
	"05": "Coahuila",
	"06": "Colima",
	"07": "Chiapas",
	"08": "Chihuahua",
	"09": "Ciudad de México",
	"10": "Durango",
	"11": "Guanajuato",
	"12": "Guerrero",
	"13": "Hidalgo",
	"14": "Jalisco",
	"15": "México",
	"16": "Michoacán",
	"17": "Morelos",
	"18": "Nayarit",
	"19": "Nuevo León",
	"20": "Oaxaca",
	"21": "Puebla",
	"22": "Querétaro",
	"23": "Quintana Roo",
	"24": "San Luis Potosí",
	"25": "Sinaloa",
	"26": "Sonora",
	"27": "Tabasco",
	"28": "Tamaulipas",
	"29": "Tlaxcala",
	"30": "Veracruz",
	"31": "Yucatán",
	"32": "Zacatecas",
}

// StateScope builds a state-level scope from a one or two digit code.
func StateScope(code string) (Scope, error) {
	code = zeroPad(strings.TrimSpace(code), 2)
	if _, ok := StateNames[code]; !ok {
		return Scope{}, upstream.Errorf(upstream.KindInvalidParameter, "código de entidad desconocido: %q", code)
	}
	return Scope{Level: State, Code: code}, nil
}

// FindState resolves a state from either its two-digit code or its
// name. Name matching ignores case and accents, so "yucatan" and
// "Yucatán" both land on "31".
func FindState(input string) (Scope, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Scope{}, upstream.Errorf(upstream.KindInvalidParameter, "se requiere una entidad federativa")
	}
	if allDigits(input) && len(input) <= 2 {
		return StateScope(input)
	}
	want := foldState(input)
	for code, name := range StateNames {
		if foldState(name) == want {
			return Scope{Level: State, Code: code}, nil
		}
	}
	return Scope{}, upstream.Errorf(upstream.KindInvalidParameter, "entidad federativa desconocida: %q", input)
}

var stateFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

func foldState(s string) string {
	return stateFolder.Replace(strings.ToLower(s))
}

// MunicipalScope builds a municipal scope from a state code plus a
// three-digit municipality code, or from a single five-digit code.
func MunicipalScope(state, municipality string) (Scope, error) {
	st, err := StateScope(state)
	if err != nil {
		return Scope{}, err
	}
	municipality = zeroPad(strings.TrimSpace(municipality), 3)
	if len(municipality) != 3 || !allDigits(municipality) {
		return Scope{}, upstream.Errorf(upstream.KindInvalidParameter, "código de municipio inválido: %q", municipality)
	}
	return Scope{Level: Municipal, Code: st.Code + municipality}, nil
}

// ParseArea interprets a bare area code the way the DENUE does:
// "0" or empty means national, two digits a state, five digits a
// municipality.
func ParseArea(code string) (Scope, error) {
	code = strings.TrimSpace(code)
	switch {
	case code == "" || code == "0" || code == "00":
		return Nacional, nil
	case len(code) <= 2:
		return StateScope(code)
	case len(code) == 5 && allDigits(code):
		return MunicipalScope(code[:2], code[2:])
	default:
		return Scope{}, upstream.Errorf(upstream.KindInvalidParameter, "área geográfica inválida: %q", code)
	}
}

// BiseArea renders the scope as the indicator API's geographic path
// segment: "00" national, "SS000" for a state, "SSMMM" for a
// municipality.
func (s Scope) BiseArea() string {
	switch s.Level {
	case State:
		return s.Code + "000"
	case Municipal:
		return s.Code
	default:
		return "00"
	}
}

// DenueArea renders the scope as the registry API's area key: "0" for
// the whole country, the state or municipality code otherwise.
func (s Scope) DenueArea() string {
	if s.Level == National || s.Code == "" {
		return "0"
	}
	return s.Code
}

// StateCode returns the enclosing state code, empty for national.
func (s Scope) StateCode() string {
	switch s.Level {
	case State:
		return s.Code
	case Municipal:
		return s.Code[:2]
	default:
		return ""
	}
}

// Name returns a human label for the scope; callers must never surface
// a bare code without it.
func (s Scope) Name() string {
	switch s.Level {
	case National:
		return "Nacional"
	case State:
		if name, ok := StateNames[s.Code]; ok {
			return name
		}
		return "Entidad " + s.Code
	case Municipal:
		state := "Entidad " + s.StateCode()
		if name, ok := StateNames[s.StateCode()]; ok {
			state = name
		}
		return fmt.Sprintf("Municipio %s (%s)", s.Code[2:], state)
	}
	return s.Code
}

func (s Scope) String() string {
	if s.Level == National {
		return "nacional"
	}
	return fmt.Sprintf("%s %s", s.Level, s.Code)
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
