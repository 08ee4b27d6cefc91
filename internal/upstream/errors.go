package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without parsing
// messages. The same taxonomy covers both upstream APIs.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidParameter  Kind = "invalid_parameter"
	KindUnsupportedScope  Kind = "unsupported_scope"
	KindMissingCredential Kind = "missing_credential"
	KindAuthFailure       Kind = "auth_failure"
	KindRateLimited       Kind = "rate_limited"
	KindTimeout           Kind = "upstream_timeout"
	KindUnavailable       Kind = "upstream_unavailable"
	KindMalformedResponse Kind = "malformed_response"
)

// Error is the unified failure shape surfaced by every client in this
// module. Status is the upstream HTTP status when one was received,
// zero otherwise.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (http %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or empty when err carries none.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuthFailure
	case status == 404:
		return KindNotFound
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindUnavailable
	default:
		return KindUnavailable
	}
}

// Describe renders a failure for the invoking agent: the kind plus the
// human-readable message, in Spanish where the tool surface is.
func Describe(err error) string {
	var ue *Error
	if errors.As(err, &ue) {
		switch ue.Kind {
		case KindNotFound:
			return "No encontrado: " + ue.Message
		case KindInvalidParameter:
			return "Parámetro inválido: " + ue.Message
		case KindUnsupportedScope:
			return "Cobertura geográfica no soportada: " + ue.Message
		case KindMissingCredential:
			return "Falta credencial: " + ue.Message
		case KindAuthFailure:
			return "Autenticación rechazada por el INEGI: " + ue.Message
		case KindRateLimited:
			return "Límite de peticiones alcanzado: " + ue.Message
		case KindTimeout:
			return "Tiempo de espera agotado: " + ue.Message
		case KindUnavailable:
			return "API del INEGI no disponible: " + ue.Message
		case KindMalformedResponse:
			return "Respuesta ilegible del INEGI: " + ue.Message
		}
	}
	return "Error: " + err.Error()
}
