package services

import (
	"errors"
	"strings"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/pkg/httpapi"
)

var (
	ErrScopeClosed   = errors.New("orgs: scope closed")
	ErrStaleResponse = errors.New("orgs: superseded by a newer load")
	ErrNoConfirmer   = errors.New("orgs: no confirmation gate configured")
	ErrNotSupported  = errors.New("orgs: operation not supported for this collection")
	ErrInvalidPage   = errors.New("orgs: page must be >= 1")
)

// NormalizePayload turns a decoded error body into a user-facing message.
//   - nil or "" -> fallback
//   - string -> verbatim
//   - object with a non-empty string "detail" -> detail; any other detail -> fallback
//   - array of strings -> joined with ", "
//   - anything else -> fallback
func NormalizePayload(payload any, fallback string) (msg string) {
	defer func() {
		if recover() != nil {
			msg = fallback
		}
	}()

	switch v := payload.(type) {
	case nil:
		return fallback
	case string:
		if v == "" {
			return fallback
		}
		return v
	case map[string]any:
		if detail, ok := v["detail"].(string); ok && detail != "" {
			return detail
		}
		return fallback
	case map[string]string:
		if detail := v["detail"]; detail != "" {
			return detail
		}
		return fallback
	case []string:
		if len(v) == 0 {
			return fallback
		}
		return strings.Join(v, ", ")
	case []any:
		if len(v) == 0 {
			return fallback
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fallback
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", ")
	default:
		return fallback
	}
}

// NormalizeError maps any failure to the message shown to the user. Raw
// transport errors are never surfaced.
func NormalizeError(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	payload, ok := httpapi.PayloadOf(err)
	if !ok {
		return fallback
	}
	return NormalizePayload(payload, fallback)
}
