package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned for every failed call against the remote API. Payload holds the
// decoded JSON body (string, map[string]any, []any, ...) or the raw text when the body
// is not JSON; it is nil when the server sent nothing or the request never got a reply.
type Error struct {
	Status  int
	Payload any
	Body    []byte
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Status == 0:
		return fmt.Sprintf("orgs api: %v", e.Cause)
	case len(e.Body) > 0:
		return fmt.Sprintf("orgs api: status=%d body=%s", e.Status, strings.TrimSpace(string(e.Body)))
	default:
		return fmt.Sprintf("orgs api: status=%d", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Temporary reports whether repeating the same idempotent request may succeed.
func (e *Error) Temporary() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// DecodeError builds an *Error from a non-2xx response.
func DecodeError(status int, body []byte) *Error {
	e := &Error{Status: status, Body: body}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return e
	}
	var payload any
	if err := json.Unmarshal(trimmed, &payload); err == nil {
		e.Payload = payload
		return e
	}
	e.Payload = string(trimmed)
	return e
}

// TransportError wraps a failure that happened before any response was read.
func TransportError(cause error) *Error {
	return &Error{Cause: cause}
}

// PayloadOf extracts the structured payload carried by err, if any.
func PayloadOf(err error) (any, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Payload == nil {
		return nil, false
	}
	return apiErr.Payload, true
}

// StatusOf returns the HTTP status carried by err or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	if payload == nil {
		w.WriteHeader(status)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteDetail writes the `{"detail": "..."}` body the orgs API uses for rejected requests.
func WriteDetail(w http.ResponseWriter, status int, detail string) error {
	return WriteJSON(w, status, map[string]string{"detail": detail})
}
