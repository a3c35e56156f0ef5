package domain

import (
	"net/url"
	"strings"
)

// Entity is the minimum every server-owned record exposes to the collection layer.
type Entity interface {
	EntityID() int
	DisplayName() string
}

// Toggleable entities carry the active/inactive estado flag.
type Toggleable interface {
	Entity
	IsActive() bool
}

// Filter turns a set of list filters into query parameters. Blank values are never emitted.
type Filter interface {
	Values() url.Values
}

// Form is a set of user supplied values that can be turned into a request body.
// Payload trims strings and returns a *ValidationError when required data is missing.
type Form interface {
	Payload() (any, error)
}

// Page is one page of a listing, normalized from either a plain array or a
// paginated envelope.
type Page[T any] struct {
	Items []T
	Count int
}

func setIfPresent(v url.Values, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	v.Set(key, value)
}
