package domain

import (
	"strconv"
	"strings"
)

type ProfileSummary struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	FullName  string  `json:"full_name"`
	RoleType  *string `json:"role_type"`
}

// ParseProfileID normalizes the optional profile reference of a Territorial.
// Blank input means "no profile"; anything else must be an integer id.
func ParseProfileID(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &ValidationError{Message: MsgProfileNotNumeric}
	}
	return &id, nil
}
