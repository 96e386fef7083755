package token

import "encoding/json"

// Role is the participant role carried in metadata.
type Role string

const (
	RoleHost     Role = "host"
	RoleListener Role = "listener"
)

// RoleFromMetadata extracts the "role" field from JSON metadata. Unparseable
// metadata or an unknown role reports false; it never fails the request.
func RoleFromMetadata(metadata string) (Role, bool) {
	if metadata == "" {
		return "", false
	}

	var payload struct {
		Role any `json:"role"`
	}
	if err := json.Unmarshal([]byte(metadata), &payload); err != nil {
		return "", false
	}

	s, ok := payload.Role.(string)
	if !ok {
		return "", false
	}
	switch r := Role(s); r {
	case RoleHost, RoleListener:
		return r, true
	default:
		return "", false
	}
}

// EffectiveRole resolves the role from metadata, defaulting to listener.
func EffectiveRole(metadata string) Role {
	if r, ok := RoleFromMetadata(metadata); ok {
		return r
	}
	return RoleListener
}
