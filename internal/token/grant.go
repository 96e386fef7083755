package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/livekit/protocol/auth"
)

// ErrUnknownPolicy is returned by ParsePolicy for unsupported values.
var ErrUnknownPolicy = errors.New("unknown grant policy")

// Policy selects how grants are derived from a participant's role.
type Policy string

const (
	// PolicyRole lets hosts publish media; everyone else only subscribes and sends data.
	PolicyRole Policy = "role"
	// PolicyBasic grants room join and own-metadata updates, ignoring roles.
	PolicyBasic Policy = "basic"
)

// ParsePolicy maps a config value to a Policy. Empty means PolicyRole.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyRole, nil
	case PolicyRole, PolicyBasic:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// BuildGrant returns the video grant for joining room with the given role.
func BuildGrant(room string, role Role, policy Policy) *auth.VideoGrant {
	grant := &auth.VideoGrant{
		RoomJoin:             true,
		Room:                 room,
		CanUpdateOwnMetadata: boolPtr(true),
	}
	if policy == PolicyBasic {
		return grant
	}

	// LiveKit treats an unset CanPublish as allowed, so listeners need an explicit false.
	grant.CanSubscribe = boolPtr(true)
	grant.CanPublishData = boolPtr(true)
	grant.CanPublish = boolPtr(role == RoleHost)
	return grant
}

func boolPtr(b bool) *bool {
	return &b
}
