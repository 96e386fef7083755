package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"google.golang.org/protobuf/encoding/protojson"
)

// DefaultTTL is how long issued tokens stay valid unless configured otherwise.
const DefaultTTL = 10 * time.Minute

// Errors returned by Issue.
var (
	ErrMissingCredentials = errors.New("missing livekit credentials")
	ErrInvalidRoomConfig  = errors.New("invalid room config")
	ErrSign               = errors.New("sign token")
)

// Credentials are the LiveKit API key pair plus the server URL handed to clients.
type Credentials struct {
	APIKey    string
	APISecret string
	ServerURL string
}

// Validate reports ErrMissingCredentials naming every empty setting.
func (c Credentials) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api key")
	}
	if c.APISecret == "" {
		missing = append(missing, "api secret")
	}
	if c.ServerURL == "" {
		missing = append(missing, "server url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Result is an issued token and what it grants.
type Result struct {
	Token     string
	ServerURL string
	Room      string
	Identity  string
	Role      Role
	ExpiresAt time.Time
}

// Issuer signs LiveKit access tokens.
type Issuer struct {
	ttl    time.Duration
	policy Policy
	now    func() time.Time
}

// NewIssuer creates an Issuer. A non-positive ttl falls back to DefaultTTL.
func NewIssuer(ttl time.Duration, policy Policy) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if policy == "" {
		policy = PolicyRole
	}
	return &Issuer{
		ttl:    ttl,
		policy: policy,
		now:    time.Now,
	}
}

// TTL returns the validity window of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Policy returns the grant policy in effect.
func (i *Issuer) Policy() Policy { return i.policy }

// Issue builds and signs a token for req. Signing is attempted once.
func (i *Issuer) Issue(ctx context.Context, creds Credentials, req Request) (*Result, error) {
	// The HTTP handler validates up front; callers such as the mint command rely on this check.
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	role := EffectiveRole(req.Metadata)

	at := auth.NewAccessToken(creds.APIKey, creds.APISecret)
	at.SetVideoGrant(BuildGrant(req.Room, role, i.policy)).
		SetIdentity(req.Identity).
		SetValidFor(i.ttl)

	if req.Name != "" {
		at.SetName(req.Name)
	}
	if req.Metadata != "" {
		at.SetMetadata(req.Metadata)
	}
	if len(req.Attributes) > 0 {
		at.SetAttributes(req.Attributes)
	}
	if len(req.RoomConfig) > 0 {
		roomConfig := &livekit.RoomConfiguration{}
		if err := protojson.Unmarshal(req.RoomConfig, roomConfig); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRoomConfig, err)
		}
		at.SetRoomConfig(roomConfig)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issuedAt := i.now()
	signed, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSign, err)
	}

	return &Result{
		Token:     signed,
		ServerURL: creds.ServerURL,
		Room:      req.Room,
		Identity:  req.Identity,
		Role:      role,
		ExpiresAt: issuedAt.Add(i.ttl),
	}, nil
}
