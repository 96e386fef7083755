package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomtoken/internal/metrics"
	"github.com/vovakirdan/roomtoken/internal/token"
)

const (
	msgMisconfigured = "Server misconfigured: missing LiveKit credentials"
	msgTokenFailed   = "Failed to generate token"
)

// TokenHandlers provides the access token endpoint.
type TokenHandlers struct {
	issuer *token.Issuer
	creds  token.Credentials
	log    *zerolog.Logger
}

// NewTokenHandlers creates a new token handlers instance.
func NewTokenHandlers(issuer *token.Issuer, creds token.Credentials, logger *zerolog.Logger) *TokenHandlers {
	return &TokenHandlers{
		issuer: issuer,
		creds:  creds,
		log:    logger,
	}
}

// TokenResponse represents a successful token response body.
// Token duplicates ParticipantToken for older clients.
type TokenResponse struct {
	ServerURL           string `json:"server_url"`
	ParticipantToken    string `json:"participant_token"`
	Token               string `json:"token"`
	RoomName            string `json:"room_name"`
	ParticipantIdentity string `json:"participant_identity"`
	ExpiresAt           int64  `json:"expires_at"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// IssueToken mints a room access token.
// POST /api/token, GET /api/token, POST /token
func (h *TokenHandlers) IssueToken(c *gin.Context) {
	// Checked before the body is read so a misconfigured service answers the same way for any input.
	if err := h.creds.Validate(); err != nil {
		h.log.Error().Err(err).Msg("livekit credentials not configured")
		metrics.TokenFailures.WithLabelValues(metrics.ReasonConfig).Inc()
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgMisconfigured})
		return
	}

	raw, err := bindTokenRequest(c)
	if err != nil {
		h.log.Debug().Err(err).Msg("invalid token request")
		h.fail(c, metrics.ReasonRequest, err)
		return
	}

	req := token.Normalize(raw)
	res, err := h.issuer.Issue(c.Request.Context(), h.creds, req)
	if err != nil {
		reason := metrics.ReasonSign
		if errors.Is(err, token.ErrInvalidRoomConfig) {
			reason = metrics.ReasonRequest
		}
		h.log.Error().Err(err).Str("room", req.Room).Str("identity", req.Identity).Msg("failed to issue token")
		h.fail(c, reason, err)
		return
	}

	metrics.TokensIssued.WithLabelValues(string(res.Role)).Inc()
	h.log.Info().Str("room", res.Room).Str("identity", res.Identity).Str("role", string(res.Role)).Msg("token issued")

	c.JSON(http.StatusOK, TokenResponse{
		ServerURL:           res.ServerURL,
		ParticipantToken:    res.Token,
		Token:               res.Token,
		RoomName:            res.Room,
		ParticipantIdentity: res.Identity,
		ExpiresAt:           res.ExpiresAt.Unix(),
	})
}

func (h *TokenHandlers) fail(c *gin.Context, reason string, err error) {
	metrics.TokenFailures.WithLabelValues(reason).Inc()
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgTokenFailed, Message: err.Error()})
}

// bindTokenRequest reads the request from the JSON body, or from query
// parameters for GET. An empty body is an empty request.
func bindTokenRequest(c *gin.Context) (token.RawRequest, error) {
	var raw token.RawRequest

	if c.Request.Method == http.MethodGet {
		return rawFromQuery(c)
	}

	body, err := c.GetRawData()
	if err != nil {
		return raw, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return raw, nil
	}
	if err := binding.JSON.BindBody(body, &raw); err != nil {
		return raw, fmt.Errorf("decode body: %w", err)
	}
	return raw, nil
}

func rawFromQuery(c *gin.Context) (token.RawRequest, error) {
	raw := token.RawRequest{
		RoomName:            c.Query("room_name"),
		Room:                c.Query("room"),
		ParticipantIdentity: c.Query("participant_identity"),
		Identity:            c.Query("identity"),
		ParticipantName:     c.Query("participant_name"),
		Name:                c.Query("name"),
	}

	for field, dst := range map[string]*json.RawMessage{
		"participant_metadata": &raw.ParticipantMetadata,
		"metadata":             &raw.Metadata,
	} {
		if v, ok := c.GetQuery(field); ok && v != "" {
			quoted, err := json.Marshal(v)
			if err != nil {
				return raw, fmt.Errorf("encode %s: %w", field, err)
			}
			*dst = quoted
		}
	}
	return raw, nil
}
