package token

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// RawRequest is the token request as clients send it. Several historical field
// spellings are accepted; Normalize resolves them.
type RawRequest struct {
	RoomName string `json:"room_name"`
	Room     string `json:"room"`

	ParticipantIdentity string `json:"participant_identity"`
	Identity            string `json:"identity"`

	ParticipantName string `json:"participant_name"`
	Name            string `json:"name"`

	ParticipantMetadata json.RawMessage `json:"participant_metadata"`
	Metadata            json.RawMessage `json:"metadata"`

	ParticipantAttributes map[string]string `json:"participant_attributes"`
	Attributes            map[string]string `json:"attributes"`

	RoomConfig       json.RawMessage `json:"room_config"`
	LegacyRoomConfig json.RawMessage `json:"roomConfig"`
}

// Request is a normalized token request. Room and Identity are never empty.
type Request struct {
	Room       string
	Identity   string
	Name       string
	Metadata   string
	Attributes map[string]string
	RoomConfig json.RawMessage
}

// Normalize resolves field aliases (canonical name first, then legacy name) and
// fills in generated room and identity values when neither is present.
func Normalize(raw RawRequest) Request {
	return Request{
		Room:       firstNonEmpty(raw.RoomName, raw.Room, "room-"+uuid.NewString()),
		Identity:   firstNonEmpty(raw.ParticipantIdentity, raw.Identity, "user-"+uuid.NewString()),
		Name:       firstNonEmpty(raw.ParticipantName, raw.Name),
		Metadata:   firstNonEmpty(metadataString(raw.ParticipantMetadata), metadataString(raw.Metadata)),
		Attributes: firstNonEmptyMap(raw.ParticipantAttributes, raw.Attributes),
		RoomConfig: firstNonEmptyJSON(raw.RoomConfig, raw.LegacyRoomConfig),
	}
}

// metadataString turns a metadata value into the opaque string carried by the token.
// A JSON string is unquoted, anything else keeps its compact JSON text.
func metadataString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if isNullJSON(raw) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyMap(values ...map[string]string) map[string]string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func firstNonEmptyJSON(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if !isNullJSON(bytes.TrimSpace(v)) {
			return v
		}
	}
	return nil
}

func isNullJSON(raw []byte) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
