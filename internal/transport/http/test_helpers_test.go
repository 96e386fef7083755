package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomtoken/internal/config"
	"github.com/vovakirdan/roomtoken/internal/token"
)

const testSecret = "test-secret-test-secret-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.RateLimit.RPS = 0
	cfg.LiveKit = config.LiveKitConfig{
		APIKey:    "test-key",
		APISecret: testSecret,
		URL:       "wss://livekit.example.com",
	}
	return cfg
}

func newTestHandler(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	policy, err := token.ParsePolicy(cfg.Token.Policy)
	if err != nil {
		t.Fatalf("parse policy: %v", err)
	}
	return NewHandler(token.NewIssuer(cfg.Token.TTL, policy), &cfg, &disabledLogger)
}

func doRequest(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeBody[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
	return out
}
