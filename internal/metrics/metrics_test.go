package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should be a no-op, got %v", err)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	TokensIssued.WithLabelValues("host").Inc()
	TokenFailures.WithLabelValues(ReasonConfig).Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`roomtoken_tokens_issued_total{role="host"}`,
		`roomtoken_token_failures_total{reason="config"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}
