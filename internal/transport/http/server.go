package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomtoken/internal/config"
	"github.com/vovakirdan/roomtoken/internal/metrics"
	"github.com/vovakirdan/roomtoken/internal/token"
)

// NewServer builds the HTTP server exposing the token endpoint, health and metrics.
func NewServer(issuer *token.Issuer, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(issuer, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler returns the routed handler with CORS applied.
func NewHandler(issuer *token.Issuer, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		logger.Error().Err(err).Msg("failed to register metrics")
	}

	router := gin.New()
	// gin trusts every proxy by default, which lets clients pick their own rate limit key.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("recovered from panic")
			c.AbortWithStatusJSON(stdhttp.StatusInternalServerError, ErrorResponse{
				Error:   msgTokenFailed,
				Message: fmt.Sprint(recovered),
			})
		}),
		LoggerMiddleware(logger),
		MetricsMiddleware(),
	)

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	tokens := NewTokenHandlers(issuer, credentialsFrom(cfg.LiveKit), logger)
	limited := router.Group("", RateLimitMiddleware(newIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst), logger))
	limited.POST("/api/token", tokens.IssueToken)
	limited.GET("/api/token", tokens.IssueToken)
	limited.POST("/token", tokens.IssueToken)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(router)
}

func credentialsFrom(lk config.LiveKitConfig) token.Credentials {
	return token.Credentials{
		APIKey:    lk.APIKey,
		APISecret: lk.APISecret,
		ServerURL: lk.URL,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
