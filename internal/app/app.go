package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomtoken/internal/config"
	"github.com/vovakirdan/roomtoken/internal/token"
	transporthttp "github.com/vovakirdan/roomtoken/internal/transport/http"
)

// App wires together the token issuer and the HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	issuer, err := NewIssuer(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.LiveKit.APIKey == "" || cfg.LiveKit.APISecret == "" || cfg.LiveKit.URL == "" {
		// Token requests fail with a configuration error until these are set.
		logger.Warn().Msg("livekit credentials incomplete: set LIVEKIT_API_KEY, LIVEKIT_API_SECRET and LIVEKIT_URL")
	}

	logger.Info().
		Dur("token_ttl", issuer.TTL()).
		Str("grant_policy", string(issuer.Policy())).
		Msg("token issuer initialized")

	return &App{
		server:          transporthttp.NewServer(issuer, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}, nil
}

// NewIssuer builds the token issuer from configuration.
func NewIssuer(cfg *config.Config) (*token.Issuer, error) {
	policy, err := token.ParsePolicy(cfg.Token.Policy)
	if err != nil {
		return nil, fmt.Errorf("token policy: %w", err)
	}
	return token.NewIssuer(cfg.Token.TTL, policy), nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
