package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomtoken/internal/app"
	"github.com/vovakirdan/roomtoken/internal/config"
	logpkg "github.com/vovakirdan/roomtoken/internal/log"
	"github.com/vovakirdan/roomtoken/internal/token"
)

type rootOptions struct {
	configPath string
	overrides  config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "roomtoken",
		Short:        "Issue LiveKit room access tokens",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(opts), newMintCmd(opts), newInspectCmd(opts))
	return root
}

func (o *rootOptions) load() (config.Config, error) {
	bootstrap := logpkg.New(o.overrides.LogLevel, "console")
	cfg, path, err := config.Load(bootstrap, o.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.UpdateFrom(o.overrides)
	return cfg, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the token HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := logpkg.New(cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting roomtoken server")
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.DurationVar(&opts.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&opts.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.StringVar(&opts.overrides.LogFormat, "log-format", "", "log format (console, json)")
	return cmd
}

func newMintCmd(opts *rootOptions) *cobra.Command {
	var (
		raw      token.RawRequest
		metadata string
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue a single access token and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			issuer, err := app.NewIssuer(&cfg)
			if err != nil {
				return err
			}

			if metadata != "" {
				quoted, err := json.Marshal(metadata)
				if err != nil {
					return fmt.Errorf("encode metadata: %w", err)
				}
				raw.ParticipantMetadata = quoted
			}
			creds := token.Credentials{
				APIKey:    cfg.LiveKit.APIKey,
				APISecret: cfg.LiveKit.APISecret,
				ServerURL: cfg.LiveKit.URL,
			}

			res, err := issuer.Issue(cmd.Context(), creds, token.Normalize(raw))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"server_url":           res.ServerURL,
				"participant_token":    res.Token,
				"room_name":            res.Room,
				"participant_identity": res.Identity,
				"role":                 res.Role,
				"expires_at":           res.ExpiresAt.Format(time.RFC3339),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&raw.RoomName, "room", "", "room name (generated when empty)")
	flags.StringVar(&raw.ParticipantIdentity, "identity", "", "participant identity (generated when empty)")
	flags.StringVar(&raw.ParticipantName, "name", "", "participant display name")
	flags.StringVar(&metadata, "metadata", "", `participant metadata, e.g. '{"role":"host"}'`)
	flags.StringToStringVar(&raw.ParticipantAttributes, "attribute", nil, "participant attribute key=value (repeatable)")
	flags.DurationVar(&opts.overrides.Token.TTL, "ttl", 0, "token lifetime")
	flags.StringVar(&opts.overrides.Token.Policy, "policy", "", "grant policy (role, basic)")
	return cmd
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect TOKEN",
		Short: "Verify a token with the configured API secret and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.LiveKit.APISecret == "" {
				return fmt.Errorf("inspect: %w: api secret", token.ErrMissingCredentials)
			}

			claims, err := token.Inspect(args[0], cfg.LiveKit.APISecret)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}
}
