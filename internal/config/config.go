package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is honoured. Empty trusts none.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`

	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Token     TokenConfig     `mapstructure:"token" yaml:"token"`

	// LiveKit credentials are never written to the generated config file.
	LiveKit LiveKitConfig `mapstructure:"livekit" yaml:"-"`
}

// CORSConfig controls which browser origins may call the token endpoint.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// RateLimitConfig is a per client IP token bucket. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

// TokenConfig controls issued access tokens.
type TokenConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// Policy is "role" (hosts publish media, listeners don't) or "basic" (join + metadata only).
	Policy string `mapstructure:"policy" yaml:"policy"`
}

// LiveKitConfig holds the API credentials and the URL handed back to clients.
type LiveKitConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	URL       string `mapstructure:"url"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		TrustedProxies:    []string{},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
		Token: TokenConfig{
			TTL:    10 * time.Minute,
			Policy: "role",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if len(other.TrustedProxies) > 0 {
		c.TrustedProxies = other.TrustedProxies
	}
	if len(other.CORS.AllowedOrigins) > 0 {
		c.CORS.AllowedOrigins = other.CORS.AllowedOrigins
	}
	if other.RateLimit.RPS != 0 {
		c.RateLimit.RPS = other.RateLimit.RPS
	}
	if other.RateLimit.Burst != 0 {
		c.RateLimit.Burst = other.RateLimit.Burst
	}
	if other.Token.TTL != 0 {
		c.Token.TTL = other.Token.TTL
	}
	if other.Token.Policy != "" {
		c.Token.Policy = other.Token.Policy
	}
	if other.LiveKit.APIKey != "" {
		c.LiveKit.APIKey = other.LiveKit.APIKey
	}
	if other.LiveKit.APISecret != "" {
		c.LiveKit.APISecret = other.LiveKit.APISecret
	}
	if other.LiveKit.URL != "" {
		c.LiveKit.URL = other.LiveKit.URL
	}
}
