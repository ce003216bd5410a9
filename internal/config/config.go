// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all gateway configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults from defaultConfig()
//  2. Config File: Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: Override any mapped setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	addr := cfg.Server.Addr()
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Gateway  GatewayConfig  `koanf:"gateway"`
	Auth     AuthConfig     `koanf:"auth"`
	NATS     NATSConfig     `koanf:"nats"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 5001)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout for plain HTTP requests (default: 30s)
//   - SHUTDOWN_TIMEOUT: Graceful shutdown budget (default: 10s)
//   - ENVIRONMENT: development or production
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GatewayConfig holds websocket gateway settings.
//
// Environment Variables:
//   - WS_PATH: Upgrade path (default: /ws)
//   - WS_HANDSHAKE_TIMEOUT: Credential verification budget (default: 10s)
//   - WS_SEND_BUFFER: Per-connection outbound queue size (default: 256)
//   - WS_BROADCAST_BUFFER: Hub broadcast queue size (default: 256)
//   - WS_MAX_MESSAGE_SIZE: Largest inbound frame in bytes (default: 512KB)
//   - WS_CREDENTIAL_QUERY: Query parameter carrying the credential (default: token)
//   - WS_CREDENTIAL_COOKIE: Cookie carrying the credential (default: socket_token)
//   - WS_EVENT_RATE, WS_EVENT_BURST: Per-connection inbound event limit
//   - FRONTEND_ORIGIN / WS_ALLOWED_ORIGINS: Comma-separated allowed Origin values
type GatewayConfig struct {
	Path             string        `koanf:"path"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
	SendBuffer       int           `koanf:"send_buffer"`
	BroadcastBuffer  int           `koanf:"broadcast_buffer"`
	MaxMessageSize   int64         `koanf:"max_message_size"`
	CredentialQuery  string        `koanf:"credential_query"`
	CredentialCookie string        `koanf:"credential_cookie"`
	EventRate        float64       `koanf:"event_rate"`  // events per second
	EventBurst       int           `koanf:"event_burst"` // bucket size
	AllowedOrigins   []string      `koanf:"allowed_origins"`
}

// AuthConfig selects and configures the socket credential verifier.
//
// Mode is one of jwt, session, store, static or chain. Chain lists the
// strategies tried in order when Mode is chain.
//
// JWTSecret serves two purposes: it verifies the HTTP session JWT presented
// to the session-token endpoint, and it seeds the HKDF-derived key that signs
// socket tokens in jwt mode.
//
// StaticTokens entries have the form token|id|email|name and are meant for
// development only.
type AuthConfig struct {
	Mode             string        `koanf:"mode"`
	Chain            []string      `koanf:"chain"`
	JWTSecret        string        `koanf:"jwt_secret"`
	SocketTokenTTL   time.Duration `koanf:"socket_token_ttl"`
	SessionCookie    string        `koanf:"session_cookie"`
	SessionURL       string        `koanf:"session_url"`
	SessionTimeout   time.Duration `koanf:"session_timeout"`
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
	StorePath        string        `koanf:"store_path"`
	StoreInMemory    bool          `koanf:"store_in_memory"`
	StaticTokens     []string      `koanf:"static_tokens"`
}

// Strategies returns the verifier strategy names this configuration uses.
func (a AuthConfig) Strategies() []string {
	if a.Mode == "chain" {
		return a.Chain
	}
	return []string{a.Mode}
}

// Uses reports whether the named strategy is active.
func (a AuthConfig) Uses(strategy string) bool {
	for _, s := range a.Strategies() {
		if s == strategy {
			return true
		}
	}
	return false
}

// StaticToken is a parsed StaticTokens entry.
type StaticToken struct {
	Token string
	ID    string
	Email string
	Name  string
}

// ParseStaticToken splits a token|id|email|name entry.
func ParseStaticToken(entry string) (StaticToken, error) {
	parts := strings.Split(entry, "|")
	if len(parts) != 4 {
		return StaticToken{}, fmt.Errorf("static token entry must have 4 '|' separated fields, got %d", len(parts))
	}
	st := StaticToken{
		Token: strings.TrimSpace(parts[0]),
		ID:    strings.TrimSpace(parts[1]),
		Email: strings.TrimSpace(parts[2]),
		Name:  strings.TrimSpace(parts[3]),
	}
	if st.Token == "" {
		return StaticToken{}, fmt.Errorf("static token entry has an empty token")
	}
	if st.ID == "" && st.Email == "" {
		return StaticToken{}, fmt.Errorf("static token entry needs an id or an email")
	}
	return st, nil
}

// NATSConfig holds settings for the upload-notice bus.
//
// With EmbeddedServer true the gateway starts an in-process nats-server and
// connects to it; otherwise URL must point at an existing server. Notices are
// published on core NATS subjects, so every gateway instance receives each one.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	EmbeddedHost   string        `koanf:"embedded_host"`
	EmbeddedPort   int           `koanf:"embedded_port"`
	Subject        string        `koanf:"subject"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// SecurityConfig holds HTTP API protection settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// CollaboratorKey authenticates the upload-notice endpoint. Empty disables
	// the endpoint.
	CollaboratorKey string `koanf:"collaborator_key"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, config file and environment and
// validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
