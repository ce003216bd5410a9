// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/photobeam/internal/logging"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateGateway(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction returns true if ENVIRONMENT is production or prod.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// validateGateway validates websocket gateway settings
func (c *Config) validateGateway() error {
	g := c.Gateway
	switch {
	case !strings.HasPrefix(g.Path, "/"):
		return fmt.Errorf("WS_PATH must start with '/'")
	case g.HandshakeTimeout <= 0:
		return fmt.Errorf("WS_HANDSHAKE_TIMEOUT must be positive")
	case g.SendBuffer < 1:
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	case g.BroadcastBuffer < 1:
		return fmt.Errorf("WS_BROADCAST_BUFFER must be at least 1")
	case g.MaxMessageSize < 1:
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be at least 1")
	case g.CredentialQuery == "" && g.CredentialCookie == "":
		return fmt.Errorf("at least one of WS_CREDENTIAL_QUERY or WS_CREDENTIAL_COOKIE must be set")
	case g.EventRate <= 0:
		return fmt.Errorf("WS_EVENT_RATE must be positive")
	case g.EventBurst < 1:
		return fmt.Errorf("WS_EVENT_BURST must be at least 1")
	case len(g.AllowedOrigins) == 0:
		return fmt.Errorf("WS_ALLOWED_ORIGINS must list at least one origin (use * to allow any)")
	}

	if c.IsProduction() && hasWildcard(g.AllowedOrigins) {
		return fmt.Errorf("WS_ALLOWED_ORIGINS=* is not allowed when ENVIRONMENT=production")
	}
	return nil
}

// validStrategies are the verifier strategies a chain may contain
var validStrategies = map[string]bool{
	"jwt":     true,
	"session": true,
	"store":   true,
	"static":  true,
}

// validateAuth validates the verifier configuration for the selected mode
func (c *Config) validateAuth() error {
	a := c.Auth
	if a.Mode != "chain" && !validStrategies[a.Mode] {
		return fmt.Errorf("AUTH_MODE must be one of: jwt, session, store, static, chain")
	}

	if a.Mode == "chain" {
		if len(a.Chain) == 0 {
			return fmt.Errorf("AUTH_CHAIN must list at least one strategy when AUTH_MODE=chain")
		}
		seen := make(map[string]bool, len(a.Chain))
		for _, s := range a.Chain {
			if !validStrategies[s] {
				return fmt.Errorf("AUTH_CHAIN entry %q must be one of: jwt, session, store, static", s)
			}
			if seen[s] {
				return fmt.Errorf("AUTH_CHAIN lists %q more than once", s)
			}
			seen[s] = true
		}
	}

	if a.SocketTokenTTL <= 0 {
		return fmt.Errorf("SOCKET_TOKEN_TTL must be positive")
	}

	validators := map[string]func() error{
		"jwt":     c.validateJWTSecret,
		"session": c.validateSessionLookup,
		"store":   c.validateTokenStore,
		"static":  c.validateStaticTokens,
	}
	for _, s := range a.Strategies() {
		if err := validators[s](); err != nil {
			return err
		}
	}

	// The session-token endpoint verifies HTTP session JWTs with the same secret.
	if a.JWTSecret != "" && len(a.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	return nil
}

const minJWTSecretLength = 32

func (c *Config) validateJWTSecret() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required for the jwt strategy")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	return nil
}

func (c *Config) validateSessionLookup() error {
	u, err := url.Parse(c.Auth.SessionURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SESSION_URL must be an absolute http(s) URL for the session strategy")
	}
	if c.Auth.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.Auth.BreakerThreshold < 1 {
		return fmt.Errorf("SESSION_BREAKER_TRIPS must be at least 1")
	}
	if c.Auth.BreakerTimeout < time.Second {
		return fmt.Errorf("SESSION_BREAKER_RESET must be at least 1s")
	}
	return nil
}

func (c *Config) validateTokenStore() error {
	if !c.Auth.StoreInMemory && c.Auth.StorePath == "" {
		return fmt.Errorf("TOKEN_STORE_PATH is required for the store strategy unless TOKEN_STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateStaticTokens() error {
	if len(c.Auth.StaticTokens) == 0 {
		return fmt.Errorf("STATIC_SOCKET_TOKENS must list at least one entry for the static strategy")
	}
	if c.IsProduction() {
		return fmt.Errorf("the static strategy is not allowed when ENVIRONMENT=production")
	}
	for i, entry := range c.Auth.StaticTokens {
		if _, err := ParseStaticToken(entry); err != nil {
			return fmt.Errorf("STATIC_SOCKET_TOKENS entry %d: %w", i, err)
		}
	}
	return nil
}

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	n := c.NATS
	if !n.Enabled {
		return nil
	}
	if !n.EmbeddedServer && n.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true and NATS_EMBEDDED=false")
	}
	if n.EmbeddedServer && (n.EmbeddedPort < -1 || n.EmbeddedPort > 65535) {
		return fmt.Errorf("NATS_EMBEDDED_PORT must be between -1 (random) and 65535")
	}
	if n.Subject == "" || strings.ContainsAny(n.Subject, " \t*>") {
		return fmt.Errorf("NATS_SUBJECT must be a literal subject without wildcards")
	}
	if n.ReconnectWait <= 0 {
		return fmt.Errorf("NATS_RECONNECT_WAIT must be positive")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateSecurity validates CORS and rate limiting
func (c *Config) validateSecurity() error {
	if c.IsProduction() && hasWildcard(c.Security.CORSOrigins) {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed when ENVIRONMENT=production; " +
			"set specific origins, e.g. CORS_ORIGINS=https://photos.example.com")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// ShouldWarnAboutCORS returns true if CORS or origin configuration allows any
// origin and should be logged at startup.
func (c *Config) ShouldWarnAboutCORS() bool {
	return hasWildcard(c.Security.CORSOrigins) || hasWildcard(c.Gateway.AllowedOrigins)
}

func hasWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
