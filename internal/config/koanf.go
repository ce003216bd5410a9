// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/photobeam/config.yaml",
	"/etc/photobeam/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5001,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Gateway: GatewayConfig{
			Path:             "/ws",
			HandshakeTimeout: 10 * time.Second,
			SendBuffer:       256,
			BroadcastBuffer:  256,
			MaxMessageSize:   512 * 1024,
			CredentialQuery:  "token",
			CredentialCookie: "socket_token",
			EventRate:        20,
			EventBurst:       40,
			AllowedOrigins:   []string{"http://localhost:3000"},
		},
		Auth: AuthConfig{
			Mode:             "jwt",
			Chain:            []string{"jwt", "session"},
			JWTSecret:        "",
			SocketTokenTTL:   5 * time.Minute,
			SessionCookie:    "auth_token",
			SessionURL:       "http://localhost:3000/api/auth/session",
			SessionTimeout:   5 * time.Second,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
			StorePath:        "/data/photobeam/tokens",
			StoreInMemory:    false,
			StaticTokens:     []string{},
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			EmbeddedHost:   "127.0.0.1",
			EmbeddedPort:   4222,
			Subject:        "photobeam.uploads.completed",
			MaxReconnects:  -1, // reconnect forever
			ReconnectWait:  2 * time.Second,
			CloseTimeout:   10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"http://localhost:3000"},
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CollaboratorKey:   "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"gateway.allowed_origins",
	"auth.chain",
	"auth.static_tokens",
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, YAML lists arrive as slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Gateway
	"ws_path":              "gateway.path",
	"ws_handshake_timeout": "gateway.handshake_timeout",
	"ws_send_buffer":       "gateway.send_buffer",
	"ws_broadcast_buffer":  "gateway.broadcast_buffer",
	"ws_max_message_size":  "gateway.max_message_size",
	"ws_credential_query":  "gateway.credential_query",
	"ws_credential_cookie": "gateway.credential_cookie",
	"ws_event_rate":        "gateway.event_rate",
	"ws_event_burst":       "gateway.event_burst",
	"ws_allowed_origins":   "gateway.allowed_origins",
	"frontend_origin":      "gateway.allowed_origins",

	// Auth
	"auth_mode":             "auth.mode",
	"auth_chain":            "auth.chain",
	"jwt_secret":            "auth.jwt_secret",
	"socket_token_ttl":      "auth.socket_token_ttl",
	"session_cookie":        "auth.session_cookie",
	"session_url":           "auth.session_url",
	"session_timeout":       "auth.session_timeout",
	"session_breaker_trips": "auth.breaker_threshold",
	"session_breaker_reset": "auth.breaker_timeout",
	"token_store_path":      "auth.store_path",
	"token_store_in_memory": "auth.store_in_memory",
	"static_socket_tokens":  "auth.static_tokens",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded_server",
	"nats_embedded_host":  "nats.embedded_host",
	"nats_embedded_port":  "nats.embedded_port",
	"nats_subject":        "nats.subject",
	"nats_max_reconnects": "nats.max_reconnects",
	"nats_reconnect_wait": "nats.reconnect_wait",
	"nats_close_timeout":  "nats.close_timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"collaborator_key":    "security.collaborator_key",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - JWT_SECRET -> auth.jwt_secret
//   - FRONTEND_ORIGIN -> gateway.allowed_origins
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
