// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

/*
Package config provides centralized configuration management for the Photobeam
gateway.

# Configuration Sources

Configuration is layered with Koanf v2, later layers winning:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: CONFIG_PATH, else config.yaml or /etc/photobeam/config.yaml
  - Environment variables, mapped through an explicit table

Example config.yaml:

	server:
	  port: 5001
	gateway:
	  allowed_origins: ["https://photos.example.com"]
	auth:
	  mode: chain
	  chain: [jwt, session]
	  jwt_secret: "change-me-to-at-least-32-characters!!"
	nats:
	  enabled: true
	  embedded_server: true

# Environment Variables

Server:
  - HTTP_PORT, HTTP_HOST, HTTP_TIMEOUT, SHUTDOWN_TIMEOUT, ENVIRONMENT

Gateway:
  - WS_PATH, WS_HANDSHAKE_TIMEOUT, WS_SEND_BUFFER, WS_BROADCAST_BUFFER
  - WS_MAX_MESSAGE_SIZE, WS_CREDENTIAL_QUERY, WS_CREDENTIAL_COOKIE
  - WS_EVENT_RATE, WS_EVENT_BURST
  - WS_ALLOWED_ORIGINS or FRONTEND_ORIGIN (comma-separated)

Auth:
  - AUTH_MODE (jwt, session, store, static, chain), AUTH_CHAIN (comma-separated)
  - JWT_SECRET (min 32 chars), SOCKET_TOKEN_TTL, SESSION_COOKIE
  - SESSION_URL, SESSION_TIMEOUT, SESSION_BREAKER_TRIPS, SESSION_BREAKER_RESET
  - TOKEN_STORE_PATH, TOKEN_STORE_IN_MEMORY
  - STATIC_SOCKET_TOKENS (comma-separated token|id|email|name entries)

NATS:
  - NATS_ENABLED, NATS_URL, NATS_EMBEDDED, NATS_EMBEDDED_HOST, NATS_EMBEDDED_PORT
  - NATS_SUBJECT, NATS_MAX_RECONNECTS, NATS_RECONNECT_WAIT, NATS_CLOSE_TIMEOUT

Security:
  - CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - COLLABORATOR_KEY (empty disables the upload-notice endpoint)

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Validation

Load returns an error describing the first invalid setting. Wildcard origins
and the static strategy are refused when ENVIRONMENT=production.
*/
package config
