// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

// Command gateway runs the Photobeam realtime gateway: the authenticated
// websocket endpoint, the socket token and upload notice HTTP API, and the
// optional NATS bridge that fans upload notices out across instances.
//
// All services run under a suture supervisor tree:
//
//	photobeam
//	├── messaging-layer
//	│   ├── websocket-hub
//	│   └── nats-upload-bridge (NATS_ENABLED=true)
//	└── api-layer
//	    └── http-server
//
// SIGINT or SIGTERM cancels the root context; the HTTP server drains within
// SHUTDOWN_TIMEOUT and open sockets are closed by the hub.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/photobeam/internal/api"
	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/config"
	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/supervisor"
	"github.com/tomtom215/photobeam/internal/supervisor/services"
	ws "github.com/tomtom215/photobeam/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Str("ws_path", cfg.Gateway.Path).
		Str("auth_mode", cfg.Auth.Mode).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting Photobeam gateway")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	authComponents, err := auth.NewFromConfig(cfg.Auth, cfg.Gateway.HandshakeTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize socket authentication")
	}
	defer func() {
		if err := authComponents.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close token store")
		}
	}()

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry, ws.WithBroadcastBuffer(cfg.Gateway.BroadcastBuffer))
	gateway := ws.NewGateway(cfg.Gateway, authComponents.Verifier, hub)

	natsComponents, err := InitNATS(cfg, hub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}
	defer natsComponents.Shutdown(context.Background())

	var notifier api.UploadNotifier = hub
	transport := "hub"
	if natsComponents != nil {
		notifier = natsComponents.publisher
		transport = "nats"
	}

	handlerOpts := []api.HandlerOption{api.WithNoticeTransport(transport)}
	if authComponents.Issuer != nil {
		handlerOpts = append(handlerOpts, api.WithTokenIssuer(authComponents.Issuer, authComponents.Sessions))
	}
	handler := api.NewHandler(hub, notifier, handlerOpts...)
	router := api.NewRouter(handler, gateway, cfg.Gateway.Path, cfg.Security)
	httpHandler := router.SetupChi()

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddMessagingService(services.NewHubService(hub))
	natsComponents.AddServices(tree)
	logging.Info().Str("transport", transport).Msg("WebSocket hub added to supervisor tree")

	// A restarted service needs a fresh server; a shut down http.Server cannot
	// serve again.
	tree.AddAPIService(services.NewHTTPServerService(func() services.HTTPServer {
		return &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           httpHandler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Server.Timeout,
			WriteTimeout:      cfg.Server.Timeout,
			IdleTimeout:       60 * time.Second,
		}
	}, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel yields Serve's result once and is never closed.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Gateway stopped gracefully")
}
