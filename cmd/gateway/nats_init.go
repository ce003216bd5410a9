// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/photobeam/internal/config"
	"github.com/tomtom215/photobeam/internal/eventprocessor"
	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/supervisor"
)

// natsShutdownTimeout bounds the embedded server's exit.
const natsShutdownTimeout = 10 * time.Second

// NATSComponents holds the upload-notice bus for lifecycle management.
// A nil *NATSComponents means NATS is disabled; its methods are no-ops.
type NATSComponents struct {
	server     *eventprocessor.EmbeddedServer
	publisher  *eventprocessor.NoticePublisher
	subscriber message.Subscriber
	bridge     *eventprocessor.UploadBridge

	mu       sync.Mutex
	shutdown bool
}

// InitNATS builds the publisher, subscriber and bridge when NATS_ENABLED=true.
// It returns nil, nil when NATS is disabled.
func InitNATS(cfg *config.Config, broadcaster eventprocessor.UploadBroadcaster) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS upload bus disabled (NATS_ENABLED=false), notices go straight to the hub")
		return nil, nil
	}

	logging.Info().Msg("Initializing NATS upload bus...")

	components := &NATSComponents{}
	natsCfg := cfg.NATS

	if natsCfg.EmbeddedServer {
		srv, err := eventprocessor.NewEmbeddedServer(natsCfg.EmbeddedHost, natsCfg.EmbeddedPort)
		if err != nil {
			return nil, err
		}
		components.server = srv
		natsCfg.URL = srv.ClientURL()
	} else {
		logging.Info().Str("url", natsCfg.URL).Msg("Using external NATS server")
	}

	sub, err := eventprocessor.NewSubscriber(natsCfg, nil)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	components.subscriber = sub

	pub, err := eventprocessor.NewNoticePublisher(natsCfg, nil)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	components.publisher = pub

	components.bridge = eventprocessor.NewUploadBridge(sub, natsCfg.Subject, broadcaster)

	logging.Info().
		Str("url", natsCfg.URL).
		Str("subject", natsCfg.Subject).
		Bool("embedded", components.server != nil).
		Msg("NATS upload bus initialized")

	return components, nil
}

// AddServices adds the upload bridge to the messaging layer.
func (c *NATSComponents) AddServices(tree *supervisor.SupervisorTree) {
	if c == nil {
		return
	}
	tree.AddMessagingService(c.bridge)
	logging.Info().Str("service", c.bridge.String()).Msg("NATS upload bridge added to supervisor tree")
}

// Shutdown closes the publisher and subscriber, then stops the embedded
// server. It is safe to call more than once.
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown {
		return
	}
	c.shutdown = true

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close NATS publisher")
		}
	}
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close NATS subscriber")
		}
	}
	if c.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, natsShutdownTimeout)
		defer cancel()
		if err := c.server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Embedded NATS server did not stop cleanly")
		}
	}

	logging.Info().Msg("NATS upload bus stopped")
}
