// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package websocket

import (
	"fmt"
	"sync"

	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/metrics"
)

type registryEntry struct {
	client   *Client
	identity auth.Identity
}

// Registry maps connection ids to the identity attached at handshake time.
//
// It owns the lifetime of each client's outbound queue: the queue is closed
// by Detach while the write lock is held, and every send happens under the
// read lock, so nothing is ever sent on a closed queue.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Attach records identity for client. Attaching the same connection twice is
// a programming error and panics.
func (r *Registry) Attach(client *Client, identity auth.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[client.id]; exists {
		panic(fmt.Sprintf("websocket: connection %s attached twice", client.id))
	}
	r.entries[client.id] = registryEntry{client: client, identity: identity}
	metrics.WSConnections.Inc()
}

// Lookup returns the identity attached to connID.
func (r *Registry) Lookup(connID string) (auth.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[connID]
	return entry.identity, ok
}

// Detach removes connID and closes its outbound queue. It reports whether an
// entry was removed; detaching an unknown or already detached id is a no-op.
func (r *Registry) Detach(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[connID]
	if !ok {
		return false
	}
	delete(r.entries, connID)
	close(entry.client.send)
	metrics.WSConnections.Dec()
	return true
}

// Count returns the number of attached connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// SendTo queues payload for one connection. It returns false when the
// connection is gone or its queue is full.
func (r *Registry) SendTo(connID string, payload []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[connID]
	if !ok {
		return false
	}
	select {
	case entry.client.send <- payload:
		return true
	default:
		return false
	}
}

// fanOut queues payload for every attached connection accepted by filter
// (nil accepts all). It never blocks: clients whose queue is full are
// returned for the caller to evict once the lock is released.
func (r *Registry) fanOut(payload []byte, filter RecipientFilter) (delivered int, slow []*Client) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		if filter != nil && !filter(entry.identity) {
			continue
		}
		select {
		case entry.client.send <- payload:
			delivered++
		default:
			slow = append(slow, entry.client)
		}
	}
	return delivered, slow
}

// detachAll detaches every connection and returns the clients removed.
func (r *Registry) detachAll() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]*Client, 0, len(r.entries))
	for id, entry := range r.entries {
		delete(r.entries, id)
		close(entry.client.send)
		metrics.WSConnections.Dec()
		clients = append(clients, entry.client)
	}
	return clients
}
