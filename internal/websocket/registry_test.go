// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package websocket

import (
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// newTestClient creates a transport-less client for registry and hub tests.
func newTestClient(id string, buffer int) *Client {
	return &Client{id: id, send: make(chan []byte, buffer)}
}

var (
	alice = auth.Identity{ID: "u-1", Email: "alice@example.com", Name: "Alice"}
	bob   = auth.Identity{ID: "u-2", Email: "bob@example.com", Name: "Bob"}
)

func TestRegistry_LookupBeforeAttach(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("conn-1"); ok {
		t.Error("Lookup() on empty registry should return false")
	}
}

func TestRegistry_AttachLookupDetach(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("conn-1", 1)

	r.Attach(c, alice)
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}

	for i := 0; i < 3; i++ {
		identity, ok := r.Lookup("conn-1")
		if !ok || identity != alice {
			t.Fatalf("Lookup() = %+v, %v; want alice, true", identity, ok)
		}
	}

	if !r.Detach("conn-1") {
		t.Error("first Detach() should report removal")
	}
	if _, ok := r.Lookup("conn-1"); ok {
		t.Error("Lookup() after Detach should return false")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistry_DetachIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("conn-1", 1)
	r.Attach(c, alice)

	r.Detach("conn-1")
	if r.Detach("conn-1") {
		t.Error("second Detach() should be a no-op")
	}
	if r.Detach("never-attached") {
		t.Error("Detach() of unknown id should be a no-op")
	}

	if _, open := <-c.send; open {
		t.Error("Detach() should close the outbound queue")
	}
}

func TestRegistry_DoubleAttachPanics(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("conn-1", 1)
	r.Attach(c, alice)

	defer func() {
		if recover() == nil {
			t.Fatal("second Attach() should panic")
		}
		identity, ok := r.Lookup("conn-1")
		if !ok || identity != alice {
			t.Errorf("identity changed after failed attach: %+v", identity)
		}
	}()
	r.Attach(c, bob)
}

func TestRegistry_SendTo(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("conn-1", 1)
	r.Attach(c, alice)

	if !r.SendTo("conn-1", []byte(`{"type":"pong"}`)) {
		t.Fatal("SendTo() should queue for an attached client")
	}
	if r.SendTo("conn-1", []byte(`{"type":"pong"}`)) {
		t.Error("SendTo() should fail when the queue is full")
	}

	r.Detach("conn-1")
	if r.SendTo("conn-1", []byte(`{}`)) {
		t.Error("SendTo() after Detach should report false")
	}
}

func TestRegistry_FanOutFilterAndSlow(t *testing.T) {
	r := NewRegistry()
	fast := newTestClient("fast", 4)
	slow := newTestClient("slow", 0)
	other := newTestClient("other", 4)
	r.Attach(fast, alice)
	r.Attach(slow, alice)
	r.Attach(other, bob)

	onlyAlice := func(id auth.Identity) bool { return id.ID == alice.ID }
	delivered, slowClients := r.fanOut([]byte(`x`), onlyAlice)

	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	if len(slowClients) != 1 || slowClients[0] != slow {
		t.Errorf("slow = %v, want [slow]", slowClients)
	}
	if len(other.send) != 0 {
		t.Error("filtered-out client should receive nothing")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", i)
			c := newTestClient(id, 1)
			r.Attach(c, alice)
			r.Lookup(id)
			r.SendTo(id, []byte(`{}`))
			r.fanOut([]byte(`{}`), nil)
			r.Detach(id)
			r.Detach(id)
		}(i)
	}
	wg.Wait()

	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}
