// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package logging

import "testing"

func TestRedactCredential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "***"},
		{"exactly12chr", "***"},
		{"eyJhbGciOiJIUzI1NiJ9.payload.sig", "eyJh....sig"},
	}

	for _, tt := range tests {
		if got := RedactCredential(tt.in); got != tt.want {
			t.Errorf("RedactCredential(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"not-an-email", "***"},
		{"ab@example.com", "***@example.com"},
		{"alice@example.com", "al***@example.com"},
	}

	for _, tt := range tests {
		if got := RedactEmail(tt.in); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
