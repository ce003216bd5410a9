// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package logging

import "strings"

// RedactCredential shortens a bearer credential to its first and last four
// characters so it can be correlated in logs without being replayable.
func RedactCredential(credential string) string {
	switch {
	case credential == "":
		return ""
	case len(credential) <= 12:
		return "***"
	default:
		return credential[:4] + "..." + credential[len(credential)-4:]
	}
}

// RedactEmail keeps the first two characters of the local part and the domain.
func RedactEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}
