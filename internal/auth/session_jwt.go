// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims of the web app's HTTP session JWT. The web app
// puts the user id in "id"; "sub" is accepted as well.
type SessionClaims struct {
	UserID string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SessionAuthenticator authenticates HTTP requests by the web app's session
// JWT. It guards the socket token endpoint; it is not a socket strategy.
type SessionAuthenticator struct {
	secret     []byte
	cookieName string
	parser     *jwt.Parser
}

// NewSessionAuthenticator creates an authenticator for HS256 session JWTs
// signed with secret and carried in cookieName or a Bearer header.
func NewSessionAuthenticator(secret, cookieName string) (*SessionAuthenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required for session authentication")
	}
	if cookieName == "" {
		cookieName = "auth_token"
	}
	return &SessionAuthenticator{
		secret:     []byte(secret),
		cookieName: cookieName,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Authenticate returns the identity of the request's session.
// It returns ErrMissingCredential when the request carries no session token
// and ErrInvalidCredential when the token does not validate.
func (a *SessionAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	tokenStr := a.extractToken(r)
	if tokenStr == "" {
		return Identity{}, ErrMissingCredential
	}

	claims := &SessionClaims{}
	token, err := a.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: session expired", ErrInvalidCredential)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidCredential
	}

	identity := Identity{ID: claims.UserID, Email: claims.Email, Name: claims.Name}
	if identity.ID == "" {
		identity.ID = claims.Subject
	}
	if !identity.Valid() {
		return Identity{}, fmt.Errorf("%w: session has no user", ErrInvalidCredential)
	}
	return identity, nil
}

// extractToken reads the Authorization header first, then the session cookie.
func (a *SessionAuthenticator) extractToken(r *http.Request) string {
	if token := BearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(a.cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
