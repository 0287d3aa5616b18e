package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/config"
)

const (
	// HeaderUserID carries the caller id in the default mode.
	HeaderUserID = "X-User-Id"
	// QueryUserID is the query-string fallback in the default mode.
	QueryUserID = "userId"
	// SessionCookie holds the session JWT in session mode.
	SessionCookie = "cohost_session"
)

// ErrNoCredentials means the request carried nothing to resolve. Routes that
// need a user turn this into a 401; others may fall back to a body field.
var ErrNoCredentials = errors.New("auth: no credentials")

// Resolver extracts the caller from a request. It returns ErrNoCredentials
// when nothing was presented and an Unauthenticated error when the presented
// credential is invalid.
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// NewResolver selects the resolver for cfg.Mode.
func NewResolver(cfg config.AuthConfig) (Resolver, error) {
	switch cfg.Mode {
	case "", config.AuthModeNone:
		return HeaderResolver{}, nil
	case config.AuthModeLegacy:
		return LegacyResolver{}, nil
	case config.AuthModeToken, config.AuthModeSession:
		verifier, err := NewVerifier(cfg.JWTSecret, cfg.JWKSURL)
		if err != nil {
			return nil, err
		}
		if cfg.Mode == config.AuthModeSession {
			return SessionResolver{Verifier: verifier, Cookie: SessionCookie}, nil
		}
		return TokenResolver{Verifier: verifier}, nil
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", cfg.Mode)
	}
}

// HeaderResolver trusts the X-User-Id header, then the userId query parameter.
// It performs no verification.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (Identity, error) {
	if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
		return Identity{UserID: id, Source: "header"}, nil
	}
	if id := strings.TrimSpace(r.URL.Query().Get(QueryUserID)); id != "" {
		return Identity{UserID: id, Source: "query"}, nil
	}
	return Identity{}, ErrNoCredentials
}

// LegacyResolver decodes a bearer token of the form base64("email:...") and
// uses the email as the user id. It is a placeholder and verifies nothing.
type LegacyResolver struct{}

func (LegacyResolver) Resolve(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	if strings.TrimSpace(header) == "" {
		return Identity{}, ErrNoCredentials
	}
	token, ok := extractBearerToken(header)
	if !ok {
		return Identity{}, apperr.Unauthenticated("No token provided")
	}

	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Identity{}, apperr.Unauthenticated("Invalid token")
	}
	email, _, _ := strings.Cut(string(decoded), ":")
	email = strings.TrimSpace(email)
	if email == "" {
		return Identity{}, apperr.Unauthenticated("Invalid token")
	}
	return Identity{UserID: email, Source: "legacy"}, nil
}

// TokenResolver verifies a bearer JWT and uses its subject.
type TokenResolver struct {
	Verifier *Verifier
}

func (t TokenResolver) Resolve(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	if strings.TrimSpace(header) == "" {
		return Identity{}, ErrNoCredentials
	}
	token, ok := extractBearerToken(header)
	if !ok {
		return Identity{}, apperr.Unauthenticated("invalid authorization header")
	}
	sub, err := t.Verifier.Verify(token)
	if err != nil {
		return Identity{}, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "invalid token", Err: err}
	}
	return Identity{UserID: sub, Source: "token"}, nil
}

// SessionResolver verifies a JWT carried in a cookie.
type SessionResolver struct {
	Verifier *Verifier
	Cookie   string
}

func (s SessionResolver) Resolve(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(s.Cookie)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return Identity{}, ErrNoCredentials
	}
	sub, err := s.Verifier.Verify(cookie.Value)
	if err != nil {
		return Identity{}, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "invalid session", Err: err}
	}
	return Identity{UserID: sub, Source: "session"}, nil
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
