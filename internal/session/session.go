// Package session ties an operator's credential to their catalog editor for
// as long as the credential is valid.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/editor"
	"github.com/fairyhunter13/product-catalog-editor/internal/notify"
)

var (
	// ErrNoCredential is returned when no bearer token was presented.
	ErrNoCredential = errors.New("missing credential")
	// ErrExpired is returned for tokens whose exp claim has passed.
	ErrExpired = errors.New("credential expired")
)

// Claims is what the service reads from a JWT credential. Signatures are
// not verified here; the identity provider and the catalog service do that.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseClaims reads sub and exp from a JWT. Opaque tokens yield zero Claims
// and ok=false.
func ParseClaims(token string) (Claims, bool) {
	parser := gojwt.NewParser()
	t, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return Claims{}, false
	}
	var c Claims
	if sub, err := t.Claims.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := t.Claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, true
}

// Session is one authenticated operator.
type Session struct {
	ID         string
	Subject    string
	ExpiresAt  time.Time // zero when the token carries no exp
	Credential catalog.Credential
	Editor     *editor.Editor
	Notices    *notify.Feed

	idle time.Duration

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch records activity at now.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Expired reports whether the token has expired or the session sat idle for
// longer than the idle timeout.
func (s *Session) Expired(now time.Time) bool {
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle > 0 && now.Sub(s.lastSeen) > s.idle
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (catalog.Credential, error) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", ErrNoCredential
	}
	return catalog.Credential(strings.TrimSpace(tok)), nil
}

func newID() string { return ulid.Make().String() }
