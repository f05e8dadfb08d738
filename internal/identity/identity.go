// Package identity exposes the signed-in user to the rest of QuickNote.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/MarcoPoloResearchLab/quicknote/internal/auth"
)

// ErrInvalidIdentity indicates the claims did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("identity: invalid identity")

// Identity is the current user as seen by note authorship.
type Identity struct {
	ID   string
	Name string
}

type contextKey struct{}

// WithIdentity returns a child context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}

// FromClaims derives the canonical identity from validated session claims.
// Provider prefixes such as "google:" are stripped from the user id.
func FromClaims(claims auth.SessionClaims) (Identity, error) {
	subject := deriveSubject(claims)
	if subject == "" {
		return Identity{}, ErrInvalidIdentity
	}
	name := normalize(claims.UserDisplayName)
	if name == "" {
		name = normalize(claims.UserEmail)
	}
	if name == "" {
		name = subject
	}
	return Identity{ID: subject, Name: name}, nil
}

// deriveSubject prefers the subject segment of a "provider:subject" user id.
func deriveSubject(claims auth.SessionClaims) string {
	subject := normalize(claims.Subject)

	raw := normalize(claims.UserID)
	if raw != "" {
		if provider, rest, found := strings.Cut(raw, ":"); found {
			if normalize(provider) != "" && normalize(rest) != "" {
				subject = normalize(rest)
			}
		} else if subject == "" {
			subject = raw
		}
	}

	if subject == "" {
		subject = normalize(claims.UserEmail)
	}
	return subject
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
