package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 12 * time.Hour
	// GoogleProvider prefixes user identifiers minted from Google sign-ins.
	GoogleProvider = "google"
)

var (
	ErrMissingSigningSecret = errors.New("token issuer: signing secret required")
	ErrMissingIssuer        = errors.New("token issuer: issuer required")
	errMissingSubjectClaim  = errors.New("token issuer: subject claim required")
)

// TokenIssuerConfig configures the session JWT issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// TokenIssuer mints HS256 session tokens after an upstream sign-in was verified.
type TokenIssuer struct {
	signingSecret []byte
	issuer        string
	audience      string
	ttl           time.Duration
	clock         func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSigningSecret
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, ErrMissingIssuer
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		audience:      strings.TrimSpace(cfg.Audience),
		ttl:           ttl,
		clock:         clock,
	}, nil
}

// TTL reports the lifetime of issued tokens.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// IssueGoogleSession mints a session token for a verified Google identity.
func (i *TokenIssuer) IssueGoogleSession(ctx context.Context, claims GoogleClaims) (string, int64, error) {
	if strings.TrimSpace(claims.Subject) == "" {
		return "", 0, errMissingSubjectClaim
	}
	return i.IssueSessionToken(ctx, SessionClaims{
		UserID:          GoogleProvider + ":" + claims.Subject,
		UserEmail:       claims.Email,
		UserDisplayName: claims.Name,
		UserAvatarURL:   claims.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: claims.Subject,
		},
	})
}

// IssueSessionToken signs the supplied claims, stamping issuer, audience and lifetime.
// It returns the token and its lifetime in seconds.
func (i *TokenIssuer) IssueSessionToken(_ context.Context, claims SessionClaims) (string, int64, error) {
	if strings.TrimSpace(claims.Subject) == "" {
		return "", 0, errMissingSubjectClaim
	}
	if strings.TrimSpace(claims.UserID) == "" {
		claims.UserID = claims.Subject
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.ttl)

	claims.Issuer = i.issuer
	if i.audience != "" {
		claims.Audience = jwt.ClaimStrings{i.audience}
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}
