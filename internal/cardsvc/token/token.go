// Package token mints and verifies the short-lived QR tokens embedded in
// rendered ID cards.
//
// Tokens are HS256 JWTs signed with a single shared secret. Mint and verify
// both happen on the server, so no key distribution is involved.
package token

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/lestrrat-go/jwx/jwt"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
)

const (
	// DefaultTTL keeps the exposure window of a displayed bearer token small.
	DefaultTTL = 120 * time.Second

	// MaxTTL caps caller supplied lifetimes.
	MaxTTL = 24 * time.Hour

	// MinSecretBytes is the shortest accepted signing secret.
	MinSecretBytes = 16

	// DefaultFeedTTL is the lifetime of a live feed access token.
	DefaultFeedTTL = 12 * time.Hour

	// ClaimScope marks non-card tokens. QR tokens carry no scope.
	ClaimScope = "scope"
	// ScopeFeed grants a subscription to the live scan feed.
	ScopeFeed = "feed"

	claimCardID      = "card_id"
	claimDisplayName = "display_name"
	claimSubject     = "sub"
)

var tokenShape = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

// Claims is the decoded content of a verified token.
type Claims struct {
	CardID      string    `json:"card_id"`
	DisplayName string    `json:"display_name"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service signs and verifies tokens. A Service is safe for concurrent use.
type Service struct {
	auth   *jwtauth.JWTAuth
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithTTL sets the default validity window. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 && ttl <= MaxTTL {
			s.ttl = ttl
		}
	}
}

// WithLeeway tolerates clock skew past exp. Zero means no tolerance.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.leeway = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Service. A missing or short secret is a configuration error.
func New(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, apperr.Configuration("token.New", "signing secret not set")
	}
	if len(secret) < MinSecretBytes {
		return nil, apperr.Configuration("token.New", "signing secret too short")
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	s := &Service{
		auth: jwtauth.New("HS256", key, nil),
		ttl:  DefaultTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// TTL returns the default validity window.
func (s *Service) TTL() time.Duration { return s.ttl }

// Mint signs a token for the card using the default TTL.
func (s *Service) Mint(cardID, displayName string) (string, time.Time, error) {
	return s.MintWithTTL(cardID, displayName, 0)
}

// MintWithTTL signs a token valid for ttl. ttl <= 0 selects the default.
func (s *Service) MintWithTTL(cardID, displayName string, ttl time.Duration) (string, time.Time, error) {
	const op = "token.Mint"

	if s == nil || s.auth == nil {
		return "", time.Time{}, apperr.Configuration(op, "token service not configured")
	}
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return "", time.Time{}, apperr.Validation(op, "card_id required")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	if ttl > MaxTTL {
		return "", time.Time{}, apperr.Validation(op, "ttl exceeds maximum")
	}

	// exp is carried in whole seconds; truncate so the returned expiry
	// matches what Verify will see.
	issued := s.now().UTC().Truncate(time.Second)
	expires := issued.Add(ttl)

	claims := map[string]interface{}{
		claimCardID:      cardID,
		claimDisplayName: displayName,
	}
	jwtauth.SetIssuedAt(claims, issued)
	jwtauth.SetExpiry(claims, expires)

	_, signed, err := s.auth.Encode(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// MintFeedAccess signs a live feed token for an operator. ttl <= 0 selects
// DefaultFeedTTL. Feed tokens carry no card_id, so Verify never accepts them.
func (s *Service) MintFeedAccess(operator string, ttl time.Duration) (string, time.Time, error) {
	const op = "token.MintFeedAccess"

	if s == nil || s.auth == nil {
		return "", time.Time{}, apperr.Configuration(op, "token service not configured")
	}
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return "", time.Time{}, apperr.Validation(op, "operator required")
	}
	if ttl <= 0 {
		ttl = DefaultFeedTTL
	}
	if ttl > MaxTTL {
		return "", time.Time{}, apperr.Validation(op, "ttl exceeds maximum")
	}

	issued := s.now().UTC().Truncate(time.Second)
	expires := issued.Add(ttl)

	claims := map[string]interface{}{
		claimSubject: operator,
		ClaimScope:   ScopeFeed,
	}
	jwtauth.SetIssuedAt(claims, issued)
	jwtauth.SetExpiry(claims, expires)

	_, signed, err := s.auth.Encode(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Auth exposes the signer for jwtauth middleware.
func (s *Service) Auth() *jwtauth.JWTAuth { return s.auth }

// Verify checks the signature and expiry of raw and returns its claims.
// Every failure yields the same apperr.ErrInvalidToken.
func (s *Service) Verify(raw string) (Claims, error) {
	const op = "token.Verify"

	if s == nil || s.auth == nil {
		return Claims{}, apperr.Configuration(op, "token service not configured")
	}
	raw = strings.TrimSpace(raw)
	if !LooksLikeToken(raw) {
		return Claims{}, apperr.InvalidToken(op)
	}

	tok, err := s.auth.Decode(raw)
	if err != nil || tok == nil {
		return Claims{}, apperr.InvalidToken(op)
	}

	exp := tok.Expiration()
	if exp.IsZero() || s.now().After(exp.Add(s.leeway)) {
		return Claims{}, apperr.InvalidToken(op)
	}

	cardID, ok := stringClaim(tok, claimCardID)
	if !ok || cardID == "" {
		return Claims{}, apperr.InvalidToken(op)
	}
	name, _ := stringClaim(tok, claimDisplayName)

	return Claims{
		CardID:      cardID,
		DisplayName: name,
		IssuedAt:    tok.IssuedAt(),
		ExpiresAt:   exp,
	}, nil
}

// LooksLikeToken reports whether s has the compact JWS shape: three
// dot-separated base64url segments.
func LooksLikeToken(s string) bool {
	return tokenShape.MatchString(strings.TrimSpace(s))
}

func stringClaim(tok jwt.Token, name string) (string, bool) {
	v, ok := tok.Get(name)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}
