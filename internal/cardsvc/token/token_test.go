package token

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
)

var testSecret = []byte("test-secret-0123456789abcdef")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))

	_, err = New([]byte("short"))
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
}

func TestUnconfiguredServiceRefuses(t *testing.T) {
	var s *Service
	_, _, err := s.Mint("card", "name")
	assert.True(t, apperr.IsConfiguration(err))

	_, err = (&Service{}).Verify("a.b.c")
	assert.True(t, apperr.IsConfiguration(err))
}

func TestMintVerifyRoundTrip(t *testing.T) {
	clk := newFakeClock()
	s, err := New(testSecret, WithClock(clk.Now))
	require.NoError(t, err)

	raw, exp, err := s.Mint("0b7d6a5e-card", "Ada Lovelace")
	require.NoError(t, err)
	assert.True(t, LooksLikeToken(raw))
	assert.Equal(t, clk.Now().Add(DefaultTTL), exp)

	claims, err := s.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "0b7d6a5e-card", claims.CardID)
	assert.Equal(t, "Ada Lovelace", claims.DisplayName)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.True(t, claims.IssuedAt.Equal(clk.Now()))
}

func TestVerifyExpired(t *testing.T) {
	clk := newFakeClock()
	s, err := New(testSecret, WithClock(clk.Now))
	require.NoError(t, err)

	raw, _, err := s.MintWithTTL("card-1", "Ada Lovelace", 120*time.Second)
	require.NoError(t, err)

	clk.Advance(120 * time.Second)
	_, err = s.Verify(raw)
	require.NoError(t, err, "token is valid up to and including expires_at")

	clk.Advance(time.Second)
	_, err = s.Verify(raw)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidToken(err))
}

func TestVerifyLeeway(t *testing.T) {
	clk := newFakeClock()
	s, err := New(testSecret, WithClock(clk.Now), WithLeeway(5*time.Second))
	require.NoError(t, err)

	raw, _, err := s.MintWithTTL("card-1", "", 10*time.Second)
	require.NoError(t, err)

	clk.Advance(14 * time.Second)
	_, err = s.Verify(raw)
	assert.NoError(t, err)

	clk.Advance(2 * time.Second)
	_, err = s.Verify(raw)
	assert.True(t, apperr.IsInvalidToken(err))
}

func TestVerifyForeignSecret(t *testing.T) {
	other, err := New([]byte("another-secret-fedcba9876543210"))
	require.NoError(t, err)
	s, err := New(testSecret)
	require.NoError(t, err)

	raw, _, err := other.Mint("card-1", "Ada Lovelace")
	require.NoError(t, err)

	_, err = s.Verify(raw)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidToken(err))
}

func TestVerifyTampered(t *testing.T) {
	s, err := New(testSecret)
	require.NoError(t, err)
	raw, _, err := s.Mint("card-1", "Ada Lovelace")
	require.NoError(t, err)

	other, _, err := s.Mint("card-2", "Mallory")
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = s.Verify(forged)
	assert.True(t, apperr.IsInvalidToken(err))
}

func TestVerifyMalformed(t *testing.T) {
	s, err := New(testSecret)
	require.NoError(t, err)

	for _, raw := range []string{"", "abc-123", "a.b", "a.b.c", "a.b.c.d", "eyJ.eyJ.!!!", "https://example.com/idcard/x"} {
		_, err := s.Verify(raw)
		assert.Truef(t, apperr.IsInvalidToken(err), "raw=%q", raw)
	}
}

func TestErrorsAreUndifferentiated(t *testing.T) {
	clk := newFakeClock()
	s, err := New(testSecret, WithClock(clk.Now))
	require.NoError(t, err)
	other, err := New([]byte("another-secret-fedcba9876543210"), WithClock(clk.Now))
	require.NoError(t, err)

	expiring, _, err := s.MintWithTTL("card-1", "x", time.Second)
	require.NoError(t, err)
	foreign, _, err := other.Mint("card-1", "x")
	require.NoError(t, err)
	clk.Advance(2 * time.Second)

	_, errExpired := s.Verify(expiring)
	_, errForeign := s.Verify(foreign)
	_, errMalformed := s.Verify("a.b.c")

	assert.Equal(t, errExpired.Error(), errForeign.Error())
	assert.Equal(t, errExpired.Error(), errMalformed.Error())
}

func TestMintValidation(t *testing.T) {
	s, err := New(testSecret)
	require.NoError(t, err)

	_, _, err = s.Mint("  ", "Ada")
	assert.True(t, apperr.IsValidation(err))

	_, _, err = s.MintWithTTL("card", "Ada", MaxTTL+time.Second)
	assert.True(t, apperr.IsValidation(err))
}

func TestWithTTL(t *testing.T) {
	s, err := New(testSecret, WithTTL(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, s.TTL())

	s, err = New(testSecret, WithTTL(-1))
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, s.TTL())
}

func TestLooksLikeToken(t *testing.T) {
	cases := map[string]bool{
		"eyJhbGciOiJIUzI1NiJ9.eyJjYXJkX2lkIjoiMSJ9.sig_-": true,
		" a.b.c ":                      true,
		"abc-123":                      false,
		"a.b":                          false,
		"a..c":                         false,
		"https://x.example/idcard/abc": false,
		"a.b.c d":                      false,
	}
	for in, want := range cases {
		assert.Equalf(t, want, LooksLikeToken(in), "input %q", in)
	}
}

func TestFeedAccessIsNotACardToken(t *testing.T) {
	clk := newFakeClock()
	s, err := New(testSecret, WithClock(clk.Now))
	require.NoError(t, err)

	raw, exp, err := s.MintFeedAccess("ops@example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(DefaultFeedTTL), exp)

	_, err = s.Verify(raw)
	assert.True(t, apperr.IsInvalidToken(err))

	tok, err := s.Auth().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", tok.Subject())
	scope, ok := tok.Get(ClaimScope)
	require.True(t, ok)
	assert.Equal(t, ScopeFeed, scope)
}

func TestMintFeedAccessValidation(t *testing.T) {
	s, err := New(testSecret)
	require.NoError(t, err)

	_, _, err = s.MintFeedAccess(" ", 0)
	assert.True(t, apperr.IsValidation(err))

	_, _, err = s.MintFeedAccess("ops@example.com", MaxTTL+time.Second)
	assert.True(t, apperr.IsValidation(err))
}
