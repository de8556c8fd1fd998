package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/notes-api/internal/apperr"
)

// fixedClock lets a test move time without sleeping.
type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func newTestTokenService(secret string, ttl time.Duration) (*TokenService, *fixedClock) {
	clk := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewTokenService(secret, ttl)
	s.now = clk.Now
	return s, clk
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	s, _ := newTestTokenService("super-secret", 30*time.Minute)

	tok, err := s.Issue("amina", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), tok.Exp)

	sub, err := s.Validate(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "amina", sub)
}

func TestTokenService_DefaultTTL(t *testing.T) {
	s, clk := newTestTokenService("super-secret", 30*time.Minute)

	tok, err := s.Issue("amina", 0)
	require.NoError(t, err)
	assert.Equal(t, clk.t.Add(30*time.Minute), tok.Exp)
}

func TestTokenService_ExpiresAfterTTL(t *testing.T) {
	s, clk := newTestTokenService("super-secret", 30*time.Minute)

	tok, err := s.Issue("amina", 0)
	require.NoError(t, err)

	clk.t = clk.t.Add(29 * time.Minute)
	_, err = s.Validate(tok.Token)
	require.NoError(t, err, "token must be valid before expiry")

	clk.t = clk.t.Add(2 * time.Minute)
	_, err = s.Validate(tok.Token)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer, _ := newTestTokenService("right-secret", time.Hour)
	verifier, _ := newTestTokenService("wrong-secret", time.Hour)

	tok, err := issuer.Issue("amina", 0)
	require.NoError(t, err)

	_, err = verifier.Validate(tok.Token)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestTokenService_RejectsMalformedAndForeignTokens(t *testing.T) {
	s, clk := newTestTokenService("k", time.Hour)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "amina",
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "amina",
		ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "amina",
		ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":      "",
		"garbage":    "not.a.jwt",
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"hs512":      otherAlg,
		"alg none":   unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Validate(raw)
			assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
		})
	}
}

func TestTokenService_EmptySubject(t *testing.T) {
	s, _ := newTestTokenService("k", time.Hour)
	_, err := s.Issue("", 0)
	assert.Error(t, err)
}
