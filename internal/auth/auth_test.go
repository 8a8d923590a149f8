package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	Cost = bcrypt.MinCost
}

func TestIssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	subject, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestIssueUniqueTokenIDs(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "HS512", time.Minute)
	require.NoError(t, err)

	a, err := issuer.Issue("alice")
	require.NoError(t, err)
	b, err := issuer.Issue("alice")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseExpired(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseWrongSecret(t *testing.T) {
	a, err := NewTokenIssuer("secret-a", "HS256", time.Minute)
	require.NoError(t, err)
	b, err := NewTokenIssuer("secret-b", "HS256", time.Minute)
	require.NoError(t, err)

	token, err := a.Issue("alice")
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithm(t *testing.T) {
	hs384, err := NewTokenIssuer("secret", "HS384", time.Minute)
	require.NoError(t, err)
	hs256, err := NewTokenIssuer("secret", "HS256", time.Minute)
	require.NoError(t, err)

	token, err := hs384.Issue("alice")
	require.NoError(t, err)

	_, err = hs256.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseMissingSubject(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "HS256", time.Minute)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "HS256", time.Minute)
	require.NoError(t, err)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerValidation(t *testing.T) {
	_, err := NewTokenIssuer("secret", "RS256", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenIssuer("", "HS256", time.Minute)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)
	assert.True(t, CheckPassword(hash, "pw1"))
	assert.False(t, CheckPassword(hash, "pw2"))
	assert.False(t, CheckPassword("not-a-hash", "pw1"))
}

func TestIsEmail(t *testing.T) {
	cases := map[string]bool{
		"alice@x.com":          true,
		"a.b+tag@mail.example": true,
		"alice":                false,
		"alice@":               false,
		"@x.com":               false,
		"alice@x":              false,
		"alice @x.com":         false,
	}
	for input, want := range cases {
		assert.Equal(t, want, IsEmail(input), input)
	}
}
