package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-votr-api/internal/models"
)

func TestRegisterIssuesTokenForUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.auth.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	u, err := f.auth.Authenticate(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "pw1", u.PasswordHash)
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, models.RegisterRequest{Username: "alice", Email: "other@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Username already registered")

	_, err = f.auth.Register(ctx, models.RegisterRequest{Username: "bob", Email: "alice@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Email already registered")

	_, err = f.auth.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []models.RegisterRequest{
		{Username: "", Email: "a@x.com", Password: "pw"},
		{Username: "a", Email: "not-an-email", Password: "pw"},
		{Username: "a", Email: "a@x.com", Password: ""},
		{Username: "carol@home.io", Email: "carol@home.io", Password: "pw"},
		{Username: "a", Email: "a@x.com", Password: strings.Repeat("p", 80)},
	}
	for _, req := range cases {
		_, err := f.auth.Register(ctx, req)
		assert.ErrorIs(t, err, ErrBadRequest, req.Username)
	}

	_, err := f.auth.Register(ctx, models.RegisterRequest{Username: "a", Email: "a@x.com", Password: strings.Repeat("p", 72)})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@x.com", Password: "pw1"})
	require.NoError(t, err)

	for _, id := range []string{"alice", "alice@x.com"} {
		tok, err := f.auth.Login(ctx, id, "pw1")
		require.NoError(t, err, id)
		u, err := f.auth.Authenticate(ctx, tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	}

	failures := []struct{ id, pw string }{
		{"alice", "wrong"},
		{"alice@x.com", "wrong"},
		{"nobody", "pw1"},
		{"ALICE", "pw1"},
		{"Alice@X.com", "pw1"},
	}
	for _, c := range failures {
		_, err := f.auth.Login(ctx, c.id, c.pw)
		assert.ErrorIs(t, err, ErrUnauthorized, c.id)
		assert.EqualError(t, err, "Incorrect username or password")
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	tok, err := f.auth.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@x.com", Password: "pw1"})
	require.NoError(t, err)
	u, err := f.store.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, f.store.Users().Delete(ctx, u.ID))

	_, err = f.auth.Authenticate(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetUserSelfOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	u, err := f.auth.GetUser(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = f.auth.GetUser(ctx, alice, bob.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.auth.GetUser(ctx, alice, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureSuperuserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.EnsureSuperuser(ctx, "admin", "admin@x.com", "secret"))
	require.NoError(t, f.auth.EnsureSuperuser(ctx, "admin", "admin@x.com", "secret"))

	users, err := f.store.Users().List(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsSuperuser)

	_, err = f.auth.Login(ctx, "admin", "secret")
	assert.NoError(t, err)
}
