package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-votr-api/internal/models"
)

func TestAdminDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.superuser(t, "admin")
	bob := f.user(t, "bob")

	_, err := f.admin.DeleteUser(ctx, admin, admin.ID)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.EqualError(t, err, "Admins cannot delete their own account")

	deleted, err := f.admin.DeleteUser(ctx, admin, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", deleted.Username)

	_, err = f.admin.GetUser(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.admin.DeleteUser(ctx, admin, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminDeleteUserWithHistory(t *testing.T) {
	pf := newPollFixture(t)
	ctx := context.Background()
	admin := pf.superuser(t, "admin")
	pf.poll(t)

	_, err := pf.admin.DeleteUser(ctx, admin, pf.alice.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAdminGroups(t *testing.T) {
	pf := newPollFixture(t)
	ctx := context.Background()
	p := pf.poll(t)

	groups, err := pf.admin.ListGroups(ctx, models.Pagination{})
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	g, err := pf.admin.GetGroup(ctx, pf.group.ID)
	require.NoError(t, err)
	assert.Len(t, g.Members, 1)

	_, err = pf.admin.DeleteGroup(ctx, pf.group.ID)
	require.NoError(t, err)
	_, err = pf.admin.GetGroup(ctx, pf.group.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = pf.polls.AdminGet(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := pf.admin.ListUsers(ctx, models.Pagination{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
