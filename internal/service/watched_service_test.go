package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/testutil"
)

func intPtr(v int) *int { return &v }

func TestLogWatchedFromMovie(t *testing.T) {
	pf := newPollFixture(t)
	ctx := context.Background()
	pf.watched.now = func() time.Time { return time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC) }

	w, err := pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{MovieID: intPtr(pf.m1.ID), Notes: "great"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", w.WatchedDate.Format(dateLayout))
	assert.Equal(t, pf.alice.ID, w.LoggedByID)
	assert.Nil(t, w.OriginatingPollID)

	w, err = pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{MovieID: intPtr(pf.m2.ID), WatchedDate: "2026-01-02"})
	require.NoError(t, err)
	assert.Equal(t, 2026, w.WatchedDate.Year())

	entries, err := pf.watched.List(ctx, pf.alice, pf.group.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, pf.m1.ID, entries[0].MovieID)
}

func TestLogWatchedRules(t *testing.T) {
	pf := newPollFixture(t)
	ctx := context.Background()

	_, err := pf.watched.Log(ctx, pf.bob, pf.group.ID, models.LogWatchedRequest{MovieID: intPtr(pf.m1.ID)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = pf.watched.Log(ctx, pf.alice, 9999, models.LogWatchedRequest{MovieID: intPtr(pf.m1.ID)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{MovieID: intPtr(555)})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{MovieID: intPtr(pf.m1.ID), WatchedDate: "14/03/2026"})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestLogWatchedFromPoll(t *testing.T) {
	pf := newPollFixture(t)
	ctx := context.Background()
	p := pf.poll(t)

	_, err := pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{PollID: intPtr(p.ID)})
	assert.EqualError(t, err, "Poll has no winning movie")

	_, err = pf.polls.Vote(ctx, pf.alice, p.ID, p.Options[1].ID)
	require.NoError(t, err)
	_, err = pf.polls.Close(ctx, pf.alice, p.ID)
	require.NoError(t, err)

	w, err := pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{PollID: intPtr(p.ID)})
	require.NoError(t, err)
	assert.Equal(t, p.Options[1].MovieID, w.MovieID)
	require.NotNil(t, w.OriginatingPollID)

	_, err = pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{PollID: intPtr(p.ID)})
	assert.Equal(t, ErrConflict, kindOf(err))

	other := pf.fixture.group(t, pf.alice, "Other")
	_, err = pf.watched.Log(ctx, pf.alice, other.ID, models.LogWatchedRequest{PollID: intPtr(p.ID)})
	assert.EqualError(t, err, "Poll does not belong to this group")
}

func TestRatings(t *testing.T) {
	pf := newPollFixture(t)
	ctx := context.Background()
	_, err := pf.groups.Join(ctx, pf.bob, pf.group.ID)
	require.NoError(t, err)

	w, err := pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{MovieID: intPtr(pf.m1.ID)})
	require.NoError(t, err)

	for _, v := range []int{0, 11, -3} {
		_, err := pf.watched.Rate(ctx, pf.alice, w.ID, v)
		assert.ErrorIs(t, err, ErrBadRequest)
	}

	_, err = pf.watched.Rate(ctx, pf.alice, w.ID, 6)
	require.NoError(t, err)
	_, err = pf.watched.Rate(ctx, pf.alice, w.ID, 8)
	require.NoError(t, err)
	_, err = pf.watched.Rate(ctx, pf.bob, w.ID, 10)
	require.NoError(t, err)

	ratings, err := pf.watched.Ratings(ctx, pf.bob, w.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 2)

	entries, err := pf.watched.List(ctx, pf.alice, pf.group.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].RatingCount)
	require.NotNil(t, entries[0].AverageRating)
	assert.InDelta(t, 9.0, *entries[0].AverageRating, 0.001)

	outsider := pf.user(t, "carol")
	_, err = pf.watched.Rate(ctx, outsider, w.ID, 5)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = pf.watched.Rate(ctx, pf.alice, 9999, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

// deletingWatched removes the group before the rating is written.
type deletingWatched struct {
	WatchedStore
	groups  *testutil.MemGroups
	groupID int
}

func (d *deletingWatched) UpsertRating(ctx context.Context, r *models.Rating) error {
	if err := d.groups.Delete(ctx, d.groupID); err != nil {
		return err
	}
	return d.WatchedStore.UpsertRating(ctx, r)
}

func TestRateEntryDeletedConcurrently(t *testing.T) {
	pf := newPollFixture(t)
	ctx := context.Background()

	w, err := pf.watched.Log(ctx, pf.alice, pf.group.ID, models.LogWatchedRequest{MovieID: intPtr(pf.m1.ID)})
	require.NoError(t, err)

	store := &deletingWatched{WatchedStore: pf.store.Watched(), groups: pf.store.Groups(), groupID: pf.group.ID}
	svc := NewWatchedService(store, pf.store.Groups(), pf.store.Polls(), pf.store.Movies())

	_, err = svc.Rate(ctx, pf.alice, w.ID, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}
