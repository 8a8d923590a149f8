package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"movie-votr-api/internal/auth"
	"movie-votr-api/internal/models"
	"movie-votr-api/internal/testutil"
	"movie-votr-api/internal/tmdb"
)

func init() {
	auth.Cost = bcrypt.MinCost
}

type fakeSource struct {
	mu      sync.Mutex
	results []tmdb.Movie
	detail  *tmdb.MovieDetail
	err     error
	calls   int
}

func (f *fakeSource) SearchMovies(_ context.Context, _ string) ([]tmdb.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeSource) GetMovieDetail(_ context.Context, _ string) (*tmdb.MovieDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

type fixture struct {
	store   *testutil.MemStore
	source  *fakeSource
	auth    *AuthService
	groups  *GroupService
	movies  *MovieService
	polls   *PollService
	watched *WatchedService
	admin   *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	store := testutil.NewMemStore()
	source := &fakeSource{}
	return &fixture{
		store:   store,
		source:  source,
		auth:    NewAuthService(store.Users(), issuer),
		groups:  NewGroupService(store.Groups()),
		movies:  NewMovieService(store.Movies(), source, nil, time.Minute),
		polls:   NewPollService(store.Polls(), store.Groups(), store.Movies(), store.Users()),
		watched: NewWatchedService(store.Watched(), store.Groups(), store.Polls(), store.Movies()),
		admin:   NewAdminService(store.Users(), store.Groups()),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@x.com", PasswordHash: "unused"}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) superuser(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@x.com", PasswordHash: "unused", IsSuperuser: true}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) movie(t *testing.T, tmdbID, title string) *models.Movie {
	t.Helper()
	m := &models.Movie{TMDBId: tmdbID, Title: title}
	require.NoError(t, f.store.Movies().Create(context.Background(), m))
	return m
}

func (f *fixture) group(t *testing.T, owner *models.User, name string) *models.Group {
	t.Helper()
	g, err := f.groups.Create(context.Background(), owner, models.CreateGroupRequest{Name: name})
	require.NoError(t, err)
	return g
}

// kindOf returns the domain error kind of err, or nil.
func kindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
