package service

import (
	"context"
	"time"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/tmdb"
)

// UserStore persists users. Implemented by repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, skip, limit int) ([]models.User, error)
	Delete(ctx context.Context, id int) error
}

// GroupStore persists groups and memberships. Implemented by repository.GroupRepository.
type GroupStore interface {
	CreateWithOwner(ctx context.Context, g *models.Group, ownerID int) error
	GetByID(ctx context.Context, id int) (*models.Group, error)
	List(ctx context.Context, skip, limit int) ([]models.Group, error)
	ListForUser(ctx context.Context, userID int) ([]models.Group, error)
	IsMember(ctx context.Context, groupID, userID int) (bool, error)
	AddMember(ctx context.Context, groupID, userID int) error
	Members(ctx context.Context, groupID int) ([]models.User, error)
	Delete(ctx context.Context, id int) error
}

// MovieStore persists the catalog. Implemented by repository.MovieRepository.
type MovieStore interface {
	Create(ctx context.Context, m *models.Movie) error
	GetByID(ctx context.Context, id int) (*models.Movie, error)
	GetByTMDBId(ctx context.Context, tmdbID string) (*models.Movie, error)
	List(ctx context.Context, skip, limit int) ([]models.Movie, error)
	ExistingIDs(ctx context.Context, ids []int) (map[int]bool, error)
	Delete(ctx context.Context, id int) error
}

// PollStore persists polls, options and votes. Implemented by repository.PollRepository.
type PollStore interface {
	Create(ctx context.Context, p *models.Poll, movieIDs []int) error
	GetByID(ctx context.Context, id int) (*models.Poll, error)
	ListActiveByGroup(ctx context.Context, groupID int) ([]models.Poll, error)
	List(ctx context.Context, skip, limit int) ([]models.Poll, error)
	GetOption(ctx context.Context, optionID int) (*models.PollOption, error)
	HasVoted(ctx context.Context, pollID, voterID int) (bool, error)
	CreateVote(ctx context.Context, v *models.Vote) error
	VoteCounts(ctx context.Context, pollID int) (map[int]int, error)
	Close(ctx context.Context, pollID int, resolvedAt time.Time, winningOptionID *int) (bool, error)
	Delete(ctx context.Context, id int) error
}

// WatchedStore persists watch history and ratings. Implemented by repository.WatchedRepository.
type WatchedStore interface {
	Create(ctx context.Context, w *models.WatchedMovie) error
	GetByID(ctx context.Context, id int) (*models.WatchedMovie, error)
	ListByGroup(ctx context.Context, groupID int) ([]models.WatchedMovie, error)
	UpsertRating(ctx context.Context, r *models.Rating) error
	Ratings(ctx context.Context, watchedID int) ([]models.Rating, error)
}

// MovieSource is the external movie catalog. Implemented by tmdb.Client.
type MovieSource interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.Movie, error)
	GetMovieDetail(ctx context.Context, tmdbID string) (*tmdb.MovieDetail, error)
}

// requireMember fails with Forbidden and detail when userID is not in groupID.
func requireMember(ctx context.Context, groups GroupStore, groupID, userID int, detail string) error {
	ok, err := groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrForbidden, "%s", detail)
	}
	return nil
}
