package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/repository"
)

const dateLayout = "2006-01-02"

// WatchedService handles group watch history and ratings.
type WatchedService struct {
	watched WatchedStore
	groups  GroupStore
	polls   PollStore
	movies  MovieStore
	now     func() time.Time
}

// NewWatchedService creates a new WatchedService.
func NewWatchedService(watched WatchedStore, groups GroupStore, polls PollStore, movies MovieStore) *WatchedService {
	return &WatchedService{
		watched: watched,
		groups:  groups,
		polls:   polls,
		movies:  movies,
		now:     time.Now,
	}
}

// Log records that a group watched a movie. The movie can be given directly
// or taken from the winning option of a closed poll of the same group.
func (s *WatchedService) Log(ctx context.Context, caller *models.User, groupID int, req models.LogWatchedRequest) (*models.WatchedMovie, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}
	if err := requireMember(ctx, s.groups, groupID, caller.ID, notGroupMemberDetail); err != nil {
		return nil, err
	}

	watchedDate, err := s.parseDate(req.WatchedDate)
	if err != nil {
		return nil, err
	}

	movieID, err := s.resolveMovie(ctx, groupID, req)
	if err != nil {
		return nil, err
	}

	w := &models.WatchedMovie{
		MovieID:           movieID,
		GroupID:           groupID,
		WatchedDate:       watchedDate,
		LoggedByID:        caller.ID,
		Notes:             req.Notes,
		OriginatingPollID: req.PollID,
	}
	if err := s.watched.Create(ctx, w); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, newError(ErrConflict, "This poll's movie has already been logged as watched")
		case errors.Is(err, repository.ErrForeignKey):
			return nil, newError(ErrBadRequest, "A referenced movie or poll no longer exists")
		}
		return nil, err
	}

	slog.Info("watched movie logged", "watched_id", w.ID, "group_id", groupID, "movie_id", movieID)
	return w, nil
}

// List returns a group's watch history with rating aggregates.
func (s *WatchedService) List(ctx context.Context, caller *models.User, groupID int) ([]models.WatchedMovie, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}
	if err := requireMember(ctx, s.groups, groupID, caller.ID, notGroupMemberDetail); err != nil {
		return nil, err
	}
	return s.watched.ListByGroup(ctx, groupID)
}

// Rate stores the caller's rating of a watched entry, replacing a previous one.
func (s *WatchedService) Rate(ctx context.Context, caller *models.User, watchedID, value int) (*models.Rating, error) {
	if value < models.MinRating || value > models.MaxRating {
		return nil, newError(ErrBadRequest, "rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	w, err := s.getEntry(ctx, caller, watchedID)
	if err != nil {
		return nil, err
	}

	r := &models.Rating{WatchedMovieID: w.ID, RaterID: caller.ID, Value: value}
	if err := s.watched.UpsertRating(ctx, r); err != nil {
		// The entry can be deleted between the membership check and the upsert.
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, newError(ErrNotFound, "Watched movie not found")
		}
		return nil, notFoundOr(err, "Watched movie not found", "failed to rate")
	}
	return r, nil
}

// Ratings lists all ratings of a watched entry.
func (s *WatchedService) Ratings(ctx context.Context, caller *models.User, watchedID int) ([]models.Rating, error) {
	if _, err := s.getEntry(ctx, caller, watchedID); err != nil {
		return nil, err
	}
	return s.watched.Ratings(ctx, watchedID)
}

func (s *WatchedService) getEntry(ctx context.Context, caller *models.User, watchedID int) (*models.WatchedMovie, error) {
	w, err := s.watched.GetByID(ctx, watchedID)
	if err != nil {
		return nil, notFoundOr(err, "Watched movie not found", "failed to get watched movie")
	}
	if err := requireMember(ctx, s.groups, w.GroupID, caller.ID, notGroupMemberDetail); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WatchedService) parseDate(value string) (time.Time, error) {
	if value == "" {
		y, m, d := s.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, newError(ErrBadRequest, "watched_date must use the YYYY-MM-DD format")
	}
	return t, nil
}

func (s *WatchedService) resolveMovie(ctx context.Context, groupID int, req models.LogWatchedRequest) (int, error) {
	if req.MovieID == nil && req.PollID == nil {
		return 0, newError(ErrBadRequest, "movie_id or poll_id is required")
	}

	var movieID int
	if req.PollID != nil {
		p, err := s.polls.GetByID(ctx, *req.PollID)
		if err != nil {
			return 0, notFoundOr(err, "Poll not found", "failed to get poll")
		}
		if p.GroupID != groupID {
			return 0, newError(ErrBadRequest, "Poll does not belong to this group")
		}
		if req.MovieID == nil {
			if p.WinningOptionID == nil {
				return 0, newError(ErrBadRequest, "Poll has no winning movie")
			}
			opt, err := s.polls.GetOption(ctx, *p.WinningOptionID)
			if err != nil {
				return 0, fmt.Errorf("failed to get winning option: %w", err)
			}
			movieID = opt.MovieID
		}
	}
	if req.MovieID != nil {
		movieID = *req.MovieID
	}

	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, newError(ErrBadRequest, "Movie with id %d not found in catalog.", movieID)
		}
		return 0, fmt.Errorf("failed to get movie: %w", err)
	}
	return movieID, nil
}
