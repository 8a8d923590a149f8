package repository

import (
	"context"
	"database/sql"
	"fmt"

	"movie-votr-api/internal/models"
)

const watchedSelect = `
	SELECT w.id, w.movie_id, w.group_id, w.watched_date, w.logged_by_id, w.notes,
		w.originating_poll_id, AVG(r.value)::float8, COUNT(r.rater_id)
	FROM watched_movies w
	LEFT JOIN ratings r ON r.watched_movie_id = w.id`

// WatchedRepository handles database operations for watch history and ratings.
type WatchedRepository struct {
	db *sql.DB
}

// NewWatchedRepository creates a new WatchedRepository.
func NewWatchedRepository(db *sql.DB) *WatchedRepository {
	return &WatchedRepository{db: db}
}

// Create inserts a watched entry. A second entry for the same originating
// poll fails with ErrDuplicate.
func (r *WatchedRepository) Create(ctx context.Context, w *models.WatchedMovie) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO watched_movies (movie_id, group_id, watched_date, logged_by_id, notes, originating_poll_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, w.MovieID, w.GroupID, w.WatchedDate, w.LoggedByID, w.Notes, w.OriginatingPollID).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("failed to create watched movie: %w", translate(err))
	}
	return nil
}

// GetByID returns a watched entry with its rating aggregate.
func (r *WatchedRepository) GetByID(ctx context.Context, id int) (*models.WatchedMovie, error) {
	row := r.db.QueryRowContext(ctx, watchedSelect+`
		WHERE w.id = $1
		GROUP BY w.id
	`, id)
	return scanWatched(row)
}

// ListByGroup returns a group's history, most recent first.
func (r *WatchedRepository) ListByGroup(ctx context.Context, groupID int) ([]models.WatchedMovie, error) {
	rows, err := r.db.QueryContext(ctx, watchedSelect+`
		WHERE w.group_id = $1
		GROUP BY w.id
		ORDER BY w.watched_date DESC, w.id DESC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched movies: %w", err)
	}
	defer rows.Close()

	entries := make([]models.WatchedMovie, 0)
	for rows.Next() {
		w, err := scanWatched(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *w)
	}
	return entries, rows.Err()
}

// UpsertRating stores a user's rating, replacing an earlier one.
func (r *WatchedRepository) UpsertRating(ctx context.Context, rt *models.Rating) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ratings (watched_movie_id, rater_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (watched_movie_id, rater_id) DO UPDATE SET
			value = EXCLUDED.value,
			rated_at = NOW()
		RETURNING rated_at
	`, rt.WatchedMovieID, rt.RaterID, rt.Value).Scan(&rt.RatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", translate(err))
	}
	return nil
}

// Ratings returns all ratings of a watched entry.
func (r *WatchedRepository) Ratings(ctx context.Context, watchedID int) ([]models.Rating, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT watched_movie_id, rater_id, value, rated_at
		FROM ratings WHERE watched_movie_id = $1
		ORDER BY rated_at, rater_id
	`, watchedID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]models.Rating, 0)
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.WatchedMovieID, &rt.RaterID, &rt.Value, &rt.RatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}

func scanWatched(row rowScanner) (*models.WatchedMovie, error) {
	var w models.WatchedMovie
	err := row.Scan(
		&w.ID, &w.MovieID, &w.GroupID, &w.WatchedDate, &w.LoggedByID, &w.Notes,
		&w.OriginatingPollID, &w.AverageRating, &w.RatingCount,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}
