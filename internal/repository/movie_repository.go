package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"movie-votr-api/internal/models"
)

// MovieRepository handles database operations for the movie catalog.
type MovieRepository struct {
	db *sql.DB
}

// NewMovieRepository creates a new MovieRepository.
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Create inserts a catalog movie. A second row for the same TMDB ID fails with ErrDuplicate.
func (r *MovieRepository) Create(ctx context.Context, m *models.Movie) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO movies (tmdb_id, title, release_year, poster_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.TMDBId, m.Title, m.ReleaseYear, m.PosterURL).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", translate(err))
	}
	return nil
}

// GetByID returns a catalog movie by internal ID.
func (r *MovieRepository) GetByID(ctx context.Context, id int) (*models.Movie, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tmdb_id, title, release_year, poster_url FROM movies WHERE id = $1
	`, id)
	return scanMovie(row)
}

// GetByTMDBId returns a catalog movie by its TMDB ID.
func (r *MovieRepository) GetByTMDBId(ctx context.Context, tmdbID string) (*models.Movie, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tmdb_id, title, release_year, poster_url FROM movies WHERE tmdb_id = $1
	`, tmdbID)
	return scanMovie(row)
}

// List returns catalog movies ordered by title.
func (r *MovieRepository) List(ctx context.Context, skip, limit int) ([]models.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tmdb_id, title, release_year, poster_url FROM movies
		ORDER BY title, id
		LIMIT $1 OFFSET $2
	`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

// ExistingIDs returns the subset of ids present in the catalog.
func (r *MovieRepository) ExistingIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	found := make(map[int]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM movies WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query movie ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan movie id: %w", err)
		}
		found[id] = true
	}
	return found, rows.Err()
}

// Delete removes a catalog movie. Poll options and watched entries referencing
// it block the delete with ErrForeignKey.
func (r *MovieRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
	return expectAffected(res, err)
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var m models.Movie
	if err := row.Scan(&m.ID, &m.TMDBId, &m.Title, &m.ReleaseYear, &m.PosterURL); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}
