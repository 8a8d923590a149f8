package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/repository"
	"movie-votr-api/internal/tmdb"
)

const searchCachePrefix = "tmdb:search:"

// MovieService handles the catalog and the TMDB search proxy.
type MovieService struct {
	movies   MovieStore
	source   MovieSource
	redis    *redis.Client
	cacheTTL time.Duration
}

// NewMovieService creates a new MovieService. rdb may be nil.
func NewMovieService(movies MovieStore, source MovieSource, rdb *redis.Client, cacheTTL time.Duration) *MovieService {
	return &MovieService{
		movies:   movies,
		source:   source,
		redis:    rdb,
		cacheTTL: cacheTTL,
	}
}

// Search proxies a title search to TMDB. An empty query returns no results
// without contacting TMDB.
func (s *MovieService) Search(ctx context.Context, query string) ([]tmdb.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []tmdb.Movie{}, nil
	}

	cacheKey := searchCachePrefix + strings.ToLower(query)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		var results []tmdb.Movie
		if json.Unmarshal([]byte(cached), &results) == nil {
			slog.Debug("cache hit", "key", cacheKey)
			return results, nil
		}
	}

	results, err := s.source.SearchMovies(ctx, query)
	if err != nil {
		return nil, upstreamError(err)
	}

	if data, err := json.Marshal(results); err == nil {
		s.setCache(ctx, cacheKey, string(data), s.cacheTTL)
	}
	return results, nil
}

// AddToCatalog returns the catalog movie for req.TMDBId, inserting it when
// absent. created is false when the movie was already catalogued; existing
// rows are never updated. A request carrying only a TMDB ID is completed
// from TMDB movie details.
func (s *MovieService) AddToCatalog(ctx context.Context, req models.AddMovieRequest) (movie *models.Movie, created bool, err error) {
	tmdbID := strings.TrimSpace(req.TMDBId)
	if tmdbID == "" {
		return nil, false, newError(ErrBadRequest, "tmdb_id is required")
	}

	existing, err := s.movies.GetByTMDBId(ctx, tmdbID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up movie: %w", err)
	}

	m := &models.Movie{
		TMDBId:      tmdbID,
		Title:       strings.TrimSpace(req.Title),
		ReleaseYear: req.ReleaseYear,
		PosterURL:   req.PosterURL,
	}
	if m.Title == "" {
		if err := s.fillFromSource(ctx, m); err != nil {
			return nil, false, err
		}
	}

	if err := s.movies.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, getErr := s.movies.GetByTMDBId(ctx, tmdbID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to reload movie: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	slog.Info("movie added to catalog", "movie_id", m.ID, "tmdb_id", m.TMDBId)
	return m, true, nil
}

// List returns a page of the catalog.
func (s *MovieService) List(ctx context.Context, page models.Pagination) ([]models.Movie, error) {
	page.Validate()
	return s.movies.List(ctx, page.Skip, page.Limit)
}

// Get returns one catalog movie.
func (s *MovieService) Get(ctx context.Context, id int) (*models.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Movie not found", "failed to get movie")
	}
	return m, nil
}

// Delete removes a catalog movie that no poll option or watched entry uses.
func (s *MovieService) Delete(ctx context.Context, id int) (*models.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Movie not found", "failed to get movie")
	}
	if err := s.movies.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, newError(ErrConflict, "Movie is referenced by a poll or watch history")
		}
		return nil, notFoundOr(err, "Movie not found", "failed to delete movie")
	}

	slog.Info("movie deleted", "movie_id", id)
	return m, nil
}

func (s *MovieService) fillFromSource(ctx context.Context, m *models.Movie) error {
	detail, err := s.source.GetMovieDetail(ctx, m.TMDBId)
	if err != nil {
		var statusErr *tmdb.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return newError(ErrNotFound, "Movie %s not found on TMDB", m.TMDBId)
		}
		return upstreamError(err)
	}

	m.Title = detail.Title
	if m.ReleaseYear == nil && len(detail.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(detail.ReleaseDate[:4]); err == nil {
			m.ReleaseYear = &year
		}
	}
	if m.PosterURL == nil && detail.PosterPath != "" {
		poster := models.TMDBImageBaseW500 + detail.PosterPath
		m.PosterURL = &poster
	}
	return nil
}

// upstreamError classifies a TMDB failure: a response with a bad status is
// UpstreamFailed, anything else means TMDB could not be used at all.
func upstreamError(err error) error {
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) {
		slog.Error("TMDB request failed", "status", statusErr.StatusCode, "error", err)
		return newError(ErrUpstreamFailed, "Error fetching from TMDb API")
	}
	slog.Error("TMDB unavailable", "error", err)
	return newError(ErrUpstreamUnavailable, "TMDb API is unavailable")
}

// ---- Redis Helpers ----

func (s *MovieService) getFromCache(ctx context.Context, key string) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("redis not available")
	}
	return s.redis.Get(ctx, key).Result()
}

func (s *MovieService) setCache(ctx context.Context, key, value string, ttl time.Duration) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}
