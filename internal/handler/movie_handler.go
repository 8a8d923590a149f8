package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

// MovieHandler handles HTTP requests for the catalog and TMDB search.
type MovieHandler struct {
	svc *service.MovieService
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(svc *service.MovieService) *MovieHandler {
	return &MovieHandler{svc: svc}
}

// Search proxies a title search to TMDB.
// @Summary Search TMDB
// @Tags movies
// @Produce json
// @Security BearerAuth
// @Param query query string true "Title search"
// @Success 200 {array} tmdb.Movie
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /movies/tmdb/search [get]
func (h *MovieHandler) Search(c fiber.Ctx) error {
	results, err := h.svc.Search(c.Context(), c.Query("query"))
	if err != nil {
		return err
	}
	return c.JSON(results)
}

// AddToCatalog adds a movie to the catalog, or returns the existing entry.
// @Summary Add movie to catalog
// @Tags movies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.AddMovieRequest true "Movie"
// @Success 201 {object} models.Movie "Created"
// @Success 200 {object} models.Movie "Already in catalog"
// @Failure 400 {object} ErrorResponse
// @Router /movies/catalog [post]
func (h *MovieHandler) AddToCatalog(c fiber.Ctx) error {
	var req models.AddMovieRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	m, created, err := h.svc.AddToCatalog(c.Context(), req)
	if err != nil {
		return err
	}
	if created {
		return c.Status(fiber.StatusCreated).JSON(m)
	}
	return c.JSON(m)
}

// ListCatalog returns a page of the catalog.
// @Summary List catalog
// @Tags movies
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Success 200 {array} models.Movie
// @Router /movies/catalog [get]
func (h *MovieHandler) ListCatalog(c fiber.Ctx) error {
	movies, err := h.svc.List(c.Context(), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(movies)
}

// GetCatalogMovie returns one catalog movie.
// @Summary Get catalog movie
// @Tags movies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movie ID"
// @Success 200 {object} models.Movie
// @Failure 404 {object} ErrorResponse
// @Router /movies/catalog/{id} [get]
func (h *MovieHandler) GetCatalogMovie(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	m, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(m)
}
