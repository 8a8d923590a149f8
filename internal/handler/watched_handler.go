package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

// WatchedHandler handles watch history and rating requests.
type WatchedHandler struct {
	svc *service.WatchedService
}

// NewWatchedHandler creates a new WatchedHandler.
func NewWatchedHandler(svc *service.WatchedService) *WatchedHandler {
	return &WatchedHandler{svc: svc}
}

// Log records a movie the group watched.
// @Summary Log watched movie
// @Tags watched
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param body body models.LogWatchedRequest true "Entry"
// @Success 201 {object} models.WatchedMovie
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /groups/{id}/watched [post]
func (h *WatchedHandler) Log(c fiber.Ctx) error {
	groupID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req models.LogWatchedRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	w, err := h.svc.Log(c.Context(), currentUser(c), groupID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

// List returns a group's watch history.
// @Summary List watched movies
// @Tags watched
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {array} models.WatchedMovie
// @Router /groups/{id}/watched [get]
func (h *WatchedHandler) List(c fiber.Ctx) error {
	groupID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	entries, err := h.svc.List(c.Context(), currentUser(c), groupID)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// Rate stores the caller's rating for a watched entry.
// @Summary Rate watched movie
// @Tags watched
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Watched entry ID"
// @Param body body models.RateRequest true "Rating 1-10"
// @Success 200 {object} models.Rating
// @Failure 400 {object} ErrorResponse
// @Router /watched/{id}/rating [put]
func (h *WatchedHandler) Rate(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req models.RateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	r, err := h.svc.Rate(c.Context(), currentUser(c), id, req.Value)
	if err != nil {
		return err
	}
	return c.JSON(r)
}

// Ratings lists the ratings of a watched entry.
// @Summary List ratings
// @Tags watched
// @Produce json
// @Security BearerAuth
// @Param id path int true "Watched entry ID"
// @Success 200 {array} models.Rating
// @Router /watched/{id}/ratings [get]
func (h *WatchedHandler) Ratings(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ratings, err := h.svc.Ratings(c.Context(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(ratings)
}
