package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

// PollHandler handles poll and voting requests.
type PollHandler struct {
	svc *service.PollService
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(svc *service.PollService) *PollHandler {
	return &PollHandler{svc: svc}
}

// Create opens a poll in a group.
// @Summary Create poll
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param group_id path int true "Group ID"
// @Param body body models.CreatePollRequest true "Poll"
// @Success 201 {object} models.Poll
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /polls/groups/{group_id}/polls [post]
func (h *PollHandler) Create(c fiber.Ctx) error {
	groupID, err := paramID(c, "group_id")
	if err != nil {
		return err
	}
	var req models.CreatePollRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	p, err := h.svc.Create(c.Context(), currentUser(c), groupID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// ListActive returns a group's open polls.
// @Summary List active polls
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param group_id path int true "Group ID"
// @Success 200 {array} models.Poll
// @Router /polls/groups/{group_id}/polls [get]
func (h *PollHandler) ListActive(c fiber.Ctx) error {
	groupID, err := paramID(c, "group_id")
	if err != nil {
		return err
	}

	polls, err := h.svc.ListActive(c.Context(), currentUser(c), groupID)
	if err != nil {
		return err
	}
	return c.JSON(polls)
}

// Get returns a poll with vote counts.
// @Summary Get poll
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} models.PollDetail
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /polls/{id} [get]
func (h *PollHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.svc.Get(c.Context(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Vote casts the caller's vote.
// @Summary Vote
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Param body body models.CastVoteRequest true "Option"
// @Success 200 {object} models.Vote
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /polls/{id}/vote [post]
func (h *PollHandler) Vote(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req models.CastVoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	v, err := h.svc.Vote(c.Context(), currentUser(c), id, req.PollOptionID)
	if err != nil {
		return err
	}
	return c.JSON(v)
}

// Close resolves a poll and records its winner.
// @Summary Close poll
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} models.PollDetail
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /polls/{id}/close [post]
func (h *PollHandler) Close(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.svc.Close(c.Context(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}
