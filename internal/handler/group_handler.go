package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

// GroupHandler handles group and membership requests.
type GroupHandler struct {
	svc *service.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// Create makes a new group owned by the caller.
// @Summary Create group
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.CreateGroupRequest true "Group"
// @Success 201 {object} models.Group
// @Failure 409 {object} ErrorResponse
// @Router /groups [post]
func (h *GroupHandler) Create(c fiber.Ctx) error {
	var req models.CreateGroupRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	g, err := h.svc.Create(c.Context(), currentUser(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(g)
}

// List returns the caller's groups.
// @Summary List my groups
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Group
// @Router /groups [get]
func (h *GroupHandler) List(c fiber.Ctx) error {
	groups, err := h.svc.ListForUser(c.Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(groups)
}

// Get returns a group with its members.
// @Summary Get group
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} models.GroupWithMembers
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	g, err := h.svc.Get(c.Context(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(g)
}

// Join adds the caller to a group.
// @Summary Join group
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} models.Group
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /groups/{id}/join [post]
func (h *GroupHandler) Join(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	g, err := h.svc.Join(c.Context(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(g)
}
