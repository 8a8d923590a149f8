package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

// AdminHandler handles superuser requests.
type AdminHandler struct {
	admin  *service.AdminService
	polls  *service.PollService
	movies *service.MovieService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService, polls *service.PollService, movies *service.MovieService) *AdminHandler {
	return &AdminHandler{admin: admin, polls: polls, movies: movies}
}

// ListUsers returns a page of users.
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c fiber.Ctx) error {
	users, err := h.admin.ListUsers(c.Context(), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// GetUser returns any user.
// @Summary Get user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.admin.GetUser(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// DeleteUser removes a user other than the caller.
// @Summary Delete user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.admin.DeleteUser(c.Context(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// ListGroups returns a page of groups.
// @Summary List groups
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Group
// @Router /admin/groups [get]
func (h *AdminHandler) ListGroups(c fiber.Ctx) error {
	groups, err := h.admin.ListGroups(c.Context(), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(groups)
}

// GetGroup returns any group with its members.
// @Summary Get group
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} models.GroupWithMembers
// @Router /admin/groups/{id} [get]
func (h *AdminHandler) GetGroup(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	g, err := h.admin.GetGroup(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(g)
}

// DeleteGroup removes a group and everything in it.
// @Summary Delete group
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} models.Group
// @Router /admin/groups/{id} [delete]
func (h *AdminHandler) DeleteGroup(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	g, err := h.admin.DeleteGroup(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(g)
}

// ListPolls returns a page of all polls.
// @Summary List polls
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Poll
// @Router /admin/polls [get]
func (h *AdminHandler) ListPolls(c fiber.Ctx) error {
	polls, err := h.polls.List(c.Context(), pagination(c))
	if err != nil {
		return err
	}
	return c.JSON(polls)
}

// GetPoll returns any poll.
// @Summary Get poll
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} models.Poll
// @Router /admin/polls/{id} [get]
func (h *AdminHandler) GetPoll(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.polls.AdminGet(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// CreatePoll opens a poll for any group on behalf of any user, skipping the
// membership check.
// @Summary Create poll as admin
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param group_id query int true "Group ID"
// @Param creator_id query int true "Creator user ID"
// @Param body body models.CreatePollRequest true "Poll"
// @Success 200 {object} models.Poll
// @Router /admin/polls [post]
func (h *AdminHandler) CreatePoll(c fiber.Ctx) error {
	var params models.AdminCreatePollParams
	if err := c.Bind().Query(&params); err != nil || params.GroupID < 1 || params.CreatorID < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "group_id and creator_id are required")
	}
	var req models.CreatePollRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	p, err := h.polls.AdminCreate(c.Context(), params.GroupID, params.CreatorID, req)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// DeletePoll removes a poll with its options and votes.
// @Summary Delete poll
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} models.Poll
// @Router /admin/polls/{id} [delete]
func (h *AdminHandler) DeletePoll(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.polls.Delete(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// DeleteMovie removes an unreferenced catalog movie.
// @Summary Delete catalog movie
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movie ID"
// @Success 200 {object} models.Movie
// @Failure 409 {object} ErrorResponse
// @Router /admin/movies/{id} [delete]
func (h *AdminHandler) DeleteMovie(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.movies.Delete(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(m)
}
