package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

// AuthHandler handles registration, login and user self-service.
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register creates an account and returns an access token.
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "New account"
// @Success 201 {object} models.Token
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req models.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	tok, err := h.svc.Register(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tok)
}

// Login exchanges a username or email and password for an access token.
// Credentials come from a JSON body or from the query string.
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest false "Credentials"
// @Param username_or_email query string false "Username or email"
// @Param password query string false "Password"
// @Success 200 {object} models.Token
// @Failure 401 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req models.LoginRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &req); err != nil {
			return err
		}
	} else if err := c.Bind().Query(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}

	tok, err := h.svc.Login(c.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(tok)
}

// LoginOAuth is the OAuth2 password flow token endpoint.
// @Summary Login (OAuth2 password flow)
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username or email"
// @Param password formData string true "Password"
// @Success 200 {object} models.Token
// @Failure 401 {object} ErrorResponse
// @Router /login/oauth [post]
func (h *AuthHandler) LoginOAuth(c fiber.Ctx) error {
	var form models.OAuthLoginForm
	if err := c.Bind().Form(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form body")
	}

	tok, err := h.svc.Login(c.Context(), form.Username, form.Password)
	if err != nil {
		return err
	}
	return c.JSON(tok)
}

// Me returns the authenticated user.
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *AuthHandler) Me(c fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// GetUser returns a user record. Users may only read their own.
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *AuthHandler) GetUser(c fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	u, err := h.svc.GetUser(c.Context(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(u)
}
