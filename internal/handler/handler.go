package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"movie-votr-api/internal/middleware"
	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// ErrorHandler renders every error returned by a handler or middleware.
// Domain errors map to their status; anything unexpected is logged and
// reported as a 500 without internals.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	detail := "internal server error"

	var domainErr *service.Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &domainErr):
		code = statusFor(domainErr.Kind)
		detail = domainErr.Detail
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		detail = fiberErr.Message
	default:
		slog.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}

	if code == fiber.StatusUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	return c.Status(code).JSON(ErrorResponse{Error: http.StatusText(code), Detail: detail})
}

func statusFor(kind error) int {
	switch kind {
	case service.ErrNotFound:
		return fiber.StatusNotFound
	case service.ErrConflict:
		return fiber.StatusConflict
	case service.ErrForbidden:
		return fiber.StatusForbidden
	case service.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case service.ErrBadRequest:
		return fiber.StatusBadRequest
	case service.ErrUpstreamUnavailable:
		return fiber.StatusServiceUnavailable
	case service.ErrUpstreamFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "movie-votr-api",
	})
}

func paramID(c fiber.Ctx, name string) (int, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func pagination(c fiber.Ctx) models.Pagination {
	return models.Pagination{
		Skip:  fiber.Query(c, "skip", 0),
		Limit: fiber.Query(c, "limit", 100),
	}
}

func bindJSON(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func currentUser(c fiber.Ctx) *models.User {
	return middleware.CurrentUser(c)
}
