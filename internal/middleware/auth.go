package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

const currentUserKey = "current_user"

// Authenticator resolves an access token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireUser authenticates the request and stores the caller for CurrentUser.
// The token is read from "Authorization: Bearer <token>" (scheme matched
// case-insensitively) or, failing that, from the X-Access-Token header.
func RequireUser(a Authenticator) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return &service.Error{Kind: service.ErrUnauthorized, Detail: "Not authenticated"}
		}

		user, err := a.Authenticate(c.Context(), token)
		if err != nil {
			return err
		}

		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// RequireSuperuser rejects callers without the superuser flag. It must run
// after RequireUser.
func RequireSuperuser() fiber.Handler {
	return func(c fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsSuperuser {
			return &service.Error{Kind: service.ErrForbidden, Detail: "The user doesn't have enough privileges"}
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser, or nil.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

func bearerToken(c fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(c.Get("X-Access-Token"))
}
