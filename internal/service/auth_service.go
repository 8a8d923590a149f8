package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"movie-votr-api/internal/auth"
	"movie-votr-api/internal/models"
	"movie-votr-api/internal/repository"
)

const (
	maxUsernameLen = 50
	maxEmailLen    = 255

	credentialsDetail = "Could not validate credentials"
	badLoginDetail    = "Incorrect username or password"
)

// AuthService handles registration, login and token verification.
type AuthService struct {
	users  UserStore
	tokens *auth.TokenIssuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a user and returns an access token for it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.Token, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	switch {
	case username == "" || len(username) > maxUsernameLen:
		return nil, newError(ErrBadRequest, "username must be 1 to %d characters", maxUsernameLen)
	case auth.IsEmail(username):
		// Login routes email-shaped identifiers to the email lookup.
		return nil, newError(ErrBadRequest, "username must not be an email address")
	case !auth.IsEmail(email) || len(email) > maxEmailLen:
		return nil, newError(ErrBadRequest, "a valid email address is required")
	case req.Password == "":
		return nil, newError(ErrBadRequest, "password is required")
	case len(req.Password) > auth.MaxPasswordBytes:
		return nil, newError(ErrBadRequest, "password must be at most %d bytes", auth.MaxPasswordBytes)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, newError(ErrConflict, "Username already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, newError(ErrConflict, "Email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "Username or email already registered")
		}
		return nil, err
	}

	slog.Info("user registered", "user_id", u.ID, "username", u.Username)
	return s.issue(u.Username)
}

// Login verifies a username or email and password and returns an access token.
// Identifiers matching the email pattern are looked up by email, anything
// else by username.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.Token, error) {
	var (
		u   *models.User
		err error
	)
	if auth.IsEmail(identifier) {
		u, err = s.users.GetByEmail(ctx, identifier)
	} else {
		u, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthorized, badLoginDetail)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, newError(ErrUnauthorized, badLoginDetail)
	}
	return s.issue(u.Username)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	username, err := s.tokens.Parse(token)
	if err != nil {
		return nil, newError(ErrUnauthorized, credentialsDetail)
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthorized, credentialsDetail)
		}
		return nil, fmt.Errorf("failed to load token subject: %w", err)
	}
	return u, nil
}

// GetUser returns user id. Callers may only read their own record.
func (s *AuthService) GetUser(ctx context.Context, caller *models.User, id int) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "failed to get user")
	}
	if u.ID != caller.ID {
		return nil, newError(ErrForbidden, "Not authorized to access this user")
	}
	return u, nil
}

// EnsureSuperuser creates the bootstrap superuser unless the username is taken.
func (s *AuthService) EnsureSuperuser(ctx context.Context, username, email, password string) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		if !existing.IsSuperuser {
			slog.Warn("bootstrap admin username belongs to a regular user", "username", username)
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	u := &models.User{Username: username, Email: email, PasswordHash: hash, IsSuperuser: true}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("superuser created", "username", username)
	return nil
}

func (s *AuthService) issue(username string) (*models.Token, error) {
	token, err := s.tokens.Issue(username)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.Token{AccessToken: token, TokenType: "bearer"}, nil
}
