package service

import (
	"context"
	"errors"
	"log/slog"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/repository"
)

// AdminService handles superuser management of users and groups.
// Poll and movie administration live on PollService and MovieService.
type AdminService struct {
	users  UserStore
	groups GroupStore
}

// NewAdminService creates a new AdminService.
func NewAdminService(users UserStore, groups GroupStore) *AdminService {
	return &AdminService{users: users, groups: groups}
}

// ListUsers returns a page of users.
func (s *AdminService) ListUsers(ctx context.Context, page models.Pagination) ([]models.User, error) {
	page.Validate()
	return s.users.List(ctx, page.Skip, page.Limit)
}

// GetUser returns any user.
func (s *AdminService) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "failed to get user")
	}
	return u, nil
}

// DeleteUser removes a user other than the acting admin and returns it.
func (s *AdminService) DeleteUser(ctx context.Context, caller *models.User, id int) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.ID == caller.ID {
		return nil, newError(ErrBadRequest, "Admins cannot delete their own account")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, newError(ErrConflict, "User still has polls, votes or watch history")
		}
		return nil, notFoundOr(err, "User not found", "failed to delete user")
	}

	slog.Info("user deleted", "user_id", id, "admin_id", caller.ID)
	return u, nil
}

// ListGroups returns a page of groups.
func (s *AdminService) ListGroups(ctx context.Context, page models.Pagination) ([]models.Group, error) {
	page.Validate()
	return s.groups.List(ctx, page.Skip, page.Limit)
}

// GetGroup returns any group with its members.
func (s *AdminService) GetGroup(ctx context.Context, id int) (*models.GroupWithMembers, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}
	members, err := s.groups.Members(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.GroupWithMembers{Group: *g, Members: members}, nil
}

// DeleteGroup removes a group with its memberships, polls and history.
func (s *AdminService) DeleteGroup(ctx context.Context, id int) (*models.Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to delete group")
	}

	slog.Info("group deleted", "group_id", id)
	return g, nil
}
