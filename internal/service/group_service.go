package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/repository"
)

const (
	maxGroupNameLen = 100

	notGroupMemberDetail = "User is not a member of this group"
)

// GroupService handles group creation and membership.
type GroupService struct {
	groups GroupStore
}

// NewGroupService creates a new GroupService.
func NewGroupService(groups GroupStore) *GroupService {
	return &GroupService{groups: groups}
}

// Create makes a group with the caller as its only member.
func (s *GroupService) Create(ctx context.Context, caller *models.User, req models.CreateGroupRequest) (*models.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxGroupNameLen {
		return nil, newError(ErrBadRequest, "group name must be 1 to %d characters", maxGroupNameLen)
	}

	g := &models.Group{Name: name, Description: req.Description}
	if err := s.groups.CreateWithOwner(ctx, g, caller.ID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "Group name already taken")
		}
		return nil, err
	}

	slog.Info("group created", "group_id", g.ID, "owner_id", caller.ID)
	return g, nil
}

// ListForUser returns the groups the caller belongs to.
func (s *GroupService) ListForUser(ctx context.Context, caller *models.User) ([]models.Group, error) {
	return s.groups.ListForUser(ctx, caller.ID)
}

// Get returns a group with its members. Only members may read it.
func (s *GroupService) Get(ctx context.Context, caller *models.User, id int) (*models.GroupWithMembers, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}
	if err := requireMember(ctx, s.groups, id, caller.ID, notGroupMemberDetail); err != nil {
		return nil, err
	}
	return s.withMembers(ctx, g)
}

// Join adds the caller to a group.
func (s *GroupService) Join(ctx context.Context, caller *models.User, id int) (*models.Group, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}

	member, err := s.groups.IsMember(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, newError(ErrConflict, "User is already a member of this group")
	}

	if err := s.groups.AddMember(ctx, id, caller.ID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "User is already a member of this group")
		}
		return nil, err
	}

	slog.Info("user joined group", "group_id", id, "user_id", caller.ID)
	return g, nil
}

func (s *GroupService) withMembers(ctx context.Context, g *models.Group) (*models.GroupWithMembers, error) {
	members, err := s.groups.Members(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return &models.GroupWithMembers{Group: *g, Members: members}, nil
}
