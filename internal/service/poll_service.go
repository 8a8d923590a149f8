package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/repository"
)

const notPollMemberDetail = "User is not a member of this poll's group"

// PollService handles polls, voting and resolution.
type PollService struct {
	polls  PollStore
	groups GroupStore
	movies MovieStore
	users  UserStore
	now    func() time.Time
}

// NewPollService creates a new PollService.
func NewPollService(polls PollStore, groups GroupStore, movies MovieStore, users UserStore) *PollService {
	return &PollService{
		polls:  polls,
		groups: groups,
		movies: movies,
		users:  users,
		now:    time.Now,
	}
}

// Create opens a poll in groupID on behalf of a group member.
func (s *PollService) Create(ctx context.Context, caller *models.User, groupID int, req models.CreatePollRequest) (*models.Poll, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}
	if err := requireMember(ctx, s.groups, groupID, caller.ID, notGroupMemberDetail); err != nil {
		return nil, err
	}
	return s.create(ctx, groupID, caller.ID, req)
}

// AdminCreate opens a poll for any group and creator without a membership check.
func (s *PollService) AdminCreate(ctx context.Context, groupID, creatorID int, req models.CreatePollRequest) (*models.Poll, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}
	if _, err := s.users.GetByID(ctx, creatorID); err != nil {
		return nil, notFoundOr(err, "Creator not found", "failed to get creator")
	}

	p, err := s.create(ctx, groupID, creatorID, req)
	if err != nil {
		return nil, err
	}
	slog.Warn("poll created through admin surface", "poll_id", p.ID, "group_id", groupID, "creator_id", creatorID)
	return p, nil
}

func (s *PollService) create(ctx context.Context, groupID, creatorID int, req models.CreatePollRequest) (*models.Poll, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newError(ErrBadRequest, "poll title is required")
	}

	movieIDs := dedupe(req.MovieIDs)
	found, err := s.movies.ExistingIDs(ctx, movieIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range movieIDs {
		if !found[id] {
			return nil, newError(ErrBadRequest, "Movie with id %d not found in catalog.", id)
		}
	}

	p := &models.Poll{
		GroupID:     groupID,
		CreatorID:   creatorID,
		Title:       title,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := s.polls.Create(ctx, p, movieIDs); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, newError(ErrBadRequest, "A referenced movie was removed from the catalog")
		}
		return nil, err
	}

	slog.Info("poll created", "poll_id", p.ID, "group_id", groupID, "options", len(p.Options))
	return s.reload(ctx, p.ID)
}

// ListActive returns the open polls of a group.
func (s *PollService) ListActive(ctx context.Context, caller *models.User, groupID int) ([]models.Poll, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, notFoundOr(err, "Group not found", "failed to get group")
	}
	if err := requireMember(ctx, s.groups, groupID, caller.ID, notGroupMemberDetail); err != nil {
		return nil, err
	}
	return s.polls.ListActiveByGroup(ctx, groupID)
}

// Get returns a poll with the current vote count of every option.
func (s *PollService) Get(ctx context.Context, caller *models.User, pollID int) (*models.PollDetail, error) {
	p, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.groups, p.GroupID, caller.ID, notPollMemberDetail); err != nil {
		return nil, err
	}
	return s.detail(ctx, p)
}

// Vote records the caller's single vote in a poll.
func (s *PollService) Vote(ctx context.Context, caller *models.User, pollID, optionID int) (*models.Vote, error) {
	p, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, newError(ErrBadRequest, "This poll is no longer active.")
	}
	if p.Expired(s.now()) {
		return nil, newError(ErrBadRequest, "This poll has expired.")
	}
	if err := requireMember(ctx, s.groups, p.GroupID, caller.ID, notPollMemberDetail); err != nil {
		return nil, err
	}

	voted, err := s.polls.HasVoted(ctx, pollID, caller.ID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, newError(ErrBadRequest, "User has already voted in this poll.")
	}

	opt, err := s.polls.GetOption(ctx, optionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get poll option: %w", err)
	}
	if opt == nil || opt.PollID != pollID {
		return nil, newError(ErrBadRequest, "Poll option not found in this poll.")
	}

	v := &models.Vote{PollID: pollID, PollOptionID: optionID, VoterID: caller.ID}
	if err := s.polls.CreateVote(ctx, v); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrBadRequest, "User has already voted in this poll.")
		}
		return nil, err
	}

	slog.Info("vote cast", "poll_id", pollID, "option_id", optionID, "voter_id", caller.ID)
	return v, nil
}

// Close resolves an open poll. Only its creator or a superuser may close it.
// The option with the most votes wins; ties go to the lowest option ID and
// a poll without votes closes without a winner.
func (s *PollService) Close(ctx context.Context, caller *models.User, pollID int) (*models.PollDetail, error) {
	p, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != caller.ID && !caller.IsSuperuser {
		return nil, newError(ErrForbidden, "Only the poll creator can close this poll")
	}
	if !p.IsActive {
		return nil, newError(ErrBadRequest, "Poll is already closed")
	}

	counts, err := s.polls.VoteCounts(ctx, pollID)
	if err != nil {
		return nil, err
	}
	winner := pickWinner(p.Options, counts)

	closed, err := s.polls.Close(ctx, pollID, s.now(), winner)
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, newError(ErrBadRequest, "Poll is already closed")
	}

	slog.Info("poll closed", "poll_id", pollID, "winning_option_id", winner)
	p, err = s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, p)
}

// List returns a page of all polls.
func (s *PollService) List(ctx context.Context, page models.Pagination) ([]models.Poll, error) {
	page.Validate()
	return s.polls.List(ctx, page.Skip, page.Limit)
}

// AdminGet returns any poll without a membership check.
func (s *PollService) AdminGet(ctx context.Context, pollID int) (*models.Poll, error) {
	return s.getPoll(ctx, pollID)
}

// Delete removes a poll with its options and votes and returns it.
func (s *PollService) Delete(ctx context.Context, pollID int) (*models.Poll, error) {
	p, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := s.polls.Delete(ctx, pollID); err != nil {
		return nil, notFoundOr(err, "Poll not found", "failed to delete poll")
	}
	slog.Info("poll deleted", "poll_id", pollID)
	return p, nil
}

func (s *PollService) getPoll(ctx context.Context, pollID int) (*models.Poll, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, notFoundOr(err, "Poll not found", "failed to get poll")
	}
	return p, nil
}

func (s *PollService) reload(ctx context.Context, pollID int) (*models.Poll, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload poll: %w", err)
	}
	return p, nil
}

func (s *PollService) detail(ctx context.Context, p *models.Poll) (*models.PollDetail, error) {
	counts, err := s.polls.VoteCounts(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for _, o := range p.Options {
		if _, ok := counts[o.ID]; !ok {
			counts[o.ID] = 0
		}
	}
	return &models.PollDetail{Poll: *p, VoteCounts: counts}, nil
}

// pickWinner returns the option with the most votes, the lowest option ID
// among equals, or nil when nothing was voted for.
func pickWinner(options []models.PollOption, counts map[int]int) *int {
	var (
		winner int
		best   int
	)
	for _, o := range options {
		c := counts[o.ID]
		if c == 0 {
			continue
		}
		if c > best || (c == best && o.ID < winner) {
			winner, best = o.ID, c
		}
	}
	if best == 0 {
		return nil
	}
	return &winner
}

// dedupe drops repeated IDs, keeping first occurrences in order.
func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
