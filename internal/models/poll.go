package models

import "time"

// Poll is a vote within a group on which movie to watch next.
// A poll is open while IsActive is true; closing is one-way.
type Poll struct {
	ID              int          `json:"id"`
	GroupID         int          `json:"group_id"`
	CreatorID       int          `json:"creator_id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	CreatedAt       time.Time    `json:"created_at"`
	ExpiresAt       *time.Time   `json:"expires_at"`
	IsActive        bool         `json:"is_active"`
	ResolvedAt      *time.Time   `json:"resolved_at"`
	WinningOptionID *int         `json:"winning_option_id"`
	Options         []PollOption `json:"options"`
}

// Expired reports whether the poll has an expiry that lies before now.
func (p *Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// PollOption is a single movie nominated within a poll.
type PollOption struct {
	ID            int       `json:"id"`
	PollID        int       `json:"poll_id"`
	MovieID       int       `json:"movie_id"`
	SuggestedByID int       `json:"suggested_by_id"`
	SuggestedAt   time.Time `json:"suggested_at"`
	Movie         *Movie    `json:"movie,omitempty"`
}

// PollDetail augments a poll with per-option vote counts.
type PollDetail struct {
	Poll
	VoteCounts map[int]int `json:"vote_counts"`
}

// Vote is one user's choice within a poll.
type Vote struct {
	PollID       int       `json:"poll_id"`
	PollOptionID int       `json:"poll_option_id"`
	VoterID      int       `json:"voter_id"`
	VotedAt      time.Time `json:"voted_at"`
}

// CreatePollRequest is the request body for creating a poll.
type CreatePollRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
	MovieIDs    []int      `json:"movie_ids"`
}

// AdminCreatePollParams selects the group and creator for an admin-created poll.
type AdminCreatePollParams struct {
	GroupID   int `query:"group_id"`
	CreatorID int `query:"creator_id"`
}

// CastVoteRequest is the request body for voting.
type CastVoteRequest struct {
	PollOptionID int `json:"poll_option_id"`
}
