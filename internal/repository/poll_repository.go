package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"movie-votr-api/internal/models"
)

const pollColumns = `id, group_id, creator_id, title, description, created_at,
	expires_at, is_active, resolved_at, winning_option_id`

// PollRepository handles database operations for polls, options and votes.
type PollRepository struct {
	db *sql.DB
}

// NewPollRepository creates a new PollRepository.
func NewPollRepository(db *sql.DB) *PollRepository {
	return &PollRepository{db: db}
}

// Create inserts a poll and one option per movie ID, attributed to the poll's
// creator, in a single transaction. p.ID and p.Options are filled in.
func (r *PollRepository) Create(ctx context.Context, p *models.Poll, movieIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO polls (group_id, creator_id, title, description, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, is_active
	`, p.GroupID, p.CreatorID, p.Title, p.Description, utcPtr(p.ExpiresAt)).Scan(&p.ID, &p.CreatedAt, &p.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", translate(err))
	}

	p.Options = make([]models.PollOption, 0, len(movieIDs))
	for _, movieID := range movieIDs {
		opt := models.PollOption{PollID: p.ID, MovieID: movieID, SuggestedByID: p.CreatorID}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO poll_options (poll_id, movie_id, suggested_by_id)
			VALUES ($1, $2, $3)
			RETURNING id, suggested_at
		`, opt.PollID, opt.MovieID, opt.SuggestedByID).Scan(&opt.ID, &opt.SuggestedAt)
		if err != nil {
			return fmt.Errorf("failed to create poll option for movie %d: %w", movieID, translate(err))
		}
		p.Options = append(p.Options, opt)
	}

	return tx.Commit()
}

// GetByID returns a poll with its options.
func (r *PollRepository) GetByID(ctx context.Context, id int) (*models.Poll, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = $1`, id)
	p, err := scanPoll(row)
	if err != nil {
		return nil, err
	}

	polls := []models.Poll{*p}
	if err := r.attachOptions(ctx, polls); err != nil {
		return nil, err
	}
	return &polls[0], nil
}

// ListActiveByGroup returns the open polls of a group, newest first.
func (r *PollRepository) ListActiveByGroup(ctx context.Context, groupID int) ([]models.Poll, error) {
	return r.query(ctx, `
		SELECT `+pollColumns+` FROM polls
		WHERE group_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC, id DESC
	`, groupID)
}

// List returns all polls ordered by ID.
func (r *PollRepository) List(ctx context.Context, skip, limit int) ([]models.Poll, error) {
	return r.query(ctx, `
		SELECT `+pollColumns+` FROM polls
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, skip)
}

// GetOption returns a single poll option.
func (r *PollRepository) GetOption(ctx context.Context, optionID int) (*models.PollOption, error) {
	var o models.PollOption
	err := r.db.QueryRowContext(ctx, `
		SELECT id, poll_id, movie_id, suggested_by_id, suggested_at
		FROM poll_options WHERE id = $1
	`, optionID).Scan(&o.ID, &o.PollID, &o.MovieID, &o.SuggestedByID, &o.SuggestedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// HasVoted reports whether voterID already has a vote in pollID.
func (r *PollRepository) HasVoted(ctx context.Context, pollID, voterID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM votes WHERE poll_id = $1 AND voter_id = $2)
	`, pollID, voterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}
	return exists, nil
}

// CreateVote inserts a vote. The (poll_id, voter_id) primary key turns a
// concurrent second vote into ErrDuplicate.
func (r *PollRepository) CreateVote(ctx context.Context, v *models.Vote) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO votes (poll_id, poll_option_id, voter_id)
		VALUES ($1, $2, $3)
		RETURNING voted_at
	`, v.PollID, v.PollOptionID, v.VoterID).Scan(&v.VotedAt)
	if err != nil {
		return fmt.Errorf("failed to create vote: %w", translate(err))
	}
	return nil
}

// VoteCounts counts votes per option of a poll at read time. Options with
// no votes are present with a zero count.
func (r *PollRepository) VoteCounts(ctx context.Context, pollID int) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, COUNT(v.voter_id)
		FROM poll_options o
		LEFT JOIN votes v ON v.poll_option_id = o.id
		WHERE o.poll_id = $1
		GROUP BY o.id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var optionID, count int
		if err := rows.Scan(&optionID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[optionID] = count
	}
	return counts, rows.Err()
}

// Close marks an open poll as resolved. It reports false when the poll was
// already closed, so concurrent closes resolve exactly once.
func (r *PollRepository) Close(ctx context.Context, pollID int, resolvedAt time.Time, winningOptionID *int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE polls
		SET is_active = FALSE, resolved_at = $2, winning_option_id = $3
		WHERE id = $1 AND is_active = TRUE
	`, pollID, resolvedAt.UTC(), winningOptionID)
	if err != nil {
		return false, fmt.Errorf("failed to close poll: %w", translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes a poll; options and votes cascade.
func (r *PollRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, id)
	return expectAffected(res, err)
}

// utcPtr normalises an optional instant to UTC before it is written.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (r *PollRepository) query(ctx context.Context, query string, args ...any) ([]models.Poll, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	polls := make([]models.Poll, 0)
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachOptions(ctx, polls); err != nil {
		return nil, err
	}
	return polls, nil
}

// attachOptions loads the options of all given polls with one query.
func (r *PollRepository) attachOptions(ctx context.Context, polls []models.Poll) error {
	if len(polls) == 0 {
		return nil
	}

	ids := make([]int, len(polls))
	index := make(map[int]int, len(polls))
	for i := range polls {
		ids[i] = polls[i].ID
		index[polls[i].ID] = i
		polls[i].Options = make([]models.PollOption, 0)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.poll_id, o.movie_id, o.suggested_by_id, o.suggested_at,
			m.id, m.tmdb_id, m.title, m.release_year, m.poster_url
		FROM poll_options o
		INNER JOIN movies m ON m.id = o.movie_id
		WHERE o.poll_id = ANY($1)
		ORDER BY o.id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query poll options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.PollOption
		var m models.Movie
		if err := rows.Scan(
			&o.ID, &o.PollID, &o.MovieID, &o.SuggestedByID, &o.SuggestedAt,
			&m.ID, &m.TMDBId, &m.Title, &m.ReleaseYear, &m.PosterURL,
		); err != nil {
			return fmt.Errorf("failed to scan poll option: %w", err)
		}
		o.Movie = &m
		i := index[o.PollID]
		polls[i].Options = append(polls[i].Options, o)
	}
	return rows.Err()
}

func scanPoll(row rowScanner) (*models.Poll, error) {
	var p models.Poll
	err := row.Scan(
		&p.ID, &p.GroupID, &p.CreatorID, &p.Title, &p.Description, &p.CreatedAt,
		&p.ExpiresAt, &p.IsActive, &p.ResolvedAt, &p.WinningOptionID,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
