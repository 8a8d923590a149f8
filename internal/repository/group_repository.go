package repository

import (
	"context"
	"database/sql"
	"fmt"

	"movie-votr-api/internal/models"
)

// GroupRepository handles database operations for groups and memberships.
type GroupRepository struct {
	db *sql.DB
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateWithOwner inserts a group and makes ownerID its first member in one transaction.
func (r *GroupRepository) CreateWithOwner(ctx context.Context, g *models.Group, ownerID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO groups (name, description) VALUES ($1, $2)
		RETURNING id, created_at
	`, g.Name, g.Description).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", translate(err))
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (user_id, group_id) VALUES ($1, $2)
	`, ownerID, g.ID); err != nil {
		return fmt.Errorf("failed to add owner membership: %w", translate(err))
	}

	return tx.Commit()
}

// GetByID returns a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	var g models.Group
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// List returns groups ordered by ID.
func (r *GroupRepository) List(ctx context.Context, skip, limit int) ([]models.Group, error) {
	return r.query(ctx, `
		SELECT id, name, description, created_at FROM groups
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, skip)
}

// ListForUser returns the groups userID is a member of.
func (r *GroupRepository) ListForUser(ctx context.Context, userID int) ([]models.Group, error) {
	return r.query(ctx, `
		SELECT g.id, g.name, g.description, g.created_at
		FROM groups g
		INNER JOIN memberships m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.id
	`, userID)
}

// IsMember reports whether userID belongs to groupID.
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM memberships WHERE group_id = $1 AND user_id = $2
		)
	`, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// AddMember links userID to groupID. The composite primary key rejects a
// second membership with ErrDuplicate.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (user_id, group_id) VALUES ($1, $2)
	`, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", translate(err))
	}
	return nil
}

// Members returns the users of a group in join order.
func (r *GroupRepository) Members(ctx context.Context, groupID int) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.is_superuser, u.created_at
		FROM users u
		INNER JOIN memberships m ON m.user_id = u.id
		WHERE m.group_id = $1
		ORDER BY m.joined_at, u.id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *u)
	}
	return members, rows.Err()
}

// Delete removes a group; memberships, polls and watched history cascade.
func (r *GroupRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	return expectAffected(res, err)
}

func (r *GroupRepository) query(ctx context.Context, query string, args ...any) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.Group, 0)
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
