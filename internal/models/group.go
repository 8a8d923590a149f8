package models

import "time"

// Group is a private circle of friends that votes on movies together.
type Group struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupWithMembers is the group detail response.
type GroupWithMembers struct {
	Group
	Members []User `json:"members"`
}

// CreateGroupRequest is the request body for creating a group.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
