package models

import "time"

// WatchedMovie records a movie a group watched together.
type WatchedMovie struct {
	ID                int       `json:"id"`
	MovieID           int       `json:"movie_id"`
	GroupID           int       `json:"group_id"`
	WatchedDate       time.Time `json:"watched_date"`
	LoggedByID        int       `json:"logged_by_id"`
	Notes             string    `json:"notes"`
	OriginatingPollID *int      `json:"originating_poll_id"`
	AverageRating     *float64  `json:"average_rating"`
	RatingCount       int       `json:"rating_count"`
}

// Rating is one user's score for a watched entry.
type Rating struct {
	WatchedMovieID int       `json:"watched_movie_id"`
	RaterID        int       `json:"rater_id"`
	Value          int       `json:"value"`
	RatedAt        time.Time `json:"rated_at"`
}

// LogWatchedRequest is the request body for logging a watched movie.
// WatchedDate uses the YYYY-MM-DD layout and defaults to today.
type LogWatchedRequest struct {
	MovieID     *int   `json:"movie_id"`
	PollID      *int   `json:"poll_id"`
	WatchedDate string `json:"watched_date"`
	Notes       string `json:"notes"`
}

// RateRequest is the request body for rating a watched entry.
type RateRequest struct {
	Value int `json:"value"`
}

const (
	MinRating = 1
	MaxRating = 10
)
