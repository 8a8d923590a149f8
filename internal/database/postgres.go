package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"movie-votr-api/internal/config"
)

// NewPostgres creates a new PostgreSQL connection pool and runs migrations.
func NewPostgres(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	slog.Info("connected to PostgreSQL", "db", cfg.DBName)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrations is the ordered schema. Every statement is idempotent.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS memberships (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, group_id)
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		id SERIAL PRIMARY KEY,
		tmdb_id VARCHAR(20) UNIQUE NOT NULL,
		title VARCHAR(255) NOT NULL,
		release_year INTEGER,
		poster_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS polls (
		id SERIAL PRIMARY KEY,
		group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		creator_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		resolved_at TIMESTAMPTZ,
		winning_option_id INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS poll_options (
		id SERIAL PRIMARY KEY,
		poll_id INTEGER NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE RESTRICT,
		suggested_by_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		suggested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (poll_id, movie_id)
	)`,
	// polls and poll_options reference each other; the back edge is added once both exist.
	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'polls_winning_option_fk') THEN
			ALTER TABLE polls ADD CONSTRAINT polls_winning_option_fk
				FOREIGN KEY (winning_option_id) REFERENCES poll_options(id) ON DELETE SET NULL;
		END IF;
	END $$`,
	`CREATE TABLE IF NOT EXISTS votes (
		poll_id INTEGER NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		poll_option_id INTEGER NOT NULL REFERENCES poll_options(id) ON DELETE CASCADE,
		voter_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		voted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (poll_id, voter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS watched_movies (
		id SERIAL PRIMARY KEY,
		movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE RESTRICT,
		group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		watched_date DATE NOT NULL DEFAULT CURRENT_DATE,
		logged_by_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		notes TEXT NOT NULL DEFAULT '',
		originating_poll_id INTEGER UNIQUE REFERENCES polls(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		watched_movie_id INTEGER NOT NULL REFERENCES watched_movies(id) ON DELETE CASCADE,
		rater_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		value INTEGER NOT NULL CHECK (value BETWEEN 1 AND 10),
		rated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (watched_movie_id, rater_id)
	)`,
	// Indexes for common query patterns
	`CREATE INDEX IF NOT EXISTS idx_memberships_group_id ON memberships(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_polls_group_active ON polls(group_id, is_active)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_options_poll_id ON poll_options(poll_id)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_poll_option_id ON votes(poll_option_id)`,
	`CREATE INDEX IF NOT EXISTS idx_watched_movies_group_id ON watched_movies(group_id)`,
}

// RunMigrations applies Migrations in order.
func RunMigrations(db *sql.DB) error {
	for _, m := range Migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed")
	return nil
}
