package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// DB wraps a MySQL connection pool. The core only ever reads from the
// relational store; writes belong to other services.
type DB struct {
	sql *sql.DB
}

// New connects to MySQL and returns a DB handle.
// dsn uses the driver format: user:password@tcp(host:port)/dbname.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{sql: pool}, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.sql.Close()
}

// User is the slice of the users row the core consumes.
type User struct {
	ID             int32
	Username       string
	PasswordBcrypt string
	Country        string
}

// UserStats is the slice of the user_stats row the core consumes.
type UserStats struct {
	RankedScore int64
	TotalScore  int64
	AvgAccuracy float32
	Performance int16
}

// Channel is one row of the channels table.
type Channel struct {
	Name     string
	Topic    string
	Autojoin bool
}

// GetUserBySafeName retrieves a user by username_safe (lowercase, spaces
// replaced with underscores). Returns nil, nil if the user does not exist.
func (d *DB) GetUserBySafeName(ctx context.Context, safeName string) (*User, error) {
	var u User
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, username, password, country FROM users WHERE username_safe = ?`,
		safeName,
	).Scan(&u.ID, &u.Username, &u.PasswordBcrypt, &u.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %q: %w", safeName, err)
	}
	return &u, nil
}

// GetUserStats retrieves the stats row for one user and mode.
// Returns nil, nil if no stats row exists.
func (d *DB) GetUserStats(ctx context.Context, userID int32, mode uint8) (*UserStats, error) {
	var s UserStats
	err := d.sql.QueryRowContext(ctx,
		`SELECT ranked_score, total_score, avg_accuracy, performance
		 FROM user_stats WHERE user_id = ? AND mode = ?`,
		userID, mode,
	).Scan(&s.RankedScore, &s.TotalScore, &s.AvgAccuracy, &s.Performance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying stats for user %d mode %d: %w", userID, mode, err)
	}
	return &s, nil
}

// ListChannels returns all chat channels.
func (d *DB) ListChannels(ctx context.Context) ([]Channel, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT name, topic, autojoin FROM channels`)
	if err != nil {
		return nil, fmt.Errorf("querying channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.Name, &ch.Topic, &ch.Autojoin); err != nil {
			return nil, fmt.Errorf("scanning channel row: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating channel rows: %w", err)
	}
	return channels, nil
}
