package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
)

const lastIndexedAtKey = "last_indexed_at"

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// getMetadata returns the value for key, or sql.ErrNoRows.
func getMetadata(ctx context.Context, q queryer, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	return value, err
}

func setMetadata(ctx context.Context, e execer, key, value string) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func deleteMetadata(ctx context.Context, e execer, key string) error {
	_, err := e.ExecContext(ctx, "DELETE FROM metadata WHERE key = ?", key)
	return err
}

// loadLastIndexedAt returns nil when no scan has finished yet.
func loadLastIndexedAt(ctx context.Context, q queryer) (*int64, error) {
	value, err := getMetadata(ctx, q, lastIndexedAtKey)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, err
	}
	return &ms, nil
}

func storeLastIndexedAt(ctx context.Context, e execer, at *int64) error {
	if at == nil {
		return deleteMetadata(ctx, e, lastIndexedAtKey)
	}
	return setMetadata(ctx, e, lastIndexedAtKey, strconv.FormatInt(*at, 10))
}
