// Package sqlite provides SQLite implementations of the persistence contract
// declared in internal/repository, backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// FeedRepo implements repository.FeedRepository using SQLite.
type FeedRepo struct{ db *sql.DB }

// NewFeedRepo creates a new SQLite-backed feed repository.
func NewFeedRepo(db *sql.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

const feedColumns = `id, identifier, aggregator, name, icon, icon_type, daily_limit, enabled, owner_id, group_id, options_json, created_at, updated_at`

func scanFeed(scanner interface{ Scan(...any) error }) (*entity.Feed, error) {
	var f entity.Feed
	var optionsJSON string
	err := scanner.Scan(
		&f.ID, &f.Identifier, &f.Aggregator, &f.Name, &f.Icon, &f.IconType,
		&f.DailyLimit, &f.Enabled, &f.OwnerID, &f.GroupID, &optionsJSON,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if optionsJSON != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &f.Options); err != nil {
			return nil, fmt.Errorf("scanFeed: unmarshal options: %w", err)
		}
	}
	return &f, nil
}

func (repo *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE id = ? LIMIT 1`
	row := repo.db.QueryRowContext(ctx, query, id)
	f, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	return f, nil
}

// ListAccessible returns every feed owned by userID plus every shared
// (ownerless) feed, matching Feed.AccessibleBy minus the enabled check —
// callers filter disabled feeds out where that distinction matters.
func (repo *FeedRepo) ListAccessible(ctx context.Context, userID int64) ([]*entity.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE owner_id = ? OR owner_id IS NULL ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccessible: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 32)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAccessible: Scan: %w", err)
		}
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAccessible: rows.Err: %w", err)
	}
	return feeds, nil
}

func (repo *FeedRepo) ListEnabled(ctx context.Context) ([]*entity.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE enabled = 1 ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListEnabled: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 64)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("ListEnabled: Scan: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (repo *FeedRepo) Create(ctx context.Context, feed *entity.Feed) error {
	optionsJSON, err := json.Marshal(feed.Options)
	if err != nil {
		return fmt.Errorf("Create: marshal options: %w", err)
	}
	const query = `
INSERT INTO feeds
(identifier, aggregator, name, icon, icon_type, daily_limit, enabled, owner_id, group_id, options_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query,
		feed.Identifier, feed.Aggregator, feed.Name, feed.Icon, feed.IconType,
		feed.DailyLimit, feed.Enabled, feed.OwnerID, feed.GroupID, string(optionsJSON),
	)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	feed.ID = id
	return nil
}

func (repo *FeedRepo) Update(ctx context.Context, feed *entity.Feed) error {
	optionsJSON, err := json.Marshal(feed.Options)
	if err != nil {
		return fmt.Errorf("Update: marshal options: %w", err)
	}
	const query = `
UPDATE feeds SET
	identifier   = ?,
	aggregator   = ?,
	name         = ?,
	icon         = ?,
	icon_type    = ?,
	daily_limit  = ?,
	enabled      = ?,
	owner_id     = ?,
	group_id     = ?,
	options_json = ?,
	updated_at   = CURRENT_TIMESTAMP
WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query,
		feed.Identifier, feed.Aggregator, feed.Name, feed.Icon, feed.IconType,
		feed.DailyLimit, feed.Enabled, feed.OwnerID, feed.GroupID, string(optionsJSON), feed.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *FeedRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM feeds WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

// SetEnabled implements subscribe/unsubscribe as a soft toggle (spec.md
// §4.9): unsubscribe never deletes the feed or its articles.
func (repo *FeedRepo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	const query = `UPDATE feeds SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, enabled, id)
	if err != nil {
		return fmt.Errorf("SetEnabled: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetEnabled: RowsAffected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("SetEnabled: no rows affected")
	}
	return nil
}
