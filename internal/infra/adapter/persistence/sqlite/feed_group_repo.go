package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// FeedGroupRepo implements repository.FeedGroupRepository using SQLite.
type FeedGroupRepo struct{ db *sql.DB }

// NewFeedGroupRepo creates a new SQLite-backed feed group repository.
func NewFeedGroupRepo(db *sql.DB) repository.FeedGroupRepository {
	return &FeedGroupRepo{db: db}
}

func (repo *FeedGroupRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*entity.FeedGroup, error) {
	const query = `SELECT id, owner_id, name FROM feed_groups WHERE owner_id = ? ORDER BY name ASC`
	rows, err := repo.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListByOwner: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	groups := make([]*entity.FeedGroup, 0, 16)
	for rows.Next() {
		var g entity.FeedGroup
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name); err != nil {
			return nil, fmt.Errorf("ListByOwner: Scan: %w", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (repo *FeedGroupRepo) GetByName(ctx context.Context, ownerID int64, name string) (*entity.FeedGroup, error) {
	const query = `SELECT id, owner_id, name FROM feed_groups WHERE owner_id = ? AND name = ? LIMIT 1`
	var g entity.FeedGroup
	err := repo.db.QueryRowContext(ctx, query, ownerID, name).Scan(&g.ID, &g.OwnerID, &g.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByName: QueryRowContext: %w", err)
	}
	return &g, nil
}

func (repo *FeedGroupRepo) Create(ctx context.Context, group *entity.FeedGroup) error {
	const query = `INSERT INTO feed_groups (owner_id, name) VALUES (?, ?)`
	res, err := repo.db.ExecContext(ctx, query, group.OwnerID, group.Name)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	group.ID = id
	return nil
}

func (repo *FeedGroupRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM feed_groups WHERE id = ?`
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
