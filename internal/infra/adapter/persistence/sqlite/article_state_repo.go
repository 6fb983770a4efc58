package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// ArticleStateRepo implements repository.ArticleStateRepository using
// SQLite. A missing row means unread and unstarred (spec.md §3 invariant);
// Upsert deletes the row once both flags go false again to avoid
// accumulating no-op state.
type ArticleStateRepo struct{ db *sql.DB }

// NewArticleStateRepo creates a new SQLite-backed article state repository.
func NewArticleStateRepo(db *sql.DB) repository.ArticleStateRepository {
	return &ArticleStateRepo{db: db}
}

func (repo *ArticleStateRepo) Get(ctx context.Context, userID, articleID int64) (*entity.ArticleState, error) {
	const query = `SELECT user_id, article_id, read, starred, updated_at FROM article_states WHERE user_id = ? AND article_id = ? LIMIT 1`
	var s entity.ArticleState
	err := repo.db.QueryRowContext(ctx, query, userID, articleID).Scan(&s.UserID, &s.ArticleID, &s.Read, &s.Starred, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	return &s, nil
}

func (repo *ArticleStateRepo) Upsert(ctx context.Context, state *entity.ArticleState) error {
	if state.IsEmpty() {
		const query = `DELETE FROM article_states WHERE user_id = ? AND article_id = ?`
		_, err := repo.db.ExecContext(ctx, query, state.UserID, state.ArticleID)
		if err != nil {
			return fmt.Errorf("Upsert: delete empty state: %w", err)
		}
		return nil
	}

	const query = `
INSERT INTO article_states (user_id, article_id, read, starred, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id, article_id) DO UPDATE SET
	read       = excluded.read,
	starred    = excluded.starred,
	updated_at = CURRENT_TIMESTAMP`
	_, err := repo.db.ExecContext(ctx, query, state.UserID, state.ArticleID, state.Read, state.Starred)
	if err != nil {
		return fmt.Errorf("Upsert: ExecContext: %w", err)
	}
	return nil
}

func (repo *ArticleStateRepo) BulkSetRead(ctx context.Context, userID int64, articleIDs []int64, read bool) error {
	return repo.bulkUpsert(ctx, userID, articleIDs, func(s *entity.ArticleState) { s.Read = read })
}

func (repo *ArticleStateRepo) BulkSetStarred(ctx context.Context, userID int64, articleIDs []int64, starred bool) error {
	return repo.bulkUpsert(ctx, userID, articleIDs, func(s *entity.ArticleState) { s.Starred = starred })
}

// bulkUpsert reads existing state per article (to preserve the other flag),
// applies mutate, then writes each row back through Upsert. Per spec.md §4.9
// edit-tag operates on a small client-supplied id list, so a round-trip per
// article is an acceptable cost.
func (repo *ArticleStateRepo) bulkUpsert(ctx context.Context, userID int64, articleIDs []int64, mutate func(*entity.ArticleState)) error {
	for _, articleID := range articleIDs {
		existing, err := repo.Get(ctx, userID, articleID)
		if err != nil {
			return fmt.Errorf("bulkUpsert: Get: %w", err)
		}
		if existing == nil {
			existing = &entity.ArticleState{UserID: userID, ArticleID: articleID}
		}
		mutate(existing)
		if err := repo.Upsert(ctx, existing); err != nil {
			return fmt.Errorf("bulkUpsert: Upsert: %w", err)
		}
	}
	return nil
}

// MarkAllRead marks every article matched by q as read, implementing
// mark-all-as-read (spec.md §4.9), optionally bounded by q.PublishedAfter
// ("ts" — only mark articles no newer than the client's last-seen time).
func (repo *ArticleStateRepo) MarkAllRead(ctx context.Context, q repository.ArticleQuery) error {
	qb := NewArticleQueryBuilder()
	q.OnlyRead = false
	join, where, args := qb.Build(q)

	selectQuery := `SELECT a.id FROM articles a ` + join + ` ` + where
	rows, err := repo.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return fmt.Errorf("MarkAllRead: QueryContext: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("MarkAllRead: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("MarkAllRead: rows.Close: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("MarkAllRead: rows.Err: %w", err)
	}

	return repo.BulkSetRead(ctx, q.UserID, ids, true)
}

// StatesForArticles returns only rows that exist; callers treat a missing
// entry as unread and unstarred.
func (repo *ArticleStateRepo) StatesForArticles(ctx context.Context, userID int64, articleIDs []int64) (map[int64]*entity.ArticleState, error) {
	result := make(map[int64]*entity.ArticleState, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(articleIDs))
	args := make([]interface{}, 0, len(articleIDs)+1)
	args = append(args, userID)
	for i, id := range articleIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := `
SELECT user_id, article_id, read, starred, updated_at
FROM article_states
WHERE user_id = ? AND article_id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("StatesForArticles: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var s entity.ArticleState
		if err := rows.Scan(&s.UserID, &s.ArticleID, &s.Read, &s.Starred, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("StatesForArticles: Scan: %w", err)
		}
		result[s.ArticleID] = &s
	}
	return result, rows.Err()
}
