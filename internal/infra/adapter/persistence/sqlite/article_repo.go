package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// ArticleRepo implements repository.ArticleRepository using SQLite.
type ArticleRepo struct {
	db           *sql.DB
	queryBuilder *ArticleQueryBuilder
}

// NewArticleRepo creates a new SQLite-backed article repository.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db, queryBuilder: NewArticleQueryBuilder()}
}

const articleColumns = `id, feed_id, identifier, name, raw_content, content, date, original_published_at, author, icon, raw_content_hash, created_at, updated_at`

func scanArticle(scanner interface{ Scan(...any) error }) (*entity.Article, error) {
	var a entity.Article
	err := scanner.Scan(
		&a.ID, &a.FeedID, &a.Identifier, &a.Name, &a.RawContent, &a.Content,
		&a.Date, &a.OriginalPublishedAt, &a.Author, &a.Icon, &a.RawContentHash,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ? LIMIT 1`
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	return a, nil
}

// GetByIdentifier backs the per-feed-scope uniqueness invariant and lets
// aggregation runs (spec.md §8 property 2) skip articles they already have.
func (repo *ArticleRepo) GetByIdentifier(ctx context.Context, feedID int64, identifier string) (*entity.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE feed_id = ? AND identifier = ? LIMIT 1`
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, feedID, identifier))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByIdentifier: QueryRowContext: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) Create(ctx context.Context, article *entity.Article) error {
	const query = `
INSERT INTO articles
(feed_id, identifier, name, raw_content, content, date, original_published_at, author, icon, raw_content_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query,
		article.FeedID, article.Identifier, article.Name, article.RawContent, article.Content,
		article.Date, article.OriginalPublishedAt, article.Author, article.Icon, article.RawContentHash,
	)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	article.ID = id
	return nil
}

func (repo *ArticleRepo) Update(ctx context.Context, article *entity.Article) error {
	const query = `
UPDATE articles SET
	name             = ?,
	raw_content      = ?,
	content          = ?,
	date             = ?,
	author           = ?,
	icon             = ?,
	raw_content_hash = ?,
	updated_at       = CURRENT_TIMESTAMP
WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query,
		article.Name, article.RawContent, article.Content, article.Date,
		article.Author, article.Icon, article.RawContentHash, article.ID,
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

func (repo *ArticleRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM articles WHERE id = ?`
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

// DeleteOlderThan backs the scheduler's retention sweep (spec.md C14).
func (repo *ArticleRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM articles WHERE date < ?`
	res, err := repo.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: RowsAffected: %w", err)
	}
	return n, nil
}

// CountCreatedSince feeds the adaptive run limiter (spec.md §4.2): how many
// articles this feed has already collected since the given time, usually
// the start of the current UTC day.
func (repo *ArticleRepo) CountCreatedSince(ctx context.Context, feedID int64, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM articles WHERE feed_id = ? AND created_at >= ?`
	var count int
	err := repo.db.QueryRowContext(ctx, query, feedID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountCreatedSince: QueryRowContext: %w", err)
	}
	return count, nil
}

// Query resolves a stream-id predicate into one page of articles.
func (repo *ArticleRepo) Query(ctx context.Context, q repository.ArticleQuery) ([]*entity.Article, error) {
	join, where, args := repo.queryBuilder.Build(q)
	orderLimit, args := repo.queryBuilder.OrderAndLimit(q, args)

	query := `SELECT ` + joinColumns("a.") + ` FROM articles a ` + join + ` ` + where + ` ` + orderLimit
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Query: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 32)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("Query: Scan: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// joinColumns renders articleColumns prefixed with the given table alias,
// since Query joins against article_states and needs unambiguous columns.
func joinColumns(prefix string) string {
	cols := []string{
		"id", "feed_id", "identifier", "name", "raw_content", "content",
		"date", "original_published_at", "author", "icon", "raw_content_hash",
		"created_at", "updated_at",
	}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += prefix + c
	}
	return out
}

// CountUnread implements the unread-count source of truth behind the 30s
// cache in internal/greader/service (spec.md §4.9).
func (repo *ArticleRepo) CountUnread(ctx context.Context, userID int64, feedID int64) (total, unread int, newest time.Time, err error) {
	const totalQuery = `SELECT COUNT(*), MAX(date) FROM articles WHERE feed_id = ?`
	var newestVal sql.NullTime
	if err = repo.db.QueryRowContext(ctx, totalQuery, feedID).Scan(&total, &newestVal); err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("CountUnread: total: %w", err)
	}
	if newestVal.Valid {
		newest = newestVal.Time
	}

	const unreadQuery = `
SELECT COUNT(*) FROM articles a
LEFT JOIN article_states st ON st.article_id = a.id AND st.user_id = ?
WHERE a.feed_id = ? AND (st.read IS NULL OR st.read = 0)`
	if err = repo.db.QueryRowContext(ctx, unreadQuery, userID, feedID).Scan(&unread); err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("CountUnread: unread: %w", err)
	}
	return total, unread, newest, nil
}
