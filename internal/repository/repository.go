// Package repository declares the storage-agnostic persistence contract
// (spec.md §4's C10) over Users, Feeds, FeedGroups, Articles, per-user
// article state, and GReader auth tokens. internal/infra/adapter/persistence
// provides the SQLite-backed implementation; tests typically use
// github.com/DATA-DOG/go-sqlmock against the same interfaces.
package repository

import (
	"context"
	"time"

	"feedreader/internal/domain/entity"
)

// FeedRepository manages Feed rows.
type FeedRepository interface {
	Get(ctx context.Context, id int64) (*entity.Feed, error)
	// ListAccessible returns every feed visible to userID: its own feeds
	// plus shared (ownerless) feeds, matching spec.md §4.8's access rule.
	ListAccessible(ctx context.Context, userID int64) ([]*entity.Feed, error)
	// ListEnabled returns every enabled feed regardless of owner, for the
	// scheduler (spec.md C14) to drive aggregation runs over.
	ListEnabled(ctx context.Context) ([]*entity.Feed, error)
	Create(ctx context.Context, feed *entity.Feed) error
	Update(ctx context.Context, feed *entity.Feed) error
	Delete(ctx context.Context, id int64) error
	// SetEnabled implements subscribe/unsubscribe (spec.md §4.9): a soft
	// enable/disable toggle, never a row delete.
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

// FeedGroupRepository manages per-user FeedGroup labels.
type FeedGroupRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*entity.FeedGroup, error)
	GetByName(ctx context.Context, ownerID int64, name string) (*entity.FeedGroup, error)
	Create(ctx context.Context, group *entity.FeedGroup) error
	Delete(ctx context.Context, id int64) error
}

// ArticleRepository manages Article rows.
type ArticleRepository interface {
	Get(ctx context.Context, id int64) (*entity.Article, error)
	// GetByIdentifier supports the per-feed-scope uniqueness invariant and
	// idempotent aggregation re-runs (spec.md §8 property 2).
	GetByIdentifier(ctx context.Context, feedID int64, identifier string) (*entity.Article, error)
	Create(ctx context.Context, article *entity.Article) error
	Update(ctx context.Context, article *entity.Article) error
	Delete(ctx context.Context, id int64) error
	// DeleteOlderThan supports the scheduler's "delete old articles"
	// surface (spec.md C14).
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// CountCreatedSince supports the adaptive run limiter (spec.md §4.2):
	// how many articles has this feed collected already today.
	CountCreatedSince(ctx context.Context, feedID int64, since time.Time) (int, error)
	// Query resolves a stream-id predicate (internal/greader/streamfilter)
	// into a page of articles, newest-first unless Ascending is set.
	Query(ctx context.Context, q ArticleQuery) ([]*entity.Article, error)
	// CountUnread implements spec.md §4.9's unread-count source of truth
	// (before caching): total minus read, per feed.
	CountUnread(ctx context.Context, userID int64, feedID int64) (total, unread int, newest time.Time, err error)
}

// ArticleQuery describes one page of a stream read (spec.md §4.9 stream
// contents/ids). FeedIDs/Label/OnlyStarred/OnlyRead mirror the predicate
// built by internal/greader/streamfilter; at most one of Label/OnlyStarred/
// OnlyRead is meaningfully set alongside FeedIDs scoping.
type ArticleQuery struct {
	UserID         int64
	FeedIDs        []int64 // nil means "all accessible feeds"
	OnlyStarred    bool
	OnlyRead       bool
	PublishedAfter *time.Time // "ot" filter
	ExcludeState   string     // "xt" — exclude articles with this state tag
	RequireState   string     // "it" — require articles with this state tag
	Ascending      bool       // "r=o"
	Offset         int
	Limit          int
}

// ArticleStateRepository manages per-(user, article) read/starred rows.
type ArticleStateRepository interface {
	Get(ctx context.Context, userID, articleID int64) (*entity.ArticleState, error)
	// Upsert writes (or deletes, if the result IsEmpty) the state row.
	Upsert(ctx context.Context, state *entity.ArticleState) error
	// BulkSetRead marks every article matching the query as read (or
	// unread), supporting both edit-tag and mark-all-as-read (spec.md
	// §4.9).
	BulkSetRead(ctx context.Context, userID int64, articleIDs []int64, read bool) error
	BulkSetStarred(ctx context.Context, userID int64, articleIDs []int64, starred bool) error
	// MarkAllRead marks every article matched by q as read, optionally
	// restricted to PublishedAfter (spec.md §4.9 mark-all-as-read "ts").
	MarkAllRead(ctx context.Context, q ArticleQuery) error
	// StatesForArticles returns only the rows that exist (no row = unread
	// & unstarred) for categories rendering in stream contents.
	StatesForArticles(ctx context.Context, userID int64, articleIDs []int64) (map[int64]*entity.ArticleState, error)
}

// UserRepository manages User rows and credential checks.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Get(ctx context.Context, id int64) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}

// UserSettingsRepository manages per-user integration settings.
type UserSettingsRepository interface {
	Get(ctx context.Context, userID int64) (*entity.UserSettings, error)
	Upsert(ctx context.Context, settings *entity.UserSettings) error
}

// AuthTokenRepository manages GReader bearer tokens (spec.md §4.10).
type AuthTokenRepository interface {
	Create(ctx context.Context, token *entity.GReaderAuthToken) error
	Get(ctx context.Context, token string) (*entity.GReaderAuthToken, error)
	Delete(ctx context.Context, token string) error
}
