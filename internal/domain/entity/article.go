// Package entity defines the core domain entities and validation logic for
// the feed aggregation and Google Reader-compatible server: users, feeds,
// articles, and the per-user read/starred state layered on top of them.
package entity

import "time"

// Article is a single finalized item produced by one aggregation run.
// Identifier is unique within FeedID (spec.md §3 invariant). Date is the
// sortable, possibly-jittered publish date (see filter_articles in
// spec.md §4.2); OriginalPublishedAt preserves the true source date so a
// UI can still show it even though Date has been shuffled for sort-order
// diversity (spec.md §9 design note).
type Article struct {
	ID                  int64
	FeedID              int64
	Identifier          string
	Name                string
	RawContent          string
	Content             string
	Date                time.Time
	OriginalPublishedAt time.Time
	Author              string
	Icon                string // extracted header element HTML fragment, or an image URL
	RawContentHash      string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate checks the structural invariants of an Article.
func (a *Article) Validate() error {
	if a.Identifier == "" {
		return &ValidationError{Field: "identifier", Message: "identifier is required"}
	}
	if a.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if a.FeedID <= 0 {
		return &ValidationError{Field: "feed_id", Message: "feed_id is required"}
	}
	return nil
}

// ArticleState is the per-(user, article) read/starred flag pair. The
// absence of a row means unread and unstarred (spec.md §3 invariant); a row
// with both flags false may be deleted to save space (spec.md §5).
type ArticleState struct {
	UserID    int64
	ArticleID int64
	Read      bool
	Starred   bool
	UpdatedAt time.Time
}

// IsEmpty reports whether the state row carries no information and is
// therefore eligible for deletion instead of storage.
func (s *ArticleState) IsEmpty() bool {
	return !s.Read && !s.Starred
}
