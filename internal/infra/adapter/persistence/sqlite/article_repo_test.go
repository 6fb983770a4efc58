package sqlite_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"feedreader/internal/domain/entity"
	"feedreader/internal/infra/adapter/persistence/sqlite"
	"feedreader/internal/repository"
)

func articleRow(a *entity.Article) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "feed_id", "identifier", "name", "raw_content", "content",
		"date", "original_published_at", "author", "icon", "raw_content_hash",
		"created_at", "updated_at",
	}).AddRow(
		a.ID, a.FeedID, a.Identifier, a.Name, a.RawContent, a.Content,
		a.Date, a.OriginalPublishedAt, a.Author, a.Icon, a.RawContentHash,
		a.CreatedAt, a.UpdatedAt,
	)
}

func TestArticleRepo_GetByIdentifier(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	want := &entity.Article{ID: 9, FeedID: 2, Identifier: "abc123", Name: "Title", Date: now, OriginalPublishedAt: now, CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
		WithArgs(int64(2), "abc123").
		WillReturnRows(articleRow(want))

	repo := sqlite.NewArticleRepo(db)
	got, err := repo.GetByIdentifier(context.Background(), 2, "abc123")
	if err != nil {
		t.Fatalf("GetByIdentifier err=%v", err)
	}
	if got == nil || got.ID != 9 {
		t.Fatalf("GetByIdentifier got=%+v", got)
	}
}

func TestArticleRepo_GetByIdentifier_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
		WithArgs(int64(2), "missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "feed_id", "identifier", "name", "raw_content", "content",
			"date", "original_published_at", "author", "icon", "raw_content_hash",
			"created_at", "updated_at",
		}))

	repo := sqlite.NewArticleRepo(db)
	got, err := repo.GetByIdentifier(context.Background(), 2, "missing")
	if err != nil {
		t.Fatalf("GetByIdentifier err=%v", err)
	}
	if got != nil {
		t.Fatalf("GetByIdentifier want nil, got %+v", got)
	}
}

func TestArticleRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnResult(sqlmock.NewResult(42, 1))

	repo := sqlite.NewArticleRepo(db)
	article := &entity.Article{FeedID: 2, Identifier: "xyz", Name: "Title", Date: time.Now(), OriginalPublishedAt: time.Now()}
	if err := repo.Create(context.Background(), article); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if article.ID != 42 {
		t.Fatalf("Create want ID=42, got %d", article.ID)
	}
}

func TestArticleRepo_CountCreatedSince(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles WHERE feed_id")).
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	repo := sqlite.NewArticleRepo(db)
	count, err := repo.CountCreatedSince(context.Background(), 1, time.Now().Truncate(24*time.Hour))
	if err != nil {
		t.Fatalf("CountCreatedSince err=%v", err)
	}
	if count != 4 {
		t.Fatalf("CountCreatedSince want 4, got %d", count)
	}
}

func TestArticleRepo_Query_FeedScoped(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	want := &entity.Article{ID: 1, FeedID: 3, Identifier: "a", Name: "A", Date: now, OriginalPublishedAt: now, CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery("SELECT .* FROM articles a").WillReturnRows(articleRow(want))

	repo := sqlite.NewArticleRepo(db)
	got, err := repo.Query(context.Background(), repository.ArticleQuery{FeedIDs: []int64{3}, Limit: 20})
	if err != nil {
		t.Fatalf("Query err=%v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("Query got=%+v", got)
	}
}

func TestArticleRepo_DeleteOlderThan(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM articles WHERE date")).
		WillReturnResult(sqlmock.NewResult(0, 7))

	repo := sqlite.NewArticleRepo(db)
	n, err := repo.DeleteOlderThan(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("DeleteOlderThan err=%v", err)
	}
	if n != 7 {
		t.Fatalf("DeleteOlderThan want 7, got %d", n)
	}
}
