package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"feedreader/internal/aggregator"
	"feedreader/internal/aggregator/registry"
	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
	"feedreader/internal/scheduler"
)

// stubFeeds, stubSettings, and stubArticles are small in-memory stand-ins
// for the repository interfaces, in the style of
// internal/greader/service/fakes_test.go's fakeFeeds/fakeArticles.

type stubFeeds struct {
	feeds []*entity.Feed
}

func (s *stubFeeds) Get(_ context.Context, id int64) (*entity.Feed, error) {
	for _, feed := range s.feeds {
		if feed.ID == id {
			return feed, nil
		}
	}
	return nil, nil
}
func (s *stubFeeds) ListAccessible(_ context.Context, _ int64) ([]*entity.Feed, error) { return nil, nil }
func (s *stubFeeds) ListEnabled(_ context.Context) ([]*entity.Feed, error) {
	var out []*entity.Feed
	for _, feed := range s.feeds {
		if feed.Enabled {
			out = append(out, feed)
		}
	}
	return out, nil
}
func (s *stubFeeds) Create(_ context.Context, _ *entity.Feed) error      { return nil }
func (s *stubFeeds) Update(_ context.Context, _ *entity.Feed) error      { return nil }
func (s *stubFeeds) Delete(_ context.Context, _ int64) error             { return nil }
func (s *stubFeeds) SetEnabled(_ context.Context, _ int64, _ bool) error { return nil }

type stubSettings struct {
	byUserID map[int64]*entity.UserSettings
}

func (s *stubSettings) Get(_ context.Context, userID int64) (*entity.UserSettings, error) {
	return s.byUserID[userID], nil
}
func (s *stubSettings) Upsert(_ context.Context, settings *entity.UserSettings) error {
	s.byUserID[settings.UserID] = settings
	return nil
}

type stubArticles struct {
	byFeedAndIdentifier map[string]*entity.Article
	created             int64
	deleteOlderThanN    int64
}

func newStubArticles() *stubArticles {
	return &stubArticles{byFeedAndIdentifier: make(map[string]*entity.Article)}
}

func articleKey(feedID int64, identifier string) string {
	return fmt.Sprintf("%d:%s", feedID, identifier)
}

func (s *stubArticles) Get(_ context.Context, _ int64) (*entity.Article, error) { return nil, nil }
func (s *stubArticles) GetByIdentifier(_ context.Context, feedID int64, identifier string) (*entity.Article, error) {
	return s.byFeedAndIdentifier[articleKey(feedID, identifier)], nil
}
func (s *stubArticles) Create(_ context.Context, article *entity.Article) error {
	s.byFeedAndIdentifier[articleKey(article.FeedID, article.Identifier)] = article
	atomic.AddInt64(&s.created, 1)
	return nil
}
func (s *stubArticles) Update(_ context.Context, _ *entity.Article) error { return nil }
func (s *stubArticles) Delete(_ context.Context, _ int64) error          { return nil }
func (s *stubArticles) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return s.deleteOlderThanN, nil
}
func (s *stubArticles) CountCreatedSince(_ context.Context, _ int64, _ time.Time) (int, error) {
	return 0, nil
}
func (s *stubArticles) Query(_ context.Context, _ repository.ArticleQuery) ([]*entity.Article, error) {
	return nil, nil
}
func (s *stubArticles) CountUnread(_ context.Context, _ int64, _ int64) (int, int, time.Time, error) {
	return 0, 0, time.Time{}, nil
}

// stubAggregator is a minimal Aggregator whose FetchSourceData/
// ParseToRawArticles/EnrichArticles yield a fixed article set, or whose
// Validate fails when failValidate is set, to exercise per-feed failure
// isolation.
type stubAggregator struct {
	identifiers  []string
	failValidate bool
	requireAuth  bool
}

func (a *stubAggregator) Validate(_ context.Context, _ *entity.Feed, settings *entity.UserSettings) error {
	if a.failValidate {
		return errors.New("stub: validation configured to fail")
	}
	if a.requireAuth && settings == nil {
		return errors.New("stub: settings required")
	}
	return nil
}
func (a *stubAggregator) FetchSourceData(_ context.Context, _ *entity.Feed, _ *entity.UserSettings, _ int) (any, error) {
	return a.identifiers, nil
}
func (a *stubAggregator) ParseToRawArticles(_ context.Context, _ *entity.Feed, source any) ([]aggregator.RawArticle, error) {
	ids := source.([]string)
	out := make([]aggregator.RawArticle, 0, len(ids))
	for _, id := range ids {
		out = append(out, aggregator.RawArticle{Identifier: id, Title: id, URL: id})
	}
	return out, nil
}
func (a *stubAggregator) FilterArticles(_ context.Context, _ *entity.Feed, articles []aggregator.RawArticle) []aggregator.RawArticle {
	return articles
}
func (a *stubAggregator) EnrichArticles(_ context.Context, _ *entity.Feed, _ *entity.UserSettings, articles []aggregator.RawArticle) []aggregator.FinalArticle {
	out := make([]aggregator.FinalArticle, 0, len(articles))
	for _, article := range articles {
		out = append(out, aggregator.FinalArticle{Identifier: article.Identifier, Name: article.Title})
	}
	return out
}
func (a *stubAggregator) FinalizeArticles(_ context.Context, _ *entity.Feed, articles []aggregator.FinalArticle) []aggregator.FinalArticle {
	return articles
}
func (a *stubAggregator) GetSourceURL(_ *entity.Feed) string { return "" }
func (a *stubAggregator) NormalizeIdentifier(raw string) (string, error) { return raw, nil }
func (a *stubAggregator) GetIdentifierChoices(_ context.Context, _ string) ([]aggregator.IdentifierChoice, error) {
	return nil, nil
}
func (a *stubAggregator) GetDefaultIdentifier() string                            { return "" }
func (a *stubAggregator) GetConfigurationFields() []aggregator.ConfigurationField { return nil }

func ownerID(id int64) *int64 { return &id }

func TestRunEnabledFeedsNow_InsertsNewArticlesAndSkipsDisabled(t *testing.T) {
	feeds := &stubFeeds{feeds: []*entity.Feed{
		{ID: 1, Aggregator: "stub", DailyLimit: 10, Enabled: true},
		{ID: 2, Aggregator: "stub", DailyLimit: 10, Enabled: false},
	}}
	articles := newStubArticles()
	reg := registry.New(map[string]aggregator.Aggregator{"stub": &stubAggregator{identifiers: []string{"a", "b", "c"}}})
	settings := &stubSettings{byUserID: make(map[int64]*entity.UserSettings)}

	runner := scheduler.NewRunner(feeds, settings, articles, reg, scheduler.Config{
		Now: func() time.Time { return time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC) },
	})

	stats, err := runner.RunEnabledFeedsNow(context.Background())
	if err != nil {
		t.Fatalf("RunEnabledFeedsNow: %v", err)
	}
	if stats.Feeds != 1 {
		t.Fatalf("expected 1 enabled feed, got %d", stats.Feeds)
	}
	if stats.Inserted != 3 {
		t.Fatalf("expected 3 inserted articles, got %d", stats.Inserted)
	}
	if atomic.LoadInt64(&articles.created) != 3 {
		t.Fatalf("expected 3 articles persisted, got %d", articles.created)
	}
}

func TestRunEnabledFeedsNow_DedupsAlreadyPersistedArticles(t *testing.T) {
	feeds := &stubFeeds{feeds: []*entity.Feed{{ID: 1, Aggregator: "stub", DailyLimit: 10, Enabled: true}}}
	articles := newStubArticles()
	articles.byFeedAndIdentifier[articleKey(1, "a")] = &entity.Article{FeedID: 1, Identifier: "a"}
	reg := registry.New(map[string]aggregator.Aggregator{"stub": &stubAggregator{identifiers: []string{"a", "b"}}})
	settings := &stubSettings{byUserID: make(map[int64]*entity.UserSettings)}

	runner := scheduler.NewRunner(feeds, settings, articles, reg, scheduler.Config{
		Now: func() time.Time { return time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC) },
	})

	stats, err := runner.RunEnabledFeedsNow(context.Background())
	if err != nil {
		t.Fatalf("RunEnabledFeedsNow: %v", err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("expected 1 newly inserted article, got %d", stats.Inserted)
	}
	if stats.Duplicate != 1 {
		t.Fatalf("expected 1 duplicate skipped, got %d", stats.Duplicate)
	}
}

func TestRunEnabledFeedsNow_OneFeedFailureDoesNotAbortOthers(t *testing.T) {
	feeds := &stubFeeds{feeds: []*entity.Feed{
		{ID: 1, Aggregator: "broken", DailyLimit: 10, Enabled: true},
		{ID: 2, Aggregator: "ok", DailyLimit: 10, Enabled: true},
	}}
	articles := newStubArticles()
	reg := registry.New(map[string]aggregator.Aggregator{
		"broken": &stubAggregator{failValidate: true},
		"ok":     &stubAggregator{identifiers: []string{"x"}},
	})
	settings := &stubSettings{byUserID: make(map[int64]*entity.UserSettings)}

	runner := scheduler.NewRunner(feeds, settings, articles, reg, scheduler.Config{
		Now: func() time.Time { return time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC) },
	})

	stats, err := runner.RunEnabledFeedsNow(context.Background())
	if err != nil {
		t.Fatalf("RunEnabledFeedsNow should not abort on a single feed's failure: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected 1 failed feed, got %d", stats.Failed)
	}
	if stats.Inserted != 1 {
		t.Fatalf("expected the healthy feed's article still inserted, got %d", stats.Inserted)
	}
}

func TestRunEnabledFeedsNow_OwnedFeedResolvesOwnerSettings(t *testing.T) {
	feeds := &stubFeeds{feeds: []*entity.Feed{{ID: 1, Aggregator: "auth", DailyLimit: 10, Enabled: true, OwnerID: ownerID(7)}}}
	articles := newStubArticles()
	reg := registry.New(map[string]aggregator.Aggregator{"auth": &stubAggregator{identifiers: []string{"a"}, requireAuth: true}})
	settings := &stubSettings{byUserID: map[int64]*entity.UserSettings{7: {UserID: 7}}}

	runner := scheduler.NewRunner(feeds, settings, articles, reg, scheduler.Config{
		Now: func() time.Time { return time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC) },
	})

	stats, err := runner.RunEnabledFeedsNow(context.Background())
	if err != nil {
		t.Fatalf("RunEnabledFeedsNow: %v", err)
	}
	if stats.Failed != 0 || stats.Inserted != 1 {
		t.Fatalf("expected owner settings to satisfy auth requirement, got failed=%d inserted=%d", stats.Failed, stats.Inserted)
	}
}

func TestRunEnabledFeedsNow_SharedFeedHasNilSettings(t *testing.T) {
	feeds := &stubFeeds{feeds: []*entity.Feed{{ID: 1, Aggregator: "auth", DailyLimit: 10, Enabled: true}}}
	articles := newStubArticles()
	reg := registry.New(map[string]aggregator.Aggregator{"auth": &stubAggregator{identifiers: []string{"a"}, requireAuth: true}})
	settings := &stubSettings{byUserID: make(map[int64]*entity.UserSettings)}

	runner := scheduler.NewRunner(feeds, settings, articles, reg, scheduler.Config{
		Now: func() time.Time { return time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC) },
	})

	stats, err := runner.RunEnabledFeedsNow(context.Background())
	if err != nil {
		t.Fatalf("RunEnabledFeedsNow: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected the auth-requiring feed to fail without owner settings, got failed=%d", stats.Failed)
	}
}

func TestRunEnabledFeedsNow_ZeroDailyLimitFetchesNothing(t *testing.T) {
	feeds := &stubFeeds{feeds: []*entity.Feed{{ID: 1, Aggregator: "stub", DailyLimit: 0, Enabled: true}}}
	articles := newStubArticles()
	reg := registry.New(map[string]aggregator.Aggregator{"stub": &stubAggregator{identifiers: []string{"a", "b"}}})
	settings := &stubSettings{byUserID: make(map[int64]*entity.UserSettings)}

	runner := scheduler.NewRunner(feeds, settings, articles, reg, scheduler.Config{
		Now: func() time.Time { return time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC) },
	})

	stats, err := runner.RunEnabledFeedsNow(context.Background())
	if err != nil {
		t.Fatalf("RunEnabledFeedsNow: %v", err)
	}
	if stats.Inserted != 0 {
		t.Fatalf("expected a zero-limit feed to fetch nothing, got inserted=%d", stats.Inserted)
	}
}

func TestDeleteOldArticles_DelegatesToRepository(t *testing.T) {
	feeds := &stubFeeds{}
	articles := newStubArticles()
	articles.deleteOlderThanN = 42
	reg := registry.New(nil)
	settings := &stubSettings{byUserID: make(map[int64]*entity.UserSettings)}

	runner := scheduler.NewRunner(feeds, settings, articles, reg, scheduler.Config{})

	deleted, err := runner.DeleteOldArticles(context.Background())
	if err != nil {
		t.Fatalf("DeleteOldArticles: %v", err)
	}
	if deleted != 42 {
		t.Fatalf("expected 42 deleted, got %d", deleted)
	}
}
