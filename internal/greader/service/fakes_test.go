package service

import (
	"context"
	"sort"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// fakeFeeds, fakeGroups, fakeArticles, and fakeStates are small in-memory
// stand-ins for the repository interfaces, in the style of
// internal/aggregator/reddit_test.go's httptest fakes but for storage
// instead of HTTP.

type fakeFeeds struct {
	byID map[int64]*entity.Feed
}

func newFakeFeeds(feeds ...*entity.Feed) *fakeFeeds {
	f := &fakeFeeds{byID: make(map[int64]*entity.Feed)}
	for _, feed := range feeds {
		f.byID[feed.ID] = feed
	}
	return f
}

func (f *fakeFeeds) Get(_ context.Context, id int64) (*entity.Feed, error) {
	return f.byID[id], nil
}

func (f *fakeFeeds) ListAccessible(_ context.Context, userID int64) ([]*entity.Feed, error) {
	var out []*entity.Feed
	for _, feed := range f.byID {
		if feed.OwnerID == nil || *feed.OwnerID == userID {
			out = append(out, feed)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeFeeds) ListEnabled(_ context.Context) ([]*entity.Feed, error) {
	var out []*entity.Feed
	for _, feed := range f.byID {
		if feed.Enabled {
			out = append(out, feed)
		}
	}
	return out, nil
}

func (f *fakeFeeds) Create(_ context.Context, feed *entity.Feed) error {
	f.byID[feed.ID] = feed
	return nil
}

func (f *fakeFeeds) Update(_ context.Context, feed *entity.Feed) error {
	f.byID[feed.ID] = feed
	return nil
}

func (f *fakeFeeds) Delete(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeFeeds) SetEnabled(_ context.Context, id int64, enabled bool) error {
	if feed, ok := f.byID[id]; ok {
		feed.Enabled = enabled
	}
	return nil
}

type fakeGroups struct {
	nextID int64
	groups []*entity.FeedGroup
}

func (g *fakeGroups) ListByOwner(_ context.Context, ownerID int64) ([]*entity.FeedGroup, error) {
	var out []*entity.FeedGroup
	for _, group := range g.groups {
		if group.OwnerID == ownerID {
			out = append(out, group)
		}
	}
	return out, nil
}

func (g *fakeGroups) GetByName(_ context.Context, ownerID int64, name string) (*entity.FeedGroup, error) {
	for _, group := range g.groups {
		if group.OwnerID == ownerID && group.Name == name {
			return group, nil
		}
	}
	return nil, nil
}

func (g *fakeGroups) Create(_ context.Context, group *entity.FeedGroup) error {
	g.nextID++
	group.ID = g.nextID
	g.groups = append(g.groups, group)
	return nil
}

func (g *fakeGroups) Delete(_ context.Context, id int64) error {
	for i, group := range g.groups {
		if group.ID == id {
			g.groups = append(g.groups[:i], g.groups[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeArticles struct {
	byID map[int64]*entity.Article
}

func newFakeArticles(articles ...*entity.Article) *fakeArticles {
	a := &fakeArticles{byID: make(map[int64]*entity.Article)}
	for _, article := range articles {
		a.byID[article.ID] = article
	}
	return a
}

func (a *fakeArticles) Get(_ context.Context, id int64) (*entity.Article, error) {
	return a.byID[id], nil
}

func (a *fakeArticles) GetByIdentifier(_ context.Context, feedID int64, identifier string) (*entity.Article, error) {
	for _, article := range a.byID {
		if article.FeedID == feedID && article.Identifier == identifier {
			return article, nil
		}
	}
	return nil, nil
}

func (a *fakeArticles) Create(_ context.Context, article *entity.Article) error {
	a.byID[article.ID] = article
	return nil
}

func (a *fakeArticles) Update(_ context.Context, article *entity.Article) error {
	a.byID[article.ID] = article
	return nil
}

func (a *fakeArticles) Delete(_ context.Context, id int64) error {
	delete(a.byID, id)
	return nil
}

func (a *fakeArticles) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (a *fakeArticles) CountCreatedSince(_ context.Context, _ int64, _ time.Time) (int, error) {
	return 0, nil
}

func (a *fakeArticles) Query(_ context.Context, q repository.ArticleQuery) ([]*entity.Article, error) {
	var matched []*entity.Article
	for _, article := range a.byID {
		if len(q.FeedIDs) > 0 && !containsInt64(q.FeedIDs, article.FeedID) {
			continue
		}
		if q.PublishedAfter != nil && article.Date.Before(*q.PublishedAfter) {
			continue
		}
		matched = append(matched, article)
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.Ascending {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].Date.After(matched[j].Date)
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (a *fakeArticles) CountUnread(_ context.Context, _ int64, feedID int64) (total, unread int, newest time.Time, err error) {
	for _, article := range a.byID {
		if article.FeedID != feedID {
			continue
		}
		total++
		unread++ // fakeStates tracks read separately; CountUnread here assumes unread unless adjusted by the test
		if article.Date.After(newest) {
			newest = article.Date
		}
	}
	return total, unread, newest, nil
}

func containsInt64(haystack []int64, needle int64) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

type fakeStates struct {
	states   map[int64]*entity.ArticleState // keyed by articleID
	articles *fakeArticles                  // for MarkAllRead's query match
}

func newFakeStates(articles *fakeArticles) *fakeStates {
	return &fakeStates{states: make(map[int64]*entity.ArticleState), articles: articles}
}

func (s *fakeStates) Get(_ context.Context, userID, articleID int64) (*entity.ArticleState, error) {
	st, ok := s.states[articleID]
	if !ok || st.UserID != userID {
		return nil, nil
	}
	return st, nil
}

func (s *fakeStates) Upsert(_ context.Context, state *entity.ArticleState) error {
	if state.IsEmpty() {
		delete(s.states, state.ArticleID)
		return nil
	}
	s.states[state.ArticleID] = state
	return nil
}

func (s *fakeStates) BulkSetRead(_ context.Context, userID int64, articleIDs []int64, read bool) error {
	for _, id := range articleIDs {
		s.setField(userID, id, func(st *entity.ArticleState) { st.Read = read })
	}
	return nil
}

func (s *fakeStates) BulkSetStarred(_ context.Context, userID int64, articleIDs []int64, starred bool) error {
	for _, id := range articleIDs {
		s.setField(userID, id, func(st *entity.ArticleState) { st.Starred = starred })
	}
	return nil
}

func (s *fakeStates) MarkAllRead(_ context.Context, q repository.ArticleQuery) error {
	for _, article := range s.articles.byID {
		if len(q.FeedIDs) > 0 && !containsInt64(q.FeedIDs, article.FeedID) {
			continue
		}
		if q.PublishedAfter != nil && article.Date.Before(*q.PublishedAfter) {
			continue
		}
		s.setField(q.UserID, article.ID, func(st *entity.ArticleState) { st.Read = true })
	}
	return nil
}

func (s *fakeStates) StatesForArticles(_ context.Context, userID int64, articleIDs []int64) (map[int64]*entity.ArticleState, error) {
	out := make(map[int64]*entity.ArticleState)
	for _, id := range articleIDs {
		if st, ok := s.states[id]; ok && st.UserID == userID {
			out[id] = st
		}
	}
	return out, nil
}

func (s *fakeStates) setField(userID, articleID int64, apply func(*entity.ArticleState)) {
	st, ok := s.states[articleID]
	if !ok {
		st = &entity.ArticleState{UserID: userID, ArticleID: articleID}
		s.states[articleID] = st
	}
	apply(st)
}
