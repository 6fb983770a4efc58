package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"feedreader/internal/domain/entity"
	"feedreader/internal/greader/streamfilter"
	"feedreader/internal/repository"
)

// UnreadCounts returns per-feed unread counts for userID, cached for 30
// seconds (spec.md §4.9), grounded on stream_service.py's get_unread_count.
// includeAll keeps feeds with zero unread in the result.
func (s *Service) UnreadCounts(ctx context.Context, userID int64, includeAll bool) (UnreadCounts, error) {
	if cached, ok := s.unreadCache.get(userID, includeAll); ok {
		return cached, nil
	}

	feeds, err := s.feeds.ListAccessible(ctx, userID)
	if err != nil {
		return UnreadCounts{}, fmt.Errorf("service: UnreadCounts: ListAccessible: %w", err)
	}

	entries := make([]UnreadCount, 0, len(feeds))
	for _, feed := range feeds {
		if !feed.Enabled {
			continue
		}
		_, unread, newest, err := s.articles.CountUnread(ctx, userID, feed.ID)
		if err != nil {
			return UnreadCounts{}, fmt.Errorf("service: UnreadCounts: CountUnread: %w", err)
		}
		if unread == 0 && !includeAll {
			continue
		}
		entries = append(entries, UnreadCount{
			ID:                      fmt.Sprintf("feed/%d", feed.ID),
			Count:                   unread,
			NewestItemTimestampUsec: unixMicros(newest),
		})
	}

	result := UnreadCounts{Max: 150, Entries: entries}
	s.unreadCache.set(userID, includeAll, result)
	return result, nil
}

// StreamReadParams is the common parameter set for stream/items/ids and
// stream/contents (spec.md §4.10's "s, n, ot, xt, it, r" query params).
type StreamReadParams struct {
	StreamID    string
	Limit       int
	OlderThan   *int64 // "ot", unix seconds
	ExcludeTag  string // "xt"
	IncludeTag  string // "it"
	NewestFirst bool   // "r" absent/"n" = newest first (the GReader default)
}

func (s *Service) resolveQuery(ctx context.Context, userID int64, p StreamReadParams, maxLimit int) (repository.ArticleQuery, error) {
	q, err := s.resolver.Resolve(ctx, p.StreamID, userID)
	if err != nil {
		return repository.ArticleQuery{}, err
	}
	q = streamfilter.ApplyTags(q, p.ExcludeTag, p.IncludeTag)

	if p.OlderThan != nil {
		cutoff := unixToTime(*p.OlderThan)
		q.PublishedAfter = &cutoff
	}
	q.Ascending = !p.NewestFirst

	limit := p.Limit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	q.Limit = limit
	return q, nil
}

// StreamItemIDs returns the article ids a stream matches, newest-first
// unless p.NewestFirst is false, grounded on stream_service.py's
// get_stream_item_ids.
func (s *Service) StreamItemIDs(ctx context.Context, userID int64, p StreamReadParams) ([]ItemRef, error) {
	q, err := s.resolveQuery(ctx, userID, p, s.maxItemIDsN)
	if err != nil {
		return nil, err
	}

	articles, err := s.articles.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service: StreamItemIDs: Query: %w", err)
	}

	refs := make([]ItemRef, len(articles))
	for i, a := range articles {
		refs[i] = ItemRef{ID: strconv.FormatInt(a.ID, 10)}
	}
	return refs, nil
}

// StreamContents returns a page of full article contents for a stream, or
// for an explicit item-id set (itemIDs takes priority over p.StreamID when
// non-empty, per stream_service.py's get_stream_contents). continuation is
// an opaque offset token, as produced by a prior call's response.
func (s *Service) StreamContents(ctx context.Context, userID int64, p StreamReadParams, itemIDs []string, continuation string) (StreamContentsResponse, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if continuation != "" {
		if n, convErr := strconv.Atoi(continuation); convErr == nil && n >= 0 {
			offset = n
		}
	}

	var page []*entity.Article
	var hasMore bool
	var err error

	if len(itemIDs) > 0 {
		var all []*entity.Article
		all, err = s.articlesByItemIDs(ctx, userID, itemIDs)
		if err == nil {
			end := min(offset+limit, len(all))
			if offset < len(all) {
				page = all[offset:end]
			}
			hasMore = offset+limit < len(all)
		}
	} else {
		var q repository.ArticleQuery
		q, err = s.resolveQuery(ctx, userID, p, s.maxItemIDsN)
		if err == nil {
			// Fetch one extra row to detect a next page without a
			// separate count query.
			q.Offset = offset
			q.Limit = limit + 1
			page, err = s.articles.Query(ctx, q)
		}
		if err == nil && len(page) > limit {
			page = page[:limit]
			hasMore = true
		}
	}
	if err != nil {
		return StreamContentsResponse{}, err
	}

	items, err := s.formatStreamItems(ctx, userID, page)
	if err != nil {
		return StreamContentsResponse{}, err
	}

	streamName := p.StreamID
	if streamName == "" {
		streamName = "user/-/state/com.google/reading-list"
	}
	resp := StreamContentsResponse{
		Direction: "ltr",
		ID:        streamName,
		Title:     streamName,
		Self:      []Link{{Href: "http://www.google.com/reader/api/0/stream/contents/" + streamName}},
		Links:     []Link{{Href: "http://www.google.com/reader/", Rel: "alternate"}},
		Updated:   unixSeconds(s.now()),
		Items:     items,
	}
	if hasMore {
		resp.Continuation = strconv.Itoa(offset + limit)
	}
	return resp, nil
}

// articlesByItemIDs fetches and access-filters a specific set of item ids,
// newest first, grounded on get_stream_contents' item_ids branch.
func (s *Service) articlesByItemIDs(ctx context.Context, userID int64, itemIDs []string) ([]*entity.Article, error) {
	out := make([]*entity.Article, 0, len(itemIDs))
	feedCache := make(map[int64]*entity.Feed)

	for _, raw := range itemIDs {
		id, err := ParseItemID(raw)
		if err != nil {
			continue
		}
		article, err := s.articles.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("service: articlesByItemIDs: Get: %w", err)
		}
		if article == nil {
			continue
		}
		feed, ok := feedCache[article.FeedID]
		if !ok {
			feed, err = s.feeds.Get(ctx, article.FeedID)
			if err != nil {
				return nil, fmt.Errorf("service: articlesByItemIDs: feeds.Get: %w", err)
			}
			feedCache[article.FeedID] = feed
		}
		if feed == nil || !feed.Enabled || !feed.AccessibleBy(userID) {
			continue
		}
		out = append(out, article)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Service) formatStreamItems(ctx context.Context, userID int64, articles []*entity.Article) ([]StreamItem, error) {
	if len(articles) == 0 {
		return []StreamItem{}, nil
	}

	articleIDs := make([]int64, len(articles))
	feedIDs := make(map[int64]struct{}, len(articles))
	for i, a := range articles {
		articleIDs[i] = a.ID
		feedIDs[a.FeedID] = struct{}{}
	}

	states, err := s.states.StatesForArticles(ctx, userID, articleIDs)
	if err != nil {
		return nil, fmt.Errorf("service: formatStreamItems: StatesForArticles: %w", err)
	}

	feeds := make(map[int64]*entity.Feed, len(feedIDs))
	for feedID := range feedIDs {
		feed, err := s.feeds.Get(ctx, feedID)
		if err != nil {
			return nil, fmt.Errorf("service: formatStreamItems: feeds.Get: %w", err)
		}
		feeds[feedID] = feed
	}

	items := make([]StreamItem, len(articles))
	for i, a := range articles {
		state := states[a.ID]
		items[i] = s.formatStreamItem(a, feeds[a.FeedID], state)
	}
	return items, nil
}

// formatStreamItem builds one stream/contents entry, grounded on
// stream_format.py's format_stream_item.
func (s *Service) formatStreamItem(article *entity.Article, feed *entity.Feed, state *entity.ArticleState) StreamItem {
	categories := []string{"user/-/state/com.google/reading-list"}
	if state != nil && state.Read {
		categories = append(categories, "user/-/state/com.google/read")
	}
	if state != nil && state.Starred {
		categories = append(categories, "user/-/state/com.google/starred")
	}

	item := StreamItem{
		ID:            EncodeItemID(article.ID),
		Title:         article.Name,
		Published:     unixSeconds(article.Date),
		Updated:       unixSeconds(article.UpdatedAt),
		CrawlTimeMsec: strconv.FormatInt(article.Date.UnixMilli(), 10),
		TimestampUsec: unixMicros(article.Date),
		Categories:    categories,
		Author:        article.Author,
	}

	if article.Identifier != "" {
		item.Alternate = []Link{{Href: article.Identifier}}
		item.Canonical = []Link{{Href: article.Identifier}}
	}
	if feed != nil {
		item.Origin = ItemOrigin{
			StreamID: fmt.Sprintf("feed/%d", feed.ID),
			Title:    feed.Name,
			HTMLURL:  s.feedSiteURL(feed),
		}
	}
	if article.Content != "" {
		item.Summary = &Content{Direction: "ltr", Content: article.Content}
		item.Content = &Content{Direction: "ltr", Content: article.Content}
	}
	if article.Icon != "" {
		item.Image = article.Icon
	}
	return item
}
