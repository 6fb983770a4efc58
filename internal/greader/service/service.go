// Package service implements the GReader business logic (spec.md §4.9):
// subscription list/edit, tag list/edit, mark-all-read, cached unread
// counts, and paginated stream reads. It sits between
// internal/handler/http/greader (C13, request/response encoding) and
// internal/repository (C10, storage), grounded on
// original_source/core/services/greader/{stream_service,
// subscription_service,tag_service,stream_format}.py.
package service

import (
	"errors"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/greader/streamfilter"
	"feedreader/internal/repository"
)

// Sentinel errors, following entity's ErrNotFound/ErrValidationFailed idiom.
var (
	ErrNotFound         = errors.New("greader: not found")
	ErrPermissionDenied = errors.New("greader: permission denied")
	ErrInvalidRequest   = errors.New("greader: invalid request")
)

// aggregatorLabelOf maps a Feed.Aggregator tag to the synthetic label
// category every feed of that type surfaces, per spec.md §4.9's
// subscription-list categories and mirrored by streamfilter's
// aggregatorLabels.
var aggregatorLabelOf = map[string]string{
	"reddit":  "Reddit",
	"youtube": "YouTube",
	"podcast": "Podcasts",
}

// SourceURLFunc returns a feed's adapter-derived source URL (C7
// get_source_url) and whether that adapter tag is registered. A Service
// with no resolver wired falls back to siteURL's identifier-based guess for
// every feed, matching stream_format.py's get_feed_source_url try/except.
type SourceURLFunc func(feed *entity.Feed) (string, bool)

// Service implements the GReader subscription/tag/stream operations over
// the storage repositories, with a process-local unread-count cache.
type Service struct {
	feeds       repository.FeedRepository
	groups      repository.FeedGroupRepository
	articles    repository.ArticleRepository
	states      repository.ArticleStateRepository
	resolver    *streamfilter.Resolver
	now         func() time.Time
	unreadCache *unreadCountCache
	sourceURL   SourceURLFunc
	maxItemIDsN int
}

// New builds a Service over the given repositories. now defaults to
// time.Now when nil, letting tests freeze the clock the unread-count cache
// and timestamp formatting observe.
func New(
	feeds repository.FeedRepository,
	groups repository.FeedGroupRepository,
	articles repository.ArticleRepository,
	states repository.ArticleStateRepository,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		feeds:       feeds,
		groups:      groups,
		articles:    articles,
		states:      states,
		resolver:    streamfilter.New(feeds, groups),
		now:         now,
		unreadCache: newUnreadCountCache(now),
		maxItemIDsN: 10000, // stream_service.py get_stream_item_ids clamp
	}
}

// SetSourceURLResolver wires the aggregator registry's per-adapter
// GetSourceURL into subscription/stream-item formatting, mirroring how
// internal/aggregator/reddit.SetIconLookupSettings defers a
// request-time dependency to a setter called once at startup instead of
// threading it through every constructor.
func (s *Service) SetSourceURLResolver(resolve SourceURLFunc) {
	s.sourceURL = resolve
}

// feedSiteURL returns feed's website URL, preferring the wired adapter
// resolver and falling back to the identifier-based guess.
func (s *Service) feedSiteURL(feed *entity.Feed) string {
	if s.sourceURL != nil {
		if url, ok := s.sourceURL(feed); ok {
			return url
		}
	}
	return siteURL(feed)
}
