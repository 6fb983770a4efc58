package service

import (
	"context"
	"fmt"

	"feedreader/internal/repository"
)

var standardTags = []Tag{
	{ID: "user/-/state/com.google/starred"},
	{ID: "user/-/state/com.google/read"},
	{ID: "user/-/state/com.google/reading-list"},
	{ID: "user/-/state/com.google/kept-unread"},
}

// ListTags lists the standard state tags plus userID's named FeedGroup
// labels, grounded on tag_service.py's list_tags.
func (s *Service) ListTags(ctx context.Context, userID int64) ([]Tag, error) {
	groups, err := s.groups.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: ListTags: %w", err)
	}

	tags := make([]Tag, len(standardTags), len(standardTags)+len(groups))
	copy(tags, standardTags)
	for _, g := range groups {
		tags = append(tags, Tag{ID: "user/-/label/" + g.Name})
	}
	return tags, nil
}

// EditTags marks itemIDs read/starred per addTag/removeTag (each a
// "user/-/state/com.google/read" or "...starred" stream-id, or empty),
// invalidating the caller's unread-count cache on any change. Grounded on
// tag_service.py's edit_tags/_add_article_tag/_remove_article_tag.
func (s *Service) EditTags(ctx context.Context, userID int64, itemIDs []string, addTag, removeTag string) (updated int, err error) {
	articleIDs := make([]int64, 0, len(itemIDs))
	for _, raw := range itemIDs {
		id, err := ParseItemID(raw)
		if err != nil {
			continue // malformed ids are skipped, not fatal, per the Python original
		}
		articleIDs = append(articleIDs, id)
	}
	if len(articleIDs) == 0 {
		return 0, fmt.Errorf("%w: no valid item ids provided", ErrInvalidRequest)
	}

	if tag, ok := StateTag(addTag); ok {
		if err := applyBulkTag(ctx, s.states, userID, articleIDs, tag, true); err != nil {
			return 0, err
		}
		updated += len(articleIDs)
	}
	if tag, ok := StateTag(removeTag); ok {
		if err := applyBulkTag(ctx, s.states, userID, articleIDs, tag, false); err != nil {
			return 0, err
		}
		updated += len(articleIDs)
	}

	if updated > 0 {
		s.unreadCache.invalidate(userID)
	}
	return updated, nil
}

func applyBulkTag(ctx context.Context, states repository.ArticleStateRepository, userID int64, articleIDs []int64, tag string, value bool) error {
	switch tag {
	case "read":
		return states.BulkSetRead(ctx, userID, articleIDs, value)
	case "starred":
		return states.BulkSetStarred(ctx, userID, articleIDs, value)
	default:
		return nil
	}
}

// MarkAllRead marks every article matched by streamID as read, optionally
// restricted to articles published at or before olderThan, grounded on
// tag_service.py's mark_all_as_read.
func (s *Service) MarkAllRead(ctx context.Context, userID int64, streamID string, olderThan *int64) error {
	q, err := s.resolver.Resolve(ctx, streamID, userID)
	if err != nil {
		return err
	}
	if olderThan != nil {
		cutoff := unixToTime(*olderThan)
		q.PublishedAfter = &cutoff
	}

	if err := s.states.MarkAllRead(ctx, q); err != nil {
		return fmt.Errorf("service: MarkAllRead: %w", err)
	}
	s.unreadCache.invalidate(userID)
	return nil
}
