package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"feedreader/internal/domain/entity"
)

// ListSubscriptions lists every feed userID may read — their own plus
// shared feeds — each formatted with its label categories, grounded on
// subscription_service.py's list_subscriptions.
func (s *Service) ListSubscriptions(ctx context.Context, userID int64) ([]Subscription, error) {
	feeds, err := s.feeds.ListAccessible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: ListSubscriptions: %w", err)
	}

	groupNames, err := s.groupNamesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Subscription, 0, len(feeds))
	for _, feed := range feeds {
		if !feed.Enabled {
			continue
		}
		out = append(out, s.formatSubscription(feed, groupNames))
	}
	return out, nil
}

// GetSubscription looks up a single subscription by feed id, enforcing the
// same owned-or-shared-and-enabled access rule as ListSubscriptions.
func (s *Service) GetSubscription(ctx context.Context, userID, feedID int64) (*Subscription, error) {
	feed, err := s.feeds.Get(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("service: GetSubscription: %w", err)
	}
	if feed == nil || !feed.Enabled || !feed.AccessibleBy(userID) {
		return nil, ErrNotFound
	}

	groupNames, err := s.groupNamesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	sub := s.formatSubscription(feed, groupNames)
	return &sub, nil
}

func (s *Service) groupNamesByOwner(ctx context.Context, ownerID int64) (map[int64]string, error) {
	groups, err := s.groups.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service: ListByOwner: %w", err)
	}
	names := make(map[int64]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	return names, nil
}

func (s *Service) formatSubscription(feed *entity.Feed, groupNames map[int64]string) Subscription {
	groupName := ""
	if feed.GroupID != nil {
		groupName = groupNames[*feed.GroupID]
	}
	url := s.feedSiteURL(feed)
	return Subscription{
		ID:         fmt.Sprintf("feed/%d", feed.ID),
		Title:      feed.Name,
		Categories: categoriesFor(feed, groupName),
		URL:        url,
		HTMLURL:    url,
	}
}

// EditSubscriptionParams is the parsed form of a GReader
// /subscription/edit request (spec.md §4.9 "Edit subscription").
type EditSubscriptionParams struct {
	StreamID     string   // "s" — feed/<id>
	Action       string   // "ac" — subscribe | unsubscribe | edit
	Title        string   // "t" — rename, "edit" only
	AddLabels    []string // "a" — user/-/label/<name> entries to add
	RemoveLabels []string // "r" — user/-/label/<name> entries to remove
}

// EditSubscription subscribes, unsubscribes (soft-disables, spec.md §9's
// redesign-flag note), or edits a feed's title/labels, grounded on
// subscription_service.py's edit_subscription.
func (s *Service) EditSubscription(ctx context.Context, userID int64, params EditSubscriptionParams) error {
	if !strings.HasPrefix(params.StreamID, "feed/") {
		return fmt.Errorf("%w: subscription stream-id must be feed/<id>", ErrInvalidRequest)
	}
	feedID, err := strconv.ParseInt(strings.TrimPrefix(params.StreamID, "feed/"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid feed id in %q", ErrInvalidRequest, params.StreamID)
	}

	feed, err := s.feeds.Get(ctx, feedID)
	if err != nil {
		return fmt.Errorf("service: EditSubscription: Get: %w", err)
	}
	if feed == nil {
		return ErrNotFound
	}
	if !feed.IsShared() && !feed.OwnedBy(userID) {
		return ErrPermissionDenied
	}

	switch params.Action {
	case "unsubscribe":
		if !feed.OwnedBy(userID) {
			return ErrPermissionDenied
		}
		return s.feeds.SetEnabled(ctx, feedID, false)

	case "subscribe":
		return s.feeds.SetEnabled(ctx, feedID, true)

	case "edit":
		if params.Title != "" {
			feed.Name = params.Title
		}
		if len(params.AddLabels) > 0 {
			if err := s.addFeedToLabels(ctx, feed, userID, params.AddLabels); err != nil {
				return err
			}
		}
		if len(params.RemoveLabels) > 0 {
			if err := s.removeFeedFromLabels(ctx, feed, userID, params.RemoveLabels); err != nil {
				return err
			}
		}
		return s.feeds.Update(ctx, feed)

	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, params.Action)
	}
}

// addFeedToLabels resolves (creating if necessary) the named FeedGroups and
// assigns feed to the last one named, matching the Python original's
// single-group-per-feed data model: a feed's group field is overwritten by
// each successive label in the list, so only the final add label sticks.
func (s *Service) addFeedToLabels(ctx context.Context, feed *entity.Feed, userID int64, labels []string) error {
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		if strings.HasPrefix(label, "user/-/state/com.google/") {
			continue // read-only synthetic states, never assignable
		}
		name := strings.TrimPrefix(label, "user/-/label/")
		if name == label {
			continue // not a label-shaped entry
		}

		group, err := s.groups.GetByName(ctx, userID, name)
		if err != nil {
			return fmt.Errorf("service: addFeedToLabels: GetByName: %w", err)
		}
		if group == nil {
			group = &entity.FeedGroup{OwnerID: userID, Name: name}
			if err := s.groups.Create(ctx, group); err != nil {
				return fmt.Errorf("service: addFeedToLabels: Create: %w", err)
			}
		}
		feed.GroupID = &group.ID
	}
	return nil
}

// removeFeedFromLabels clears feed's group when it matches one of labels by
// name, grounded on subscription_service.py's _remove_feed_from_labels.
func (s *Service) removeFeedFromLabels(ctx context.Context, feed *entity.Feed, userID int64, labels []string) error {
	if feed.GroupID == nil {
		return nil
	}
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		name := strings.TrimPrefix(label, "user/-/label/")
		if name == label {
			continue
		}
		group, err := s.groups.GetByName(ctx, userID, name)
		if err != nil {
			return fmt.Errorf("service: removeFeedFromLabels: GetByName: %w", err)
		}
		if group != nil && group.ID == *feed.GroupID {
			feed.GroupID = nil
			return nil
		}
	}
	return nil
}
