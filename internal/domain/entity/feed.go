package entity

import (
	"errors"
	"fmt"
	"time"
)

// Feed represents a single configured subscription. Identifier is opaque and
// interpreted by the adapter registered under AggregatorTag: a URL for RSS
// and full-website adapters, a subreddit name for Reddit, a channel
// identifier for YouTube, or a podcast feed URL.
type Feed struct {
	ID          int64
	Identifier  string
	Aggregator  string // registry key, e.g. "rss", "reddit", "youtube", "podcast", "heise"
	Name        string
	Icon        []byte
	IconType    string
	DailyLimit  int
	Enabled     bool
	OwnerID     *int64 // nil means shared (owned by none)
	GroupID     *int64
	Options     map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsShared reports whether the feed has no owner and is therefore visible,
// read-only-in-name, to every user.
func (f *Feed) IsShared() bool {
	return f.OwnerID == nil
}

// OwnedBy reports whether userID may unsubscribe from or edit this feed.
func (f *Feed) OwnedBy(userID int64) bool {
	return f.OwnerID != nil && *f.OwnerID == userID
}

// AccessibleBy reports whether userID may read articles from this feed:
// it must be enabled, and either owned by the user or shared.
func (f *Feed) AccessibleBy(userID int64) bool {
	if !f.Enabled {
		return false
	}
	return f.IsShared() || f.OwnedBy(userID)
}

// Validate checks the structural invariants of a Feed that do not require
// consulting the aggregator registry (see aggregator.Registry.Validate for
// the "tag must be registered" invariant).
func (f *Feed) Validate() error {
	if f.Identifier == "" {
		return &ValidationError{Field: "identifier", Message: "identifier is required"}
	}
	if f.Aggregator == "" {
		return &ValidationError{Field: "aggregator", Message: "aggregator tag is required"}
	}
	if f.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if f.DailyLimit <= 0 {
		return &ValidationError{Field: "daily_limit", Message: "daily_limit must be positive"}
	}
	return nil
}

// Option returns a per-adapter option value, or the empty string if unset.
func (f *Feed) Option(key string) string {
	if f.Options == nil {
		return ""
	}
	return f.Options[key]
}

// OptionBool returns a per-adapter boolean option, defaulting to def when
// unset or unparsable.
func (f *Feed) OptionBool(key string, def bool) bool {
	v, ok := f.Options[key]
	if !ok {
		return def
	}
	return v == "true" || v == "1"
}

// FeedGroup is a per-user named label used to group feeds; it surfaces as a
// GReader label. Unique by (Name, OwnerID).
type FeedGroup struct {
	ID      int64
	OwnerID int64
	Name    string
}

// Validate checks FeedGroup invariants.
func (g *FeedGroup) Validate() error {
	if g.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// ErrFeedAggregatorNotRegistered is returned when a Feed names an aggregator
// tag that is not present in the registry at use time.
var ErrFeedAggregatorNotRegistered = errors.New("aggregator tag not registered")

// ValidateAggregatorRegistered is a small helper kept next to Feed so
// callers needing the spec.md invariant ("a feed's aggregator-tag is in the
// registry at all times it is used") don't have to hand-roll the error text.
func ValidateAggregatorRegistered(tag string, known func(string) bool) error {
	if !known(tag) {
		return fmt.Errorf("%w: %q", ErrFeedAggregatorNotRegistered, tag)
	}
	return nil
}
