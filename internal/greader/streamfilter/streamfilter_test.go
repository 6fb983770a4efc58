package streamfilter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedreader/internal/domain/entity"
)

func int64p(n int64) *int64 { return &n }

type fakeFeeds struct {
	feeds []*entity.Feed
}

func (f *fakeFeeds) ListAccessible(_ context.Context, userID int64) ([]*entity.Feed, error) {
	out := make([]*entity.Feed, 0, len(f.feeds))
	for _, feed := range f.feeds {
		if feed.OwnerID == nil || *feed.OwnerID == userID {
			out = append(out, feed)
		}
	}
	return out, nil
}

type fakeGroups struct {
	groups []*entity.FeedGroup
}

func (f *fakeGroups) GetByName(_ context.Context, ownerID int64, name string) (*entity.FeedGroup, error) {
	for _, g := range f.groups {
		if g.OwnerID == ownerID && g.Name == name {
			return g, nil
		}
	}
	return nil, nil
}

func newFixture() *Resolver {
	feeds := &fakeFeeds{feeds: []*entity.Feed{
		{ID: 1, Aggregator: "reddit", Enabled: true, OwnerID: int64p(7)},
		{ID: 2, Aggregator: "youtube", Enabled: true, OwnerID: nil},
		{ID: 3, Aggregator: "rss", Enabled: true, OwnerID: int64p(7), GroupID: int64p(100)},
		{ID: 4, Aggregator: "rss", Enabled: false, OwnerID: int64p(7), GroupID: int64p(100)},
		{ID: 5, Aggregator: "podcast", Enabled: true, OwnerID: int64p(9)}, // other user's own feed
	}}
	groups := &fakeGroups{groups: []*entity.FeedGroup{
		{ID: 100, OwnerID: 7, Name: "Tech"},
	}}
	return New(feeds, groups)
}

func TestResolve_Default(t *testing.T) {
	r := newFixture()
	for _, id := range []string{"", "user/-/state/com.google/reading-list"} {
		q, err := r.Resolve(context.Background(), id, 7)
		require.NoError(t, err)
		assert.Nil(t, q.FeedIDs)
		assert.False(t, q.OnlyStarred)
		assert.False(t, q.OnlyRead)
		assert.Equal(t, int64(7), q.UserID)
	}
}

func TestResolve_StarredAndRead(t *testing.T) {
	r := newFixture()

	q, err := r.Resolve(context.Background(), "user/-/state/com.google/starred", 7)
	require.NoError(t, err)
	assert.True(t, q.OnlyStarred)

	q, err = r.Resolve(context.Background(), "user/-/state/com.google/read", 7)
	require.NoError(t, err)
	assert.True(t, q.OnlyRead)
}

func TestResolve_Feed(t *testing.T) {
	r := newFixture()
	q, err := r.Resolve(context.Background(), "feed/42", 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, q.FeedIDs)

	_, err = r.Resolve(context.Background(), "feed/not-a-number", 7)
	assert.Error(t, err)
}

func TestResolve_AggregatorLabels(t *testing.T) {
	r := newFixture()

	q, err := r.Resolve(context.Background(), "user/-/label/Reddit", 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, q.FeedIDs)

	q, err = r.Resolve(context.Background(), "user/-/label/YouTube", 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, q.FeedIDs)

	q, err = r.Resolve(context.Background(), "user/-/label/Podcasts", 9)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, q.FeedIDs)

	// user 7 can't see user 9's podcast feed (it's owned, not shared).
	q, err = r.Resolve(context.Background(), "user/-/label/Podcasts", 7)
	require.NoError(t, err)
	assert.Empty(t, q.FeedIDs)
}

func TestResolve_NamedGroup(t *testing.T) {
	r := newFixture()

	q, err := r.Resolve(context.Background(), "user/-/label/Tech", 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, q.FeedIDs, "disabled feed 4 excluded despite matching group")

	q, err = r.Resolve(context.Background(), "user/-/label/Nonexistent", 7)
	require.NoError(t, err)
	assert.NotNil(t, q.FeedIDs)
	assert.Empty(t, q.FeedIDs)
}

func TestResolve_Unrecognized(t *testing.T) {
	r := newFixture()
	_, err := r.Resolve(context.Background(), "bogus/stream", 7)
	assert.Error(t, err)
}

func TestStateTag(t *testing.T) {
	tag, ok := StateTag("user/-/state/com.google/read")
	require.True(t, ok)
	assert.Equal(t, "read", tag)

	tag, ok = StateTag("user/-/state/com.google/starred")
	require.True(t, ok)
	assert.Equal(t, "starred", tag)

	_, ok = StateTag("user/-/label/Tech")
	assert.False(t, ok)
}

func TestApplyTags(t *testing.T) {
	r := newFixture()
	q, err := r.Resolve(context.Background(), "", 7)
	require.NoError(t, err)

	q = ApplyTags(q, "user/-/state/com.google/read", "")
	assert.Equal(t, "read", q.ExcludeState)
	assert.Empty(t, q.RequireState)

	q = ApplyTags(q, "", "user/-/state/com.google/starred")
	assert.Equal(t, "starred", q.RequireState)

	q = ApplyTags(q, "user/-/label/Tech", "user/-/label/Tech")
	assert.Equal(t, "starred", q.RequireState, "unrecognized tag streams are ignored, prior value kept")
}
