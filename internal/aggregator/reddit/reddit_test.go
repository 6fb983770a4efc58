package reddit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedreader/internal/domain/entity"
)

func TestNormalizeSubreddit(t *testing.T) {
	cases := map[string]string{
		"golang":                           "golang",
		"r/golang":                         "golang",
		"/r/golang":                        "golang",
		"https://reddit.com/r/golang":      "golang",
		"https://www.reddit.com/r/golang/": "golang",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeSubreddit(in), in)
	}
}

func TestValidateSubredditName(t *testing.T) {
	assert.NoError(t, validateSubredditName("golang"))
	assert.Error(t, validateSubredditName(""))
	assert.Error(t, validateSubredditName("a"))
	assert.Error(t, validateSubredditName(strings.Repeat("a", 22)))
	assert.Error(t, validateSubredditName("bad name"))
}

func TestFixMediaURL(t *testing.T) {
	assert.Equal(t, "https://a.b/x?y=1&z=2", fixMediaURL("https://a.b/x?y=1&amp;z=2"))
	assert.Equal(t, "", fixMediaURL(""))
}

func TestBuildPostContent_SelftextAndComments(t *testing.T) {
	post := &Post{ID: "abc", Selftext: "hello **world**", Permalink: "/r/golang/comments/abc/title/", IsSelf: true}
	content := buildPostContent(post, []Comment{{Author: "alice", Body: "nice post", Score: 5, Permalink: "/r/golang/comments/abc/title/c1/"}}, nil, 10, "golang", false)

	assert.Contains(t, content, "<strong>world</strong>")
	assert.Contains(t, content, "alice")
	assert.Contains(t, content, "nice post")
	assert.Contains(t, content, "Comments</a></h3>")
}

func TestBuildPostContent_NoCommentsYet(t *testing.T) {
	post := &Post{ID: "abc", Permalink: "/r/golang/comments/abc/title/", IsSelf: true}
	content := buildPostContent(post, nil, nil, 10, "golang", false)
	assert.Contains(t, content, "No comments yet.")
}

func TestBuildPostContent_CommentsDisabled(t *testing.T) {
	post := &Post{ID: "abc", Permalink: "/r/golang/comments/abc/title/", IsSelf: true}
	content := buildPostContent(post, nil, nil, 0, "golang", false)
	assert.Contains(t, content, "Comments disabled.")
}

func TestLinkMediaParts_DirectImage(t *testing.T) {
	post := &Post{URL: "https://i.redd.it/abc.jpg", IsSelf: false}
	parts := linkMediaParts(post, false)
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0], "i.redd.it/abc.jpg")
}

func TestLinkMediaParts_VRedditOmitsBody(t *testing.T) {
	post := &Post{URL: "https://v.redd.it/abc", IsSelf: false}
	parts := linkMediaParts(post, false)
	assert.Empty(t, parts)
}

func TestLinkMediaParts_FallbackLink(t *testing.T) {
	post := &Post{URL: "https://example.com/article", IsSelf: false}
	parts := linkMediaParts(post, false)
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0], "example.com/article")
}

func TestLinkMediaParts_SelfPostNoFallback(t *testing.T) {
	post := &Post{URL: "https://reddit.com/r/golang/comments/abc", IsSelf: true}
	parts := linkMediaParts(post, false)
	assert.Empty(t, parts)
}

// fakeRedditServer serves the OAuth token endpoint and a listing endpoint
// for a single subreddit, enough to exercise Adapter.Validate/
// FetchSourceData/ParseToRawArticles end to end.
func fakeRedditServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok123", "expires_in": 3600, "token_type": "bearer"})
	})
	mux.HandleFunc("/r/golang/hot", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.Equal(t, "Bearer tok123", auth)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"children": []map[string]any{
					{"data": map[string]any{
						"id": "p1", "title": "Hello Gophers", "permalink": "/r/golang/comments/p1/hello/",
						"author": "gopher", "created_utc": 1700000000, "url": "https://example.com/x",
					}},
				},
			},
		})
	})
	return httptest.NewServer(mux)
}

func TestAdapter_ValidateAndFetch(t *testing.T) {
	srv := fakeRedditServer(t)
	defer srv.Close()

	origToken, origOAuth := tokenEndpoint, oauthBase
	tokenEndpoint = srv.URL + "/api/v1/access_token"
	oauthBase = srv.URL
	defer func() { tokenEndpoint, oauthBase = origToken, origOAuth }()

	adapter := New(srv.Client())
	feed := &entity.Feed{Identifier: "r/golang", Aggregator: "reddit", Name: "Golang", DailyLimit: 10}
	settings := &entity.UserSettings{RedditEnabled: true, RedditClientID: "id", RedditClientSecret: "secret", RedditUserAgent: "feedreader/1.0"}

	require.NoError(t, adapter.Validate(context.Background(), feed, settings))

	source, err := adapter.FetchSourceData(context.Background(), feed, settings, 5)
	require.NoError(t, err)

	raw, err := adapter.ParseToRawArticles(context.Background(), feed, source)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "Hello Gophers", raw[0].Title)
	assert.Equal(t, "https://reddit.com/r/golang/comments/p1/hello/", raw[0].Identifier)

	tc := newTokenCache()
	tok, err := tc.Get(context.Background(), srv.Client(), "id", "secret", "feedreader/1.0")
	require.NoError(t, err)
	assert.Equal(t, "tok123", tok)

	// token cache reuses until near expiry
	tok2, err := tc.Get(context.Background(), srv.Client(), "id", "secret", "feedreader/1.0")
	require.NoError(t, err)
	assert.Equal(t, tok, tok2)
}

func TestCredentialsFor(t *testing.T) {
	a := New(http.DefaultClient)

	_, err := a.credentialsFor(nil)
	assert.Error(t, err)

	_, err = a.credentialsFor(&entity.UserSettings{RedditEnabled: false})
	assert.Error(t, err)

	creds, err := a.credentialsFor(&entity.UserSettings{
		RedditEnabled: true, RedditClientID: "id", RedditClientSecret: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "id", creds.clientID)
}

func TestBasicAuthHeaderFormat(t *testing.T) {
	// sanity check that fetchAccessToken sets Basic auth the way Reddit expects:
	// base64("id:secret")
	want := base64.StdEncoding.EncodeToString([]byte("id:secret"))
	req, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)
	req.SetBasicAuth("id", "secret")
	assert.Equal(t, "Basic "+want, req.Header.Get("Authorization"))
}
