package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedreader/internal/domain/entity"
	"feedreader/internal/infra/fetcher"
)

func testConfig() fetcher.ContentFetchConfig {
	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false // httptest servers bind to 127.0.0.1
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestFetcher_Get_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	f := fetcher.New(testConfig())
	body, contentType, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "text/plain", contentType)
}

func TestFetcher_Get_4xxSkipsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := fetcher.New(testConfig())
	_, _, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, entity.IsArticleSkip(err))
}

func TestFetcher_Get_5xxRetriesThenFails(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	f := fetcher.New(cfg)
	_, _, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.False(t, entity.IsArticleSkip(err))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))
}

func TestFetcher_GetHTML_ParsesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>hi</title></head><body><p>ok</p></body></html>`))
	}))
	defer srv.Close()

	f := fetcher.New(testConfig())
	doc, err := f.GetHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hi", doc.Find("title").Text())
}

func TestFetcher_Get_RejectsNonHTTPScheme(t *testing.T) {
	f := fetcher.New(testConfig())
	_, _, err := f.Get(context.Background(), "file:///etc/passwd")
	require.Error(t, err)
}

func TestFetcher_WithUserAgent_OverridesHeader(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	f := fetcher.New(testConfig()).WithUserAgent("custom-agent/1.0")
	_, _, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "custom-agent/1.0", gotUA)
}
