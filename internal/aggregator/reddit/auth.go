package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenEndpoint is Reddit's OAuth2 application-only grant endpoint
// (spec.md §4.3 "Reddit: OAuth via stored client-id/secret, read-only
// application grant"). A var, not a const, so tests can point it at a
// local fake server.
var tokenEndpoint = "https://www.reddit.com/api/v1/access_token"

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// tokenCache holds one access token per client-id, refreshing on miss or
// expiry and guarding each client-id's refresh with its own lock so two
// concurrent requests for the same user don't mint two tokens at once
// (spec.md §5 "Unique-per-feed OAuth tokens... guarded against concurrent
// refresh by a per-user lock").
type tokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
	locks  map[string]*sync.Mutex
}

func newTokenCache() *tokenCache {
	return &tokenCache{
		tokens: make(map[string]cachedToken),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (c *tokenCache) lockFor(clientID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[clientID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[clientID] = lock
	}
	return lock
}

// Get returns a valid access token for (clientID, clientSecret), reusing a
// cached one until 30 seconds before its stated expiry.
func (c *tokenCache) Get(ctx context.Context, client *http.Client, clientID, clientSecret, userAgent string) (string, error) {
	lock := c.lockFor(clientID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	cached, ok := c.tokens[clientID]
	c.mu.Unlock()
	if ok && time.Now().Before(cached.expiresAt.Add(-30*time.Second)) {
		return cached.accessToken, nil
	}

	tok, expiresIn, err := fetchAccessToken(ctx, client, clientID, clientSecret, userAgent)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.tokens[clientID] = cachedToken{accessToken: tok, expiresAt: time.Now().Add(time.Duration(expiresIn) * time.Second)}
	c.mu.Unlock()
	return tok, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func fetchAccessToken(ctx context.Context, client *http.Client, clientID, clientSecret, userAgent string) (string, int, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.SetBasicAuth(clientID, clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("reddit: token request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("reddit: token request failed: %d %s", resp.StatusCode, string(body))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, fmt.Errorf("reddit: decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", 0, fmt.Errorf("reddit: empty access token in response")
	}
	return parsed.AccessToken, parsed.ExpiresIn, nil
}
