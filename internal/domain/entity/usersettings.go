package entity

import "time"

// UserSettings holds per-user configuration for external integrations that
// source adapters consult at validate()/fetch_source_data() time: Reddit and
// YouTube API credentials, and the AI rewrite providers used by the
// finalize_articles pipeline step (spec.md §3, §4.2).
type UserSettings struct {
	UserID int64

	RedditEnabled      bool
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	YouTubeEnabled bool
	YouTubeAPIKey  string

	AIProviders   []AIProviderConfig
	ActiveAIIndex int // index into AIProviders, -1 if none active

	UpdatedAt time.Time
}

// ActiveAIProvider returns the currently active AI provider config, or
// (zero value, false) if none is configured/active.
func (s *UserSettings) ActiveAIProvider() (AIProviderConfig, bool) {
	if s.ActiveAIIndex < 0 || s.ActiveAIIndex >= len(s.AIProviders) {
		return AIProviderConfig{}, false
	}
	p := s.AIProviders[s.ActiveAIIndex]
	if !p.Enabled {
		return AIProviderConfig{}, false
	}
	return p, true
}

// AIProviderConfig configures one AI rewrite backend (spec.md §3). Retry
// fields are consumed by internal/resilience/retry.Config (MaxRetries maps
// to MaxAttempts, BaseDelay to InitialDelay); TotalTimeBudget has no
// upstream field and is enforced by the caller as a wall-clock guard
// (spec.md §5 "Cancellation & timeouts").
type AIProviderConfig struct {
	Name            string // "openai" or "anthropic"
	Enabled         bool
	APIKey          string
	Model           string
	Temperature     float64
	MaxTokens       int
	MaxRetries      int
	BaseDelay       time.Duration
	TotalTimeBudget time.Duration
}

// RedditCredentials returns the OAuth client credentials needed to mint an
// application-only Reddit access token, and whether Reddit aggregation is
// usable at all for this user.
func (s *UserSettings) RedditCredentials() (clientID, clientSecret, userAgent string, ok bool) {
	if !s.RedditEnabled || s.RedditClientID == "" || s.RedditClientSecret == "" {
		return "", "", "", false
	}
	ua := s.RedditUserAgent
	if ua == "" {
		ua = "feedreader/1.0"
	}
	return s.RedditClientID, s.RedditClientSecret, ua, true
}
