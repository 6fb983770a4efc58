package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// UserSettingsRepo implements repository.UserSettingsRepository using
// SQLite, storing AIProviders as a JSON array column.
type UserSettingsRepo struct{ db *sql.DB }

// NewUserSettingsRepo creates a new SQLite-backed user settings repository.
func NewUserSettingsRepo(db *sql.DB) repository.UserSettingsRepository {
	return &UserSettingsRepo{db: db}
}

func (repo *UserSettingsRepo) Get(ctx context.Context, userID int64) (*entity.UserSettings, error) {
	const query = `
SELECT user_id, reddit_enabled, reddit_client_id, reddit_client_secret, reddit_user_agent,
       youtube_enabled, youtube_api_key, ai_providers_json, active_ai_index, updated_at
FROM user_settings WHERE user_id = ? LIMIT 1`
	var s entity.UserSettings
	var providersJSON string
	err := repo.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.RedditEnabled, &s.RedditClientID, &s.RedditClientSecret, &s.RedditUserAgent,
		&s.YouTubeEnabled, &s.YouTubeAPIKey, &providersJSON, &s.ActiveAIIndex, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		// No row yet is a valid, empty settings state, not an error: every
		// user starts with integrations disabled.
		return &entity.UserSettings{UserID: userID, ActiveAIIndex: -1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	if providersJSON != "" {
		if err := json.Unmarshal([]byte(providersJSON), &s.AIProviders); err != nil {
			return nil, fmt.Errorf("Get: unmarshal ai_providers: %w", err)
		}
	}
	return &s, nil
}

func (repo *UserSettingsRepo) Upsert(ctx context.Context, settings *entity.UserSettings) error {
	providersJSON, err := json.Marshal(settings.AIProviders)
	if err != nil {
		return fmt.Errorf("Upsert: marshal ai_providers: %w", err)
	}
	const query = `
INSERT INTO user_settings
(user_id, reddit_enabled, reddit_client_id, reddit_client_secret, reddit_user_agent,
 youtube_enabled, youtube_api_key, ai_providers_json, active_ai_index, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
	reddit_enabled       = excluded.reddit_enabled,
	reddit_client_id     = excluded.reddit_client_id,
	reddit_client_secret = excluded.reddit_client_secret,
	reddit_user_agent    = excluded.reddit_user_agent,
	youtube_enabled      = excluded.youtube_enabled,
	youtube_api_key      = excluded.youtube_api_key,
	ai_providers_json    = excluded.ai_providers_json,
	active_ai_index      = excluded.active_ai_index,
	updated_at           = CURRENT_TIMESTAMP`
	_, err = repo.db.ExecContext(ctx, query,
		settings.UserID, settings.RedditEnabled, settings.RedditClientID, settings.RedditClientSecret,
		settings.RedditUserAgent, settings.YouTubeEnabled, settings.YouTubeAPIKey,
		string(providersJSON), settings.ActiveAIIndex,
	)
	if err != nil {
		return fmt.Errorf("Upsert: ExecContext: %w", err)
	}
	return nil
}
