package db

import "database/sql"

// MigrateUp creates every table and index the persistence contract (C10)
// needs, following the teacher's "CREATE TABLE IF NOT EXISTS, then indexes"
// idiom. It is safe to call on every process start.
func MigrateUp(database *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			display_name  TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS user_settings (
			user_id              INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			reddit_enabled       INTEGER NOT NULL DEFAULT 0,
			reddit_client_id     TEXT NOT NULL DEFAULT '',
			reddit_client_secret TEXT NOT NULL DEFAULT '',
			reddit_user_agent    TEXT NOT NULL DEFAULT '',
			youtube_enabled      INTEGER NOT NULL DEFAULT 0,
			youtube_api_key      TEXT NOT NULL DEFAULT '',
			ai_providers_json    TEXT NOT NULL DEFAULT '[]',
			active_ai_index      INTEGER NOT NULL DEFAULT -1,
			updated_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS feed_groups (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name     TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_feed_groups_owner_name ON feed_groups(owner_id, name)`,
		`CREATE TABLE IF NOT EXISTS feeds (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			identifier   TEXT NOT NULL,
			aggregator   TEXT NOT NULL,
			name         TEXT NOT NULL,
			icon         BLOB,
			icon_type    TEXT NOT NULL DEFAULT '',
			daily_limit  INTEGER NOT NULL DEFAULT 20,
			enabled      INTEGER NOT NULL DEFAULT 1,
			owner_id     INTEGER REFERENCES users(id) ON DELETE CASCADE,
			group_id     INTEGER REFERENCES feed_groups(id) ON DELETE SET NULL,
			options_json TEXT NOT NULL DEFAULT '{}',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_enabled ON feeds(enabled)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_owner ON feeds(owner_id)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			feed_id                INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			identifier             TEXT NOT NULL,
			name                   TEXT NOT NULL,
			raw_content            TEXT NOT NULL DEFAULT '',
			content                TEXT NOT NULL DEFAULT '',
			date                   DATETIME NOT NULL,
			original_published_at  DATETIME NOT NULL,
			author                 TEXT NOT NULL DEFAULT '',
			icon                   TEXT NOT NULL DEFAULT '',
			raw_content_hash       TEXT NOT NULL DEFAULT '',
			created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// Required index (spec.md §6): Articles by (feed, identifier) unique.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_feed_identifier ON articles(feed_id, identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_feed_date ON articles(feed_id, date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date DESC)`,
		`CREATE TABLE IF NOT EXISTS article_states (
			user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			read       INTEGER NOT NULL DEFAULT 0,
			starred    INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, article_id)
		)`,
		// Required index (spec.md §6): UserArticleState by (user, article)
		// unique (the primary key above) and by (user, read, article) for
		// feed-scope read counts.
		`CREATE INDEX IF NOT EXISTS idx_article_states_user_read ON article_states(user_id, read, article_id)`,
		`CREATE TABLE IF NOT EXISTS auth_tokens (
			token      TEXT PRIMARY KEY,
			owner_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// Required index (spec.md §6): Auth tokens by token (unique,
		// indexed) — satisfied by the PRIMARY KEY above; owner_id is
		// indexed separately for revoke-all-for-user style operations.
		`CREATE INDEX IF NOT EXISTS idx_auth_tokens_owner ON auth_tokens(owner_id)`,
	}

	for _, stmt := range statements {
		if _, err := database.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
