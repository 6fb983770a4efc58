package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// AuthTokenRepo implements repository.AuthTokenRepository using SQLite.
// GReader tokens carry no claims of their own (spec.md §3), so every
// request looks the token up here.
type AuthTokenRepo struct{ db *sql.DB }

// NewAuthTokenRepo creates a new SQLite-backed auth token repository.
func NewAuthTokenRepo(db *sql.DB) repository.AuthTokenRepository {
	return &AuthTokenRepo{db: db}
}

func (repo *AuthTokenRepo) Create(ctx context.Context, token *entity.GReaderAuthToken) error {
	const query = `INSERT INTO auth_tokens (token, owner_id, expires_at) VALUES (?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, query, token.Token, token.OwnerID, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	return nil
}

func (repo *AuthTokenRepo) Get(ctx context.Context, token string) (*entity.GReaderAuthToken, error) {
	const query = `SELECT token, owner_id, expires_at, created_at FROM auth_tokens WHERE token = ? LIMIT 1`
	var t entity.GReaderAuthToken
	err := repo.db.QueryRowContext(ctx, query, token).Scan(&t.Token, &t.OwnerID, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	return &t, nil
}

func (repo *AuthTokenRepo) Delete(ctx context.Context, token string) error {
	const query = `DELETE FROM auth_tokens WHERE token = ?`
	_, err := repo.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	return nil
}
