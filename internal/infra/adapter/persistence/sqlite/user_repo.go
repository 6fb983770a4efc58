package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// UserRepo implements repository.UserRepository using SQLite.
type UserRepo struct{ db *sql.DB }

// NewUserRepo creates a new SQLite-backed user repository.
func NewUserRepo(db *sql.DB) repository.UserRepository {
	return &UserRepo{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*entity.User, error) {
	var u entity.User
	err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (repo *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const query = `SELECT id, email, password_hash, display_name, created_at FROM users WHERE email = ? LIMIT 1`
	u, err := scanUser(repo.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: QueryRowContext: %w", err)
	}
	return u, nil
}

func (repo *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	const query = `SELECT id, email, password_hash, display_name, created_at FROM users WHERE id = ? LIMIT 1`
	u, err := scanUser(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	return u, nil
}

func (repo *UserRepo) Create(ctx context.Context, user *entity.User) error {
	const query = `INSERT INTO users (email, password_hash, display_name) VALUES (?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.DisplayName)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	user.ID = id
	return nil
}
