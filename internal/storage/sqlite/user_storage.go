package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/models"
)

// UserStorage implements the UserStorage interface for SQLite
type UserStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewUserStorage creates a new UserStorage instance
func NewUserStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.UserStorage {
	return &UserStorage{
		db:     db,
		logger: logger,
	}
}

func (s *UserStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.scanUser(s.db.DB().QueryRowContext(ctx, `
		SELECT id, username, display_name, email, created_at, updated_at
		FROM users WHERE id = ?`, id))
}

func (s *UserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.scanUser(s.db.DB().QueryRowContext(ctx, `
		SELECT id, username, display_name, email, created_at, updated_at
		FROM users WHERE username = ?`, username))
}

func (s *UserStorage) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var createdAt, updatedAt int64

	err := row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.Email,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	user.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &user, nil
}

func (s *UserStorage) SaveUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID is required")
	}
	if user.Username == "" {
		return fmt.Errorf("username is required")
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			email = excluded.email,
			updated_at = excluded.updated_at`,
		user.ID, user.Username, user.DisplayName, user.Email,
		user.CreatedAt.Unix(), user.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// DeleteUser removes a user. Their configurations go with them via the
// schema's cascade rules.
func (s *UserStorage) DeleteUser(ctx context.Context, id string) error {
	_, err := s.db.DB().ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT id, username, display_name, email, created_at, updated_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		var createdAt, updatedAt int64
		if err := rows.Scan(&user.ID, &user.Username, &user.DisplayName,
			&user.Email, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.CreatedAt = time.Unix(createdAt, 0).UTC()
		user.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		users = append(users, &user)
	}

	return users, rows.Err()
}
