package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/interfaces"
	"github.com/ternarybob/tessera/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// UserStorage implements the UserStorage interface for Badger
type UserStorage struct {
	db     *BadgerDB
	config interfaces.ConfigStorage
	logger arbor.ILogger
}

// NewUserStorage creates a new UserStorage instance. Badger has no
// foreign keys, so the config storage is needed to cascade deletes.
func NewUserStorage(db *BadgerDB, config interfaces.ConfigStorage, logger arbor.ILogger) interfaces.UserStorage {
	return &UserStorage{
		db:     db,
		config: config,
		logger: logger,
	}
}

func (s *UserStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.Store().Get(id, &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *UserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var users []models.User
	if err := s.db.Store().Find(&users, badgerhold.Where("Username").Eq(username)); err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
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

	if err := s.db.Store().Upsert(user.ID, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// DeleteUser removes a user and cascades to their configurations
func (s *UserStorage) DeleteUser(ctx context.Context, id string) error {
	if err := s.config.DeleteMCPConfig(ctx, id); err != nil {
		return err
	}
	// AI configs share the cascade rule
	if ai, err := s.config.GetAIConfig(ctx, id); err == nil && ai != nil {
		if err := s.db.Store().Delete(aiKey(id), &models.AIConfiguration{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to delete AI configuration: %w", err)
		}
	}

	err := s.db.Store().Delete(id, &models.User{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []models.User
	if err := s.db.Store().Find(&users, nil); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})

	result := make([]*models.User, 0, len(users))
	for i := range users {
		result = append(result, &users[i])
	}
	return result, nil
}
