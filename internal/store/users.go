package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
)

// UserStore defines the persistence operations on user accounts.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type gormUserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new GORM-backed user store.
func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", username, translate(err))
	}
	return &u, nil
}

func (s *gormUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check username %q: %w", username, err)
	}
	return n > 0, nil
}

// Create inserts u. A taken username yields ErrDuplicate.
func (s *gormUserStore) Create(ctx context.Context, u *model.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user %q: %w", u.Username, translate(err))
	}
	return nil
}

func (s *gormUserStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at).Error
	if err != nil {
		return fmt.Errorf("failed to record login for user %d: %w", id, err)
	}
	return nil
}
