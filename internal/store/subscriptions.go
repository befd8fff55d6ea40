package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
)

// SubscriptionStore defines the persistence operations on push subscriptions.
type SubscriptionStore interface {
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	FindByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
	ForOffice(ctx context.Context, office string) ([]model.PushSubscription, error)
}

type gormSubscriptionStore struct {
	db *gorm.DB
}

// NewSubscriptionStore creates a new GORM-backed subscription store.
func NewSubscriptionStore(db *gorm.DB) SubscriptionStore {
	return &gormSubscriptionStore{db: db}
}

// Upsert creates the subscription or replaces the one with the same endpoint.
// An endpoint registered by another user is left untouched and ErrConflict
// is returned.
func (s *gormSubscriptionStore) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "office", "all_offices"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "push_subscriptions.user_id = excluded.user_id"},
		}},
	}).Create(sub)
	if res.Error != nil {
		return fmt.Errorf("failed to upsert subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to upsert subscription: %w", ErrConflict)
	}
	return nil
}

func (s *gormSubscriptionStore) FindByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", translate(err))
	}
	return &sub, nil
}

func (s *gormSubscriptionStore) Delete(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{}, "endpoint = ?", endpoint).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// ForOffice returns the subscriptions that receive alerts for office.
func (s *gormSubscriptionStore) ForOffice(ctx context.Context, office string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("office = ? OR all_offices = ?", office, true).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for office %q: %w", office, err)
	}
	return subs, nil
}
