package repository

import (
	"context"

	"gorm.io/gorm"
)

// GroupStore answers tenant-group ownership questions for the resolver.
type GroupStore struct {
	db *gorm.DB
}

func NewGroupStore(db *gorm.DB) *GroupStore {
	return &GroupStore{db: db}
}

// OwnsRestaurant reports whether the restaurant belongs to a group owned by
// the user. The explicit request parameter is verified here, never trusted.
func (s *GroupStore) OwnsRestaurant(ctx context.Context, ownerUserID, restaurantID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Restaurant{}).
		Joins("JOIN restaurant_groups ON restaurant_groups.id = restaurants.group_id").
		Where("restaurants.id = ? AND restaurant_groups.owner_user_id = ?", restaurantID, ownerUserID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
