package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/resto-platform/core/internal/orders"
)

// OrderStore persists orders. Every read and write is scoped to one tenant.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Create(ctx context.Context, o *orders.Order) error {
	return s.db.WithContext(ctx).Create(o).Error
}

// Get loads an order belonging to the tenant. An order of another tenant is
// indistinguishable from a missing one.
func (s *OrderStore) Get(ctx context.Context, tenantID, orderID int64) (orders.Order, error) {
	var o orders.Order
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", tenantID).
		First(&o, orderID).Error
	if err != nil {
		return orders.Order{}, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return o, nil
}

// UpdateStatus persists an already-validated status change.
func (s *OrderStore) UpdateStatus(ctx context.Context, tenantID, orderID int64, status orders.Status) error {
	res := s.db.WithContext(ctx).
		Model(&orders.Order{}).
		Where("id = ? AND restaurant_id = ?", orderID, tenantID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
