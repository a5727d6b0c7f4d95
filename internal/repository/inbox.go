package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// InboxStore holds the in-app ("database" channel) notifications.
type InboxStore struct {
	db *gorm.DB
}

func NewInboxStore(db *gorm.DB) *InboxStore {
	return &InboxStore{db: db}
}

func (s *InboxStore) Create(ctx context.Context, n *InboxNotification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(n).Error
}

// List returns a user's notifications for one tenant, newest first.
func (s *InboxStore) List(ctx context.Context, tenantID, userID int64, limit int) ([]InboxNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []InboxNotification
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkRead stamps a notification as read. gorm.ErrRecordNotFound is returned
// when the row does not exist for this tenant and user, or was already read.
func (s *InboxStore) MarkRead(ctx context.Context, tenantID, userID, notificationID int64) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&InboxNotification{}).
		Where("id = ? AND tenant_id = ? AND user_id = ? AND read_at IS NULL", notificationID, tenantID, userID).
		Update("read_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
