package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusStore records the per-channel lifecycle of notification requests.
type StatusStore struct {
	db *gorm.DB
}

func NewStatusStore(db *gorm.DB) *StatusStore {
	return &StatusStore{db: db}
}

// Update upserts the status row for a request/channel pair.
func (s *StatusStore) Update(ctx context.Context, requestID, channel, status, detail string) error {
	row := DeliveryStatus{
		RequestID: requestID,
		Channel:   channel,
		Status:    status,
		Detail:    detail,
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}, {Name: "channel"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "detail", "updated_at"}),
		}).Create(&row).Error
}

// ForRequest returns all channel rows for a request.
func (s *StatusStore) ForRequest(ctx context.Context, requestID string) ([]DeliveryStatus, error) {
	var out []DeliveryStatus
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("channel").
		Find(&out).Error
	return out, err
}
