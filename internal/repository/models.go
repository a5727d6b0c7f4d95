package repository

import "time"

// RestaurantGroup ties a set of restaurants to the owner account allowed to
// act across all of them.
type RestaurantGroup struct {
	ID          int64 `gorm:"primaryKey"`
	OwnerUserID int64 `gorm:"index;not null"`
	Name        string
	CreatedAt   time.Time
}

// Restaurant is a tenant.
type Restaurant struct {
	ID        int64 `gorm:"primaryKey"`
	GroupID   int64 `gorm:"index"`
	Name      string
	CreatedAt time.Time
}

// User is a staff member or registered customer of one restaurant.
type User struct {
	ID             int64 `gorm:"primaryKey"`
	RestaurantID   int64 `gorm:"index;not null"`
	Role           string
	Name           string
	Email          string
	Phone          string
	TelegramChatID string
	// Preferences holds the stored notification preference mapping as JSON:
	// notification kind -> ordered list of logical channel names.
	Preferences string `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InboxNotification is one in-app ("database" channel) notification row.
type InboxNotification struct {
	ID        int64  `gorm:"primaryKey"`
	TenantID  int64  `gorm:"index;not null"`
	UserID    int64  `gorm:"index;not null"`
	Kind      string `gorm:"not null"`
	Data      string `gorm:"type:jsonb"`
	CreatedAt time.Time
	ReadAt    *time.Time
}

// DeliveryStatus tracks the lifecycle of one notification request per
// channel.
type DeliveryStatus struct {
	RequestID string `gorm:"primaryKey"`
	Channel   string `gorm:"primaryKey"`
	Status    string
	Detail    string
	UpdatedAt time.Time
}

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDelivered  = "delivered"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
)
