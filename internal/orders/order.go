package orders

import "time"

// Type classifies how the order reaches the guest. Only delivery orders
// trigger guest-facing notifications.
type Type string

const (
	TypeDineIn   Type = "dine_in"
	TypeTakeout  Type = "takeout"
	TypeDelivery Type = "delivery"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDineIn, TypeTakeout, TypeDelivery:
		return true
	}
	return false
}

// Order is the persisted order row. A registered customer is referenced by
// id; a walk-in guest is captured inline on the order.
type Order struct {
	ID           int64  `gorm:"primaryKey"`
	RestaurantID int64  `gorm:"index;not null"`
	Type         Type   `gorm:"type:varchar(16);not null"`
	Status       Status `gorm:"type:varchar(24);not null"`

	CustomerID int64 `gorm:"index"`

	GuestName           string
	GuestPhone          string
	GuestEmail          string
	GuestTelegramChatID string

	TotalAmount float64
	Comment     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
