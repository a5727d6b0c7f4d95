package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/orders"
)

// RecipientStore resolves the person behind an order or user id into a
// notify.Recipient.
type RecipientStore struct {
	db *gorm.DB
}

func NewRecipientStore(db *gorm.DB) *RecipientStore {
	return &RecipientStore{db: db}
}

// ForOrder returns the registered customer when the order references one,
// otherwise the inline guest captured on the order.
func (s *RecipientStore) ForOrder(ctx context.Context, o orders.Order) (notify.Recipient, error) {
	if o.CustomerID > 0 {
		return s.ForUser(ctx, o.CustomerID)
	}
	return notify.GuestRecipient{
		Name:           o.GuestName,
		Phone:          o.GuestPhone,
		Email:          o.GuestEmail,
		TelegramChatID: o.GuestTelegramChatID,
	}, nil
}

// ForUser loads a registered recipient with its stored preferences.
func (s *RecipientStore) ForUser(ctx context.Context, userID int64) (notify.Recipient, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	prefs := map[string][]string{}
	if u.Preferences != "" {
		if err := json.Unmarshal([]byte(u.Preferences), &prefs); err != nil {
			return nil, fmt.Errorf("decode preferences for user %d: %w", userID, err)
		}
	}

	return notify.RegisteredRecipient{
		UserID:         u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		TelegramChatID: u.TelegramChatID,
		Preferences:    prefs,
	}, nil
}
