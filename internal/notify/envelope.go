package notify

import "time"

// RecipientSnapshot is the serializable form of a recipient. An envelope must
// survive the trip across the delivery queue, and a guest recipient exists
// nowhere but in the envelope itself.
type RecipientSnapshot struct {
	UserID         int64               `json:"user_id,omitempty"`
	Name           string              `json:"name,omitempty"`
	Email          string              `json:"email,omitempty"`
	Phone          string              `json:"phone,omitempty"`
	TelegramChatID string              `json:"telegram_chat_id,omitempty"`
	Preferences    map[string][]string `json:"preferences,omitempty"`
}

// Snapshot captures a recipient's contact data for the envelope.
func Snapshot(r Recipient) RecipientSnapshot {
	switch v := r.(type) {
	case RegisteredRecipient:
		return RecipientSnapshot{
			UserID:         v.UserID,
			Name:           v.Name,
			Email:          v.Email,
			Phone:          v.Phone,
			TelegramChatID: v.TelegramChatID,
			Preferences:    v.Preferences,
		}
	case GuestRecipient:
		return RecipientSnapshot{
			Name:           v.Name,
			Email:          v.Email,
			Phone:          v.Phone,
			TelegramChatID: v.TelegramChatID,
		}
	}

	var s RecipientSnapshot
	if addr, ok := r.ContactAddress(ChannelMail); ok {
		s.Email = addr
	}
	if addr, ok := r.ContactAddress(ChannelTelegram); ok {
		s.TelegramChatID = addr
	}
	if addr, ok := r.ContactAddress(ChannelSMS); ok {
		s.Phone = addr
	}
	return s
}

// Recipient rebuilds the recipient value the snapshot was taken from.
func (s RecipientSnapshot) Recipient() Recipient {
	if s.UserID > 0 {
		return RegisteredRecipient{
			UserID:         s.UserID,
			Name:           s.Name,
			Email:          s.Email,
			Phone:          s.Phone,
			TelegramChatID: s.TelegramChatID,
			Preferences:    s.Preferences,
		}
	}
	return GuestRecipient{
		Name:           s.Name,
		Email:          s.Email,
		Phone:          s.Phone,
		TelegramChatID: s.TelegramChatID,
	}
}

// Envelope is one notification attempt. The channel list is resolved once at
// construction and fixed; retries never re-resolve it.
type Envelope struct {
	Kind          string                 `json:"kind"`
	TenantID      int64                  `json:"tenant_id"`
	RequestID     string                 `json:"request_id"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Recipient     RecipientSnapshot      `json:"recipient"`
	SubjectData   map[string]interface{} `json:"subject_data,omitempty"`
	Channels      []Channel              `json:"channels"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Address returns the recipient's contact address for the channel.
func (e Envelope) Address(ch Channel) (string, bool) {
	return e.Recipient.Recipient().ContactAddress(ch)
}
