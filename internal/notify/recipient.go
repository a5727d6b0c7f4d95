package notify

import "strconv"

// Channel is a logical delivery medium. Each maps to exactly one transport
// collaborator.
type Channel string

const (
	ChannelMail     Channel = "mail"
	ChannelTelegram Channel = "telegram"
	ChannelSMS      Channel = "sms"
	ChannelDatabase Channel = "database"
)

// Recipient is the polymorphic addressee of a notification: a durable
// identity or an ephemeral guest, both exposing the same contact capability.
type Recipient interface {
	// ContactAddress returns the address for the channel, or false when the
	// recipient cannot be reached on it.
	ContactAddress(ch Channel) (string, bool)
	// PreferredChannels returns the recipient's stored preference for the
	// notification kind, or false when none exists.
	PreferredChannels(kind string) ([]string, bool)
}

// RegisteredRecipient is backed by a durable identity with stored contact
// fields and a stored preference mapping.
type RegisteredRecipient struct {
	UserID         int64
	Name           string
	Email          string
	Phone          string
	TelegramChatID string
	// Preferences maps a notification kind to an ordered list of logical
	// channel names.
	Preferences map[string][]string
}

func (r RegisteredRecipient) ContactAddress(ch Channel) (string, bool) {
	switch ch {
	case ChannelMail:
		return nonEmpty(r.Email)
	case ChannelTelegram:
		return nonEmpty(r.TelegramChatID)
	case ChannelSMS:
		return nonEmpty(r.Phone)
	case ChannelDatabase:
		if r.UserID > 0 {
			return strconv.FormatInt(r.UserID, 10), true
		}
		return "", false
	}
	return "", false
}

func (r RegisteredRecipient) PreferredChannels(kind string) ([]string, bool) {
	chs, ok := r.Preferences[kind]
	if !ok || len(chs) == 0 {
		return nil, false
	}
	return chs, true
}

// GuestRecipient is an ephemeral value built from transient contact fields.
// Guests carry no stored preferences and no in-app inbox.
type GuestRecipient struct {
	Name           string
	Phone          string
	Email          string
	TelegramChatID string
}

func (g GuestRecipient) ContactAddress(ch Channel) (string, bool) {
	switch ch {
	case ChannelMail:
		return nonEmpty(g.Email)
	case ChannelTelegram:
		return nonEmpty(g.TelegramChatID)
	case ChannelSMS:
		return nonEmpty(g.Phone)
	}
	return "", false
}

func (g GuestRecipient) PreferredChannels(string) ([]string, bool) {
	return nil, false
}

// AvailableChannels lists the channels the recipient could technically
// receive on, checked in fixed priority order: email, chat identifier, phone.
func AvailableChannels(r Recipient) []Channel {
	var out []Channel
	for _, ch := range []Channel{ChannelMail, ChannelTelegram, ChannelSMS} {
		if _, ok := r.ContactAddress(ch); ok {
			out = append(out, ch)
		}
	}
	return out
}

// PreferredOrAvailable returns the stored preference for the kind when one
// exists, otherwise the availability-based default.
func PreferredOrAvailable(r Recipient, kind string) []string {
	if prefs, ok := r.PreferredChannels(kind); ok {
		return prefs
	}
	avail := AvailableChannels(r)
	out := make([]string, 0, len(avail))
	for _, ch := range avail {
		out = append(out, string(ch))
	}
	return out
}

// CanNotify reports whether the recipient has at least one usable contact
// method. A recipient with none is valid, just non-notifiable.
func CanNotify(r Recipient) bool {
	return len(AvailableChannels(r)) > 0
}

func nonEmpty(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}
