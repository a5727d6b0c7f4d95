package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoChannels is reported when a recipient has no usable contact method.
// Many flows tolerate a non-notifiable recipient, so the caller decides
// whether this is fatal.
var ErrNoChannels = errors.New("notify: recipient has no deliverable channels")

// channelTable maps logical preference names to transport channels. Unknown
// logical names are dropped, not errored.
var channelTable = map[string]Channel{
	"mail":     ChannelMail,
	"telegram": ChannelTelegram,
	"sms":      ChannelSMS,
	"database": ChannelDatabase,
}

// Sender delivers an envelope on a single channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, env Envelope) error
}

// DeliveryResult is the outcome of one channel's delivery attempt.
type DeliveryResult struct {
	Channel Channel
	Err     error
}

func (r DeliveryResult) Delivered() bool { return r.Err == nil }

// Router decides the ordered set of delivery channels for a notification and
// hands the envelope to the per-channel senders.
type Router struct {
	senders map[Channel]Sender
	logger  *slog.Logger
}

func NewRouter(logger *slog.Logger, senders ...Sender) *Router {
	m := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		m[s.Channel()] = s
	}
	return &Router{
		senders: m,
		logger:  logger,
	}
}

// Route computes the ordered channel list for a kind and recipient: the
// stored preference mapped through the channel-name table when it yields
// anything, otherwise mail and telegram by contact-field presence.
func (r *Router) Route(kind string, rcpt Recipient) ([]Channel, error) {
	if prefs, ok := rcpt.PreferredChannels(kind); ok {
		mapped := make([]Channel, 0, len(prefs))
		for _, name := range prefs {
			if ch, known := channelTable[name]; known {
				mapped = append(mapped, ch)
			}
		}
		if len(mapped) > 0 {
			return mapped, nil
		}
	}

	var out []Channel
	if _, ok := rcpt.ContactAddress(ChannelMail); ok {
		out = append(out, ChannelMail)
	}
	if _, ok := rcpt.ContactAddress(ChannelTelegram); ok {
		out = append(out, ChannelTelegram)
	}
	if len(out) == 0 {
		return nil, ErrNoChannels
	}
	return out, nil
}

// Deliver attempts each channel in the envelope's resolved list exactly once.
// A failure on one channel never prevents attempts on the remaining ones;
// every outcome is collected and returned.
func (r *Router) Deliver(ctx context.Context, env Envelope) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(env.Channels))
	for _, ch := range env.Channels {
		sender, ok := r.senders[ch]
		if !ok {
			results = append(results, DeliveryResult{
				Channel: ch,
				Err:     fmt.Errorf("no sender registered for channel %s", ch),
			})
			continue
		}
		if err := sender.Send(ctx, env); err != nil {
			r.logger.Error("channel delivery failed",
				slog.String("channel", string(ch)),
				slog.String("kind", env.Kind),
				slog.String("request_id", env.RequestID),
				slog.Any("error", err))
			results = append(results, DeliveryResult{Channel: ch, Err: err})
			continue
		}
		results = append(results, DeliveryResult{Channel: ch})
	}
	return results
}

// Sender returns the sender registered for the channel.
func (r *Router) Sender(ch Channel) (Sender, bool) {
	s, ok := r.senders[ch]
	return s, ok
}
