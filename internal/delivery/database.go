package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/repository"
)

// DatabaseSender writes the notification into the recipient's in-app inbox.
// Only registered recipients have one; guests cannot receive on this channel.
type DatabaseSender struct {
	inbox *repository.InboxStore
}

func NewDatabaseSender(inbox *repository.InboxStore) *DatabaseSender {
	return &DatabaseSender{inbox: inbox}
}

func (s *DatabaseSender) Channel() notify.Channel { return notify.ChannelDatabase }

func (s *DatabaseSender) Send(ctx context.Context, env notify.Envelope) error {
	addr, ok := env.Address(notify.ChannelDatabase)
	if !ok {
		return fmt.Errorf("database: recipient has no inbox")
	}
	userID, err := strconv.ParseInt(addr, 10, 64)
	if err != nil {
		return fmt.Errorf("database: bad inbox address %q: %w", addr, err)
	}

	subject, body := Content(env.Kind, env.SubjectData)
	data, err := json.Marshal(map[string]interface{}{
		"subject": subject,
		"body":    body,
		"data":    env.SubjectData,
	})
	if err != nil {
		return err
	}

	return s.inbox.Create(ctx, &repository.InboxNotification{
		TenantID: env.TenantID,
		UserID:   userID,
		Kind:     env.Kind,
		Data:     string(data),
	})
}
