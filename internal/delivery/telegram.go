package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/resto-platform/core/internal/notify"
)

// TelegramSender delivers notifications through the Telegram Bot API.
type TelegramSender struct {
	apiBase  string
	botToken string
	client   *http.Client
}

func NewTelegramSender(apiBase, botToken string, timeout time.Duration) *TelegramSender {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramSender{
		apiBase:  apiBase,
		botToken: botToken,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *TelegramSender) Channel() notify.Channel { return notify.ChannelTelegram }

func (s *TelegramSender) Send(ctx context.Context, env notify.Envelope) error {
	chatID, ok := env.Address(notify.ChannelTelegram)
	if !ok {
		return fmt.Errorf("telegram: recipient has no chat id")
	}

	subject, body := Content(env.Kind, env.SubjectData)
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": chatID,
		"text":    subject + "\n\n" + body,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send to chat %s: %w", chatID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("telegram: api returned %d: %s", resp.StatusCode, apiErr.Description)
	}
	return nil
}
