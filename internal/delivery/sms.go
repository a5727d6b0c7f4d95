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

// SMSSender delivers notifications through an HTTP SMS gateway.
type SMSSender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

func NewSMSSender(endpoint, apiKey, from string, timeout time.Duration) *SMSSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *SMSSender) Channel() notify.Channel { return notify.ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, env notify.Envelope) error {
	phone, ok := env.Address(notify.ChannelSMS)
	if !ok {
		return fmt.Errorf("sms: recipient has no phone number")
	}

	_, body := Content(env.Kind, env.SubjectData)
	payload, err := json.Marshal(map[string]string{
		"to":   phone,
		"from": s.from,
		"text": body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms: gateway returned %d", resp.StatusCode)
	}
	return nil
}
