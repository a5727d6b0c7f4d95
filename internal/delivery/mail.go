package delivery

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/resto-platform/core/internal/notify"
)

// MailSender delivers notifications over SMTP.
type MailSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewMailSender(host string, port int, from, username, password string) *MailSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &MailSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

func (s *MailSender) Channel() notify.Channel { return notify.ChannelMail }

func (s *MailSender) Send(ctx context.Context, env notify.Envelope) error {
	addr, ok := env.Address(notify.ChannelMail)
	if !ok {
		return fmt.Errorf("mail: recipient has no email address")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body := Content(env.Kind, env.SubjectData)
	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + addr + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{addr}, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", addr, err)
	}
	return nil
}
