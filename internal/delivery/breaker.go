package delivery

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/resto-platform/core/internal/notify"
)

// BreakerSender wraps a sender with a circuit breaker so a misbehaving
// transport sheds load instead of piling up timeouts.
type BreakerSender struct {
	inner notify.Sender
	cb    *gobreaker.CircuitBreaker
}

func WithBreaker(inner notify.Sender) *BreakerSender {
	return &BreakerSender{
		inner: inner,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: string(inner.Channel()),
		}),
	}
}

func (s *BreakerSender) Channel() notify.Channel { return s.inner.Channel() }

func (s *BreakerSender) Send(ctx context.Context, env notify.Envelope) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Send(ctx, env)
	})
	return err
}
