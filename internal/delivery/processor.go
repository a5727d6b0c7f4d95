package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/repository"
	"github.com/resto-platform/core/pkg/metrics"
	"github.com/resto-platform/core/pkg/retry"
)

// StatusRecorder tracks the per-channel delivery lifecycle.
type StatusRecorder interface {
	Update(ctx context.Context, requestID, channel, status, detail string) error
}

// Processor executes the delivery jobs the worker consumes. Each job carries
// exactly one channel; retry policy lives here, not in the routing core.
type Processor struct {
	router   *notify.Router
	statuses StatusRecorder
	metrics  *metrics.Collector
	logger   *slog.Logger
	retryCfg retry.Config
}

func NewProcessor(router *notify.Router, statuses StatusRecorder, collector *metrics.Collector, logger *slog.Logger, retryCfg retry.Config) *Processor {
	return &Processor{
		router:   router,
		statuses: statuses,
		metrics:  collector,
		logger:   logger,
		retryCfg: retryCfg,
	}
}

func (p *Processor) Process(ctx context.Context, env notify.Envelope) error {
	if len(env.Channels) != 1 {
		return fmt.Errorf("delivery job must carry exactly one channel, got %d", len(env.Channels))
	}
	ch := env.Channels[0]

	sender, ok := p.router.Sender(ch)
	if !ok {
		p.markFailed(ctx, env, ch, "no sender registered")
		return fmt.Errorf("no sender registered for channel %s", ch)
	}

	// The snapshot is all the job will ever know about the recipient. No
	// address for this channel means no amount of retrying helps.
	if _, ok := env.Address(ch); !ok {
		p.logger.Warn("delivery skipped, recipient has no address for channel",
			slog.String("request_id", env.RequestID),
			slog.String("channel", string(ch)),
			slog.String("kind", env.Kind))
		p.markStatus(ctx, env, ch, repository.StatusSkipped, "no contact address for channel")
		return nil
	}

	p.markStatus(ctx, env, ch, repository.StatusProcessing, "")

	attempt := 0
	err := retry.Do(ctx, p.retryCfg, func() error {
		attempt++
		if attempt > 1 {
			p.metrics.IncRetried()
		}
		return sender.Send(ctx, env)
	})
	if err != nil {
		p.metrics.IncFailed()
		p.markFailed(ctx, env, ch, err.Error())
		return err
	}

	p.metrics.IncDelivered()
	p.markStatus(ctx, env, ch, repository.StatusDelivered, "")
	return nil
}

func (p *Processor) markFailed(ctx context.Context, env notify.Envelope, ch notify.Channel, detail string) {
	p.markStatus(ctx, env, ch, repository.StatusFailed, detail)
}

func (p *Processor) markStatus(ctx context.Context, env notify.Envelope, ch notify.Channel, status, detail string) {
	if p.statuses == nil {
		return
	}
	if err := p.statuses.Update(ctx, env.RequestID, string(ch), status, detail); err != nil {
		p.logger.Error("failed to update delivery status",
			slog.String("request_id", env.RequestID),
			slog.String("channel", string(ch)),
			slog.String("status", status),
			slog.Any("error", err))
	}
}
