package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/pkg/metrics"
	"github.com/resto-platform/core/pkg/retry"
)

type flakySender struct {
	channel  notify.Channel
	failures int
	calls    int
}

func (s *flakySender) Channel() notify.Channel { return s.channel }

func (s *flakySender) Send(context.Context, notify.Envelope) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("transient")
	}
	return nil
}

type recordedStatus struct {
	requestID, channel, status, detail string
}

type fakeStatusRecorder struct {
	rows []recordedStatus
}

func (f *fakeStatusRecorder) Update(_ context.Context, requestID, channel, status, detail string) error {
	f.rows = append(f.rows, recordedStatus{requestID, channel, status, detail})
	return nil
}

func testProcessor(statuses StatusRecorder, senders ...notify.Sender) *Processor {
	logr := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := notify.NewRouter(logr, senders...)
	cfg := retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	return NewProcessor(router, statuses, metrics.New(), logr, cfg)
}

func TestProcessRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	sender := &flakySender{channel: notify.ChannelMail, failures: 2}
	p := testProcessor(nil, sender)

	env := notify.Envelope{
		Kind:      "order_ready",
		RequestID: "req-1",
		Recipient: notify.Snapshot(notify.GuestRecipient{Email: "g@example.com"}),
		Channels:  []notify.Channel{notify.ChannelMail},
	}
	if err := p.Process(context.Background(), env); err != nil {
		t.Fatalf("expected recovery within retry budget: %v", err)
	}
	if sender.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", sender.calls)
	}
}

func TestProcessExhaustedRetriesFail(t *testing.T) {
	t.Parallel()

	sender := &flakySender{channel: notify.ChannelMail, failures: 10}
	p := testProcessor(nil, sender)

	env := notify.Envelope{
		RequestID: "req-2",
		Recipient: notify.Snapshot(notify.GuestRecipient{Email: "g@example.com"}),
		Channels:  []notify.Channel{notify.ChannelMail},
	}
	if err := p.Process(context.Background(), env); err == nil {
		t.Fatal("expected failure after retry budget exhausted")
	}
}

func TestProcessRejectsMultiChannelJobs(t *testing.T) {
	t.Parallel()

	p := testProcessor(nil)
	env := notify.Envelope{
		RequestID: "req-3",
		Channels:  []notify.Channel{notify.ChannelMail, notify.ChannelSMS},
	}
	if err := p.Process(context.Background(), env); err == nil {
		t.Fatal("jobs must carry exactly one channel")
	}
}

func TestProcessSkipsAddresslessRecipient(t *testing.T) {
	t.Parallel()

	sender := &flakySender{channel: notify.ChannelMail}
	statuses := &fakeStatusRecorder{}
	p := testProcessor(statuses, sender)

	// A guest snapshot with no email can never succeed on the mail channel;
	// the job is acknowledged as skipped rather than retried to death.
	env := notify.Envelope{
		Kind:      "order_ready",
		RequestID: "req-skip",
		Recipient: notify.Snapshot(notify.GuestRecipient{Phone: "+15550001"}),
		Channels:  []notify.Channel{notify.ChannelMail},
	}
	if err := p.Process(context.Background(), env); err != nil {
		t.Fatalf("addressless jobs must not error into a retry loop: %v", err)
	}
	if sender.calls != 0 {
		t.Fatalf("sender must not be attempted without an address, got %d calls", sender.calls)
	}
	if len(statuses.rows) != 1 || statuses.rows[0].status != "skipped" {
		t.Fatalf("expected one skipped status row, got %+v", statuses.rows)
	}
}

func TestProcessMissingSender(t *testing.T) {
	t.Parallel()

	p := testProcessor(nil)
	env := notify.Envelope{
		RequestID: "req-4",
		Channels:  []notify.Channel{notify.ChannelSMS},
	}
	if err := p.Process(context.Background(), env); err == nil {
		t.Fatal("expected error for unregistered channel")
	}
}
