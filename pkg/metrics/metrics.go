package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Collector tracks request and delivery counters for both binaries without
// pulling in a heavy metrics dependency.
type Collector struct {
	totalRequests   atomic.Int64
	failedRequests  atomic.Int64
	totalLatencyMic atomic.Int64

	eventsPublished atomic.Int64
	eventsFailed    atomic.Int64

	notifyQueued    atomic.Int64
	notifyDelivered atomic.Int64
	notifyFailed    atomic.Int64
	notifyRetried   atomic.Int64

	startedAt time.Time
}

func New() *Collector {
	return &Collector{
		startedAt: time.Now(),
	}
}

func (c *Collector) IncEventPublished() { c.eventsPublished.Add(1) }
func (c *Collector) IncEventFailed()    { c.eventsFailed.Add(1) }
func (c *Collector) IncQueued()         { c.notifyQueued.Add(1) }
func (c *Collector) IncDelivered()      { c.notifyDelivered.Add(1) }
func (c *Collector) IncFailed()         { c.notifyFailed.Add(1) }
func (c *Collector) IncRetried()        { c.notifyRetried.Add(1) }

// GinMiddleware records request count, failures, and aggregate latency.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		c.totalRequests.Add(1)
		if ctx.Writer.Status() >= http.StatusInternalServerError {
			c.failedRequests.Add(1)
		}
		c.totalLatencyMic.Add(time.Since(start).Microseconds())
	}
}

// Handler exposes the counters in a simple JSON form.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs := c.totalRequests.Load()
		latency := c.totalLatencyMic.Load()
		var avgMicros int64
		if reqs > 0 {
			avgMicros = latency / reqs
		}

		payload := map[string]interface{}{
			"requests_total":        reqs,
			"requests_failed":       c.failedRequests.Load(),
			"avg_latency_micros":    avgMicros,
			"events_published":      c.eventsPublished.Load(),
			"events_failed":         c.eventsFailed.Load(),
			"notifications_queued":  c.notifyQueued.Load(),
			"notifications_sent":    c.notifyDelivered.Load(),
			"notifications_failed":  c.notifyFailed.Load(),
			"notifications_retried": c.notifyRetried.Load(),
			"uptime_seconds":        int64(time.Since(c.startedAt).Seconds()),
			"timestamp":             time.Now().UTC(),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
}
