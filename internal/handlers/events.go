package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resto-platform/core/internal/core"
	"github.com/resto-platform/core/internal/middleware"
	"github.com/resto-platform/core/internal/realtime"
)

// EventHandler accepts domain events for realtime fan-out.
type EventHandler struct {
	core *core.Core
}

func NewEventHandler(c *core.Core) *EventHandler {
	return &EventHandler{core: c}
}

type emitEventRequest struct {
	Domain  string                 `json:"domain" binding:"required"`
	Event   string                 `json:"event" binding:"required"`
	Payload map[string]interface{} `json:"payload"`
}

// EmitEvent publishes a realtime event on the caller's tenant channel. The
// tenant always comes from the resolved context, never from the payload.
func (h *EventHandler) EmitEvent(c *gin.Context) {
	var req emitEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	tenantID, ok := middleware.TenantFrom(c)
	if !ok {
		respondError(c, http.StatusForbidden, "tenant not resolved", nil)
		return
	}

	ev := realtime.NewEvent(tenantID, realtime.Domain(req.Domain), req.Event, req.Payload)
	if ident := middleware.IdentityFrom(c); ident != nil {
		ev = ev.WithActor(ident.UserID)
	}

	if err := h.core.Emit(c.Request.Context(), ev); err != nil {
		if errors.Is(err, realtime.ErrUnknownDomain) {
			respondError(c, http.StatusBadRequest, "unknown event domain", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to emit event", err)
		return
	}

	respondSuccess(c, http.StatusAccepted, "event accepted", gin.H{
		"channel": realtime.ChannelFor(tenantID, ev.Domain),
		"event":   ev.Type,
	})
}
