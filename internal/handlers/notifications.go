package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/resto-platform/core/internal/core"
	"github.com/resto-platform/core/internal/middleware"
	"github.com/resto-platform/core/internal/notify"
	"github.com/resto-platform/core/internal/repository"
)

// RecipientSource loads registered recipients.
type RecipientSource interface {
	ForUser(ctx context.Context, userID int64) (notify.Recipient, error)
}

// InboxStore serves the in-app notification inbox.
type InboxStore interface {
	List(ctx context.Context, tenantID, userID int64, limit int) ([]repository.InboxNotification, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID int64) error
}

// StatusReader returns the per-channel delivery rows for a request.
type StatusReader interface {
	ForRequest(ctx context.Context, requestID string) ([]repository.DeliveryStatus, error)
}

// IdempotencyStore marks request ids as seen and clears marks for failed
// dispatches.
type IdempotencyStore interface {
	IsDuplicate(ctx context.Context, requestID string) (bool, error)
	Forget(ctx context.Context, requestID string) error
}

// NotificationHandler accepts notification requests and serves the in-app
// inbox and delivery status lookups.
type NotificationHandler struct {
	core        *core.Core
	recipients  RecipientSource
	inbox       InboxStore
	statuses    StatusReader
	idempotency IdempotencyStore
}

func NewNotificationHandler(
	c *core.Core,
	recipients RecipientSource,
	inbox InboxStore,
	statuses StatusReader,
	idempotency IdempotencyStore,
) *NotificationHandler {
	return &NotificationHandler{
		core:        c,
		recipients:  recipients,
		inbox:       inbox,
		statuses:    statuses,
		idempotency: idempotency,
	}
}

type guestContact struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	TelegramChatID string `json:"telegram_chat_id"`
}

type sendNotificationRequest struct {
	RequestID string                 `json:"request_id" binding:"omitempty,uuid4"`
	Kind      string                 `json:"kind" binding:"required"`
	UserID    int64                  `json:"user_id"`
	Guest     *guestContact          `json:"guest"`
	Data      map[string]interface{} `json:"data"`
}

// SendNotification resolves the recipient, routes the notification, and
// queues the per-channel deliveries.
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.UserID <= 0 && req.Guest == nil {
		respondError(c, http.StatusBadRequest, "user_id or guest is required", nil)
		return
	}

	tenantID, ok := middleware.TenantFrom(c)
	if !ok {
		respondError(c, http.StatusForbidden, "tenant not resolved", nil)
		return
	}

	if req.RequestID != "" {
		if dup, err := h.idempotency.IsDuplicate(c.Request.Context(), req.RequestID); err != nil {
			respondError(c, http.StatusInternalServerError, "failed to check idempotency", err)
			return
		} else if dup {
			respondSuccess(c, http.StatusOK, "duplicate request", gin.H{
				"request_id": req.RequestID,
				"status":     "duplicate",
			})
			return
		}
	}

	var rcpt notify.Recipient
	if req.UserID > 0 {
		loaded, err := h.recipients.ForUser(c.Request.Context(), req.UserID)
		if err != nil {
			h.forget(c, req.RequestID)
			respondError(c, http.StatusNotFound, "recipient not found", err)
			return
		}
		rcpt = loaded
	} else {
		rcpt = notify.GuestRecipient{
			Name:           req.Guest.Name,
			Phone:          req.Guest.Phone,
			Email:          req.Guest.Email,
			TelegramChatID: req.Guest.TelegramChatID,
		}
	}

	receipt, err := h.core.Notify(c.Request.Context(), tenantID, req.Kind, rcpt, req.Data)
	if err != nil {
		// A dispatch that never happened must not poison the request id.
		h.forget(c, req.RequestID)
		if errors.Is(err, notify.ErrNoChannels) {
			respondError(c, http.StatusUnprocessableEntity, "recipient has no deliverable channels", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to dispatch notification", err)
		return
	}

	respondSuccess(c, http.StatusAccepted, "notification queued", gin.H{
		"request_id": receipt.RequestID,
		"channels":   receipt.Channels,
	})
}

func (h *NotificationHandler) forget(c *gin.Context, requestID string) {
	if requestID == "" {
		return
	}
	_ = h.idempotency.Forget(c.Request.Context(), requestID)
}

// ListInbox returns the authenticated user's in-app notifications.
func (h *NotificationHandler) ListInbox(c *gin.Context) {
	ident := middleware.IdentityFrom(c)
	if ident == nil {
		respondError(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	tenantID, ok := middleware.TenantFrom(c)
	if !ok {
		respondError(c, http.StatusForbidden, "tenant not resolved", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.inbox.List(c.Request.Context(), tenantID, ident.UserID, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load inbox", err)
		return
	}

	respondSuccess(c, http.StatusOK, "inbox", gin.H{
		"notifications": items,
	})
}

// MarkRead stamps one of the authenticated user's inbox notifications as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ident := middleware.IdentityFrom(c)
	if ident == nil {
		respondError(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	tenantID, ok := middleware.TenantFrom(c)
	if !ok {
		respondError(c, http.StatusForbidden, "tenant not resolved", nil)
		return
	}

	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid notification id", err)
		return
	}

	if err := h.inbox.MarkRead(c.Request.Context(), tenantID, ident.UserID, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "notification not found", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to mark notification read", err)
		return
	}

	respondSuccess(c, http.StatusOK, "notification read", gin.H{
		"notification_id": notificationID,
	})
}

// GetStatus returns the per-channel delivery status for a request.
func (h *NotificationHandler) GetStatus(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		respondError(c, http.StatusBadRequest, "request_id is required", nil)
		return
	}

	rows, err := h.statuses.ForRequest(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load status", err)
		return
	}
	if len(rows) == 0 {
		respondError(c, http.StatusNotFound, "notification not found", nil)
		return
	}

	respondSuccess(c, http.StatusOK, "notification status", gin.H{
		"request_id": requestID,
		"channels":   rows,
	})
}
