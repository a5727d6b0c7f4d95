package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/resto-platform/core/internal/middleware"
	"github.com/resto-platform/core/internal/orders"
	"github.com/resto-platform/core/internal/repository"
)

// OrderHandler handles order lifecycle requests. Status updates run through
// the state machine and hand committed transitions to the watcher.
type OrderHandler struct {
	store   *repository.OrderStore
	watcher *orders.Watcher
}

func NewOrderHandler(store *repository.OrderStore, watcher *orders.Watcher) *OrderHandler {
	return &OrderHandler{
		store:   store,
		watcher: watcher,
	}
}

type createOrderRequest struct {
	Type                string  `json:"type" binding:"required,oneof=dine_in takeout delivery"`
	CustomerID          int64   `json:"customer_id"`
	GuestName           string  `json:"guest_name"`
	GuestPhone          string  `json:"guest_phone"`
	GuestEmail          string  `json:"guest_email"`
	GuestTelegramChatID string  `json:"guest_telegram_chat_id"`
	TotalAmount         float64 `json:"total_amount"`
	Comment             string  `json:"comment"`
}

// CreateOrder creates an order in the initial status and lets the watcher
// fan out the creation.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	tenantID, ok := middleware.TenantFrom(c)
	if !ok {
		respondError(c, http.StatusForbidden, "tenant not resolved", nil)
		return
	}

	order := orders.Order{
		RestaurantID:        tenantID,
		Type:                orders.Type(req.Type),
		Status:              orders.StatusNew,
		CustomerID:          req.CustomerID,
		GuestName:           req.GuestName,
		GuestPhone:          req.GuestPhone,
		GuestEmail:          req.GuestEmail,
		GuestTelegramChatID: req.GuestTelegramChatID,
		TotalAmount:         req.TotalAmount,
		Comment:             req.Comment,
	}
	if err := h.store.Create(c.Request.Context(), &order); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create order", err)
		return
	}

	h.watcher.OrderCreated(c.Request.Context(), order)

	respondSuccess(c, http.StatusCreated, "order created", gin.H{
		"order_id": order.ID,
		"status":   order.Status,
	})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus validates and applies a status transition, then notifies the
// watcher. The transition is committed before any fan-out happens; delivery
// problems never roll it back.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid order id", err)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	requested := orders.Status(req.Status)
	if !requested.Valid() {
		respondError(c, http.StatusBadRequest, "unknown status", nil)
		return
	}

	tenantID, ok := middleware.TenantFrom(c)
	if !ok {
		respondError(c, http.StatusForbidden, "tenant not resolved", nil)
		return
	}

	order, err := h.store.Get(c.Request.Context(), tenantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "order not found", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load order", err)
		return
	}

	old := order.Status
	next, err := orders.Transition(old, requested)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrTerminalStatus):
			respondError(c, http.StatusConflict, "order is in a terminal status", err)
		case errors.Is(err, orders.ErrInvalidTransition):
			respondError(c, http.StatusConflict, "invalid status transition", err)
		default:
			respondError(c, http.StatusInternalServerError, "status transition failed", err)
		}
		return
	}

	if err := h.store.UpdateStatus(c.Request.Context(), tenantID, orderID, next); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update status", err)
		return
	}

	order.Status = next
	h.watcher.StatusChanged(c.Request.Context(), order, old, requested)

	respondSuccess(c, http.StatusOK, "order status updated", gin.H{
		"order_id":   order.ID,
		"old_status": old,
		"new_status": next,
	})
}

// TrackOrder is the public, read-only view of an order's status.
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid order id", err)
		return
	}

	tenantID, ok := middleware.TenantFrom(c)
	if !ok {
		respondError(c, http.StatusForbidden, "tenant not resolved", nil)
		return
	}

	order, err := h.store.Get(c.Request.Context(), tenantID, orderID)
	if err != nil {
		respondError(c, http.StatusNotFound, "order not found", nil)
		return
	}

	respondSuccess(c, http.StatusOK, "order status", gin.H{
		"order_id": order.ID,
		"type":     order.Type,
		"status":   order.Status,
	})
}
