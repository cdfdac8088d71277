package notification

import (
	"log/slog"
	"net/http"

	"herald/internal/common"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Dispatch handles POST /api/v1/dispatch
// Enqueues a notification dispatch for async processing and returns 202 Accepted.
func (h *Handler) Dispatch(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Enqueue(c.Request.Context(), &req)
	if err != nil {
		slog.Error("enqueue dispatch failed",
			"error", err,
			"type", req.Type,
			"user_id", req.UserID,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, resp)
}

// GetDispatch handles GET /api/v1/dispatches/:id
func (h *Handler) GetDispatch(c *gin.Context) {
	id := c.Param("id")

	dispatchLog, err := h.service.GetDispatch(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, dispatchLog)
}

// ListDispatches handles GET /api/v1/dispatches
func (h *Handler) ListDispatches(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.ListDispatches(c.Request.Context(), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// DeliveryWebhook handles POST /api/v1/webhooks/delivery
// Receives delivery status updates from channel transports.
func (h *Handler) DeliveryWebhook(c *gin.Context) {
	var event struct {
		Event     string `json:"event"`
		MessageID string `json:"message_id"`
	}

	if err := c.ShouldBindJSON(&event); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid webhook payload: "+err.Error())
		return
	}

	// Map transport event types to dispatch statuses
	var status DispatchStatus
	switch event.Event {
	case "delivered":
		status = StatusDelivered
	case "bounced":
		status = StatusBounced
	default:
		// Acknowledge but ignore unhandled event types
		slog.Info("ignoring webhook event", "event", event.Event)
		common.Success(c, http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.service.HandleWebhookEvent(c.Request.Context(), event.MessageID, status); err != nil {
		slog.Error("webhook processing failed",
			"event", event.Event,
			"message_id", event.MessageID,
			"error", err,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"status": "processed"})
}

// RegisterRoutes registers notification routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/dispatch", h.Dispatch)
	rg.GET("/dispatches", h.ListDispatches)
	rg.GET("/dispatches/:id", h.GetDispatch)
	rg.POST("/webhooks/delivery", h.DeliveryWebhook)
}
