package handler

import (
	"net/http"
	"strconv"
	"strings"

	"leadflow_backend/internal/notification/repository"
	"leadflow_backend/internal/notification/service"
	"leadflow_backend/internal/notification/transport"
	"leadflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/notifications")
	group.GET("", h.List)
	group.GET("/unread-count", h.UnreadCount)
	group.POST("/:notificationID/read", h.MarkRead)
	group.POST("/read-all", h.MarkAllRead)
}

func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	unreadOnly := strings.EqualFold(c.Query("unread"), "true")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.svc.List(c.Request.Context(), id.TenantID(), id.UserID(), unreadOnly, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, toNotificationResponse(n))
	}
	httpkit.OK(c, transport.ListNotificationsResponse{Notifications: responses})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), id.TenantID(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.UnreadCountResponse{Count: count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	notificationID, err := uuid.Parse(c.Param("notificationID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), notificationID, id.TenantID(), id.UserID()); httpkit.HandleError(c, err) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	marked, err := h.svc.MarkAllRead(c.Request.Context(), id.TenantID(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MarkAllReadResponse{Marked: marked})
}

func toNotificationResponse(n repository.Notification) transport.NotificationResponse {
	resp := transport.NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		ActionURL: n.ActionURL,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
	resp.EntityType = n.EntityType
	if n.EntityID != nil {
		entityID := n.EntityID.String()
		resp.EntityID = &entityID
	}
	return resp
}
