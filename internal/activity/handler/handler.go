package handler

import (
	"net/http"
	"strconv"

	"leadflow_backend/internal/activity/repository"
	"leadflow_backend/internal/activity/service"
	"leadflow_backend/internal/activity/transport"
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
	rg.GET("/activities", h.List)
}

func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var filter repository.Filter
	if entityType := c.Query("entityType"); entityType != "" {
		filter.EntityType = &entityType
	}
	if raw := c.Query("entityId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid entity id", nil)
			return
		}
		filter.EntityID = &parsed
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	activities, err := h.svc.List(c.Request.Context(), id.TenantID(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		resp := transport.ActivityResponse{
			ID:         activity.ID.String(),
			Action:     activity.Action,
			EntityType: activity.EntityType,
			EntityID:   activity.EntityID.String(),
			Details:    activity.Details,
			CreatedAt:  activity.CreatedAt,
		}
		if activity.ActorID != nil {
			actor := activity.ActorID.String()
			resp.ActorID = &actor
		}
		responses = append(responses, resp)
	}
	httpkit.OK(c, transport.ListActivitiesResponse{Activities: responses})
}
