package handler

import (
	"net/http"

	"leadflow_backend/internal/meetings/repository"
	"leadflow_backend/internal/meetings/service"
	"leadflow_backend/internal/meetings/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/meetings")
	group.POST("", h.Schedule)
	group.GET("", h.List)
	group.GET("/:meetingID", h.Get)
	group.PATCH("/:meetingID", h.Update)
	group.DELETE("/:meetingID", h.Delete)
}

func (h *Handler) Schedule(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ScheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	leadID, err := uuid.Parse(req.LeadID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	meeting, err := h.svc.Schedule(c.Request.Context(), service.ScheduleInput{
		TenantID:        id.TenantID(),
		LeadID:          leadID,
		AgentID:         id.UserID(),
		Title:           req.Title,
		Notes:           req.Notes,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toMeetingResponse(meeting))
}

func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var filter repository.Filter
	if raw := c.Query("leadId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
			return
		}
		filter.LeadID = &parsed
	}
	if raw := c.Query("agentId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid agent id", nil)
			return
		}
		filter.AgentID = &parsed
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	meetings, err := h.svc.List(c.Request.Context(), id.TenantID(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.MeetingResponse, 0, len(meetings))
	for _, meeting := range meetings {
		responses = append(responses, toMeetingResponse(meeting))
	}
	httpkit.OK(c, transport.ListMeetingsResponse{Meetings: responses})
}

func (h *Handler) Get(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	meetingID, ok := parseMeetingID(c)
	if !ok {
		return
	}

	meeting, err := h.svc.Get(c.Request.Context(), meetingID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toMeetingResponse(meeting))
}

func (h *Handler) Update(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	meetingID, ok := parseMeetingID(c)
	if !ok {
		return
	}

	var req transport.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	meeting, err := h.svc.Update(c.Request.Context(), meetingID, id.TenantID(), repository.MeetingUpdate{
		Title:           req.Title,
		Notes:           req.Notes,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toMeetingResponse(meeting))
}

func (h *Handler) Delete(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	meetingID, ok := parseMeetingID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), meetingID, id.TenantID()); httpkit.HandleError(c, err) {
		return
	}

	httpkit.NoContent(c)
}

func parseMeetingID(c *gin.Context) (uuid.UUID, bool) {
	meetingID, err := uuid.Parse(c.Param("meetingID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid meeting id", nil)
		return uuid.UUID{}, false
	}
	return meetingID, true
}

func toMeetingResponse(meeting repository.Meeting) transport.MeetingResponse {
	return transport.MeetingResponse{
		ID:              meeting.ID.String(),
		LeadID:          meeting.LeadID.String(),
		AgentID:         meeting.AgentID.String(),
		Title:           meeting.Title,
		Notes:           meeting.Notes,
		ScheduledAt:     meeting.ScheduledAt,
		DurationMinutes: meeting.DurationMinutes,
		Status:          meeting.Status,
		CreatedAt:       meeting.CreatedAt,
		UpdatedAt:       meeting.UpdatedAt,
	}
}
