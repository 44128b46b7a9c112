package handler

import (
	"errors"
	"net/http"

	"leadflow_backend/internal/reassignment/repository"
	"leadflow_backend/internal/reassignment/service"
	"leadflow_backend/internal/reassignment/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// PermissionTrigger gates manual reassignment triggers.
	PermissionTrigger = "reassignment:trigger"
	// PermissionNegligence gates manual negligence penalties.
	PermissionNegligence = "reassignment:negligence"
)

type Handler struct {
	svc  *service.Service
	repo *repository.Repository
	val  *validator.Validator
}

// New builds the handler. Rule and pool administration is thin CRUD and
// goes straight to the repository; engine operations go through the service.
func New(svc *service.Service, repo *repository.Repository, val *validator.Validator) *Handler {
	return &Handler{svc: svc, repo: repo, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/reassignment")
	group.POST("/trigger", httpkit.RequirePermission(PermissionTrigger), h.Trigger)
	group.POST("/negligence", httpkit.RequirePermission(PermissionNegligence), h.AddNegligence)
	group.GET("/events", h.ListEvents)
	group.GET("/negligence", h.ListNegligence)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/reassignment")
	group.GET("/rules", h.ListRules)
	group.POST("/rules", h.CreateRule)
	group.PATCH("/rules/:ruleID", h.SetRuleEnabled)
	group.DELETE("/rules/:ruleID", h.DeleteRule)
	group.GET("/pool", h.ListPoolMembers)
	group.PUT("/pool/:userID", h.SetPoolMember)
	group.DELETE("/pool/:userID", h.RemovePoolMember)
}

func (h *Handler) Trigger(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.TriggerRequest
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

	event, err := h.svc.EvaluateAndReassign(c.Request.Context(), id.TenantID(), leadID, req.TriggerKey)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.TriggerResponse{Reassigned: event != nil}
	if event != nil {
		converted := toEventResponse(*event)
		resp.Event = &converted
	}
	httpkit.OK(c, resp)
}

func (h *Handler) AddNegligence(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.NegligenceRequest
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
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}

	point, err := h.svc.AddNegligencePoints(c.Request.Context(), id.TenantID(), leadID, userID, req.Points, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toNegligenceResponse(point))
}

func (h *Handler) ListEvents(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var leadID *uuid.UUID
	if raw := c.Query("leadId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
			return
		}
		leadID = &parsed
	}

	events, err := h.repo.ListEvents(c.Request.Context(), id.TenantID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, toEventResponse(event))
	}
	httpkit.OK(c, transport.ListEventsResponse{Events: responses})
}

func (h *Handler) ListNegligence(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var userID *uuid.UUID
	if raw := c.Query("userId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
			return
		}
		userID = &parsed
	}

	points, err := h.repo.ListNegligencePoints(c.Request.Context(), id.TenantID(), userID)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.NegligencePointResponse, 0, len(points))
	for _, point := range points {
		responses = append(responses, toNegligenceResponse(point))
	}
	httpkit.OK(c, transport.ListNegligencePointsResponse{NegligencePoints: responses})
}

func (h *Handler) ListRules(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	rules, err := h.repo.ListRules(c.Request.Context(), id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.RuleResponse, 0, len(rules))
	for _, rule := range rules {
		responses = append(responses, toRuleResponse(rule))
	}
	httpkit.OK(c, transport.ListRulesResponse{Rules: responses})
}

func (h *Handler) CreateRule(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule, err := h.repo.CreateRule(c.Request.Context(), id.TenantID(), req.Name, enabled)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toRuleResponse(rule))
}

func (h *Handler) SetRuleEnabled(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	ruleID, err := uuid.Parse(c.Param("ruleID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid rule id", nil)
		return
	}

	var req transport.SetRuleEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.repo.SetRuleEnabled(c.Request.Context(), ruleID, id.TenantID(), *req.Enabled); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httpkit.Error(c, http.StatusNotFound, "rule not found", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) DeleteRule(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	ruleID, err := uuid.Parse(c.Param("ruleID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid rule id", nil)
		return
	}

	if err := h.repo.DeleteRule(c.Request.Context(), ruleID, id.TenantID()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httpkit.Error(c, http.StatusNotFound, "rule not found", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) ListPoolMembers(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	members, err := h.repo.ListPoolMembers(c.Request.Context(), id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.PoolMemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, transport.PoolMemberResponse{
			ID:        member.ID.String(),
			UserID:    member.UserID.String(),
			Weight:    member.Weight,
			CreatedAt: member.CreatedAt,
		})
	}
	httpkit.OK(c, transport.ListPoolMembersResponse{Members: responses})
}

func (h *Handler) SetPoolMember(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}

	var req transport.SetPoolMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	member, err := h.repo.UpsertPoolMember(c.Request.Context(), id.TenantID(), userID, req.Weight)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.PoolMemberResponse{
		ID:        member.ID.String(),
		UserID:    member.UserID.String(),
		Weight:    member.Weight,
		CreatedAt: member.CreatedAt,
	})
}

func (h *Handler) RemovePoolMember(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}

	if err := h.repo.RemovePoolMember(c.Request.Context(), id.TenantID(), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httpkit.Error(c, http.StatusNotFound, "pool member not found", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	httpkit.NoContent(c)
}

func toEventResponse(event repository.Event) transport.EventResponse {
	resp := transport.EventResponse{
		ID:        event.ID.String(),
		LeadID:    event.LeadID.String(),
		ToUserID:  event.ToUserID.String(),
		RuleID:    event.RuleID.String(),
		Reason:    event.Reason,
		CreatedAt: event.CreatedAt,
	}
	if event.FromUserID != nil {
		from := event.FromUserID.String()
		resp.FromUserID = &from
	}
	return resp
}

func toRuleResponse(rule repository.Rule) transport.RuleResponse {
	return transport.RuleResponse{
		ID:        rule.ID.String(),
		Name:      rule.Name,
		Enabled:   rule.Enabled,
		CreatedAt: rule.CreatedAt,
	}
}

func toNegligenceResponse(point repository.NegligencePoint) transport.NegligencePointResponse {
	return transport.NegligencePointResponse{
		ID:        point.ID.String(),
		LeadID:    point.LeadID.String(),
		UserID:    point.UserID.String(),
		Points:    point.Points,
		Reason:    point.Reason,
		CreatedAt: point.CreatedAt,
	}
}
