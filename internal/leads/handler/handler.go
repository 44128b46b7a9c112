package handler

import (
	"net/http"

	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.CreateLead)
	rg.GET("/leads", h.ListLeads)
	rg.GET("/leads/:leadID", h.GetLead)
	rg.PATCH("/leads/:leadID", h.UpdateLead)
	rg.POST("/leads/:leadID/assign", h.AssignLead)
	rg.GET("/leads/:leadID/assignments", h.ListAssignments)
	rg.POST("/leads/:leadID/calls", h.CreateCallLog)
	rg.GET("/leads/:leadID/calls", h.ListCallLogs)
	rg.POST("/leads/:leadID/attachments/presign", h.PresignAttachment)
	rg.POST("/leads/:leadID/attachments", h.ConfirmAttachment)
	rg.GET("/leads/:leadID/attachments", h.ListAttachments)
	rg.GET("/attachments/:attachmentID/download", h.DownloadAttachment)
}

func (h *Handler) CreateLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.CreateLead(c.Request.Context(), service.CreateLeadInput{
		TenantID: id.TenantID(),
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Priority: req.Priority,
		Source:   req.Source,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toLeadResponse(lead))
}

func (h *Handler) ListLeads(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var filter repository.LeadFilter
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if assigned := c.Query("assignedUserId"); assigned != "" {
		parsed, err := uuid.Parse(assigned)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid assignedUserId", nil)
			return
		}
		filter.AssignedUserID = &parsed
	}

	leads, err := h.svc.ListLeads(c.Request.Context(), id.TenantID(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, toLeadResponse(lead))
	}
	httpkit.OK(c, transport.ListLeadsResponse{Leads: responses})
}

func (h *Handler) GetLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetLead(c.Request.Context(), leadID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toLeadResponse(lead))
}

func (h *Handler) UpdateLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateLead(c.Request.Context(), leadID, id.TenantID(), id.UserID(), repository.LeadUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Status:   req.Status,
		Priority: req.Priority,
		Source:   req.Source,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toLeadResponse(lead))
}

func (h *Handler) AssignLead(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}

	lead, err := h.svc.AssignLead(c.Request.Context(), leadID, id.TenantID(), userID, id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toLeadResponse(lead))
}

func (h *Handler) ListAssignments(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	assignments, err := h.svc.ListAssignments(c.Request.Context(), leadID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		resp := transport.AssignmentResponse{
			ID:             assignment.ID.String(),
			LeadID:         assignment.LeadID.String(),
			AssignedUserID: assignment.AssignedUserID.String(),
			Reason:         assignment.Reason,
			CreatedAt:      assignment.CreatedAt,
		}
		if assignment.AssignedBy != nil {
			by := assignment.AssignedBy.String()
			resp.AssignedBy = &by
		}
		responses = append(responses, resp)
	}
	httpkit.OK(c, transport.ListAssignmentsResponse{Assignments: responses})
}

func (h *Handler) CreateCallLog(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.CreateCallLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	log, err := h.svc.CreateCallLog(c.Request.Context(), service.CreateCallLogInput{
		TenantID: id.TenantID(),
		LeadID:   leadID,
		AgentID:  id.UserID(),
		Outcome:  req.Outcome,
		Notes:    req.Notes,
		CalledAt: req.CalledAt,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CallLogResponse{
		ID:       log.ID.String(),
		LeadID:   log.LeadID.String(),
		AgentID:  log.AgentID.String(),
		Outcome:  log.Outcome,
		Notes:    log.Notes,
		CalledAt: log.CalledAt,
	})
}

func (h *Handler) ListCallLogs(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	logs, err := h.svc.ListCallLogs(c.Request.Context(), leadID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.CallLogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, transport.CallLogResponse{
			ID:       log.ID.String(),
			LeadID:   log.LeadID.String(),
			AgentID:  log.AgentID.String(),
			Outcome:  log.Outcome,
			Notes:    log.Notes,
			CalledAt: log.CalledAt,
		})
	}
	httpkit.OK(c, transport.ListCallLogsResponse{CallLogs: responses})
}

func (h *Handler) PresignAttachment(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.AttachmentPresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	presigned, err := h.svc.PresignAttachmentUpload(c.Request.Context(), leadID, id.TenantID(), req.FileName, req.ContentType, req.SizeBytes)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AttachmentPresignResponse{
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt,
	})
}

func (h *Handler) ConfirmAttachment(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.ConfirmAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	attachment, err := h.svc.ConfirmAttachment(c.Request.Context(), service.ConfirmAttachmentInput{
		TenantID:    id.TenantID(),
		LeadID:      leadID,
		UploadedBy:  id.UserID(),
		FileKey:     req.FileKey,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toAttachmentResponse(attachment))
}

func (h *Handler) ListAttachments(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	attachments, err := h.svc.ListAttachments(c.Request.Context(), leadID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.AttachmentResponse, 0, len(attachments))
	for _, attachment := range attachments {
		responses = append(responses, toAttachmentResponse(attachment))
	}
	httpkit.OK(c, transport.ListAttachmentsResponse{Attachments: responses})
}

func (h *Handler) DownloadAttachment(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	attachmentID, err := uuid.Parse(c.Param("attachmentID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid attachment id", nil)
		return
	}

	presigned, err := h.svc.PresignAttachmentDownload(c.Request.Context(), attachmentID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AttachmentDownloadResponse{
		DownloadURL: presigned.URL,
		ExpiresAt:   presigned.ExpiresAt,
	})
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("leadID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.UUID{}, false
	}
	return leadID, true
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:        lead.ID.String(),
		Name:      lead.Name,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Status:    lead.Status,
		Priority:  lead.Priority,
		Source:    lead.Source,
		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}
	if lead.AssignedUserID != nil {
		assigned := lead.AssignedUserID.String()
		resp.AssignedUserID = &assigned
	}
	return resp
}

func toAttachmentResponse(attachment repository.Attachment) transport.AttachmentResponse {
	return transport.AttachmentResponse{
		ID:          attachment.ID.String(),
		LeadID:      attachment.LeadID.String(),
		FileName:    attachment.FileName,
		ContentType: attachment.ContentType,
		SizeBytes:   attachment.SizeBytes,
		CreatedAt:   attachment.CreatedAt,
	}
}
