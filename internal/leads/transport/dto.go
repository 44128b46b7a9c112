package transport

import "time"

type CreateLeadRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=200"`
	Phone    string  `json:"phone" validate:"required,min=3,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Priority int     `json:"priority" validate:"omitempty,min=0,max=10"`
	Source   *string `json:"source" validate:"omitempty,max=100"`
}

type UpdateLeadRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Status   *string `json:"status" validate:"omitempty,min=1,max=50"`
	Priority *int    `json:"priority" validate:"omitempty,min=0,max=10"`
	Source   *string `json:"source" validate:"omitempty,max=100"`
}

type AssignLeadRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type LeadResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          *string   `json:"email,omitempty"`
	Status         string    `json:"status"`
	Priority       int       `json:"priority"`
	Source         *string   `json:"source,omitempty"`
	AssignedUserID *string   `json:"assignedUserId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type ListLeadsResponse struct {
	Leads []LeadResponse `json:"leads"`
}

type CreateCallLogRequest struct {
	Outcome  string     `json:"outcome" validate:"required,min=1,max=50"`
	Notes    *string    `json:"notes" validate:"omitempty,max=2000"`
	CalledAt *time.Time `json:"calledAt"`
}

type CallLogResponse struct {
	ID       string    `json:"id"`
	LeadID   string    `json:"leadId"`
	AgentID  string    `json:"agentId"`
	Outcome  string    `json:"outcome"`
	Notes    *string   `json:"notes,omitempty"`
	CalledAt time.Time `json:"calledAt"`
}

type ListCallLogsResponse struct {
	CallLogs []CallLogResponse `json:"callLogs"`
}

type AssignmentResponse struct {
	ID             string    `json:"id"`
	LeadID         string    `json:"leadId"`
	AssignedUserID string    `json:"assignedUserId"`
	AssignedBy     *string   `json:"assignedBy,omitempty"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ListAssignmentsResponse struct {
	Assignments []AssignmentResponse `json:"assignments"`
}

type AttachmentPresignRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required,min=1,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

type AttachmentPresignResponse struct {
	UploadURL string    `json:"uploadUrl"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ConfirmAttachmentRequest struct {
	FileKey     string `json:"fileKey" validate:"required,min=1,max=500"`
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required,min=1,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

type AttachmentResponse struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"leadId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListAttachmentsResponse struct {
	Attachments []AttachmentResponse `json:"attachments"`
}

type AttachmentDownloadResponse struct {
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
