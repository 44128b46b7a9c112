package handler

import (
	"net/http"

	"leadflow_backend/internal/identity/repository"
	"leadflow_backend/internal/identity/service"
	"leadflow_backend/internal/identity/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidUserID    = "invalid user id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts tenant signup on the unauthenticated group.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/tenants", h.CreateTenant)
}

// RegisterProtectedRoutes mounts routes available to any authenticated user.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/tenants/me", h.GetTenant)
}

// RegisterAdminRoutes mounts tenant administration routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/users", h.CreateUser)
	rg.GET("/users", h.ListUsers)
	rg.GET("/users/:userID", h.GetUser)
	rg.PATCH("/users/:userID/status", h.UpdateUserStatus)
	rg.PUT("/users/:userID/roles", h.ReplaceUserRoles)
	rg.GET("/users/:userID/permissions", h.ListPermissionOverrides)
	rg.PUT("/users/:userID/permissions", h.SetPermissionOverride)
	rg.DELETE("/users/:userID/permissions/:permissionKey", h.ClearPermissionOverride)
	rg.GET("/roles", h.ListRoles)
	rg.POST("/roles", h.CreateRole)
	rg.PUT("/roles/:roleName/permissions", h.ReplaceRolePermissions)
	rg.GET("/permissions", h.ListPermissions)
}

func (h *Handler) CreateTenant(c *gin.Context) {
	var req transport.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateTenant(c.Request.Context(), service.CreateTenantInput{
		Name:          req.Name,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
		AdminFullName: req.AdminFullName,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CreateTenantResponse{
		Tenant: toTenantResponse(result.Tenant),
		Admin:  toUserResponse(result.Admin),
	})
}

func (h *Handler) GetTenant(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	tenant, err := h.svc.GetTenant(c.Request.Context(), id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toTenantResponse(tenant))
}

func (h *Handler) CreateUser(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), service.CreateUserInput{
		TenantID: id.TenantID(),
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Roles:    req.Roles,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) ListUsers(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	users, err := h.svc.ListUsers(c.Request.Context(), id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}
	httpkit.OK(c, transport.ListUsersResponse{Users: responses})
}

func (h *Handler) GetUser(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), userID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toUserResponse(user))
}

func (h *Handler) UpdateUserStatus(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req transport.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	user, err := h.svc.UpdateUserStatus(c.Request.Context(), userID, id.TenantID(), id.UserID(), req.Status)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toUserResponse(user))
}

func (h *Handler) ReplaceUserRoles(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req transport.ReplaceUserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.ReplaceUserRoles(c.Request.Context(), userID, id.TenantID(), req.Roles); httpkit.HandleError(c, err) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) ListRoles(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	roles, err := h.svc.ListRoles(c.Request.Context(), id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.RoleResponse, 0, len(roles))
	for _, role := range roles {
		responses = append(responses, transport.RoleResponse{ID: role.ID.String(), Name: role.Name})
	}
	httpkit.OK(c, transport.ListRolesResponse{Roles: responses})
}

func (h *Handler) CreateRole(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	role, err := h.svc.CreateRole(c.Request.Context(), id.TenantID(), req.Name)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.RoleResponse{ID: role.ID.String(), Name: role.Name})
}

func (h *Handler) ReplaceRolePermissions(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ReplaceRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.ReplaceRolePermissions(c.Request.Context(), id.TenantID(), c.Param("roleName"), req.Permissions)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) ListPermissions(c *gin.Context) {
	perms, err := h.svc.ListPermissions(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.PermissionResponse, 0, len(perms))
	for _, perm := range perms {
		responses = append(responses, transport.PermissionResponse{Key: perm.Key, Description: perm.Description})
	}
	httpkit.OK(c, transport.ListPermissionsResponse{Permissions: responses})
}

func (h *Handler) SetPermissionOverride(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req transport.SetPermissionOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.SetPermissionOverride(c.Request.Context(), userID, id.TenantID(), req.Permission, req.Effect)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) ClearPermissionOverride(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	err := h.svc.ClearPermissionOverride(c.Request.Context(), userID, id.TenantID(), c.Param("permissionKey"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) ListPermissionOverrides(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	overrides, err := h.svc.ListPermissionOverrides(c.Request.Context(), userID, id.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.PermissionOverrideResponse, 0, len(overrides))
	for _, override := range overrides {
		responses = append(responses, transport.PermissionOverrideResponse{
			Permission: override.PermissionKey,
			Effect:     override.Effect,
		})
	}
	httpkit.OK(c, transport.ListPermissionOverridesResponse{Overrides: responses})
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidUserID, nil)
		return uuid.UUID{}, false
	}
	return userID, true
}

func toTenantResponse(tenant repository.Tenant) transport.TenantResponse {
	return transport.TenantResponse{
		ID:        tenant.ID.String(),
		Name:      tenant.Name,
		CreatedAt: tenant.CreatedAt,
	}
}

func toUserResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        user.ID.String(),
		TenantID:  user.TenantID.String(),
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}
}
