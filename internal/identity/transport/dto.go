package transport

import "time"

type CreateTenantRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	AdminEmail    string `json:"adminEmail" validate:"required,email"`
	AdminPassword string `json:"adminPassword" validate:"required,min=8,max=128"`
	AdminFullName string `json:"adminFullName" validate:"required,min=2,max=120"`
}

type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateTenantResponse struct {
	Tenant TenantResponse `json:"tenant"`
	Admin  UserResponse   `json:"admin"`
}

type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,max=128"`
	FullName string   `json:"fullName" validate:"required,min=2,max=120"`
	Phone    *string  `json:"phone" validate:"omitempty,max=50"`
	Roles    []string `json:"roles" validate:"omitempty,dive,min=1,max=60"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     *string   `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type ReplaceUserRolesRequest struct {
	Roles []string `json:"roles" validate:"required,dive,min=1,max=60"`
}

type CreateRoleRequest struct {
	Name string `json:"name" validate:"required,min=1,max=60"`
}

type RoleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListRolesResponse struct {
	Roles []RoleResponse `json:"roles"`
}

type ReplaceRolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,min=1,max=120"`
}

type PermissionResponse struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

type ListPermissionsResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
}

type SetPermissionOverrideRequest struct {
	Permission string `json:"permission" validate:"required,min=1,max=120"`
	Effect     string `json:"effect" validate:"required,oneof=allow deny"`
}

type PermissionOverrideResponse struct {
	Permission string `json:"permission"`
	Effect     string `json:"effect"`
}

type ListPermissionOverridesResponse struct {
	Overrides []PermissionOverrideResponse `json:"overrides"`
}
