// Package auth provides the authentication bounded context module.
package auth

import (
	"leadflow_backend/internal/auth/handler"
	"leadflow_backend/internal/auth/repository"
	"leadflow_backend/internal/auth/service"
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/identity/directory"
	"leadflow_backend/platform/cache"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, dir directory.Directory, userCache cache.Cache, cfg config.AuthServiceConfig, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, dir, userCache, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "auth"
}

func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterHandlers subscribes the user-cache invalidation handlers.
func (m *Module) RegisterHandlers(bus events.Bus) {
	m.service.RegisterHandlers(bus)
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterRoutes(authGroup)
	m.handler.RegisterProtectedRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
