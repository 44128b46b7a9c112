// Package activity provides the audit trail bounded context module.
// It records domain events and serves the trail read-only over HTTP.
package activity

import (
	"leadflow_backend/internal/activity/handler"
	"leadflow_backend/internal/activity/repository"
	"leadflow_backend/internal/activity/service"
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "activity"
}

// RegisterHandlers subscribes the audit trail to the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	m.service.RegisterHandlers(bus)
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
