// Package reassignment provides the automatic lead reassignment and
// negligence tracking bounded context module.
package reassignment

import (
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/reassignment/handler"
	"leadflow_backend/internal/reassignment/repository"
	"leadflow_backend/internal/reassignment/service"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the engine. The leads repository is shared so the
// reassignment transaction spans the lead row and both audit tables.
func NewModule(
	pool *pgxpool.Pool,
	leads *leadsrepo.Repository,
	notifier service.Notifier,
	eventBus events.Bus,
	cfg config.JobsConfig,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool, leads)
	svc := service.New(repo, leads, notifier, eventBus, cfg, log)
	h := handler.New(svc, repo, val)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "reassignment"
}

// Service exposes the engine for the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
