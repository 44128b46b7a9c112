package scheduler

import (
	"context"
	"time"

	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

// TenantSource enumerates the tenants to dispatch per-tenant jobs for.
type TenantSource interface {
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Dispatcher enqueues one call-check task per tenant on a fixed interval.
type Dispatcher struct {
	client   *Client
	tenants  TenantSource
	interval time.Duration
	log      *logger.Logger
}

func NewDispatcher(client *Client, tenants TenantSource, interval time.Duration, log *logger.Logger) *Dispatcher {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Dispatcher{
		client:   client,
		tenants:  tenants,
		interval: interval,
		log:      log,
	}
}

// Run dispatches immediately, then on every tick, until the context is
// cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) {
	tenantIDs, err := d.tenants.ListTenantIDs(ctx)
	if err != nil {
		d.log.DatabaseError("list tenants", err)
		return
	}

	enqueued := 0
	for _, tenantID := range tenantIDs {
		if err := d.client.EnqueueCallCheck(ctx, tenantID); err != nil {
			d.log.Error("enqueue call check failed",
				"tenant_id", tenantID.String(),
				"error", err.Error(),
			)
			continue
		}
		enqueued++
	}

	d.log.Info("call check dispatch complete",
		"tenants", len(tenantIDs),
		"enqueued", enqueued,
	)
}
