package scheduler

import (
	"context"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// CallCheckRunner is the job entry point of the reassignment engine.
type CallCheckRunner interface {
	RunCallCheckJob(ctx context.Context, tenantID uuid.UUID) error
}

// Worker consumes scheduled tasks from the queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner CallCheckRunner, log *logger.Logger) (*Worker, error) {
	opt, err := NewRedisConnOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	mux := asynq.NewServeMux()
	worker := &Worker{server: server, mux: mux, log: log}
	mux.HandleFunc(TypeCallCheck, worker.handleCallCheck(runner))

	return worker, nil
}

func (w *Worker) handleCallCheck(runner CallCheckRunner) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := ParseCallCheckPayload(task)
		if err != nil {
			// A malformed payload never becomes valid; drop it.
			w.log.Error("invalid call check payload", "error", err.Error())
			return nil
		}
		return runner.RunCallCheckJob(ctx, payload.TenantID)
	}
}

// Run blocks until Shutdown is called or the server fails.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
