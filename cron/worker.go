package cron

import (
	"context"
	"errors"
	"fmt"

	"snapbook/apperr"
	"snapbook/config"
	"snapbook/services/availability"
	"snapbook/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Reconciler is the part of the availability service the worker drives.
type Reconciler interface {
	Reconcile(ctx context.Context, photographerID string) (*availability.ReconcileResult, error)
	ReconcileAll(ctx context.Context) (*availability.SweepResult, error)
}

// Worker processes availability reconcile tasks and schedules the periodic sweep.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

func NewWorker(cfg *config.Config, svc Reconciler, logger *zap.Logger) (*Worker, error) {
	redisOpts := RedisOpt(cfg)

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAvailabilityReconcile, HandleReconcileTask(svc, logger))
	mux.HandleFunc(tasks.TypeAvailabilitySweep, HandleSweepTask(svc, logger))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Logger: logger.Sugar()})
	if cfg.ReconcileInterval != "" {
		if _, err := scheduler.Register(cfg.ReconcileInterval, asynq.NewTask(tasks.TypeAvailabilitySweep, nil)); err != nil {
			return nil, fmt.Errorf("register reconcile sweep %q: %w", cfg.ReconcileInterval, err)
		}
	}

	return &Worker{srv: srv, scheduler: scheduler, mux: mux, logger: logger}, nil
}

// Start runs the worker and the scheduler in the background.
func (w *Worker) Start() error {
	w.logger.Info("starting availability worker")
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.srv.Shutdown()
		return fmt.Errorf("start asynq scheduler: %w", err)
	}
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
}

func HandleReconcileTask(svc Reconciler, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReconcilePayload(task)
		if err != nil {
			logger.Warn("dropping reconcile task", zap.Error(err))
			return err
		}

		result, err := svc.Reconcile(ctx, p.PhotographerID)
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Info("nothing to reconcile", zap.String("photographerId", p.PhotographerID))
			return nil
		}
		if err != nil {
			logger.Warn("reconcile failed, will retry", zap.String("photographerId", p.PhotographerID), zap.Error(err))
			return err
		}
		if result.Repaired {
			logger.Info("availability repaired",
				zap.String("photographerId", p.PhotographerID),
				zap.String("from", string(result.Previous)),
				zap.String("to", string(result.Status.Availability)))
		}
		return nil
	}
}

func HandleSweepTask(svc Reconciler, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		result, err := svc.ReconcileAll(ctx)
		if result != nil {
			logger.Info("availability sweep finished",
				zap.Int("checked", result.Checked),
				zap.Int("repaired", result.Repaired),
				zap.Strings("failed", result.Failed))
		}
		return err
	}
}
