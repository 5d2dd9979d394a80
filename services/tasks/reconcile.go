package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeAvailabilityReconcile = "availability:reconcile"
	TypeAvailabilitySweep     = "availability:sweep"
)

// ReconcilePayload names the photographer whose availability must be recomputed.
type ReconcilePayload struct {
	PhotographerID string `json:"photographerId"`
}

// NewReconcileTask builds a reconcile task. The task id dedupes repeated
// requests for the same photographer while one is still queued.
func NewReconcileTask(photographerID string, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	if photographerID == "" {
		return nil, nil, errors.New("reconcile task: empty photographer id")
	}
	b, err := json.Marshal(ReconcilePayload{PhotographerID: photographerID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAvailabilityReconcile, b)
	opts := []asynq.Option{
		asynq.TaskID("reconcile:" + photographerID),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(10),
		asynq.Retention(time.Minute),
	}
	return task, opts, nil
}

func ParseReconcilePayload(task *asynq.Task) (ReconcilePayload, error) {
	var p ReconcilePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid reconcile payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.PhotographerID == "" {
		return p, fmt.Errorf("reconcile payload without photographer id: %w", asynq.SkipRetry)
	}
	return p, nil
}

// Enqueuer is the part of *asynq.Client the queue uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqReconcileQueue schedules availability repairs on the asynq queue.
type AsynqReconcileQueue struct {
	Client Enqueuer
	Delay  time.Duration
	Logger *zap.Logger
}

func NewAsynqReconcileQueue(client Enqueuer, logger *zap.Logger) *AsynqReconcileQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqReconcileQueue{Client: client, Delay: 2 * time.Second, Logger: logger}
}

func (q *AsynqReconcileQueue) ScheduleReconcile(ctx context.Context, photographerID string) error {
	task, opts, err := NewReconcileTask(photographerID, q.Delay)
	if err != nil {
		return err
	}
	info, err := q.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		q.Logger.Debug("reconcile already queued", zap.String("photographerId", photographerID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue reconcile for %s: %w", photographerID, err)
	}
	q.Logger.Info("reconcile queued", zap.String("photographerId", photographerID), zap.String("taskId", info.ID))
	return nil
}
