package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InlineReconcileQueue runs reconcile in-process after Delay. It stands in
// for the queue when no Redis is configured.
type InlineReconcileQueue struct {
	Reconcile func(ctx context.Context, photographerID string) error
	Delay     time.Duration
	Logger    *zap.Logger

	wg sync.WaitGroup
}

func (q *InlineReconcileQueue) ScheduleReconcile(ctx context.Context, photographerID string) error {
	ctx = context.WithoutCancel(ctx)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if q.Delay > 0 {
			time.Sleep(q.Delay)
		}
		if err := q.Reconcile(ctx, photographerID); err != nil && q.Logger != nil {
			q.Logger.Warn("inline reconcile failed", zap.String("photographerId", photographerID), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until scheduled runs finish.
func (q *InlineReconcileQueue) Wait() {
	q.wg.Wait()
}
