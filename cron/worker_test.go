package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"snapbook/apperr"
	"snapbook/models"
	"snapbook/services/availability"
	"snapbook/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReconciler struct {
	err   error
	calls []string
	swept int
}

func (f *fakeReconciler) Reconcile(_ context.Context, id string) (*availability.ReconcileResult, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return &availability.ReconcileResult{
		Status:   &models.PhotographerStatus{PhotographerID: id, Availability: models.AvailabilityAvailable},
		Previous: models.AvailabilityBusy,
		Repaired: true,
	}, nil
}

func (f *fakeReconciler) ReconcileAll(context.Context) (*availability.SweepResult, error) {
	f.swept++
	return &availability.SweepResult{Checked: 2, Repaired: 1}, nil
}

func reconcileTask(t *testing.T, id string) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(tasks.ReconcilePayload{PhotographerID: id})
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeAvailabilityReconcile, b)
}

func TestHandleReconcileTask(t *testing.T) {
	svc := &fakeReconciler{}
	h := HandleReconcileTask(svc, zap.NewNop())

	require.NoError(t, h(context.Background(), reconcileTask(t, "p1")))
	assert.Equal(t, []string{"p1"}, svc.calls)

	err := h(context.Background(), asynq.NewTask(tasks.TypeAvailabilityReconcile, []byte(`{}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleReconcileTaskErrors(t *testing.T) {
	svc := &fakeReconciler{err: apperr.ErrNotFound}
	h := HandleReconcileTask(svc, zap.NewNop())
	assert.NoError(t, h(context.Background(), reconcileTask(t, "gone")))

	svc.err = apperr.ErrUnknownOutcome
	assert.ErrorIs(t, h(context.Background(), reconcileTask(t, "p1")), apperr.ErrUnknownOutcome)
}

func TestHandleSweepTask(t *testing.T) {
	svc := &fakeReconciler{}
	h := HandleSweepTask(svc, zap.NewNop())
	require.NoError(t, h(context.Background(), asynq.NewTask(tasks.TypeAvailabilitySweep, nil)))
	assert.Equal(t, 1, svc.swept)
}
