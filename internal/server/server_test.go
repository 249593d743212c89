package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
	"github.com/sf7293/widget-manager/internal/mocks"
	"github.com/sf7293/widget-manager/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogic() (*ServerLogic, *mocks.Storage, *mocks.TaskQueue) {
	storage := mocks.NewStorage()
	tasks := &mocks.TaskQueue{}
	return NewServerLogic(storage, pipeline.NewFacade(tasks, pipeline.DefaultConfig())), storage, tasks
}

func strPtr(s string) *string { return &s }

func TestAddWidget(t *testing.T) {
	logic, storage, tasks := newTestLogic()

	widget, err := logic.AddWidget(context.Background(), domain.RouterRequestAddWidget{
		Name:     "Widget A",
		Price:    func() *float64 { f := 12.5; return &f }(),
		Metadata: map[string]any{"email": "buyer@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Active, widget.Status)

	_, ok := storage.Peek(widget.ID)
	assert.True(t, ok)

	enqueued := tasks.Enqueued()
	require.Len(t, enqueued, 2)
	assert.Equal(t, domain.ProcessWidget, enqueued[0].Kind)
	assert.Zero(t, enqueued[0].Options.Delay)
	assert.Equal(t, domain.SendFollowUp, enqueued[1].Kind)
	assert.Equal(t, 24*time.Hour, enqueued[1].Options.Delay)
	assert.Equal(t, widget.ID, enqueued[1].Payload.WidgetID)
}

func TestAddWidgetSurvivesQueueFailure(t *testing.T) {
	logic, _, tasks := newTestLogic()
	tasks.Err = errors.New("broker down")

	widget, err := logic.AddWidget(context.Background(), domain.RouterRequestAddWidget{Name: "Widget B", Status: strPtr("archived")})
	require.NoError(t, err)
	assert.Equal(t, domain.Archived, widget.Status)
}

func TestLostFollowUpIsRedispatchedByHand(t *testing.T) {
	logic, _, tasks := newTestLogic()
	tasks.Err = errors.New("broker down")

	widget, err := logic.AddWidget(context.Background(), domain.RouterRequestAddWidget{Name: "Widget C"})
	require.NoError(t, err)
	assert.Empty(t, tasks.Enqueued())

	tasks.Err = nil
	handle, err := logic.FollowUpWidget(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, handle)

	followUps := tasks.OfKind(domain.SendFollowUp)
	require.Len(t, followUps, 1)
	assert.Equal(t, widget.ID, followUps[0].Payload.WidgetID)
	assert.Equal(t, 24*time.Hour, followUps[0].Options.Delay)
}

func TestAddWidgetStorageFailure(t *testing.T) {
	logic, storage, tasks := newTestLogic()
	storage.Err = errors.New("connection refused")

	_, err := logic.AddWidget(context.Background(), domain.RouterRequestAddWidget{Name: "Widget C"})
	assert.ErrorIs(t, err, errval.ErrInternal)
	assert.Empty(t, tasks.Enqueued())
}

func TestUpdateWidgetDispatchesProcessingOnly(t *testing.T) {
	logic, storage, tasks := newTestLogic()
	existing := storage.Put(domain.Widget{Name: "Old", Status: domain.Active})

	widget, err := logic.UpdateWidget(context.Background(), existing.ID, domain.RouterRequestUpdateWidget{Name: strPtr("New"), Status: strPtr("inactive")})
	require.NoError(t, err)
	assert.Equal(t, "New", widget.Name)
	assert.Equal(t, domain.Inactive, widget.Status)

	enqueued := tasks.Enqueued()
	require.Len(t, enqueued, 1)
	assert.Equal(t, domain.ProcessWidget, enqueued[0].Kind)
}

func TestUpdateMissingWidget(t *testing.T) {
	logic, _, tasks := newTestLogic()

	_, err := logic.UpdateWidget(context.Background(), 42, domain.RouterRequestUpdateWidget{Name: strPtr("x")})
	assert.ErrorIs(t, err, errval.ErrNotFound)
	assert.Empty(t, tasks.Enqueued())
}

func TestDeleteWidget(t *testing.T) {
	logic, storage, _ := newTestLogic()
	existing := storage.Put(domain.Widget{Name: "Doomed"})

	require.NoError(t, logic.DeleteWidget(context.Background(), existing.ID))
	_, err := logic.GetWidget(context.Background(), existing.ID)
	assert.ErrorIs(t, err, errval.ErrNotFound)
	assert.ErrorIs(t, logic.DeleteWidget(context.Background(), existing.ID), errval.ErrNotFound)
}

func TestOperatorDispatches(t *testing.T) {
	logic, storage, tasks := newTestLogic()
	existing := storage.Put(domain.Widget{Name: "Target"})
	ctx := context.Background()

	handle, err := logic.ProcessWidget(ctx, existing.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, handle)

	_, err = logic.FollowUpWidget(ctx, existing.ID)
	require.NoError(t, err)

	_, err = logic.ProcessWidget(ctx, 999)
	assert.ErrorIs(t, err, errval.ErrNotFound)

	_, err = logic.DispatchBatch(ctx, domain.RouterRequestDispatchBatch{WidgetIDs: []int64{existing.ID}})
	require.NoError(t, err)

	_, err = logic.DispatchDailyReport(ctx)
	require.NoError(t, err)

	kinds := []domain.TaskKind{}
	for _, task := range tasks.Enqueued() {
		kinds = append(kinds, task.Kind)
	}
	assert.Equal(t, []domain.TaskKind{domain.ProcessWidget, domain.SendFollowUp, domain.ProcessWidgetBatch, domain.GenerateDailyReport}, kinds)

	tasks.Err = errors.New("broker down")
	_, err = logic.DispatchDailyReport(ctx)
	assert.ErrorIs(t, err, errval.ErrInternal)
}
