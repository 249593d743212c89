package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWidgets(storage *mocks.Storage, count int, processed bool) []*domain.Widget {
	widgets := make([]*domain.Widget, 0, count)
	for i := 0; i < count; i++ {
		w := domain.Widget{
			Name:      "widget",
			Status:    domain.Active,
			CreatedAt: testNow.Add(-time.Duration(count-i) * time.Minute),
		}
		if processed {
			w.ProcessedAt = ptr(testNow)
		}
		widgets = append(widgets, storage.Put(w))
	}

	return widgets
}

func TestBatchDispatcher_SelectsUnprocessedCappedAtBatchSize(t *testing.T) {
	storage := mocks.NewStorage()
	unprocessed := seedWidgets(storage, 60, false)
	seedWidgets(storage, 5, true)
	tasks := &mocks.TaskQueue{}

	dispatched, err := NewBatchDispatcher(storage, tasks, testConfig()).Dispatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 50, dispatched)

	enqueued := tasks.OfKind(domain.ProcessWidget)
	require.Len(t, enqueued, 50)
	for i, task := range enqueued {
		// oldest first
		assert.Equal(t, unprocessed[i].ID, task.Payload.WidgetID)
		assert.Equal(t, 3, task.Options.MaxAttempts)
		assert.Equal(t, 60*time.Second, task.Options.Timeout)
		assert.Zero(t, task.Options.Delay)
	}
}

func TestBatchDispatcher_OrdersByCreatedAtThenID(t *testing.T) {
	storage := mocks.NewStorage()
	sameTime := testNow.Add(-time.Hour)
	second := storage.Put(domain.Widget{ID: 20, Name: "b", CreatedAt: sameTime})
	first := storage.Put(domain.Widget{ID: 10, Name: "a", CreatedAt: sameTime})
	tasks := &mocks.TaskQueue{}

	_, err := NewBatchDispatcher(storage, tasks, testConfig()).Dispatch(context.Background(), []int64{})
	require.NoError(t, err)

	enqueued := tasks.Enqueued()
	require.Len(t, enqueued, 2)
	assert.Equal(t, first.ID, enqueued[0].Payload.WidgetID)
	assert.Equal(t, second.ID, enqueued[1].Payload.WidgetID)
}

func TestBatchDispatcher_ExplicitIDs(t *testing.T) {
	storage := mocks.NewStorage()
	widgets := seedWidgets(storage, 4, true)
	require.NoError(t, storage.SoftDeleteWidget(context.Background(), widgets[1].ID))
	tasks := &mocks.TaskQueue{}

	dispatched, err := NewBatchDispatcher(storage, tasks, testConfig()).Dispatch(context.Background(), []int64{widgets[0].ID, widgets[1].ID, widgets[3].ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, 2, dispatched)

	enqueued := tasks.Enqueued()
	require.Len(t, enqueued, 2)
	assert.Equal(t, widgets[0].ID, enqueued[0].Payload.WidgetID)
	assert.Equal(t, widgets[3].ID, enqueued[1].Payload.WidgetID)
}

func TestBatchDispatcher_EmptyStore(t *testing.T) {
	tasks := &mocks.TaskQueue{}

	dispatched, err := NewBatchDispatcher(mocks.NewStorage(), tasks, testConfig()).Dispatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, dispatched)
	assert.Empty(t, tasks.Enqueued())
}

func TestBatchDispatcher_ExecuteUsesPayloadIDs(t *testing.T) {
	storage := mocks.NewStorage()
	widgets := seedWidgets(storage, 3, false)
	tasks := &mocks.TaskQueue{}

	task := domain.Task{ID: "batch-1", Kind: domain.ProcessWidgetBatch, Payload: domain.TaskPayload{WidgetIDs: []int64{widgets[2].ID}}}
	require.NoError(t, NewBatchDispatcher(storage, tasks, testConfig()).Execute(context.Background(), task))

	enqueued := tasks.Enqueued()
	require.Len(t, enqueued, 1)
	assert.Equal(t, widgets[2].ID, enqueued[0].Payload.WidgetID)
}

func TestBatchDispatcher_EnqueueFailure(t *testing.T) {
	storage := mocks.NewStorage()
	seedWidgets(storage, 2, false)
	tasks := &mocks.TaskQueue{Err: errors.New("broker unavailable")}

	dispatched, err := NewBatchDispatcher(storage, tasks, testConfig()).Dispatch(context.Background(), nil)
	assert.Error(t, err)
	assert.Zero(t, dispatched)
}
