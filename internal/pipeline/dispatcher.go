package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sf7293/widget-manager/internal/domain"
)

// BatchDispatcher fans a selection of widgets out into one processing task each.
type BatchDispatcher struct {
	storage domain.Storage
	tasks   domain.TaskQueue
	cfg     Config
}

func NewBatchDispatcher(storage domain.Storage, tasks domain.TaskQueue, cfg Config) *BatchDispatcher {
	return &BatchDispatcher{
		storage: storage,
		tasks:   tasks,
		cfg:     cfg,
	}
}

func (d *BatchDispatcher) Kind() domain.TaskKind {
	return domain.ProcessWidgetBatch
}

func (d *BatchDispatcher) Execute(ctx context.Context, task domain.Task) error {
	dispatched, err := d.Dispatch(ctx, task.Payload.WidgetIDs)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Widget batch has been dispatched", "task_id", task.ID, "dispatched_count", dispatched)
	return nil
}

// Dispatch enqueues a processing task for every live widget among widgetIDs. Without ids it
// selects the oldest unprocessed widgets, at most BatchSize of them. It returns how many tasks were
// enqueued.
func (d *BatchDispatcher) Dispatch(ctx context.Context, widgetIDs []int64) (int, error) {
	var widgets []*domain.Widget
	var err error
	if len(widgetIDs) == 0 {
		widgets, err = d.storage.GetUnprocessedWidgets(ctx, d.cfg.batchSize())
	} else {
		widgets, err = d.storage.GetWidgetsByIDs(ctx, widgetIDs)
	}
	if err != nil {
		return 0, fmt.Errorf("select widgets for batch: %w", err)
	}

	opts := d.cfg.EnqueueOptions(domain.ProcessWidget)
	dispatched := 0
	for _, widget := range widgets {
		_, err = d.tasks.Enqueue(ctx, domain.ProcessWidget, domain.TaskPayload{WidgetID: widget.ID}, opts)
		if err != nil {
			return dispatched, fmt.Errorf("enqueue processing of widget %d: %w", widget.ID, err)
		}
		dispatched++
	}

	slog.InfoContext(ctx, "Processing tasks are enqueued for widget batch", "selected_count", len(widgets), "dispatched_count", dispatched, "explicit_ids", len(widgetIDs) > 0)
	return dispatched, nil
}
