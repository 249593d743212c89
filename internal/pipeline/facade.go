package pipeline

import (
	"context"

	"github.com/sf7293/widget-manager/internal/domain"
)

// Facade is the entry point request handlers and schedulers use to start pipeline work. Every call
// only enqueues and returns the task handle.
type Facade struct {
	tasks domain.TaskQueue
	cfg   Config
}

func NewFacade(tasks domain.TaskQueue, cfg Config) *Facade {
	return &Facade{
		tasks: tasks,
		cfg:   cfg,
	}
}

func (f *Facade) DispatchProcessing(ctx context.Context, widgetID int64) (string, error) {
	return f.tasks.Enqueue(ctx, domain.ProcessWidget, domain.TaskPayload{WidgetID: widgetID}, f.cfg.EnqueueOptions(domain.ProcessWidget))
}

// DispatchFollowUp schedules the follow-up email FollowUpDelay from now.
func (f *Facade) DispatchFollowUp(ctx context.Context, widgetID int64) (string, error) {
	return f.tasks.Enqueue(ctx, domain.SendFollowUp, domain.TaskPayload{WidgetID: widgetID}, f.cfg.EnqueueOptions(domain.SendFollowUp))
}

func (f *Facade) DispatchBatch(ctx context.Context, widgetIDs []int64) (string, error) {
	return f.tasks.Enqueue(ctx, domain.ProcessWidgetBatch, domain.TaskPayload{WidgetIDs: widgetIDs}, f.cfg.EnqueueOptions(domain.ProcessWidgetBatch))
}

func (f *Facade) DispatchDailyReport(ctx context.Context) (string, error) {
	return f.tasks.Enqueue(ctx, domain.GenerateDailyReport, domain.TaskPayload{}, f.cfg.EnqueueOptions(domain.GenerateDailyReport))
}
