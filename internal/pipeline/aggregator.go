package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/pkg/query"
)

// DailyAggregator computes the daily activity snapshot and mails it to the report recipient. It
// never writes to widgets.
type DailyAggregator struct {
	storage domain.Storage
	mailer  domain.Mailer
	cfg     Config
}

func NewDailyAggregator(storage domain.Storage, mailer domain.Mailer, cfg Config) *DailyAggregator {
	return &DailyAggregator{
		storage: storage,
		mailer:  mailer,
		cfg:     cfg,
	}
}

func (a *DailyAggregator) Kind() domain.TaskKind {
	return domain.GenerateDailyReport
}

func (a *DailyAggregator) Execute(ctx context.Context, task domain.Task) error {
	snapshot, err := a.Snapshot(ctx, a.cfg.now())
	if err != nil {
		return err
	}

	recipient := a.cfg.recipient()
	if err = a.mailer.Send(ctx, recipient, domain.DailyReportTemplate, snapshot); err != nil {
		return fmt.Errorf("send daily report %s: %w", snapshot.ReportDate, err)
	}

	slog.InfoContext(ctx, "Daily report has been sent", "task_id", task.ID, "report_date", snapshot.ReportDate, "to", recipient,
		"created", snapshot.Today.Created, "updated", snapshot.Today.Updated, "total", snapshot.Totals.Total)
	return nil
}

// Snapshot computes the report for the local calendar day containing at.
func (a *DailyAggregator) Snapshot(ctx context.Context, at time.Time) (domain.ReportSnapshot, error) {
	day := query.NewDayRange(at, a.cfg.Location)
	previousDay := day.Previous()

	today, err := a.storage.GetDayActivity(ctx, day.From, day.To)
	if err != nil {
		return domain.ReportSnapshot{}, fmt.Errorf("count activity of %s: %w", day.Date(), err)
	}

	yesterday, err := a.storage.GetDayActivity(ctx, previousDay.From, previousDay.To)
	if err != nil {
		return domain.ReportSnapshot{}, fmt.Errorf("count activity of %s: %w", previousDay.Date(), err)
	}

	counts, err := a.storage.CountWidgetsByStatus(ctx)
	if err != nil {
		return domain.ReportSnapshot{}, fmt.Errorf("count widgets by status: %w", err)
	}

	totals := domain.WidgetTotals{
		Active:   counts[domain.Active],
		Inactive: counts[domain.Inactive],
		Archived: counts[domain.Archived],
	}
	for _, count := range counts {
		totals.Total += count
	}

	return domain.ReportSnapshot{
		ReportDate: day.Date(),
		Today:      today,
		Yesterday: domain.PreviousDayActivity{
			Created: yesterday.Created,
			Updated: yesterday.Updated,
		},
		Totals: totals,
	}, nil
}
