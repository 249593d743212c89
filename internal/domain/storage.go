package domain

import (
	"context"
	"time"
)

type Storage interface {
	Ping(ctx context.Context) (err error)
	GetWidgetByID(ctx context.Context, ID int64) (*Widget, error)
	GetWidgetsByIDs(ctx context.Context, IDs []int64) ([]*Widget, error)
	GetUnprocessedWidgets(ctx context.Context, limit int32) ([]*Widget, error)
	InsertWidget(ctx context.Context, widget NewWidget) (*Widget, error)
	UpdateWidget(ctx context.Context, ID int64, changes WidgetChanges) (*Widget, error)
	SoftDeleteWidget(ctx context.Context, ID int64) (err error)
	// SaveProcessingResult replaces metadata.processing and sets processed_at in one statement.
	SaveProcessingResult(ctx context.Context, ID int64, result ProcessingResult, processedAt time.Time) (err error)
	// MarkEmailSent sets email_sent_at only while it is still null and reports whether it did.
	MarkEmailSent(ctx context.Context, ID int64, sentAt time.Time) (applied bool, err error)
	GetDayActivity(ctx context.Context, from, to time.Time) (DayActivity, error)
	CountWidgetsByStatus(ctx context.Context) (map[WidgetStatus]int64, error)
}
