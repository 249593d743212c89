package pipeline

import (
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
)

var testNow = time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.Now = func() time.Time { return testNow }
	return cfg
}

func ptr[T any](v T) *T {
	return &v
}

func processTask(widgetID int64) domain.Task {
	return domain.Task{ID: "task-1", Kind: domain.ProcessWidget, Payload: domain.TaskPayload{WidgetID: widgetID}, Attempt: 1, MaxAttempts: 3}
}

func followUpTask(widgetID int64) domain.Task {
	return domain.Task{ID: "task-2", Kind: domain.SendFollowUp, Payload: domain.TaskPayload{WidgetID: widgetID}, Attempt: 1, MaxAttempts: 3}
}
