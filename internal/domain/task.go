package domain

import "time"

type TaskKind string

const (
	ProcessWidget       TaskKind = "process_widget"
	SendFollowUp        TaskKind = "send_follow_up"
	ProcessWidgetBatch  TaskKind = "process_widget_batch"
	GenerateDailyReport TaskKind = "generate_daily_report"
)

type TaskPriority string

const (
	High   TaskPriority = "high"
	Normal TaskPriority = "normal"
	Low    TaskPriority = "low"
)

// Priority returns the queue a task kind is routed to.
func (k TaskKind) Priority() TaskPriority {
	switch k {
	case ProcessWidget:
		return High
	case SendFollowUp:
		return Normal
	default:
		return Low
	}
}

func (k TaskKind) IsValid() bool {
	switch k {
	case ProcessWidget, SendFollowUp, ProcessWidgetBatch, GenerateDailyReport:
		return true
	default:
		return false
	}
}

// TaskPayload identifies the widgets a task works on. Tasks never carry widget snapshots,
// handlers re-fetch by id.
type TaskPayload struct {
	WidgetID  int64   `json:"widget_id,omitempty"`
	WidgetIDs []int64 `json:"widget_ids,omitempty"`
}

// RetryPolicy is the attempt and per-attempt timeout budget of one task kind.
type RetryPolicy struct {
	MaxAttempts int
	Timeout     time.Duration
}

type EnqueueOptions struct {
	Delay       time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// Task is the descriptor published to the queue.
type Task struct {
	ID             string       `json:"id"`
	Kind           TaskKind     `json:"kind"`
	Priority       TaskPriority `json:"priority"`
	Payload        TaskPayload  `json:"payload"`
	NotBefore      *time.Time   `json:"not_before,omitempty"`
	Attempt        int          `json:"attempt"`
	MaxAttempts    int          `json:"max_attempts"`
	TimeoutSeconds int          `json:"timeout_seconds"`
	EnqueuedAt     time.Time    `json:"enqueued_at"`
}

func (t Task) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// FailedTask is published to the failure queue once a task has used up its attempts.
type FailedTask struct {
	Task     Task      `json:"task"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}
