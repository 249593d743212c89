package pipeline

import (
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
)

// DefaultReportRecipient receives the daily report when no recipient is configured.
const DefaultReportRecipient = "admin@example.com"

// Config is handed explicitly to every pipeline component.
type Config struct {
	Processing domain.RetryPolicy
	FollowUp   domain.RetryPolicy
	Batch      domain.RetryPolicy
	Report     domain.RetryPolicy

	FollowUpDelay   time.Duration
	FollowUpLockTTL time.Duration
	BatchSize       int32

	// HighValueThreshold is exclusive, a total value equal to it is not high value.
	HighValueThreshold float64
	ReportRecipient    string

	// Location defines the report day boundaries. Nil means time.Local.
	Location *time.Location

	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Processing:         domain.RetryPolicy{MaxAttempts: 3, Timeout: 60 * time.Second},
		FollowUp:           domain.RetryPolicy{MaxAttempts: 3, Timeout: 30 * time.Second},
		Batch:              domain.RetryPolicy{MaxAttempts: 2, Timeout: 300 * time.Second},
		Report:             domain.RetryPolicy{MaxAttempts: 2, Timeout: 120 * time.Second},
		FollowUpDelay:      24 * time.Hour,
		FollowUpLockTTL:    60 * time.Second,
		BatchSize:          50,
		HighValueThreshold: 1000,
		ReportRecipient:    DefaultReportRecipient,
		Location:           time.Local,
		Now:                time.Now,
	}
}

// Policy returns the retry policy of a task kind.
func (c Config) Policy(kind domain.TaskKind) domain.RetryPolicy {
	switch kind {
	case domain.ProcessWidget:
		return c.Processing
	case domain.SendFollowUp:
		return c.FollowUp
	case domain.ProcessWidgetBatch:
		return c.Batch
	default:
		return c.Report
	}
}

// EnqueueOptions builds the options a task of kind is enqueued with. Follow-ups carry the
// configured delay.
func (c Config) EnqueueOptions(kind domain.TaskKind) domain.EnqueueOptions {
	policy := c.Policy(kind)
	opts := domain.EnqueueOptions{
		MaxAttempts: policy.MaxAttempts,
		Timeout:     policy.Timeout,
	}
	if kind == domain.SendFollowUp {
		opts.Delay = c.FollowUpDelay
	}

	return opts
}

func (c Config) recipient() string {
	if c.ReportRecipient == "" {
		return DefaultReportRecipient
	}

	return c.ReportRecipient
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}

	return c.Now()
}

func (c Config) batchSize() int32 {
	if c.BatchSize <= 0 {
		return 50
	}

	return c.BatchSize
}
