package domain

import "time"

type WidgetStatus string

const (
	Active   WidgetStatus = "active"
	Inactive WidgetStatus = "inactive"
	Archived WidgetStatus = "archived"
)

// WidgetStatuses lists every status in the order the daily report renders them.
var WidgetStatuses = []WidgetStatus{Active, Inactive, Archived}

// Reserved metadata keys read or written by the pipeline.
const (
	MetadataProcessingKey   = "processing"
	MetadataEmailKey        = "email"
	MetadataContactEmailKey = "contact_email"
)

const ProcessingVersion = 1

type Widget struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Price       *float64       `json:"price"`
	Quantity    *int32         `json:"quantity"`
	Status      WidgetStatus   `json:"status"`
	Metadata    map[string]any `json:"metadata"`
	ProcessedAt *time.Time     `json:"processed_at"`
	EmailSentAt *time.Time     `json:"email_sent_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// ContactAddress returns metadata.email, falling back to metadata.contact_email.
// Non-string and blank values are ignored.
func (w *Widget) ContactAddress() (string, bool) {
	for _, key := range []string{MetadataEmailKey, MetadataContactEmailKey} {
		if v, ok := w.Metadata[key].(string); ok && v != "" {
			return v, true
		}
	}

	return "", false
}

// ProcessingResult is stored under metadata.processing. It is replaced as a whole on every run.
type ProcessingResult struct {
	ProcessedAt       string  `json:"processed_at"`
	TotalValue        float64 `json:"total_value"`
	IsHighValue       bool    `json:"is_high_value"`
	ProcessingVersion int     `json:"processing_version"`
}

// NewWidget carries the fields accepted on creation.
type NewWidget struct {
	Name        string
	Description *string
	Price       *float64
	Quantity    *int32
	Status      *WidgetStatus
	Metadata    map[string]any
}

// WidgetChanges is a partial update; nil fields are left untouched.
type WidgetChanges struct {
	Name        *string
	Description *string
	Price       *float64
	Quantity    *int32
	Status      *WidgetStatus
	Metadata    map[string]any
}
