package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
)

// RecordProcessor derives the processing summary of one widget and stores it under
// metadata.processing.
type RecordProcessor struct {
	storage domain.Storage
	cfg     Config
}

func NewRecordProcessor(storage domain.Storage, cfg Config) *RecordProcessor {
	return &RecordProcessor{
		storage: storage,
		cfg:     cfg,
	}
}

func (p *RecordProcessor) Kind() domain.TaskKind {
	return domain.ProcessWidget
}

func (p *RecordProcessor) Execute(ctx context.Context, task domain.Task) error {
	widgetID := task.Payload.WidgetID
	if widgetID <= 0 {
		return fmt.Errorf("%w: widget id %d", errval.ErrInvalidPayload, widgetID)
	}

	widget, err := p.storage.GetWidgetByID(ctx, widgetID)
	if err != nil {
		return fmt.Errorf("fetch widget %d: %w", widgetID, err)
	}

	now := p.cfg.now()
	result := ComputeResult(widget, now, p.cfg.HighValueThreshold)
	if err = p.storage.SaveProcessingResult(ctx, widgetID, result, now); err != nil {
		return fmt.Errorf("save processing result of widget %d: %w", widgetID, err)
	}

	slog.InfoContext(ctx, "Widget has been processed", "widget_id", widgetID, "task_id", task.ID,
		"total_value", result.TotalValue, "is_high_value", result.IsHighValue)
	return nil
}

// ComputeResult multiplies price by quantity, treating missing values as zero. The total is
// rounded to cents before it is compared with the exclusive threshold.
func ComputeResult(widget *domain.Widget, processedAt time.Time, highValueThreshold float64) domain.ProcessingResult {
	var price float64
	if widget.Price != nil {
		price = *widget.Price
	}

	var quantity int32
	if widget.Quantity != nil {
		quantity = *widget.Quantity
	}

	totalValue := math.Round(price*float64(quantity)*100) / 100
	return domain.ProcessingResult{
		ProcessedAt:       processedAt.UTC().Format(time.RFC3339),
		TotalValue:        totalValue,
		IsHighValue:       totalValue > highValueThreshold,
		ProcessingVersion: domain.ProcessingVersion,
	}
}
