package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
	"github.com/sf7293/widget-manager/internal/pipeline"
)

type ServerLogic struct {
	storage domain.Storage
	facade  *pipeline.Facade
}

func NewServerLogic(storage domain.Storage, facade *pipeline.Facade) *ServerLogic {
	return &ServerLogic{
		storage: storage,
		facade:  facade,
	}
}

// AddWidget stores a new widget, then dispatches its processing and the delayed follow-up email.
func (s *ServerLogic) AddWidget(ctx context.Context, req domain.RouterRequestAddWidget) (*domain.Widget, error) {
	newWidget := domain.NewWidget{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Metadata:    req.Metadata,
	}
	if req.Status != nil {
		status := domain.WidgetStatus(*req.Status)
		newWidget.Status = &status
	}

	widget, err := s.storage.InsertWidget(ctx, newWidget)
	if err != nil {
		if errors.Is(err, errval.ErrAlreadyExists) {
			return nil, errval.ErrAlreadyExists
		}

		slog.ErrorContext(ctx, "error occurred while calling storage.InsertWidget", "error", err)
		return nil, errval.ErrInternal
	}

	// Enqueue failures are only logged. An unprocessed widget is picked up by the batch dispatcher,
	// a lost follow-up is not re-dispatched by any sweep and has to be sent via POST /widgets/:id/follow-up.
	if _, err = s.facade.DispatchProcessing(ctx, widget.ID); err != nil {
		slog.ErrorContext(ctx, "Error occurred while dispatching widget processing", "widget_id", widget.ID, "error", err.Error())
	}

	if _, err = s.facade.DispatchFollowUp(ctx, widget.ID); err != nil {
		slog.ErrorContext(ctx, "Error occurred while dispatching widget follow-up", "widget_id", widget.ID, "error", err.Error())
	}

	return widget, nil
}

// UpdateWidget applies a partial update and reprocesses the widget. The follow-up schedule of the
// widget is left as it is.
func (s *ServerLogic) UpdateWidget(ctx context.Context, widgetID int64, req domain.RouterRequestUpdateWidget) (*domain.Widget, error) {
	changes := domain.WidgetChanges{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Metadata:    req.Metadata,
	}
	if req.Status != nil {
		status := domain.WidgetStatus(*req.Status)
		changes.Status = &status
	}

	widget, err := s.storage.UpdateWidget(ctx, widgetID, changes)
	if err != nil {
		return nil, s.storageError(ctx, "storage.UpdateWidget", widgetID, err)
	}

	if _, err = s.facade.DispatchProcessing(ctx, widget.ID); err != nil {
		slog.ErrorContext(ctx, "Error occurred while dispatching widget processing", "widget_id", widget.ID, "error", err.Error())
	}

	return widget, nil
}

func (s *ServerLogic) GetWidget(ctx context.Context, widgetID int64) (*domain.Widget, error) {
	widget, err := s.storage.GetWidgetByID(ctx, widgetID)
	if err != nil {
		return nil, s.storageError(ctx, "storage.GetWidgetByID", widgetID, err)
	}

	return widget, nil
}

// DeleteWidget soft deletes the widget. Pending tasks for it are cancelled when they run.
func (s *ServerLogic) DeleteWidget(ctx context.Context, widgetID int64) error {
	err := s.storage.SoftDeleteWidget(ctx, widgetID)
	if err != nil {
		return s.storageError(ctx, "storage.SoftDeleteWidget", widgetID, err)
	}

	return nil
}

// ProcessWidget re-dispatches processing of an existing widget and returns the task handle.
func (s *ServerLogic) ProcessWidget(ctx context.Context, widgetID int64) (string, error) {
	if _, err := s.GetWidget(ctx, widgetID); err != nil {
		return "", err
	}

	return s.dispatch(ctx, "processing", func() (string, error) { return s.facade.DispatchProcessing(ctx, widgetID) })
}

// FollowUpWidget schedules a follow-up email for an existing widget.
func (s *ServerLogic) FollowUpWidget(ctx context.Context, widgetID int64) (string, error) {
	if _, err := s.GetWidget(ctx, widgetID); err != nil {
		return "", err
	}

	return s.dispatch(ctx, "follow-up", func() (string, error) { return s.facade.DispatchFollowUp(ctx, widgetID) })
}

func (s *ServerLogic) DispatchBatch(ctx context.Context, req domain.RouterRequestDispatchBatch) (string, error) {
	return s.dispatch(ctx, "batch", func() (string, error) { return s.facade.DispatchBatch(ctx, req.WidgetIDs) })
}

func (s *ServerLogic) DispatchDailyReport(ctx context.Context) (string, error) {
	return s.dispatch(ctx, "daily report", func() (string, error) { return s.facade.DispatchDailyReport(ctx) })
}

func (s *ServerLogic) dispatch(ctx context.Context, what string, enqueue func() (string, error)) (string, error) {
	handle, err := enqueue()
	if err != nil {
		slog.ErrorContext(ctx, "Error occurred while dispatching "+what, "error", err.Error())
		return "", errval.ErrInternal
	}

	return handle, nil
}

func (s *ServerLogic) storageError(ctx context.Context, call string, widgetID int64, err error) error {
	switch {
	case errors.Is(err, errval.ErrNotFound):
		slog.InfoContext(ctx, "widget not found with the given id", "id", widgetID)
		return errval.ErrNotFound
	case errors.Is(err, errval.ErrAlreadyExists):
		return errval.ErrAlreadyExists
	default:
		slog.ErrorContext(ctx, "error occurred while calling "+call, "widget_id", widgetID, "error", err)
		return errval.ErrInternal
	}
}
