package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
)

type storage struct {
	queries *Queries
	pool    *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*storage, error) {
	var pool *pgxpool.Pool
	var err error

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	err = backoff.Retry(func() error {
		if pool, err = pgxpool.ConnectConfig(ctx, config); err != nil {
			slog.ErrorContext(ctx, "failed to connect to postgres database.. retrying...", "error", err)
			return err
		}

		if err = pool.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to ping postgres database connection.. retrying...", "error", err)
			return err
		}

		return nil
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(3*time.Second), 5))

	if err != nil {
		return nil, err
	}

	return &storage{
		queries: New(pool),
		pool:    pool,
	}, nil
}

func (s *storage) Close() {
	s.pool.Close()
}

func (s *storage) Ping(ctx context.Context) (err error) {
	return s.pool.Ping(ctx)
}

func (s *storage) GetWidgetByID(ctx context.Context, ID int64) (*domain.Widget, error) {
	widget, err := s.queries.GetWidgetByID(ctx, ID)
	if err != nil {
		if isNoRows(err) {
			return nil, errval.ErrNotFound
		}

		return nil, err
	}

	return convertWidget(widget)
}

func (s *storage) GetWidgetsByIDs(ctx context.Context, IDs []int64) ([]*domain.Widget, error) {
	if len(IDs) == 0 {
		return []*domain.Widget{}, nil
	}

	widgets, err := s.queries.GetWidgetsByIDs(ctx, IDs)
	if err != nil {
		return nil, err
	}

	return convertWidgets(widgets)
}

func (s *storage) GetUnprocessedWidgets(ctx context.Context, limit int32) ([]*domain.Widget, error) {
	widgets, err := s.queries.GetUnprocessedWidgets(ctx, limit)
	if err != nil {
		return nil, err
	}

	return convertWidgets(widgets)
}

func (s *storage) InsertWidget(ctx context.Context, widget domain.NewWidget) (*domain.Widget, error) {
	price, err := toNumeric(widget.Price)
	if err != nil {
		return nil, err
	}

	metadata := widget.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := toJSONB(metadata)
	if err != nil {
		return nil, err
	}

	status := domain.Active
	if widget.Status != nil {
		status = *widget.Status
	}

	var quantity int32
	if widget.Quantity != nil {
		quantity = *widget.Quantity
	}

	inserted, err := s.queries.InsertWidget(ctx, InsertWidgetParams{
		Name:        widget.Name,
		Description: toNullString(widget.Description),
		Price:       price,
		Quantity:    quantity,
		Status:      WidgetStatus(status),
		Metadata:    metadataJSON,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: widget %q", errval.ErrAlreadyExists, widget.Name)
		}

		return nil, err
	}

	return convertWidget(inserted)
}

func (s *storage) UpdateWidget(ctx context.Context, ID int64, changes domain.WidgetChanges) (*domain.Widget, error) {
	price, err := toNumeric(changes.Price)
	if err != nil {
		return nil, err
	}

	metadata := pgtype.JSONB{Status: pgtype.Null}
	if changes.Metadata != nil {
		if metadata, err = toJSONB(changes.Metadata); err != nil {
			return nil, err
		}
	}

	params := UpdateWidgetParams{
		Name:        toNullString(changes.Name),
		Description: toNullString(changes.Description),
		Price:       price,
		Metadata:    metadata,
		ID:          ID,
	}
	if changes.Quantity != nil {
		params.Quantity = sql.NullInt32{Int32: *changes.Quantity, Valid: true}
	}
	if changes.Status != nil {
		params.Status = NullWidgetStatus{WidgetStatus: WidgetStatus(*changes.Status), Valid: true}
	}

	updated, err := s.queries.UpdateWidget(ctx, params)
	if err != nil {
		if isNoRows(err) {
			return nil, errval.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: name of widget %d", errval.ErrAlreadyExists, ID)
		}

		return nil, err
	}

	return convertWidget(updated)
}

func (s *storage) SoftDeleteWidget(ctx context.Context, ID int64) (err error) {
	affected, err := s.queries.SoftDeleteWidget(ctx, ID)
	if err != nil {
		return err
	}

	if affected == 0 {
		return errval.ErrNotFound
	}

	return nil
}

func (s *storage) SaveProcessingResult(ctx context.Context, ID int64, result domain.ProcessingResult, processedAt time.Time) (err error) {
	resultJSON, err := toJSONB(result)
	if err != nil {
		return err
	}

	affected, err := s.queries.UpdateWidgetProcessing(ctx, UpdateWidgetProcessingParams{
		ID:          ID,
		Column2:     resultJSON,
		ProcessedAt: sql.NullTime{Time: processedAt, Valid: true},
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return errval.ErrNotFound
	}

	return nil
}

func (s *storage) MarkEmailSent(ctx context.Context, ID int64, sentAt time.Time) (applied bool, err error) {
	affected, err := s.queries.MarkWidgetEmailSent(ctx, MarkWidgetEmailSentParams{
		ID:          ID,
		EmailSentAt: sql.NullTime{Time: sentAt, Valid: true},
	})
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (s *storage) GetDayActivity(ctx context.Context, from, to time.Time) (domain.DayActivity, error) {
	row, err := s.queries.GetDayActivityCounts(ctx, GetDayActivityCountsParams{
		CreatedAt:   from,
		CreatedAt_2: to,
	})
	if err != nil {
		return domain.DayActivity{}, err
	}

	return domain.DayActivity{
		Created:    row.Created,
		Updated:    row.Updated,
		Deleted:    row.Deleted,
		Processed:  row.Processed,
		EmailsSent: row.EmailsSent,
	}, nil
}

func (s *storage) CountWidgetsByStatus(ctx context.Context) (map[domain.WidgetStatus]int64, error) {
	rows, err := s.queries.CountWidgetsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.WidgetStatus]int64, len(domain.WidgetStatuses))
	for _, row := range rows {
		counts[domain.WidgetStatus(row.Status)] = row.Count
	}

	return counts, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || strings.Contains(err.Error(), "no rows")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func convertWidget(widget Widget) (*domain.Widget, error) {
	castedItem := &domain.Widget{
		ID:        widget.ID,
		Name:      widget.Name,
		Status:    domain.WidgetStatus(widget.Status),
		Metadata:  map[string]any{},
		CreatedAt: widget.CreatedAt,
		UpdatedAt: widget.UpdatedAt,
	}

	quantity := widget.Quantity
	castedItem.Quantity = &quantity

	if widget.Description.Valid {
		description := widget.Description.String
		castedItem.Description = &description
	}

	if widget.Price.Status == pgtype.Present {
		var price float64
		if err := widget.Price.AssignTo(&price); err != nil {
			return nil, fmt.Errorf("widget %d price: %w", widget.ID, err)
		}
		castedItem.Price = &price
	}

	if widget.Metadata.Status == pgtype.Present && len(widget.Metadata.Bytes) > 0 {
		if err := json.Unmarshal(widget.Metadata.Bytes, &castedItem.Metadata); err != nil {
			return nil, fmt.Errorf("widget %d metadata: %w", widget.ID, err)
		}
		if castedItem.Metadata == nil {
			castedItem.Metadata = map[string]any{}
		}
	}

	castedItem.ProcessedAt = fromNullTime(widget.ProcessedAt)
	castedItem.EmailSentAt = fromNullTime(widget.EmailSentAt)
	castedItem.DeletedAt = fromNullTime(widget.DeletedAt)

	return castedItem, nil
}

func convertWidgets(widgets []Widget) ([]*domain.Widget, error) {
	castedWidgets := []*domain.Widget{}
	for _, item := range widgets {
		castedWidget, err := convertWidget(item)
		if err != nil {
			return nil, err
		}
		castedWidgets = append(castedWidgets, castedWidget)
	}

	return castedWidgets, nil
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	value := t.Time
	return &value
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func toNumeric(f *float64) (pgtype.Numeric, error) {
	if f == nil {
		return pgtype.Numeric{Status: pgtype.Null}, nil
	}

	var n pgtype.Numeric
	if err := n.Set(*f); err != nil {
		return pgtype.Numeric{}, err
	}

	return n, nil
}

func toJSONB(v any) (pgtype.JSONB, error) {
	var j pgtype.JSONB
	if err := j.Set(v); err != nil {
		return pgtype.JSONB{}, err
	}

	return j, nil
}
