package postgres

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sf7293/widget-manager/configs"
	db2 "github.com/sf7293/widget-manager/db"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
)

// testDSN is set when DB_DATABASE_TEST names a database the integration tests may migrate and truncate.
var testDSN string

func TestMain(m *testing.M) {
	cfg := configs.InitConfig()
	if cfg.Database.DatabaseTest == "" {
		os.Exit(m.Run())
	}

	d, err := iofs.New(db2.Migrations, "migrations")
	if err != nil {
		log.Fatal("Error while preparing migrations, error: " + err.Error())
	}

	mig, err := migrate.NewWithSourceInstance("iofs", d, cfg.Database.ToTestMigrationUri())
	if err != nil {
		log.Fatal("Error while creating new iofs source instance for migrations, error: " + err.Error())
	}

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("Error while running migrations, error: " + err.Error())
	}
	slog.Info("Migrations ran successfully")

	testDSN = cfg.Database.ToTestDBConnectionUri()
	code := m.Run()

	if err := mig.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("Error while rolling back migrations, error: " + err.Error())
	}
	slog.Info("Migrations rolled back successfully")

	os.Exit(code)
}

func newTestStorage(t *testing.T) *storage {
	t.Helper()
	if testDSN == "" {
		t.Skip("DB_DATABASE_TEST is not set, skipping postgres integration test")
	}

	ctx := context.Background()
	s, err := NewStorage(ctx, testDSN)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.pool.Exec(ctx, "TRUNCATE widgets RESTART IDENTITY")
	require.NoError(t, err)

	return s
}

func insertWidget(t *testing.T, s *storage, name string, status domain.WidgetStatus, metadata map[string]any) *domain.Widget {
	t.Helper()

	w, err := s.InsertWidget(context.Background(), domain.NewWidget{Name: name, Status: &status, Metadata: metadata})
	require.NoError(t, err)
	return w
}

func setTimestamps(t *testing.T, s *storage, id int64, createdAt, updatedAt time.Time) {
	t.Helper()

	_, err := s.pool.Exec(context.Background(), "UPDATE widgets SET created_at = $2, updated_at = $3 WHERE id = $1", id, createdAt, updatedAt)
	require.NoError(t, err)
}

func setColumn(t *testing.T, s *storage, id int64, column string, at time.Time) {
	t.Helper()

	_, err := s.pool.Exec(context.Background(), "UPDATE widgets SET "+column+" = $2 WHERE id = $1", id, at)
	require.NoError(t, err)
}

func TestStorage_SaveProcessingResult(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	w := insertWidget(t, s, "Sprocket", domain.Active, map[string]any{
		"color":      "blue",
		"processing": map[string]any{"stale": true},
	})

	processedAt := time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)
	result := domain.ProcessingResult{
		ProcessedAt:       processedAt.Format(time.RFC3339),
		TotalValue:        1500,
		IsHighValue:       true,
		ProcessingVersion: domain.ProcessingVersion,
	}
	require.NoError(t, s.SaveProcessingResult(ctx, w.ID, result, processedAt))

	stored, err := s.GetWidgetByID(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ProcessedAt)
	assert.True(t, processedAt.Equal(*stored.ProcessedAt), stored.ProcessedAt.String())
	assert.Equal(t, "blue", stored.Metadata["color"])
	assert.Equal(t, map[string]any{
		"processed_at":       "2026-06-15T14:30:00Z",
		"total_value":        float64(1500),
		"is_high_value":      true,
		"processing_version": float64(1),
	}, stored.Metadata["processing"])
	assert.True(t, stored.UpdatedAt.Equal(w.UpdatedAt), "processing must not bump updated_at")

	t.Run("metadata column is null", func(t *testing.T) {
		bare := insertWidget(t, s, "Bare", domain.Active, nil)
		_, err := s.pool.Exec(ctx, "UPDATE widgets SET metadata = NULL WHERE id = $1", bare.ID)
		require.NoError(t, err)

		require.NoError(t, s.SaveProcessingResult(ctx, bare.ID, result, processedAt))
		stored, err := s.GetWidgetByID(ctx, bare.ID)
		require.NoError(t, err)
		assert.Contains(t, stored.Metadata, "processing")
	})

	t.Run("deleted widget", func(t *testing.T) {
		gone := insertWidget(t, s, "Gone", domain.Active, nil)
		require.NoError(t, s.SoftDeleteWidget(ctx, gone.ID))

		err := s.SaveProcessingResult(ctx, gone.ID, result, processedAt)
		assert.ErrorIs(t, err, errval.ErrNotFound)
	})
}

func TestStorage_MarkEmailSent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	w := insertWidget(t, s, "Cog", domain.Active, map[string]any{"email": "owner@example.com"})

	first := time.Date(2026, 6, 16, 14, 30, 0, 0, time.UTC)
	applied, err := s.MarkEmailSent(ctx, w.ID, first)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.MarkEmailSent(ctx, w.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := s.GetWidgetByID(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EmailSentAt)
	assert.True(t, first.Equal(*stored.EmailSentAt), stored.EmailSentAt.String())

	gone := insertWidget(t, s, "Gone", domain.Active, nil)
	require.NoError(t, s.SoftDeleteWidget(ctx, gone.ID))
	applied, err = s.MarkEmailSent(ctx, gone.ID, first)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestStorage_GetDayActivity(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	day := func(d, h, m, sec int) time.Time { return time.Date(2026, 6, d, h, m, sec, 0, time.UTC) }

	a := insertWidget(t, s, "A", domain.Active, nil)
	setTimestamps(t, s, a.ID, day(15, 10, 0, 0), day(15, 10, 0, 0))
	setColumn(t, s, a.ID, "processed_at", day(15, 10, 5, 0))
	setColumn(t, s, a.ID, "email_sent_at", day(15, 10, 10, 0))

	b := insertWidget(t, s, "B", domain.Inactive, nil)
	setTimestamps(t, s, b.ID, day(15, 0, 0, 0), day(15, 0, 0, 0))

	c := insertWidget(t, s, "C", domain.Archived, nil)
	setTimestamps(t, s, c.ID, day(14, 23, 59, 59), day(14, 23, 59, 59))

	d := insertWidget(t, s, "D", domain.Archived, nil)
	setTimestamps(t, s, d.ID, day(15, 9, 0, 0), day(15, 9, 0, 0))
	setColumn(t, s, d.ID, "deleted_at", day(15, 12, 0, 0))

	e := insertWidget(t, s, "E", domain.Active, nil)
	setTimestamps(t, s, e.ID, day(14, 8, 0, 0), day(15, 11, 0, 0))

	f := insertWidget(t, s, "F", domain.Active, nil)
	setTimestamps(t, s, f.ID, day(16, 0, 0, 0), day(16, 0, 0, 0))

	today, err := s.GetDayActivity(ctx, day(15, 0, 0, 0), day(16, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.DayActivity{Created: 2, Updated: 1, Deleted: 1, Processed: 1, EmailsSent: 1}, today)

	yesterday, err := s.GetDayActivity(ctx, day(14, 0, 0, 0), day(15, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.DayActivity{Created: 2}, yesterday)

	counts, err := s.CountWidgetsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.WidgetStatus]int64{domain.Active: 3, domain.Inactive: 1, domain.Archived: 1}, counts)
}
