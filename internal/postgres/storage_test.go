package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgtype"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertWidget(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	processedAt := createdAt.Add(time.Minute)

	price, err := toNumeric(ptr(19.99))
	require.NoError(t, err)
	metadata, err := toJSONB(map[string]any{"email": "buyer@example.com", "processing": map[string]any{"total_value": 39.98}})
	require.NoError(t, err)

	widget, err := convertWidget(Widget{
		ID:          7,
		Name:        "Sprocket",
		Description: sql.NullString{String: "A sprocket", Valid: true},
		Price:       price,
		Quantity:    2,
		Status:      WidgetStatusInactive,
		Metadata:    metadata,
		ProcessedAt: sql.NullTime{Time: processedAt, Valid: true},
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), widget.ID)
	assert.Equal(t, "Sprocket", widget.Name)
	require.NotNil(t, widget.Description)
	assert.Equal(t, "A sprocket", *widget.Description)
	require.NotNil(t, widget.Price)
	assert.InDelta(t, 19.99, *widget.Price, 0.0001)
	require.NotNil(t, widget.Quantity)
	assert.Equal(t, int32(2), *widget.Quantity)
	assert.Equal(t, domain.Inactive, widget.Status)
	assert.Equal(t, "buyer@example.com", widget.Metadata["email"])
	require.NotNil(t, widget.ProcessedAt)
	assert.True(t, processedAt.Equal(*widget.ProcessedAt))
	assert.Nil(t, widget.EmailSentAt)
	assert.Nil(t, widget.DeletedAt)
}

func TestConvertWidgetNullColumns(t *testing.T) {
	widget, err := convertWidget(Widget{
		ID:       1,
		Name:     "Bare",
		Price:    pgtype.Numeric{Status: pgtype.Null},
		Metadata: pgtype.JSONB{Status: pgtype.Null},
		Status:   WidgetStatusActive,
	})
	require.NoError(t, err)

	assert.Nil(t, widget.Description)
	assert.Nil(t, widget.Price)
	assert.NotNil(t, widget.Metadata)
	assert.Empty(t, widget.Metadata)

	// Marginal test case: a null metadata column set through toJSONB still yields an empty map
	metadata, err := toJSONB(nil)
	require.NoError(t, err)
	widget, err = convertWidget(Widget{ID: 2, Name: "Null metadata", Metadata: metadata})
	require.NoError(t, err)
	assert.NotNil(t, widget.Metadata)
}

func TestToNumeric(t *testing.T) {
	n, err := toNumeric(nil)
	require.NoError(t, err)
	assert.Equal(t, pgtype.Null, n.Status)

	n, err = toNumeric(ptr(1000.5))
	require.NoError(t, err)
	assert.Equal(t, pgtype.Present, n.Status)

	var f float64
	require.NoError(t, n.AssignTo(&f))
	assert.InDelta(t, 1000.5, f, 0.0001)
}

func TestToNullString(t *testing.T) {
	assert.False(t, toNullString(nil).Valid)

	s := toNullString(ptr(""))
	assert.True(t, s.Valid)
	assert.Equal(t, "", s.String)
}

func ptr[T any](v T) *T {
	return &v
}
