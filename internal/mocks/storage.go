package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
)

// Storage is an in-memory domain.Storage. It copies widgets in and out so callers never share
// state with the store, mirroring a database round trip.
type Storage struct {
	mu      sync.Mutex
	widgets map[int64]*domain.Widget
	nextID  int64

	Now func() time.Time

	// Err, when set, is returned by every call.
	Err error
	// SaveProcessingErrs are returned by successive SaveProcessingResult calls before the store
	// starts succeeding.
	SaveProcessingErrs []error
	// BeforeGet runs before every GetWidgetByID, outside the lock.
	BeforeGet func(ID int64)

	GetCalls            int
	SaveProcessingCalls int
	MarkEmailSentCalls  int
}

func NewStorage() *Storage {
	return &Storage{
		widgets: map[int64]*domain.Widget{},
		Now:     time.Now,
	}
}

// Put stores a copy of w as is, assigning an id when w has none.
func (s *Storage) Put(w domain.Widget) *domain.Widget {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == 0 {
		s.nextID++
		w.ID = s.nextID
	} else if w.ID > s.nextID {
		s.nextID = w.ID
	}
	if w.Metadata == nil {
		w.Metadata = map[string]any{}
	}

	s.widgets[w.ID] = cloneWidget(&w)
	return cloneWidget(&w)
}

// Peek returns a copy of the stored widget including soft-deleted ones.
func (s *Storage) Peek(ID int64) (*domain.Widget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.widgets[ID]
	if !ok {
		return nil, false
	}

	return cloneWidget(w), true
}

func (s *Storage) Ping(ctx context.Context) (err error) {
	return s.Err
}

func (s *Storage) GetWidgetByID(ctx context.Context, ID int64) (*domain.Widget, error) {
	if s.BeforeGet != nil {
		s.BeforeGet(ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++

	if s.Err != nil {
		return nil, s.Err
	}

	w, ok := s.widgets[ID]
	if !ok || w.DeletedAt != nil {
		return nil, errval.ErrNotFound
	}

	return cloneWidget(w), nil
}

func (s *Storage) GetWidgetsByIDs(ctx context.Context, IDs []int64) ([]*domain.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	wanted := make(map[int64]bool, len(IDs))
	for _, id := range IDs {
		wanted[id] = true
	}

	return s.selectLocked(func(w *domain.Widget) bool { return wanted[w.ID] }, 0), nil
}

func (s *Storage) GetUnprocessedWidgets(ctx context.Context, limit int32) ([]*domain.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	return s.selectLocked(func(w *domain.Widget) bool { return w.ProcessedAt == nil }, int(limit)), nil
}

func (s *Storage) InsertWidget(ctx context.Context, widget domain.NewWidget) (*domain.Widget, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	now := s.Now()
	w := domain.Widget{
		Name:        widget.Name,
		Description: widget.Description,
		Price:       widget.Price,
		Quantity:    widget.Quantity,
		Status:      domain.Active,
		Metadata:    widget.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if w.Quantity == nil {
		var zero int32
		w.Quantity = &zero
	}
	if widget.Status != nil {
		w.Status = *widget.Status
	}

	return s.Put(w), nil
}

func (s *Storage) UpdateWidget(ctx context.Context, ID int64, changes domain.WidgetChanges) (*domain.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	w, ok := s.widgets[ID]
	if !ok || w.DeletedAt != nil {
		return nil, errval.ErrNotFound
	}

	if changes.Name != nil {
		w.Name = *changes.Name
	}
	if changes.Description != nil {
		w.Description = ptr(*changes.Description)
	}
	if changes.Price != nil {
		w.Price = ptr(*changes.Price)
	}
	if changes.Quantity != nil {
		w.Quantity = ptr(*changes.Quantity)
	}
	if changes.Status != nil {
		w.Status = *changes.Status
	}
	if changes.Metadata != nil {
		w.Metadata = cloneMap(changes.Metadata)
	}
	w.UpdatedAt = s.Now()

	return cloneWidget(w), nil
}

func (s *Storage) SoftDeleteWidget(ctx context.Context, ID int64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	w, ok := s.widgets[ID]
	if !ok || w.DeletedAt != nil {
		return errval.ErrNotFound
	}

	w.DeletedAt = ptr(s.Now())
	return nil
}

// SaveProcessingResult replaces metadata.processing, keeps every sibling key and sets
// processed_at, like the jsonb_set statement it stands in for.
func (s *Storage) SaveProcessingResult(ctx context.Context, ID int64, result domain.ProcessingResult, processedAt time.Time) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveProcessingCalls++

	if s.Err != nil {
		return s.Err
	}
	if len(s.SaveProcessingErrs) > 0 {
		err, s.SaveProcessingErrs = s.SaveProcessingErrs[0], s.SaveProcessingErrs[1:]
		if err != nil {
			return err
		}
	}

	w, ok := s.widgets[ID]
	if !ok || w.DeletedAt != nil {
		return errval.ErrNotFound
	}

	if w.Metadata == nil {
		w.Metadata = map[string]any{}
	}
	w.Metadata[domain.MetadataProcessingKey] = map[string]any{
		"processed_at":       result.ProcessedAt,
		"total_value":        result.TotalValue,
		"is_high_value":      result.IsHighValue,
		"processing_version": result.ProcessingVersion,
	}
	w.ProcessedAt = ptr(processedAt)
	return nil
}

func (s *Storage) MarkEmailSent(ctx context.Context, ID int64, sentAt time.Time) (applied bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MarkEmailSentCalls++

	if s.Err != nil {
		return false, s.Err
	}

	w, ok := s.widgets[ID]
	if !ok || w.DeletedAt != nil || w.EmailSentAt != nil {
		return false, nil
	}

	w.EmailSentAt = ptr(sentAt)
	return true, nil
}

func (s *Storage) GetDayActivity(ctx context.Context, from, to time.Time) (domain.DayActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return domain.DayActivity{}, s.Err
	}

	in := func(t *time.Time) bool {
		return t != nil && !t.Before(from) && t.Before(to)
	}

	var activity domain.DayActivity
	for _, w := range s.widgets {
		if in(w.DeletedAt) {
			activity.Deleted++
		}
		if w.DeletedAt != nil {
			continue
		}
		if in(&w.CreatedAt) {
			activity.Created++
		}
		if in(&w.UpdatedAt) && !w.UpdatedAt.Equal(w.CreatedAt) {
			activity.Updated++
		}
		if in(w.ProcessedAt) {
			activity.Processed++
		}
		if in(w.EmailSentAt) {
			activity.EmailsSent++
		}
	}

	return activity, nil
}

func (s *Storage) CountWidgetsByStatus(ctx context.Context) (map[domain.WidgetStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	counts := map[domain.WidgetStatus]int64{}
	for _, w := range s.widgets {
		if w.DeletedAt == nil {
			counts[w.Status]++
		}
	}

	return counts, nil
}

func (s *Storage) selectLocked(match func(w *domain.Widget) bool, limit int) []*domain.Widget {
	selected := []*domain.Widget{}
	for _, w := range s.widgets {
		if w.DeletedAt == nil && match(w) {
			selected = append(selected, cloneWidget(w))
		}
	}

	sort.Slice(selected, func(i, j int) bool {
		if !selected[i].CreatedAt.Equal(selected[j].CreatedAt) {
			return selected[i].CreatedAt.Before(selected[j].CreatedAt)
		}
		return selected[i].ID < selected[j].ID
	})

	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}

	return selected
}

func cloneWidget(w *domain.Widget) *domain.Widget {
	c := *w
	c.Metadata = cloneMap(w.Metadata)
	if w.Description != nil {
		c.Description = ptr(*w.Description)
	}
	if w.Price != nil {
		c.Price = ptr(*w.Price)
	}
	if w.Quantity != nil {
		c.Quantity = ptr(*w.Quantity)
	}
	if w.ProcessedAt != nil {
		c.ProcessedAt = ptr(*w.ProcessedAt)
	}
	if w.EmailSentAt != nil {
		c.EmailSentAt = ptr(*w.EmailSentAt)
	}
	if w.DeletedAt != nil {
		c.DeletedAt = ptr(*w.DeletedAt)
	}

	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	c := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = cloneMap(nested)
		}
		c[k] = v
	}

	return c
}

func ptr[T any](v T) *T {
	return &v
}
