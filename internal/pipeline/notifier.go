package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
)

// FollowUpNotifier sends the one-time thank-you email for a widget.
type FollowUpNotifier struct {
	storage domain.Storage
	mailer  domain.Mailer
	locker  domain.DistributedLock
	cfg     Config
}

func NewFollowUpNotifier(storage domain.Storage, mailer domain.Mailer, locker domain.DistributedLock, cfg Config) *FollowUpNotifier {
	return &FollowUpNotifier{
		storage: storage,
		mailer:  mailer,
		locker:  locker,
		cfg:     cfg,
	}
}

func (n *FollowUpNotifier) Kind() domain.TaskKind {
	return domain.SendFollowUp
}

func FollowUpLockKey(widgetID int64) string {
	return "lock:follow-up:" + strconv.FormatInt(widgetID, 10)
}

// Execute sends the email at most once per widget. Concurrent tasks for the same widget are
// serialized by a distributed lock and email_sent_at is only written while still null.
func (n *FollowUpNotifier) Execute(ctx context.Context, task domain.Task) error {
	widgetID := task.Payload.WidgetID
	if widgetID <= 0 {
		return fmt.Errorf("%w: widget id %d", errval.ErrInvalidPayload, widgetID)
	}

	widget, err := n.storage.GetWidgetByID(ctx, widgetID)
	if err != nil {
		return fmt.Errorf("fetch widget %d: %w", widgetID, err)
	}
	if !n.shouldSend(ctx, task, widget) {
		return nil
	}

	lockKey := FollowUpLockKey(widgetID)
	token, locked, err := n.locker.Lock(ctx, lockKey, n.cfg.FollowUpLockTTL)
	if err != nil {
		return fmt.Errorf("lock %s: %w", lockKey, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", errval.ErrLockNotAcquired, lockKey)
	}
	defer func() {
		if err := n.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			slog.ErrorContext(ctx, "Error while unlocking locked key", "lock_key", lockKey, "error", err.Error())
		}
	}()

	// another task may have sent the email while we waited for the lock
	widget, err = n.storage.GetWidgetByID(ctx, widgetID)
	if err != nil {
		return fmt.Errorf("fetch widget %d: %w", widgetID, err)
	}
	if !n.shouldSend(ctx, task, widget) {
		return nil
	}

	to, _ := widget.ContactAddress()
	if err = n.mailer.Send(ctx, to, domain.FollowUpTemplate, widget); err != nil {
		return fmt.Errorf("send follow-up for widget %d: %w", widgetID, err)
	}

	applied, err := n.storage.MarkEmailSent(ctx, widgetID, n.cfg.now())
	if err != nil {
		return fmt.Errorf("mark follow-up of widget %d as sent: %w", widgetID, err)
	}
	if !applied {
		slog.WarnContext(ctx, "email_sent_at was already set when marking the follow-up", "widget_id", widgetID, "task_id", task.ID)
	}

	slog.InfoContext(ctx, "Follow-up email has been sent", "widget_id", widgetID, "task_id", task.ID, "to", to)
	return nil
}

func (n *FollowUpNotifier) shouldSend(ctx context.Context, task domain.Task, widget *domain.Widget) bool {
	if _, ok := widget.ContactAddress(); !ok {
		slog.InfoContext(ctx, "Widget has no contact address, skipping follow-up", "widget_id", widget.ID, "task_id", task.ID)
		return false
	}

	if widget.EmailSentAt != nil {
		slog.InfoContext(ctx, "Follow-up email was already sent, skipping", "widget_id", widget.ID, "task_id", task.ID)
		return false
	}

	return true
}
