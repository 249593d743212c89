package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
	"github.com/sf7293/widget-manager/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotifierFixture(metadata map[string]any) (*mocks.Storage, *mocks.Mailer, *mocks.Locker, *domain.Widget) {
	storage := mocks.NewStorage()
	widget := storage.Put(domain.Widget{
		Name:        "Widget A",
		Description: ptr("A fine widget"),
		Price:       ptr(10.0),
		Quantity:    ptr(int32(1)),
		Status:      domain.Active,
		Metadata:    metadata,
		CreatedAt:   testNow.Add(-24 * time.Hour),
	})

	return storage, &mocks.Mailer{}, mocks.NewLocker(), widget
}

func TestFollowUpNotifier_SendsOnce(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"email": "buyer@example.com"})
	notifier := NewFollowUpNotifier(storage, mailer, locker, testConfig())

	require.NoError(t, notifier.Execute(context.Background(), followUpTask(widget.ID)))

	sent := mailer.SentMails()
	require.Len(t, sent, 1)
	assert.Equal(t, "buyer@example.com", sent[0].To)
	assert.Equal(t, domain.FollowUpTemplate, sent[0].Template)
	sentWidget, ok := sent[0].Data.(*domain.Widget)
	require.True(t, ok)
	assert.Equal(t, "Widget A", sentWidget.Name)

	stored, _ := storage.Peek(widget.ID)
	require.NotNil(t, stored.EmailSentAt)
	assert.True(t, testNow.Equal(*stored.EmailSentAt))
	assert.False(t, locker.IsHeld(FollowUpLockKey(widget.ID)))

	// a redelivered task sends nothing and keeps the timestamp
	notifier.cfg.Now = func() time.Time { return testNow.Add(time.Hour) }
	require.NoError(t, notifier.Execute(context.Background(), followUpTask(widget.ID)))
	assert.Len(t, mailer.SentMails(), 1)
	again, _ := storage.Peek(widget.ID)
	assert.True(t, testNow.Equal(*again.EmailSentAt))
}

func TestFollowUpNotifier_FallsBackToContactEmail(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"contact_email": "contact@example.com"})

	require.NoError(t, NewFollowUpNotifier(storage, mailer, locker, testConfig()).Execute(context.Background(), followUpTask(widget.ID)))

	sent := mailer.SentMails()
	require.Len(t, sent, 1)
	assert.Equal(t, "contact@example.com", sent[0].To)
}

func TestFollowUpNotifier_PrefersEmailOverContactEmail(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"email": "first@example.com", "contact_email": "second@example.com"})

	require.NoError(t, NewFollowUpNotifier(storage, mailer, locker, testConfig()).Execute(context.Background(), followUpTask(widget.ID)))

	sent := mailer.SentMails()
	require.Len(t, sent, 1)
	assert.Equal(t, "first@example.com", sent[0].To)
}

func TestFollowUpNotifier_NoAddress(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"color": "blue"})

	err := NewFollowUpNotifier(storage, mailer, locker, testConfig()).Execute(context.Background(), followUpTask(widget.ID))
	require.NoError(t, err)

	assert.Empty(t, mailer.SentMails())
	stored, _ := storage.Peek(widget.ID)
	assert.Nil(t, stored.EmailSentAt)
	assert.Equal(t, 0, locker.LockCalls)
}

func TestFollowUpNotifier_AlreadySent(t *testing.T) {
	storage := mocks.NewStorage()
	sentAt := testNow.Add(-time.Hour)
	widget := storage.Put(domain.Widget{Name: "Sent", Metadata: map[string]any{"email": "buyer@example.com"}, EmailSentAt: &sentAt})
	mailer := &mocks.Mailer{}

	require.NoError(t, NewFollowUpNotifier(storage, mailer, mocks.NewLocker(), testConfig()).Execute(context.Background(), followUpTask(widget.ID)))

	assert.Empty(t, mailer.SentMails())
	stored, _ := storage.Peek(widget.ID)
	assert.True(t, sentAt.Equal(*stored.EmailSentAt))
}

func TestFollowUpNotifier_DeletedWidgetIsCancelled(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"email": "buyer@example.com"})
	require.NoError(t, storage.SoftDeleteWidget(context.Background(), widget.ID))

	err := NewFollowUpNotifier(storage, mailer, locker, testConfig()).Execute(context.Background(), followUpTask(widget.ID))
	assert.ErrorIs(t, err, errval.ErrNotFound)
	assert.Empty(t, mailer.SentMails())
}

func TestFollowUpNotifier_LockHeldElsewhere(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"email": "buyer@example.com"})
	locker.Denied = true

	err := NewFollowUpNotifier(storage, mailer, locker, testConfig()).Execute(context.Background(), followUpTask(widget.ID))
	assert.ErrorIs(t, err, errval.ErrLockNotAcquired)
	assert.False(t, errval.IsPermanent(err))
	assert.Empty(t, mailer.SentMails())
}

func TestFollowUpNotifier_RechecksAfterLocking(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"email": "buyer@example.com"})

	// another worker finishes the send between the first read and the lock
	gets := 0
	storage.BeforeGet = func(ID int64) {
		gets++
		if gets == 2 {
			_, _ = storage.MarkEmailSent(context.Background(), ID, testNow.Add(-time.Minute))
		}
	}

	require.NoError(t, NewFollowUpNotifier(storage, mailer, locker, testConfig()).Execute(context.Background(), followUpTask(widget.ID)))
	assert.Empty(t, mailer.SentMails())
	assert.Equal(t, 1, locker.UnlockCalls)
}

func TestFollowUpNotifier_ConcurrentTasksSendAtMostOnce(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"email": "buyer@example.com"})
	notifier := NewFollowUpNotifier(storage, mailer, locker, testConfig())

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = notifier.Execute(context.Background(), followUpTask(widget.ID))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, errval.ErrLockNotAcquired)
		}
	}
	assert.LessOrEqual(t, len(mailer.SentMails()), 1)

	// retries of the losers find email_sent_at set or send the single email
	for _, err := range errs {
		if err != nil {
			require.NoError(t, notifier.Execute(context.Background(), followUpTask(widget.ID)))
		}
	}
	assert.Len(t, mailer.SentMails(), 1)
}

func TestFollowUpNotifier_MailFailureIsRetryable(t *testing.T) {
	storage, mailer, locker, widget := newNotifierFixture(map[string]any{"email": "buyer@example.com"})
	mailer.Errs = []error{errors.New("smtp: 421 try again later")}
	notifier := NewFollowUpNotifier(storage, mailer, locker, testConfig())

	err := notifier.Execute(context.Background(), followUpTask(widget.ID))
	require.Error(t, err)
	assert.False(t, errval.IsPermanent(err))
	stored, _ := storage.Peek(widget.ID)
	assert.Nil(t, stored.EmailSentAt)
	assert.False(t, locker.IsHeld(FollowUpLockKey(widget.ID)))

	require.NoError(t, notifier.Execute(context.Background(), followUpTask(widget.ID)))
	assert.Len(t, mailer.SentMails(), 1)
}
