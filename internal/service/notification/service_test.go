package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/notification"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-engine/internal/repository/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	name string
	err  error

	mu         sync.Mutex
	deliveries []notification.Delivery
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Deliver(_ context.Context, d notification.Delivery) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliveries = append(c.deliveries, d)
	return c.err
}

func (c *recordingChannel) received() []notification.Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notification.Delivery(nil), c.deliveries...)
}

func leaveMessage(recipients ...string) notification.Message {
	return notification.Message{
		TemplateName: notification.TemplateLeaveApproved,
		Category:     notification.CategoryLeave,
		Recipients:   recipients,
		Payload:      map[string]any{"leave_id": "l-1"},
	}
}

func TestDispatch_FansOutToEveryChannel(t *testing.T) {
	m := metrics.New()
	ok := &recordingChannel{name: "ok"}
	failing := &recordingChannel{name: "broken", err: errors.New("smtp down")}
	svc := NewNotificationService(sse.NewHub(), m, nil, Config{WorkerCount: 2, QueueSize: 10}, ok, failing)

	err := svc.Dispatch(context.Background(), "org-1", leaveMessage("u1", "u2"), "approver", "req-1")
	require.NoError(t, err)
	svc.Stop()

	got := ok.received()
	require.Len(t, got, 2)
	assert.Len(t, failing.received(), 2, "a failing channel does not stop the others")

	recipients := []string{got[0].RecipientID, got[1].RecipientID}
	assert.ElementsMatch(t, []string{"u1", "u2"}, recipients)
	assert.Equal(t, "org-1", got[0].OrganizationID)
	assert.Equal(t, "approver", got[0].SenderID)
	assert.Equal(t, "req-1", got[0].RequestID)
	assert.NotEmpty(t, got[0].ID)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("ok", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("broken", "error")))
}

func TestDispatch_RejectsInvalidMessages(t *testing.T) {
	svc := NewNotificationService(sse.NewHub(), metrics.New(), nil, Config{})
	defer svc.Stop()

	err := svc.Dispatch(context.Background(), "org", leaveMessage(), "", "")
	assert.ErrorIs(t, err, notification.ErrNoRecipients)

	msg := leaveMessage("u1")
	msg.TemplateName = "payslip_ready"
	err = svc.Dispatch(context.Background(), "org", msg, "", "")
	assert.ErrorIs(t, err, notification.ErrUnknownTemplate)
}

func TestDispatch_AfterStop(t *testing.T) {
	svc := NewNotificationService(sse.NewHub(), metrics.New(), nil, Config{})
	svc.Stop()
	svc.Stop()

	err := svc.Dispatch(context.Background(), "org", leaveMessage("u1"), "", "")
	assert.ErrorIs(t, err, notification.ErrStopped)
}

func TestStop_DrainsQueue(t *testing.T) {
	ch := &recordingChannel{name: "rec"}
	svc := NewNotificationService(sse.NewHub(), metrics.New(), nil, Config{WorkerCount: 1, QueueSize: 100}, ch)

	for i := 0; i < 20; i++ {
		require.NoError(t, svc.Dispatch(context.Background(), "org", leaveMessage("u1"), "", ""))
	}
	svc.Stop()

	assert.Len(t, ch.received(), 20)
}

func TestSubscribe_ReceivesInAppDeliveries(t *testing.T) {
	hub := sse.NewHub()
	svc := NewNotificationService(hub, metrics.New(), nil, Config{}, NewInAppChannel(hub))
	defer svc.Stop()

	stream, cancel := svc.Subscribe("u1")
	defer cancel()

	require.NoError(t, svc.Dispatch(context.Background(), "org", leaveMessage("u1"), "approver", ""))

	select {
	case d := <-stream:
		assert.Equal(t, "u1", d.RecipientID)
		assert.Equal(t, notification.TemplateLeaveApproved, d.Template)
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery on stream")
	}
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMailer) SendNotification(to, recipientName string, tmpl notification.Template, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+"|"+recipientName+"|"+string(tmpl))
	return f.err
}

func TestEmailChannel(t *testing.T) {
	users := memory.NewUserStore(
		user.User{ID: "u1", OrganizationID: "org", Email: "ana@example.com", FullName: "Ana", Role: user.RoleEmployee},
		user.User{ID: "u2", OrganizationID: "org", FullName: "No Mail", Role: user.RoleEmployee},
	)
	mailer := &fakeMailer{}
	ch := NewEmailChannel(users, mailer)
	ctx := context.Background()

	require.NoError(t, ch.Deliver(ctx, notification.Delivery{RecipientID: "u1", Template: notification.TemplateLeaveRejected}))
	require.NoError(t, ch.Deliver(ctx, notification.Delivery{RecipientID: "u2", Template: notification.TemplateLeaveRejected}))
	assert.Equal(t, []string{"ana@example.com|Ana|leave_rejected"}, mailer.sent)

	err := ch.Deliver(ctx, notification.Delivery{RecipientID: "ghost"})
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, ch.Deliver(cancelled, notification.Delivery{RecipientID: "u1"}), context.Canceled)
}
