package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/domain/notification"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/sse"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config holds notification service configuration
type Config struct {
	WorkerCount     int           // default: 2
	QueueSize       int           // default: 1000
	DeliveryTimeout time.Duration // default: 10 seconds
}

var knownTemplates = map[notification.Template]bool{
	notification.TemplateLeaveRequested: true,
	notification.TemplateLeaveApproved:  true,
	notification.TemplateLeaveRejected:  true,
}

type service struct {
	channels []notification.Channel
	hub      *sse.Hub
	config   Config
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	queue   chan notification.Delivery
	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.RWMutex
	stopped bool
}

// NewNotificationService creates a new notification service with background workers.
// Every delivery is handed to all channels concurrently.
func NewNotificationService(hub *sse.Hub, m *metrics.Metrics, logger *slog.Logger, cfg Config, channels ...notification.Channel) notification.Service {
	// Set defaults
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &service{
		channels: channels,
		hub:      hub,
		config:   cfg,
		metrics:  m,
		logger:   logger.With("component", "notification"),
		now:      time.Now,
		queue:    make(chan notification.Delivery, cfg.QueueSize),
		stopCh:   make(chan struct{}),
	}

	// Start background workers
	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.logger.Info("notification service started",
		"workers", cfg.WorkerCount,
		"queue_size", cfg.QueueSize,
		"channels", len(channels),
	)

	return s
}

// worker delivers queued messages until Stop, then drains what is left.
func (s *service) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case d := <-s.queue:
			s.metrics.NotificationQueue.Set(float64(len(s.queue)))
			s.deliver(id, d)
		case <-s.stopCh:
			for {
				select {
				case d := <-s.queue:
					s.deliver(id, d)
				default:
					return
				}
			}
		}
	}
}

// deliver hands d to every channel; one channel failing does not stop the others.
func (s *service) deliver(workerID int, d notification.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.DeliveryTimeout)
	defer cancel()

	var g errgroup.Group
	for _, ch := range s.channels {
		ch := ch
		g.Go(func() error {
			if err := ch.Deliver(ctx, d); err != nil {
				s.metrics.NotificationsSent.WithLabelValues(ch.Name(), "error").Inc()
				return fmt.Errorf("%s: %w", ch.Name(), err)
			}
			s.metrics.NotificationsSent.WithLabelValues(ch.Name(), "ok").Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("notification delivery failed",
			"worker", workerID,
			"delivery_id", d.ID,
			"recipient_id", d.RecipientID,
			"template", d.Template,
			"error", err,
		)
	}
}

// Dispatch implements notification.Dispatcher. It splits msg into one delivery per
// recipient and queues them; when the queue is full the delivery runs inline.
func (s *service) Dispatch(ctx context.Context, organizationID string, msg notification.Message, actingUserID, requestID string) error {
	if len(msg.Recipients) == 0 {
		return notification.ErrNoRecipients
	}
	if !knownTemplates[msg.TemplateName] {
		return fmt.Errorf("%w: %s", notification.ErrUnknownTemplate, msg.TemplateName)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return notification.ErrStopped
	}

	for _, recipient := range msg.Recipients {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		d := notification.Delivery{
			ID:             id.String(),
			OrganizationID: organizationID,
			RecipientID:    recipient,
			SenderID:       actingUserID,
			RequestID:      requestID,
			Template:       msg.TemplateName,
			Category:       msg.Category,
			Payload:        msg.Payload,
			CreatedAt:      s.now().UTC(),
		}

		select {
		case s.queue <- d:
			s.metrics.NotificationQueue.Set(float64(len(s.queue)))
		case <-ctx.Done():
			return ctx.Err()
		default:
			s.logger.Warn("notification queue full, delivering inline", "recipient_id", recipient)
			s.deliver(-1, d)
		}
	}
	return nil
}

// Subscribe streams in-app deliveries for a user
func (s *service) Subscribe(userID string) (<-chan notification.Delivery, func()) {
	return s.hub.Subscribe(userID)
}

// Stop gracefully stops the notification service after draining the queue
func (s *service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("notification service stopped")
}
