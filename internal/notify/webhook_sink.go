package notify

import (
	"context"
	"sync"
	"time"

	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/model"
)

// Broadcaster sends a notification to all enabled webhooks.
type Broadcaster interface {
	Broadcast(ctx context.Context, n *model.Notification) error
}

// WebhookSink posts alerts to webhooks in the background. Webhook messages
// cannot be withdrawn, so dismissal does nothing.
type WebhookSink struct {
	sender  Broadcaster
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewWebhookSink creates a webhook sink. Each delivery, retries included,
// is bounded by timeout.
func NewWebhookSink(sender Broadcaster, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &WebhookSink{sender: sender, timeout: timeout}
}

// PresentAlert starts the delivery and returns immediately.
func (s *WebhookSink) PresentAlert(ctx context.Context, e model.AlertEvent) {
	n := AlertNotification(e)
	tickID := logging.TickIDFromContext(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		if err := s.sender.Broadcast(sendCtx, n); err != nil {
			logging.Warn("webhook alert failed",
				logging.KeyTickID, tickID,
				logging.KeyAlertKey, e.Key().String(),
				logging.KeyError, err,
			)
		}
	}()
}

// DismissAlert is a no-op.
func (s *WebhookSink) DismissAlert(model.AlertKey) {}

// Wait blocks until pending deliveries finish.
func (s *WebhookSink) Wait() {
	s.wg.Wait()
}
