package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/model"
)

// WebhookStore is the webhook storage the dispatcher reads and updates.
type WebhookStore interface {
	Get(name string) (*model.Webhook, error)
	ListEnabled() ([]*model.Webhook, error)
	UpdateLastUsed(name string, lastErr error) error
}

// Dispatcher sends notifications to all enabled webhooks.
type Dispatcher struct {
	webhooks   WebhookStore
	httpClient *HTTPClient
	now        func() time.Time
}

// NewDispatcher creates a notification dispatcher using the global HTTP
// configuration.
func NewDispatcher(webhooks WebhookStore) *Dispatcher {
	return NewDispatcherWithClient(webhooks, NewHTTPClient())
}

// NewDispatcherWithClient creates a dispatcher with an explicit HTTP client.
func NewDispatcherWithClient(webhooks WebhookStore, client *HTTPClient) *Dispatcher {
	return &Dispatcher{
		webhooks:   webhooks,
		httpClient: client,
		now:        time.Now,
	}
}

// DispatchResult contains the result of dispatching to a single webhook.
type DispatchResult struct {
	WebhookName string
	Success     bool
	StatusCode  int
	Attempts    int
	Duration    time.Duration
	Error       error
}

// SendNotification sends n to every enabled webhook concurrently. It
// returns nil when no webhook is enabled.
func (d *Dispatcher) SendNotification(ctx context.Context, n *model.Notification) []DispatchResult {
	webhooks, err := d.webhooks.ListEnabled()
	if err != nil {
		return []DispatchResult{{
			WebhookName: "all",
			Error:       fmt.Errorf("failed to list webhooks: %w", err),
		}}
	}
	if len(webhooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make([]DispatchResult, len(webhooks))
	for i, wh := range webhooks {
		wg.Add(1)
		go func(idx int, wh *model.Webhook) {
			defer wg.Done()
			results[idx] = d.sendToWebhook(ctx, n, wh)
		}(i, wh)
	}
	wg.Wait()
	return results
}

// Broadcast sends n to every enabled webhook and joins the failures.
func (d *Dispatcher) Broadcast(ctx context.Context, n *model.Notification) error {
	var errs []error
	for _, r := range d.SendNotification(ctx, n) {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.WebhookName, r.Error))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) sendToWebhook(ctx context.Context, n *model.Notification, wh *model.Webhook) DispatchResult {
	result := DispatchResult{WebhookName: wh.Name}

	formatter := formatterFor(wh)
	payload, err := formatter.Format(n)
	if err != nil {
		result.Error = fmt.Errorf("failed to format notification: %w", err)
		d.updateWebhookStatus(wh.Name, result.Error)
		return result
	}

	sent := d.httpClient.Send(ctx, wh.URL, formatter.ContentType(), payload)
	result.StatusCode = sent.StatusCode
	result.Attempts = sent.Attempts
	result.Duration = sent.Duration
	result.Error = sent.Error
	result.Success = sent.Error == nil

	logging.DebugLog("webhook delivery",
		logging.KeyWebhook, wh.Name,
		logging.KeyStatus, sent.StatusCode,
		logging.KeyDuration, sent.Duration.String(),
		logging.KeyError, sent.Error,
	)
	d.updateWebhookStatus(wh.Name, sent.Error)
	return result
}

// updateWebhookStatus records the outcome. A failed status write is only logged.
func (d *Dispatcher) updateWebhookStatus(name string, err error) {
	if uerr := d.webhooks.UpdateLastUsed(name, err); uerr != nil {
		logging.DebugLog("webhook status update failed", logging.KeyWebhook, name, logging.KeyError, uerr)
	}
}

// SendToSingle sends n to the named webhook, enabled or not.
func (d *Dispatcher) SendToSingle(ctx context.Context, n *model.Notification, name string) DispatchResult {
	wh, err := d.webhooks.Get(name)
	if err != nil {
		return DispatchResult{
			WebhookName: name,
			Error:       err,
		}
	}
	return d.sendToWebhook(ctx, n, wh)
}

// TestWebhook sends a test notification to the named webhook.
func (d *Dispatcher) TestWebhook(ctx context.Context, name string) DispatchResult {
	now := d.now()
	n := model.NewNotification(
		model.NotifyTest,
		"medalert test",
		"Your webhook is configured correctly. Medication alerts will arrive here.",
	).WithField("Webhook", name).
		WithField("Time", now.Format("15:04")).
		WithTimestamp(now)

	return d.SendToSingle(ctx, n, name)
}

// CountEnabledWebhooks returns the number of enabled webhooks.
func (d *Dispatcher) CountEnabledWebhooks() int {
	webhooks, err := d.webhooks.ListEnabled()
	if err != nil {
		return 0
	}
	return len(webhooks)
}
