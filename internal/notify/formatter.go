// Package notify presents medication alerts on the console, webhooks and
// Telegram.
package notify

import (
	"sort"

	"github.com/manav03panchal/medalert/internal/model"
)

// Formatter formats notifications for a specific webhook type.
type Formatter interface {
	// Format converts a notification into the webhook-specific payload.
	Format(n *model.Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// GetFormatter returns the formatter for a webhook type. Unknown types use
// the generic JSON payload.
func GetFormatter(webhookType string) Formatter {
	switch webhookType {
	case model.WebhookTypeDiscord:
		return &DiscordFormatter{}
	case model.WebhookTypeSlack:
		return &SlackFormatter{}
	default:
		return &GenericFormatter{}
	}
}

// formatterFor picks the formatter of a stored webhook, honoring a custom
// generic template.
func formatterFor(wh *model.Webhook) Formatter {
	if wh.Type == model.WebhookTypeGeneric && wh.Template != "" {
		return NewGenericFormatter(wh.Template)
	}
	return GetFormatter(wh.Type)
}

// sortedFieldKeys keeps field order stable across payloads.
func sortedFieldKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func colorFor(n *model.Notification) int {
	if n.Color != 0 {
		return n.Color
	}
	return model.DefaultColorForType(n.Type)
}
