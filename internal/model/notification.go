package model

import (
	"time"
)

// NotificationType defines the type of notification.
type NotificationType string

// Notification types.
const (
	NotifyDue      NotificationType = "due"
	NotifyUpcoming NotificationType = "upcoming"
	NotifyDigest   NotificationType = "digest"
	NotifyTest     NotificationType = "test"
)

// Notification is the rendered payload delivered to webhooks.
type Notification struct {
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Color     int               `json:"color,omitempty"`
}

// NewNotification creates a new notification.
func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
	}
}

// WithField adds a field to the notification.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

// WithColor sets the embed color.
func (n *Notification) WithColor(color int) *Notification {
	n.Color = color
	return n
}

// WithTimestamp overrides the notification time.
func (n *Notification) WithTimestamp(t time.Time) *Notification {
	n.Timestamp = t
	return n
}

// Notification colors (Discord-compatible hex values).
const (
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorInfo    = 0x5865F2
	ColorError   = 0xED4245
	ColorPrimary = 0x3498DB
)

// DefaultColorForType returns the default color for a notification type.
func DefaultColorForType(t NotificationType) int {
	switch t {
	case NotifyDue:
		return ColorError
	case NotifyUpcoming:
		return ColorWarning
	case NotifyDigest:
		return ColorInfo
	case NotifyTest:
		return ColorPrimary
	default:
		return ColorInfo
	}
}

// TypeLabel returns a human-readable label for the notification type.
func (n *Notification) TypeLabel() string {
	switch n.Type {
	case NotifyDue:
		return "Dose Due"
	case NotifyUpcoming:
		return "Dose Upcoming"
	case NotifyDigest:
		return "Daily Digest"
	case NotifyTest:
		return "Test Notification"
	default:
		return "Notification"
	}
}
