package notify

import (
	"time"

	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/scheduler"
)

// AlertContent returns the title and body shown for an alert.
func AlertContent(e model.AlertEvent) (title, body string) {
	if e.Kind == model.AlertUpcoming {
		return "Get ready!", "In 5 minutes."
	}
	return "Time to take your medication!", "Dose: " + e.Dose
}

// UpcomingDoseMinute returns the HH:MM of the dose an upcoming alert
// announces.
func UpcomingDoseMinute(e model.AlertEvent) (string, bool) {
	if !e.At.IsZero() {
		return scheduler.SoonKey(e.At), true
	}
	checked, err := time.Parse("15:04", e.FiredAtMinute)
	if err != nil {
		return "", false
	}
	return scheduler.SoonKey(checked), true
}

// AlertNotification renders an alert as a webhook notification.
func AlertNotification(e model.AlertEvent) *model.Notification {
	title, body := AlertContent(e)
	t := model.NotifyDue
	if e.Kind == model.AlertUpcoming {
		t = model.NotifyUpcoming
	}

	n := model.NewNotification(t, title, body).
		WithField("Medication", e.Name).
		WithColor(model.DefaultColorForType(t))
	if e.Kind == model.AlertUpcoming {
		// FiredAtMinute is the check minute; the dose is UpcomingLead later.
		n.WithField("Checked at", e.FiredAtMinute)
		if dose, ok := UpcomingDoseMinute(e); ok {
			n.WithField("Dose time", dose)
		}
	} else {
		n.WithField("Time", e.FiredAtMinute)
	}
	if !e.At.IsZero() {
		n.WithTimestamp(e.At)
	}
	if e.Dose != "" {
		n.WithField("Dose", e.Dose)
	}
	return n
}
