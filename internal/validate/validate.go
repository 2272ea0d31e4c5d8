// Package validate provides input validation helpers for the medalert CLI.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/manav03panchal/medalert/internal/errors"
	"github.com/manav03panchal/medalert/internal/model"
	"github.com/manav03panchal/medalert/internal/parser"
)

const (
	// MaxNameLength is the maximum length for a medication name.
	MaxNameLength = 128
	// MaxDoseLength is the maximum length for a dose.
	MaxDoseLength = 64
	// MaxAccountLength is the maximum length for an account name.
	MaxAccountLength = 64
	// MaxDays is the longest treatment accepted.
	MaxDays = 3650
	// MaxTimesPerDay is the most dose times accepted in one schedule.
	MaxTimesPerDay = 24
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
)

// accountRegex allows letters, digits, dots, dashes, underscores and @.
// A colon would break the storage key layout.
var accountRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._@-]*$`)

// MedicationName validates a medication display name.
func MedicationName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewUserError("Medication name cannot be empty", "Provide a name like 'Ibuprofen'")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return errors.NewUserErrorWithField("name", name,
			"Medication name too long",
			fmt.Sprintf("Names must be %d characters or fewer", MaxNameLength))
	}
	return nil
}

// Dose validates a dose display string.
func Dose(dose string) error {
	if strings.TrimSpace(dose) == "" {
		return errors.NewUserError("Dose cannot be empty", "Provide a dose with --dose, like '200mg'")
	}
	if utf8.RuneCountInString(dose) > MaxDoseLength {
		return errors.NewUserErrorWithField("dose", dose,
			"Dose too long",
			fmt.Sprintf("Doses must be %d characters or fewer", MaxDoseLength))
	}
	return nil
}

// Times validates and normalizes a comma-separated list of dose times.
func Times(input string) ([]string, error) {
	times, err := parser.ParseTimes(input)
	if err != nil {
		var pe *parser.TimeParseError
		if errors.As(err, &pe) {
			return nil, pe.ToUserError()
		}
		return nil, err
	}
	if len(times) > MaxTimesPerDay {
		return nil, errors.NewUserErrorWithField("times", input,
			"Too many dose times",
			fmt.Sprintf("Use at most %d times per day", MaxTimesPerDay))
	}
	return times, nil
}

// Days validates a treatment length.
func Days(days int) error {
	if days < 1 || days > MaxDays {
		ue := errors.NewUserErrorWithField("days", fmt.Sprintf("%d", days),
			"Treatment length out of range",
			fmt.Sprintf("Must be between 1 and %d days", MaxDays))
		ue.Cause = errors.ErrInvalidDuration
		return ue
	}
	return nil
}

// Account validates an account name.
func Account(account string) error {
	if account == "" {
		return errors.NewUserError("Account cannot be empty", "Provide an account name, like 'medalert login alice'")
	}
	if len(account) > MaxAccountLength {
		return errors.NewUserErrorWithField("account", account,
			"Account name too long",
			fmt.Sprintf("Account names must be %d characters or fewer", MaxAccountLength))
	}
	if !accountRegex.MatchString(account) {
		ue := errors.NewUserErrorWithField("account", account,
			"Invalid account name",
			"Use letters, numbers, dots, dashes, underscores or @")
		ue.Cause = errors.ErrInvalidAccount
		return ue
	}
	return nil
}

// WebhookName validates a webhook name.
func WebhookName(name string) error {
	if !model.IsValidWebhookName(name) {
		return errors.NewUserErrorWithField("name", name,
			"Invalid webhook name",
			"Names must start with a letter or number and contain only letters, numbers, dashes or underscores")
	}
	return nil
}

// WebhookType validates a webhook type.
func WebhookType(t string) error {
	if !model.IsValidWebhookType(t) {
		return errors.NewUserErrorWithField("type", t,
			"Unknown webhook type",
			"Use discord, slack or generic")
	}
	return nil
}

// URL validates a URL for use as a webhook endpoint.
func URL(rawURL string) error {
	if rawURL == "" {
		return errors.NewUserError("URL cannot be empty", "Provide a valid URL")
	}
	if len(rawURL) > MaxURLLength {
		return errors.NewUserError("URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL format",
			"Provide a valid URL starting with https://")
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL scheme",
			"URLs must use https:// (or http:// for localhost)")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL: missing hostname",
			"Provide a valid URL like https://example.com/webhook")
	}

	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"

	if parsed.Scheme == "http" && !isLocalhost {
		return errors.NewUserErrorWithField("url", rawURL,
			"HTTP not allowed for external URLs",
			"Use https:// for security. HTTP is only allowed for localhost.")
	}

	if !isLocalhost {
		if ip := net.ParseIP(hostname); ip != nil && isInternalIP(ip) {
			return errors.NewUserErrorWithField("url", hostname,
				"Internal IP addresses not allowed",
				"Webhook URLs must point to external services")
		}
	}

	return nil
}

var privateNetworks = func() []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"fc00::/7",
		"fe80::/10",
		"::1/128",
	} {
		_, n, err := net.ParseCIDR(cidr)
		if err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}()

// isInternalIP checks if an IP is in a private or loopback range.
func isInternalIP(ip net.IP) bool {
	for _, n := range privateNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// NonEmpty validates that a string is not empty.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewUserError(
			field+" cannot be empty",
			"Provide a value for "+field)
	}
	return nil
}

// InRange validates that an integer is within a range.
func InRange(field string, value, min, max int) error {
	if value < min || value > max {
		return errors.NewUserErrorWithField(field, fmt.Sprintf("%d", value),
			"Value out of range",
			fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return nil
}
