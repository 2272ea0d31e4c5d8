package validate

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/medalert/internal/errors"
)

// =============================================================================
// Medication Field Tests
// =============================================================================

func TestMedicationName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Ibuprofen", false},
		{"unicode", "Paracétamol", false},
		{"max_length", strings.Repeat("a", MaxNameLength), false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"too_long", strings.Repeat("a", MaxNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MedicationName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsUserError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDose(t *testing.T) {
	assert.NoError(t, Dose("200mg"))
	assert.NoError(t, Dose("1 tablet"))
	assert.Error(t, Dose(""))
	assert.Error(t, Dose(strings.Repeat("x", MaxDoseLength+1)))
}

func TestTimes(t *testing.T) {
	times, err := Times("8am, 20:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "20:00"}, times)

	_, err = Times("8am, 99:00")
	require.Error(t, err)
	ue, ok := errors.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, "time", ue.Field)
	assert.ErrorIs(t, err, errors.ErrInvalidTime)

	_, err = Times("")
	assert.ErrorIs(t, err, errors.ErrInvalidSchedule)

	many := strings.TrimSuffix(strings.Repeat("08:00,", MaxTimesPerDay+1), ",")
	_, err = Times(many)
	assert.Error(t, err)
}

func TestDays(t *testing.T) {
	assert.NoError(t, Days(1))
	assert.NoError(t, Days(MaxDays))

	for _, d := range []int{0, -1, MaxDays + 1} {
		err := Days(d)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidDuration)
	}
}

func TestAccount(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"alice", false},
		{"alice.smith@example.com", false},
		{"user_1-a", false},
		{"", true},
		{"has:colon", true},
		{"has space", true},
		{"-leading", true},
		{strings.Repeat("a", MaxAccountLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if tt.wantErr {
				assert.Error(t, Account(tt.input))
			} else {
				assert.NoError(t, Account(tt.input))
			}
		})
	}

	assert.ErrorIs(t, Account("bad:name"), errors.ErrInvalidAccount)
}

// =============================================================================
// Webhook Tests
// =============================================================================

func TestWebhookName(t *testing.T) {
	assert.NoError(t, WebhookName("discord-main"))
	assert.NoError(t, WebhookName("hook_2"))
	assert.Error(t, WebhookName(""))
	assert.Error(t, WebhookName("-bad"))
	assert.Error(t, WebhookName("with space"))
}

func TestWebhookType(t *testing.T) {
	for _, typ := range []string{"discord", "slack", "generic"} {
		assert.NoError(t, WebhookType(typ))
	}
	assert.Error(t, WebhookType("teams"))
}

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://discord.com/api/webhooks/1/abc", false},
		{"localhost_http", "http://localhost:8080/hook", false},
		{"loopback_http", "http://127.0.0.1:9000/hook", false},
		{"empty", "", true},
		{"too_long", "https://example.com/" + strings.Repeat("a", MaxURLLength), true},
		{"bad_scheme", "ftp://example.com", true},
		{"no_host", "https:///path", true},
		{"external_http", "http://example.com/hook", true},
		{"private_ip", "https://192.168.1.10/hook", true},
		{"link_local", "https://169.254.169.254/latest", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := URL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsInternalIP(t *testing.T) {
	assert.True(t, isInternalIP(net.ParseIP("10.1.2.3")))
	assert.True(t, isInternalIP(net.ParseIP("172.20.0.1")))
	assert.True(t, isInternalIP(net.ParseIP("::1")))
	assert.True(t, isInternalIP(net.ParseIP("fe80::1")))
	assert.False(t, isInternalIP(net.ParseIP("8.8.8.8")))
	assert.False(t, isInternalIP(net.ParseIP("172.32.0.1")))
}

// =============================================================================
// Generic Helpers
// =============================================================================

func TestNonEmpty(t *testing.T) {
	assert.NoError(t, NonEmpty("name", "x"))
	err := NonEmpty("name", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name cannot be empty")
}

func TestInRange(t *testing.T) {
	assert.NoError(t, InRange("days", 5, 1, 10))
	err := InRange("days", 42, 1, 10)
	require.Error(t, err)
	ue, ok := errors.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, "Must be between 1 and 10", ue.Suggestion)
	assert.Equal(t, "42", ue.Value)
}

// =============================================================================
// Sanitize Tests
// =============================================================================

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Ibuprofen", SanitizeName("  Ibuprofen\x00 "))
	assert.Equal(t, "AB", SanitizeName("A\tB"))
}

func TestStripControlChars(t *testing.T) {
	assert.Equal(t, "a\nb\tc", StripControlChars("a\nb\tc\x07"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcd...", TruncateString("abcdefghij", 7))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Equal(t, "Парац...", TruncateString("Парацетамол", 8))
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "alice_meds", SafeFilename("alice/meds"))
	assert.Equal(t, "a_b", SafeFilename(" a:b. "))
	assert.Len(t, SafeFilename(strings.Repeat("x", 300)), 200)
}
