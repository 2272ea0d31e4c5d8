package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/medalert/internal/model"
)

func newBufFormatter(format Format) (*Formatter, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Formatter{Writer: &buf, Format: format, ColorMode: ColorNever}, &buf
}

func testMedication(created time.Time, days int) *model.Medication {
	return &model.Medication{
		Key:          "medication:alice:abcdef12-3456",
		Account:      "alice",
		Name:         "Ibuprofen",
		Dose:         "200mg",
		Schedule:     "08:00, 20:00",
		DurationDays: days,
		CreatedAt:    &created,
	}
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
	assert.False(t, f.IsJSON())
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"cli", "json", "plain"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestParseColorMode(t *testing.T) {
	for _, s := range []string{"auto", "always", "never"} {
		c, err := ParseColorMode(s)
		require.NoError(t, err)
		assert.Equal(t, ColorMode(s), c)
	}
	_, err := ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestFormatterIsColorEnabled(t *testing.T) {
	t.Run("always", func(t *testing.T) {
		assert.True(t, (&Formatter{ColorMode: ColorAlways}).IsColorEnabled())
	})

	t.Run("never", func(t *testing.T) {
		assert.False(t, (&Formatter{ColorMode: ColorNever}).IsColorEnabled())
	})

	t.Run("plain_format_disables", func(t *testing.T) {
		assert.False(t, (&Formatter{ColorMode: ColorAlways, Format: FormatPlain}).IsColorEnabled())
	})

	t.Run("auto_non_terminal", func(t *testing.T) {
		var buf bytes.Buffer
		assert.False(t, (&Formatter{Writer: &buf, ColorMode: ColorAuto}).IsColorEnabled())
	})
}

func TestFormatterPrintAndJSON(t *testing.T) {
	f, buf := newBufFormatter(FormatJSON)
	f.Print("a")
	f.Printf("%d", 1)
	f.Println("b")
	assert.Equal(t, "a1b\n", buf.String())

	buf.Reset()
	require.NoError(t, f.JSON(map[string]int{"n": 1}))
	assert.Equal(t, "{\n  \"n\": 1\n}\n", buf.String())
	assert.True(t, f.IsJSON())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{5*time.Minute + 3*time.Second, "5m 3s"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{72 * time.Hour, "3d"},
		{75 * time.Hour, "3d 3h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.in), tt.in.String())
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "Mar 1, 2026", FormatDate(d, time.UTC))
	assert.Equal(t, "Mar 2, 2026", FormatDate(d, time.FixedZone("UTC+2", 7200)))
	assert.Equal(t, "2026-03-01 23:30", FormatTimeShort(d, time.UTC))
}

// =============================================================================
// CLI Formatter Tests
// =============================================================================

func TestCLIMessages(t *testing.T) {
	f, buf := newBufFormatter(FormatCLI)
	c := NewCLIFormatter(f)

	c.Title("Title")
	c.Success("done")
	c.Warning("careful")
	c.Error("broken")
	c.Muted("quiet")

	assert.Equal(t, "Title\n✓ done\n⚠ careful\n✗ broken\nquiet\n", buf.String())
}

func TestMedicationStatus(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := testMedication(created, 5)

	assert.Equal(t, "active until Mar 6, 2026", MedicationStatus(m, created.Add(time.Hour)))
	assert.Equal(t, "finished Mar 6, 2026", MedicationStatus(m, created.AddDate(0, 0, 10)))

	m.CreatedAt = nil
	assert.Equal(t, "unscheduled", MedicationStatus(m, created))
}

func TestCLIPrintMedications(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)

	t.Run("empty", func(t *testing.T) {
		f, buf := newBufFormatter(FormatCLI)
		NewCLIFormatter(f).PrintMedications(nil, now)
		assert.Contains(t, buf.String(), "No medications.")
	})

	t.Run("table", func(t *testing.T) {
		f, buf := newBufFormatter(FormatCLI)
		NewCLIFormatter(f).PrintMedications([]*model.Medication{testMedication(created, 5)}, now)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, lines[0], "STATUS")
		assert.Contains(t, lines[1], "──")
		assert.Contains(t, lines[2], "abcdef")
		assert.Contains(t, lines[2], "08:00, 20:00")
		assert.Contains(t, lines[2], "active until Mar 6, 2026")
	})
}

func TestCLIPrintMedication(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f, buf := newBufFormatter(FormatCLI)
	NewCLIFormatter(f).PrintMedication(testMedication(created, 5), created)

	out := buf.String()
	assert.Contains(t, out, "Ibuprofen (abcdef)")
	assert.Contains(t, out, "Dose:   200mg")
	assert.Contains(t, out, "Days:   5")
	assert.Contains(t, out, "Since:  2026-03-01 09:00")
}

func TestCLIPrintAlerts(t *testing.T) {
	f, buf := newBufFormatter(FormatCLI)
	c := NewCLIFormatter(f)

	c.PrintAlerts(nil)
	assert.Contains(t, buf.String(), "No alerts right now.")

	buf.Reset()
	c.PrintAlerts([]model.AlertEvent{
		{Kind: model.AlertDue, FiredAtMinute: "08:00", Name: "Ibuprofen", Dose: "200mg"},
		{Kind: model.AlertUpcoming, FiredAtMinute: "08:00", Name: "Vitamin D", Dose: "1 drop"},
	})
	assert.Equal(t, "DUE  08:00 Ibuprofen 200mg\nSOON 08:00 Vitamin D 1 drop\n", buf.String())
}

func TestCLIPrintSession(t *testing.T) {
	f, buf := newBufFormatter(FormatCLI)
	c := NewCLIFormatter(f)

	c.PrintSession(nil)
	assert.Contains(t, buf.String(), "Not logged in.")

	buf.Reset()
	c.PrintSession(model.NewSession("alice"))
	assert.Contains(t, buf.String(), "Logged in as alice")
}

func TestCLIPrintWebhooks(t *testing.T) {
	f, buf := newBufFormatter(FormatCLI)
	c := NewCLIFormatter(f)

	c.PrintWebhooks(nil)
	assert.Contains(t, buf.String(), "No webhooks configured.")

	buf.Reset()
	w := model.NewWebhook("main", model.WebhookTypeDiscord, "https://discord.com/api/webhooks/123/secret-token-value")
	w.Enabled = false
	w.LastError = "HTTP 404"
	c.PrintWebhooks([]*model.Webhook{w})
	assert.Contains(t, buf.String(), "discord")
	assert.Contains(t, buf.String(), "***")
	assert.NotContains(t, buf.String(), "secret-token-value")
	assert.Contains(t, buf.String(), "disabled (last error)")
}

func TestPrintTableEmpty(t *testing.T) {
	f, buf := newBufFormatter(FormatCLI)
	NewCLIFormatter(f).PrintTable([]string{"A"}, nil)
	assert.Empty(t, buf.String())
}

func TestCount(t *testing.T) {
	assert.Equal(t, "1 alert", Count(1, "alert", "alerts"))
	assert.Equal(t, "0 alerts", Count(0, "alert", "alerts"))
	assert.Equal(t, "3 alerts", Count(3, "alert", "alerts"))
}

// =============================================================================
// JSON Formatter Tests
// =============================================================================

func TestNewMedicationOutput(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := NewMedicationOutput(testMedication(created, 5), created)

	assert.Equal(t, "abcdef", out.ID)
	assert.Equal(t, []string{"08:00", "20:00"}, out.Times)
	assert.Equal(t, "2026-03-01T09:00:00Z", out.CreatedAt)
	assert.Equal(t, "2026-03-06T09:00:00Z", out.ActiveUntil)
	assert.True(t, out.Active)

	empty := NewMedicationOutput(&model.Medication{Key: "k"}, created)
	assert.Equal(t, []string{}, empty.Times)
	assert.Empty(t, empty.CreatedAt)
	assert.False(t, empty.Active)
}

func TestJSONPrintMedications(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f, buf := newBufFormatter(FormatJSON)

	meds := []*model.Medication{testMedication(created, 5), testMedication(created, 0)}
	require.NoError(t, NewJSONFormatter(f).PrintMedications(meds, created))

	var resp MedicationsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, 1, resp.ActiveCount)
	assert.Len(t, resp.Medications, 2)
}

func TestJSONPrintAlerts(t *testing.T) {
	f, buf := newBufFormatter(FormatJSON)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, NewJSONFormatter(f).PrintAlerts([]model.AlertEvent{
		{RecordKey: "r", Kind: model.AlertDue, FiredAtMinute: "08:00", Name: "A", At: at},
	}))

	var out []AlertOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "due|r|08:00", out[0].Key)
	assert.Equal(t, "2026-03-01T08:00:00Z", out[0].At)

	buf.Reset()
	require.NoError(t, NewJSONFormatter(f).PrintAlerts(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONPrintSession(t *testing.T) {
	f, buf := newBufFormatter(FormatJSON)
	require.NoError(t, NewJSONFormatter(f).PrintSession(nil))
	assert.JSONEq(t, `{"logged_in":false}`, buf.String())

	buf.Reset()
	require.NoError(t, NewJSONFormatter(f).PrintSession(model.NewSession("bob")))
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.True(t, resp.LoggedIn)
	assert.Equal(t, "bob", resp.Account)
}

func TestJSONPrintWebhooks(t *testing.T) {
	f, buf := newBufFormatter(FormatJSON)
	w := model.NewWebhook("main", model.WebhookTypeSlack, "https://hooks.slack.com/services/T000/B000/XXXXXXXXXXXXXXXX")
	require.NoError(t, NewJSONFormatter(f).PrintWebhooks([]*model.Webhook{w}))
	assert.NotContains(t, buf.String(), "XXXXXXXXXXXXXXXX")
	assert.Contains(t, buf.String(), `"enabled": true`)
}

func TestJSONPrintError(t *testing.T) {
	f, buf := newBufFormatter(FormatJSON)
	require.NoError(t, NewJSONFormatter(f).PrintError(errors.New("boom").Error(), "try again"))
	assert.JSONEq(t, `{"status":"error","error":"boom","suggestion":"try again"}`, buf.String())
}
