package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/availability"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, availability.DefaultOptions(), cfg.AvailabilityOptions())
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, GatewayGoogle, cfg.Gateway.Type)
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
timezone = "Europe/Berlin"
exclude_non_working_days = false
resource_domains = ["rooms.example.com"]

[business_hours]
start = 8
end = 17

[holidays]
2028 = ["2028-01-01", "2028-01-10"]

[defaults]
duration_minutes = 30

[gateway]
type = "caldav"

[gateway.caldav]
url = "https://dav.example.com"
username = "alice"
calendar_path = "/calendars/alice/work/"
`)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.TimeZone)
	assert.Equal(t, availability.Options{BusinessHoursStart: 8, BusinessHoursEnd: 17}, cfg.AvailabilityOptions())
	assert.Equal(t, []string{"rooms.example.com"}, cfg.ResourceDomains)
	assert.Equal(t, 30, cfg.Defaults.DurationMinutes)
	assert.Equal(t, 30, cfg.Defaults.ReminderMinutes, "unset keys keep their defaults")
	assert.Equal(t, "alice", cfg.Gateway.CalDAV.Username)

	cal, err := cfg.HolidayCalendar()
	require.NoError(t, err)
	assert.True(t, cal.IsHoliday(time.Date(2028, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, cal.IsWorkingDay(time.Date(2028, 1, 10, 0, 0, 0, 0, time.UTC)))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown timezone", func(c *Config) { c.TimeZone = "Mars/Olympus" }, "invalid timezone"},
		{"start after end", func(c *Config) { c.BusinessHours = BusinessHours{Start: 18, End: 9} }, "invalid business hours"},
		{"end past midnight", func(c *Config) { c.BusinessHours.End = 25 }, "invalid business hours"},
		{"unknown gateway", func(c *Config) { c.Gateway.Type = "exchange" }, "invalid gateway type"},
		{"caldav without url", func(c *Config) { c.Gateway.Type = GatewayCalDAV }, "gateway.caldav.url"},
		{"zero suggestions", func(c *Config) { c.Defaults.MaxSuggestions = 0 }, "defaults.max_suggestions"},
		{"bad holiday year", func(c *Config) { c.Holidays = map[string][]string{"next": {"2028-01-01"}} }, "invalid holiday year"},
		{"malformed holiday", func(c *Config) { c.Holidays = map[string][]string{"2028": {"01/01/2028"}} }, "invalid holidays for 2028"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().TimeZone, cfg.TimeZone)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("timezone = \"UTC\"\n"), 0o600))

	t.Setenv(EnvTimeZone, "Asia/Tokyo")
	t.Setenv(EnvBusinessHoursStart, "10")
	t.Setenv(EnvGateway, GatewayCalDAV)
	t.Setenv(EnvCalDAVURL, "https://dav.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", cfg.TimeZone)
	assert.Equal(t, 10, cfg.BusinessHours.Start)
	assert.Equal(t, GatewayCalDAV, cfg.Gateway.Type)
	assert.Equal(t, "https://dav.example.com", cfg.Gateway.CalDAV.URL)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("timezone = "), 0o600))
	_, err := Load(broken)
	assert.ErrorContains(t, err, "failed to read config")

	t.Setenv(EnvBusinessHoursEnd, "late")
	_, err = Load(filepath.Join(dir, "absent.toml"))
	assert.ErrorContains(t, err, EnvBusinessHoursEnd)
}
