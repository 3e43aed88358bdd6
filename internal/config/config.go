// Package config loads calmate's settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/holiday"
)

// Gateway types.
const (
	GatewayGoogle = "google"
	GatewayCalDAV = "caldav"
)

// Environment variables that override file settings.
const (
	EnvTimeZone           = "CALMATE_TIMEZONE"
	EnvGateway            = "CALMATE_GATEWAY"
	EnvAccount            = "CALMATE_ACCOUNT"
	EnvCalDAVURL          = "CALMATE_CALDAV_URL"
	EnvCalDAVUsername     = "CALMATE_CALDAV_USERNAME"
	EnvCalDAVPassword     = "CALMATE_CALDAV_PASSWORD"
	EnvCalDAVEmail        = "CALMATE_CALDAV_EMAIL"
	EnvBusinessHoursStart = "CALMATE_BUSINESS_HOURS_START"
	EnvBusinessHoursEnd   = "CALMATE_BUSINESS_HOURS_END"
)

// Config is the complete configuration.
type Config struct {
	TimeZone              string              `toml:"timezone"`
	BusinessHours         BusinessHours       `toml:"business_hours"`
	ExcludeNonWorkingDays bool                `toml:"exclude_non_working_days"`
	ResourceDomains       []string            `toml:"resource_domains"`
	Holidays              map[string][]string `toml:"holidays"`
	Defaults              Defaults            `toml:"defaults"`
	Search                Search              `toml:"search"`
	Gateway               Gateway             `toml:"gateway"`
	Session               Session             `toml:"session"`
}

// BusinessHours are hours of the day in TimeZone.
type BusinessHours struct {
	Start int `toml:"start"`
	End   int `toml:"end"`
}

// Defaults fill in values a request omits.
type Defaults struct {
	DurationMinutes int `toml:"duration_minutes"`
	ReminderMinutes int `toml:"reminder_minutes"`
	MaxSuggestions  int `toml:"max_suggestions"`
}

// Search sizes the windows searched for free slots and listed by queries.
type Search struct {
	FlexibleDays    int `toml:"flexible_days"`
	RescheduleDays  int `toml:"reschedule_days"`
	QueryDays       int `toml:"query_days"`
	BulkConcurrency int `toml:"bulk_concurrency"`
}

// Gateway selects the calendar backend.
type Gateway struct {
	Type string `toml:"type"`
	// Account names the stored Google token.
	Account string `toml:"account"`
	CalDAV  CalDAV `toml:"caldav"`
}

// CalDAV configures the CalDAV backend.
type CalDAV struct {
	URL          string `toml:"url"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	CalendarPath string `toml:"calendar_path"`
	// Email is the owner's address, used to find their attendee entry.
	Email string `toml:"email"`
}

// Session configures conversation lifetime.
type Session struct {
	TimeoutMinutes int `toml:"timeout_minutes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TimeZone:              "Asia/Tokyo",
		BusinessHours:         BusinessHours{Start: 9, End: 18},
		ExcludeNonWorkingDays: true,
		ResourceDomains:       []string{calendar.DefaultResourceDomain},
		Defaults: Defaults{
			DurationMinutes: 60,
			ReminderMinutes: 30,
			MaxSuggestions:  3,
		},
		Search: Search{
			FlexibleDays:    7,
			RescheduleDays:  14,
			QueryDays:       7,
			BulkConcurrency: 4,
		},
		Gateway: Gateway{Type: GatewayGoogle, Account: "default"},
		Session: Session{TimeoutMinutes: 30},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/calmate/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "calmate", "config.toml")
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path selects DefaultPath;
// a missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates it. Environment
// variables are not consulted.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.TimeZone = getEnvOrDefault(EnvTimeZone, c.TimeZone)
	c.Gateway.Type = getEnvOrDefault(EnvGateway, c.Gateway.Type)
	c.Gateway.Account = getEnvOrDefault(EnvAccount, c.Gateway.Account)
	c.Gateway.CalDAV.URL = getEnvOrDefault(EnvCalDAVURL, c.Gateway.CalDAV.URL)
	c.Gateway.CalDAV.Username = getEnvOrDefault(EnvCalDAVUsername, c.Gateway.CalDAV.Username)
	c.Gateway.CalDAV.Password = getEnvOrDefault(EnvCalDAVPassword, c.Gateway.CalDAV.Password)
	c.Gateway.CalDAV.Email = getEnvOrDefault(EnvCalDAVEmail, c.Gateway.CalDAV.Email)

	var err error
	if c.BusinessHours.Start, err = getEnvIntOrDefault(EnvBusinessHoursStart, c.BusinessHours.Start); err != nil {
		return err
	}
	if c.BusinessHours.End, err = getEnvIntOrDefault(EnvBusinessHoursEnd, c.BusinessHours.End); err != nil {
		return err
	}
	return nil
}

// Validate checks ranges, names and holiday dates.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}

	bh := c.BusinessHours
	if bh.Start < 0 || bh.End > 24 || bh.Start >= bh.End {
		return fmt.Errorf("invalid business hours %d-%d, must satisfy 0 <= start < end <= 24", bh.Start, bh.End)
	}

	switch c.Gateway.Type {
	case GatewayGoogle:
	case GatewayCalDAV:
		if c.Gateway.CalDAV.URL == "" {
			return fmt.Errorf("gateway.caldav.url is required for the caldav gateway")
		}
	default:
		return fmt.Errorf("invalid gateway type %q, must be one of: %s, %s", c.Gateway.Type, GatewayGoogle, GatewayCalDAV)
	}

	for _, v := range []struct {
		name  string
		value int
	}{
		{"defaults.duration_minutes", c.Defaults.DurationMinutes},
		{"defaults.reminder_minutes", c.Defaults.ReminderMinutes},
		{"defaults.max_suggestions", c.Defaults.MaxSuggestions},
		{"search.flexible_days", c.Search.FlexibleDays},
		{"search.reschedule_days", c.Search.RescheduleDays},
		{"search.query_days", c.Search.QueryDays},
		{"search.bulk_concurrency", c.Search.BulkConcurrency},
		{"session.timeout_minutes", c.Session.TimeoutMinutes},
	} {
		if v.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", v.name, v.value)
		}
	}

	if _, err := c.HolidayCalendar(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured time zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// HolidayCalendar returns the built-in Japanese calendar with the
// configured years replacing the built-in tables.
func (c Config) HolidayCalendar() (*holiday.Calendar, error) {
	cal := holiday.NewJapan()

	years := make([]string, 0, len(c.Holidays))
	for year := range c.Holidays {
		years = append(years, year)
	}
	slices.Sort(years)

	for _, y := range years {
		year, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return nil, fmt.Errorf("invalid holiday year %q: %w", y, err)
		}
		if err := cal.SetYear(year, c.Holidays[y]); err != nil {
			return nil, fmt.Errorf("invalid holidays for %d: %w", year, err)
		}
	}
	return cal, nil
}

// AvailabilityOptions returns the business hours and working-day rule.
func (c Config) AvailabilityOptions() availability.Options {
	return availability.Options{
		BusinessHoursStart:    c.BusinessHours.Start,
		BusinessHoursEnd:      c.BusinessHours.End,
		ExcludeNonWorkingDays: c.ExcludeNonWorkingDays,
	}
}

// SessionTimeout returns the idle lifetime of a conversation.
func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutMinutes) * time.Minute
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}
