package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/config"
	"github.com/teemow/calmate/internal/conversation"
	"github.com/teemow/calmate/internal/google"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/session"
)

// app is the wiring shared by all commands: configuration, the calendar
// gateway and the availability engine.
type app struct {
	cfg        config.Config
	gateway    calendar.Gateway
	engine     *availability.Engine
	classifier calendar.Classifier
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// newLogger returns a text logger on w. Debug output is enabled with --debug.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newApp loads the configuration and connects to the configured calendar.
func newApp(ctx context.Context, metrics *instrumentation.Metrics, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	holidays, err := cfg.HolidayCalendar()
	if err != nil {
		return nil, err
	}

	backend, gw, err := buildGateway(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		gateway:    calendar.Instrument(gw, backend, metrics, logger),
		engine:     availability.NewEngine(holidays, loc, metrics, logger),
		classifier: calendar.NewClassifier(cfg.ResourceDomains...),
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// buildGateway connects to the backend named by the configuration and
// returns its metric label.
func buildGateway(ctx context.Context, cfg config.Config) (string, calendar.Gateway, error) {
	switch cfg.Gateway.Type {
	case config.GatewayCalDAV:
		gw, err := calendar.NewCalDAVGateway(calendar.CalDAVConfig{
			Endpoint:     cfg.Gateway.CalDAV.URL,
			CalendarPath: cfg.Gateway.CalDAV.CalendarPath,
			Username:     cfg.Gateway.CalDAV.Username,
			Password:     cfg.Gateway.CalDAV.Password,
			Email:        cfg.Gateway.CalDAV.Email,
			TimeZone:     cfg.TimeZone,
		})
		if err != nil {
			return "", nil, err
		}
		return instrumentation.BackendCalDAV, gw, nil

	default:
		account := cfg.Gateway.Account
		if account == "" {
			account = google.DefaultAccount
		}
		if err := google.ValidateAccountName(account); err != nil {
			return "", nil, err
		}

		provider := google.NewFileTokenProvider("")
		if !provider.HasTokenForAccount(account) {
			return "", nil, fmt.Errorf("no Google token for account %q, expected %s", account, provider.TokenFilePath(account))
		}

		clientID := getEnvOrFlag(googleClientID, "GOOGLE_CLIENT_ID")
		clientSecret := getEnvOrFlag(googleClientSecret, "GOOGLE_CLIENT_SECRET")
		httpClient, err := google.NewHTTPClient(ctx, google.OAuthConfig(clientID, clientSecret), provider, account)
		if err != nil {
			return "", nil, err
		}

		gw, err := calendar.NewGoogleGateway(ctx, httpClient, cfg.TimeZone)
		if err != nil {
			return "", nil, err
		}
		return instrumentation.BackendGoogle, gw, nil
	}
}

// settings maps the configuration onto dispatcher settings.
func (a *app) settings() assistant.Settings {
	return assistant.Settings{
		Options:         a.cfg.AvailabilityOptions(),
		FlexibleDays:    a.cfg.Search.FlexibleDays,
		RescheduleDays:  a.cfg.Search.RescheduleDays,
		QueryDays:       a.cfg.Search.QueryDays,
		BulkConcurrency: a.cfg.Search.BulkConcurrency,
		Defaults: intent.Defaults{
			DurationMinutes: a.cfg.Defaults.DurationMinutes,
			ReminderMinutes: a.cfg.Defaults.ReminderMinutes,
		},
	}
}

// newDispatcher creates the assistant of one conversation.
func (a *app) newDispatcher() (*assistant.Dispatcher, error) {
	return assistant.New(assistant.Config{
		Gateway:        a.gateway,
		Engine:         a.engine,
		Classifier:     a.classifier,
		Responder:      conversation.StaticResponder{},
		Settings:       a.settings(),
		MaxSuggestions: a.cfg.Defaults.MaxSuggestions,
		Metrics:        a.metrics,
		Logger:         a.logger,
	})
}

// sessionFactory gives every session a Dispatcher over the shared gateway.
func (a *app) sessionFactory() session.Factory {
	return func(id string) (*assistant.Dispatcher, error) {
		d, err := a.newDispatcher()
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", id, err)
		}
		return d, nil
	}
}

func getEnvOrFlag(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}
