package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/conversation"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/response"
	"github.com/teemow/calmate/internal/undo"
)

const undoFailedPrefix = "取り消し処理でエラーが発生しました: "

// actionReply labels free-text follow-ups in metrics and traces.
const actionReply = "reply"

// Settings tune search windows and defaults.
type Settings struct {
	// Options are the business hours and working-day rule for every search.
	Options availability.Options
	// FlexibleDays is the window searched when a date and a time are given.
	FlexibleDays int
	// RescheduleDays is the window searched from the day after the event
	// when a move names no destination.
	RescheduleDays int
	// QueryDays is the range listed by a query without a date.
	QueryDays int
	// BulkConcurrency bounds the parallel updates of a bulk response.
	BulkConcurrency int
	// Defaults fill in durations and reminder offsets the request omits.
	Defaults intent.Defaults
}

// DefaultSettings returns the standard search windows.
func DefaultSettings() Settings {
	return Settings{
		Options:         availability.DefaultOptions(),
		FlexibleDays:    7,
		RescheduleDays:  14,
		QueryDays:       7,
		BulkConcurrency: 4,
		Defaults:        intent.StandardDefaults(),
	}
}

// Config holds the collaborators of a Dispatcher.
type Config struct {
	Gateway    calendar.Gateway
	Engine     *availability.Engine
	Classifier calendar.Classifier
	Responder  conversation.Responder
	Settings   Settings
	// MaxSuggestions caps the proposals of a negotiation.
	MaxSuggestions int
	// Clock returns the current time. Defaults to time.Now.
	Clock   func() time.Time
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Dispatcher handles the intents and follow-up utterances of one
// conversation. It owns that conversation's Context and Ledger and must
// not be used by more than one goroutine at a time.
type Dispatcher struct {
	gateway    calendar.Gateway
	engine     *availability.Engine
	classifier calendar.Classifier
	responder  conversation.Responder
	convo      *conversation.Context
	ledger     *undo.Ledger
	settings   Settings
	clock      func() time.Time
	loc        *time.Location
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// New creates a Dispatcher with an idle conversation and an empty ledger.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("assistant: gateway is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("assistant: engine is required")
	}
	if cfg.Responder == nil {
		cfg.Responder = conversation.StaticResponder{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = conversation.DefaultMaxSuggestions
	}
	settings := cfg.Settings
	defaults := DefaultSettings()
	if settings.Options == (availability.Options{}) {
		settings.Options = defaults.Options
	}
	if settings.FlexibleDays <= 0 {
		settings.FlexibleDays = defaults.FlexibleDays
	}
	if settings.RescheduleDays <= 0 {
		settings.RescheduleDays = defaults.RescheduleDays
	}
	if settings.QueryDays <= 0 {
		settings.QueryDays = defaults.QueryDays
	}
	if settings.BulkConcurrency <= 0 {
		settings.BulkConcurrency = defaults.BulkConcurrency
	}
	if settings.Defaults.DurationMinutes <= 0 {
		settings.Defaults.DurationMinutes = defaults.Defaults.DurationMinutes
	}
	if settings.Defaults.ReminderMinutes <= 0 {
		settings.Defaults.ReminderMinutes = defaults.Defaults.ReminderMinutes
	}

	loc := cfg.Engine.Location()
	logger := logging.WithOperation(cfg.Logger, "assistant")
	return &Dispatcher{
		gateway:    cfg.Gateway,
		engine:     cfg.Engine,
		classifier: cfg.Classifier,
		responder:  cfg.Responder,
		convo:      conversation.NewContext(conversation.NewBuilder(loc, cfg.MaxSuggestions), cfg.Metrics),
		ledger:     undo.NewLedger(cfg.Gateway, logger),
		settings:   settings,
		clock:      cfg.Clock,
		loc:        loc,
		metrics:    cfg.Metrics,
		logger:     logger,
	}, nil
}

// Status describes the conversation state.
type Status struct {
	State       conversation.State    `json:"state"`
	CanUndo     bool                  `json:"canUndo"`
	Pending     string                `json:"pending,omitempty"`
	Suggestions []response.Suggestion `json:"suggestions,omitempty"`
}

// Status reports the conversation state and whether undo is possible.
func (d *Dispatcher) Status() Status {
	st := Status{State: d.convo.State(), CanUndo: d.ledger.CanUndo()}
	if n, ok := d.convo.Pending(); ok {
		st.Pending = string(n.Kind)
		st.Suggestions = n.Suggestions()
	}
	return st
}

// HandleJSON decodes a classifier payload and handles it. Decoding
// failures are reported the same way as handler failures.
func (d *Dispatcher) HandleJSON(ctx context.Context, data []byte) response.Result {
	in, err := intent.ParseWith(data, d.loc, d.settings.Defaults)
	if err != nil {
		d.logger.Debug("Rejected intent payload", logging.Err(err))
		return response.FromError(err)
	}
	return d.Handle(ctx, in)
}

// Handle runs the handler for in and returns exactly one result.
func (d *Dispatcher) Handle(ctx context.Context, in intent.Intent) response.Result {
	return d.run(ctx, string(in.Action()), func(ctx context.Context) (response.Result, error) {
		return d.dispatch(ctx, in)
	})
}

func (d *Dispatcher) run(ctx context.Context, action string, handler func(context.Context) (response.Result, error)) response.Result {
	ctx, span := instrumentation.StartSpan(ctx, "assistant.dispatch",
		attribute.String(instrumentation.SpanAttrAction, action),
	)
	start := time.Now()

	res, err := handler(ctx)
	if err != nil {
		res = response.FromError(err)
	}

	span.SetAttributes(attribute.String(instrumentation.SpanAttrResult, string(res.Type)))
	instrumentation.EndSpan(span, gatewayFailure(err))
	d.metrics.RecordIntent(ctx, action, string(res.Type), time.Since(start))

	logger := d.logger.With(logging.Action(action))
	switch {
	case err == nil:
		logger.Debug("Handled intent", slog.String("result", string(res.Type)))
	case apperrors.IsGateway(err):
		logger.Warn("Intent failed", logging.Err(err))
	default:
		logger.Debug("Intent not applied", logging.Err(err))
	}
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, in intent.Intent) (response.Result, error) {
	switch in := in.(type) {
	case intent.Move:
		return d.move(ctx, in)
	case intent.Create:
		return d.create(ctx, in)
	case intent.Query:
		return d.query(ctx, in)
	case intent.Delete:
		return d.delete(ctx, in)
	case intent.Update:
		return d.update(ctx, in)
	case intent.Respond:
		return d.respond(ctx, in)
	case intent.BulkRespond:
		return d.bulkRespond(ctx, in)
	case intent.AddAttendees:
		return d.addAttendees(ctx, in)
	case intent.RemoveAttendees:
		return d.removeAttendees(ctx, in)
	case intent.SetReminder:
		return d.setReminder(ctx, in)
	case intent.CreateRecurring:
		return d.createRecurring(ctx, in)
	case intent.Confirm:
		if d.convo.State() == conversation.StateIdle {
			return response.Result{}, apperrors.NewStateError("no pending negotiation", conversation.MsgNoPending)
		}
		return d.reply(ctx, in.UserResponse)
	case intent.Other:
		return d.delegate(ctx, in.Message)
	default:
		return response.Result{}, fmt.Errorf("unsupported intent %T", in)
	}
}

// Reply handles a free-text follow-up. While a negotiation is open the
// utterance is resolved against it; otherwise it goes to the Responder.
func (d *Dispatcher) Reply(ctx context.Context, utterance string) response.Result {
	return d.run(ctx, actionReply, func(ctx context.Context) (response.Result, error) {
		if d.convo.State() == conversation.StateIdle {
			return d.delegate(ctx, utterance)
		}
		return d.reply(ctx, utterance)
	})
}

// Undo reverses the most recent create, move or delete.
func (d *Dispatcher) Undo(ctx context.Context) response.Result {
	msg, err := d.ledger.Undo(ctx)
	if err != nil {
		if text, ok := apperrors.UserMessage(err); ok {
			return response.Message(text)
		}
		d.logger.Warn("Undo failed", logging.Err(err))
		return response.Error(undoFailedPrefix + err.Error())
	}
	res := response.Success(msg)
	res.Undone = true
	return res
}

// FindFreeSlots searches [start, end) for free slots of durationMinutes
// shared by the caller and attendees.
func (d *Dispatcher) FindFreeSlots(ctx context.Context, start, end time.Time, durationMinutes int, attendees []string) ([]availability.FreeSlot, error) {
	return d.searchSlots(ctx, start, end, durationMinutes, d.settings.Options, attendees)
}

// Location returns the time zone dates are interpreted in.
func (d *Dispatcher) Location() *time.Location {
	return d.loc
}

// DefaultDuration returns the meeting length used when none is given.
func (d *Dispatcher) DefaultDuration() int {
	return d.settings.Defaults.DurationMinutes
}

func (d *Dispatcher) delegate(ctx context.Context, utterance string) (response.Result, error) {
	text, err := d.responder.Respond(ctx, utterance)
	if err != nil {
		return response.Result{}, fmt.Errorf("responder: %w", err)
	}
	return response.Message(text), nil
}

func (d *Dispatcher) options(includeHolidays bool) availability.Options {
	opts := d.settings.Options
	if includeHolidays {
		opts.ExcludeNonWorkingDays = false
	}
	return opts
}

// searchSlots runs a single-calendar search over the primary calendar's
// events, or a multi-calendar search over free/busy data when attendees
// are given.
func (d *Dispatcher) searchSlots(ctx context.Context, start, end time.Time, durationMinutes int, opts availability.Options, attendees []string) ([]availability.FreeSlot, error) {
	if len(attendees) == 0 {
		events, err := d.gateway.GetEvents(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return d.engine.FindFreeSlots(ctx, start, end, durationMinutes, opts, calendar.BusySpans(events))
	}
	ids := append([]string{availability.PrimaryCalendarID}, attendees...)
	busy, err := d.gateway.GetFreeBusy(ctx, start, end, ids)
	if err != nil {
		return nil, err
	}
	return d.engine.FindFreeSlotsAcrossCalendars(ctx, start, end, durationMinutes, attendees, opts, calendar.FreeBusySpans(busy))
}

func (d *Dispatcher) startOfDay(t time.Time) time.Time {
	y, m, day := t.In(d.loc).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.loc)
}

func gatewayFailure(err error) error {
	if apperrors.IsGateway(err) {
		return err
	}
	return nil
}
