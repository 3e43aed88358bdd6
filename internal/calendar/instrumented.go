package calendar

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/interval"
	"github.com/teemow/calmate/internal/logging"
)

// InstrumentedGateway decorates a Gateway with tracing, metrics and debug
// logging. Every error it returns is an *apperrors.GatewayError.
type InstrumentedGateway struct {
	next    Gateway
	backend string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Instrument wraps next. metrics may be nil.
func Instrument(next Gateway, backend string, metrics *instrumentation.Metrics, logger *slog.Logger) *InstrumentedGateway {
	return &InstrumentedGateway{
		next:    next,
		backend: backend,
		metrics: metrics,
		logger:  logging.WithOperation(logger, "calendar").With(logging.Service(backend)),
	}
}

// Unwrap returns the decorated gateway.
func (g *InstrumentedGateway) Unwrap() Gateway {
	return g.next
}

func (g *InstrumentedGateway) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error) error) {
	ctx, span := instrumentation.StartGatewaySpan(ctx, g.backend, op, attrs...)
	start := time.Now()

	return ctx, func(err error) error {
		duration := time.Since(start)
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			err = apperrors.WrapGateway(op, err)
			g.logger.WarnContext(ctx, "calendar call failed",
				logging.Operation(op),
				slog.Duration(logging.KeyDuration, duration),
				logging.Err(err))
		} else {
			g.logger.DebugContext(ctx, "calendar call completed",
				logging.Operation(op),
				slog.Duration(logging.KeyDuration, duration))
		}
		g.metrics.RecordGatewayOperation(ctx, g.backend, op, status, duration)
		instrumentation.EndSpan(span, err)
		return err
	}
}

func (g *InstrumentedGateway) GetEvents(ctx context.Context, start, end time.Time) ([]Event, error) {
	ctx, done := g.observe(ctx, instrumentation.OperationGetEvents)
	events, err := g.next.GetEvents(ctx, start, end)
	return events, done(err)
}

func (g *InstrumentedGateway) GetEvent(ctx context.Context, id string) (*Event, error) {
	ctx, done := g.observe(ctx, instrumentation.OperationGetEvent,
		attribute.String(instrumentation.SpanAttrEventID, id))
	event, err := g.next.GetEvent(ctx, id)
	return event, done(err)
}

func (g *InstrumentedGateway) CreateEvent(ctx context.Context, draft Draft) (*Event, error) {
	ctx, done := g.observe(ctx, instrumentation.OperationCreateEvent)
	event, err := g.next.CreateEvent(ctx, draft)
	return event, done(err)
}

func (g *InstrumentedGateway) UpdateEvent(ctx context.Context, id string, patch Patch) (*Event, error) {
	ctx, done := g.observe(ctx, instrumentation.OperationUpdateEvent,
		attribute.String(instrumentation.SpanAttrEventID, id))
	event, err := g.next.UpdateEvent(ctx, id, patch)
	return event, done(err)
}

func (g *InstrumentedGateway) DeleteEvent(ctx context.Context, id string) error {
	ctx, done := g.observe(ctx, instrumentation.OperationDeleteEvent,
		attribute.String(instrumentation.SpanAttrEventID, id))
	return done(g.next.DeleteEvent(ctx, id))
}

func (g *InstrumentedGateway) GetFreeBusy(ctx context.Context, start, end time.Time, calendarIDs []string) (map[string][]interval.Interval, error) {
	ctx, done := g.observe(ctx, instrumentation.OperationFreeBusy,
		attribute.Int(instrumentation.SpanAttrCalendars, len(calendarIDs)))
	busy, err := g.next.GetFreeBusy(ctx, start, end, calendarIDs)
	return busy, done(err)
}

func (g *InstrumentedGateway) SearchEvents(ctx context.Context, start, end time.Time, keyword string) ([]Event, error) {
	ctx, done := g.observe(ctx, instrumentation.OperationSearchEvents)
	events, err := g.next.SearchEvents(ctx, start, end, keyword)
	return events, done(err)
}

func (g *InstrumentedGateway) GetCallerIdentity(ctx context.Context) (Identity, error) {
	ctx, done := g.observe(ctx, instrumentation.OperationCallerIdentity)
	identity, err := g.next.GetCallerIdentity(ctx)
	if err == nil {
		g.logger.DebugContext(ctx, "resolved caller identity",
			logging.UserHash(identity.Email),
			logging.Domain(identity.Email))
	}
	return identity, done(err)
}
