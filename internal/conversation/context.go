package conversation

import (
	"context"
	"time"

	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/response"
)

// State is the state of a Context.
type State string

// States.
const (
	StateIdle              State = "idle"
	StateAwaitingSelection State = "awaiting_selection"
)

// Kind is what a negotiation commits to.
type Kind string

// Negotiation kinds.
const (
	KindMove   Kind = "move"
	KindCreate Kind = "create"
)

// Proposal is one proposed start time.
type Proposal struct {
	Start      time.Time
	End        time.Time
	Suggestion response.Suggestion
}

// Negotiation is a pending choice between proposed slots.
type Negotiation struct {
	Kind Kind
	// Event is the event being moved. Nil for create.
	Event *calendar.Event
	// Title of the event to create.
	Title           string
	DurationMinutes int
	// PreferTime is the time of day the user asked for, if any.
	PreferTime *intent.Clock
	// Pool holds every free slot found, for later refinement.
	Pool     []availability.FreeSlot
	Proposed []Proposal
	// HumanAttendees and ResourceAttendees partition the moved event's
	// attendees.
	HumanAttendees    []string
	ResourceAttendees []string
}

// Suggestions returns the proposals as presented to the user.
func (n *Negotiation) Suggestions() []response.Suggestion {
	out := make([]response.Suggestion, len(n.Proposed))
	for i, p := range n.Proposed {
		out[i] = p.Suggestion
	}
	return out
}

// EventView describes the moved event, or nil for create negotiations.
func (n *Negotiation) EventView() *response.EventView {
	if n.Event == nil {
		return nil
	}
	view := &response.EventView{
		Summary:        n.Event.Summary,
		Attendees:      n.Event.AttendeeEmails(),
		HumanAttendees: n.HumanAttendees,
		RoomResources:  n.ResourceAttendees,
	}
	if n.Event.IsAllDay() {
		view.Start = n.Event.Start.Date
	} else {
		view.Start = n.Event.Start.DateTime.Format(time.RFC3339)
	}
	return view
}

// Context holds at most one pending negotiation for a session. It is not
// safe for concurrent use.
type Context struct {
	builder *Builder
	metrics *instrumentation.Metrics
	pending *Negotiation
}

// NewContext creates an idle context.
func NewContext(builder *Builder, metrics *instrumentation.Metrics) *Context {
	return &Context{builder: builder, metrics: metrics}
}

// State returns the current state.
func (c *Context) State() State {
	if c.pending == nil {
		return StateIdle
	}
	return StateAwaitingSelection
}

// Pending returns the open negotiation.
func (c *Context) Pending() (*Negotiation, bool) {
	return c.pending, c.pending != nil
}

// Open computes proposals from n.Pool and makes n the pending negotiation,
// silently replacing any negotiation already open. It returns the stored
// negotiation.
func (c *Context) Open(ctx context.Context, n Negotiation) *Negotiation {
	if c.pending != nil {
		c.metrics.RecordNegotiation(ctx, string(c.pending.Kind), instrumentation.NegotiationReplaced)
	}
	n.Proposed = c.builder.Build(n.Pool, n.DurationMinutes, n.PreferTime)
	c.pending = &n
	c.metrics.RecordNegotiation(ctx, string(n.Kind), instrumentation.NegotiationOpened)
	return c.pending
}

// Commit clears the negotiation after its selection was applied.
func (c *Context) Commit(ctx context.Context) {
	if c.pending != nil {
		c.metrics.RecordNegotiation(ctx, string(c.pending.Kind), instrumentation.NegotiationCommitted)
	}
	c.pending = nil
}

// Clear drops the negotiation without recording an outcome.
func (c *Context) Clear() {
	c.pending = nil
}

// Location returns the location proposals are formatted in.
func (c *Context) Location() *time.Location {
	return c.builder.loc
}

// Message renders the proposals of n as numbered lines.
func (c *Context) Message(n *Negotiation) string {
	return c.builder.Message(n)
}
