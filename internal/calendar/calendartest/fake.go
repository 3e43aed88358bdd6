// Package calendartest provides an in-memory calendar.Gateway for tests.
package calendartest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/interval"
)

// Operation names accepted by FailOn.
const (
	OpGetEvents    = "GetEvents"
	OpGetEvent     = "GetEvent"
	OpCreateEvent  = "CreateEvent"
	OpUpdateEvent  = "UpdateEvent"
	OpDeleteEvent  = "DeleteEvent"
	OpGetFreeBusy  = "GetFreeBusy"
	OpSearchEvents = "SearchEvents"
	OpIdentity     = "GetCallerIdentity"
)

// ErrInjected is returned by operations configured with FailOn.
var ErrInjected = errors.New("injected failure")

// ErrNotFound is returned for unknown event ids.
var ErrNotFound = errors.New("event not found")

// Call records one gateway invocation.
type Call struct {
	Op string
	ID string
}

// Gateway is an in-memory calendar.Gateway. Events are kept in insertion
// order and ids are assigned as evt-1, evt-2, ...
type Gateway struct {
	mu       sync.Mutex
	loc      *time.Location
	events   []calendar.Event
	nextID   int
	failures map[string]error
	calls    []Call
	// FreeBusy holds busy intervals for calendars other than primary.
	FreeBusy map[string][]interval.Interval
	Identity calendar.Identity
}

// New creates an empty gateway resolving all-day dates in loc.
func New(loc *time.Location) *Gateway {
	if loc == nil {
		loc = time.UTC
	}
	return &Gateway{
		loc:      loc,
		failures: make(map[string]error),
		FreeBusy: make(map[string][]interval.Interval),
		Identity: calendar.Identity{Email: "me@example.com", TimeZone: loc.String()},
	}
}

// Add stores e as-is, assigning an id when empty, and returns the id.
func (g *Gateway) Add(e calendar.Event) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e.ID == "" {
		e.ID = g.newID()
	}
	if e.Status == "" {
		e.Status = "confirmed"
	}
	g.events = append(g.events, e)
	return e.ID
}

// AddTimed stores a timed event and returns its id.
func (g *Gateway) AddTimed(summary string, start, end time.Time, attendees ...calendar.Attendee) string {
	return g.Add(calendar.Event{
		Summary:   summary,
		Start:     calendar.At(start),
		End:       calendar.At(end),
		Attendees: attendees,
	})
}

// Event returns a copy of the stored event.
func (g *Gateway) Event(id string) (calendar.Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.index(id)
	if i < 0 {
		return calendar.Event{}, false
	}
	return g.events[i], true
}

// Events returns copies of all stored events.
func (g *Gateway) Events() []calendar.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.events)
}

// FailOn makes op fail for id. An empty id fails every call of op.
func (g *Gateway) FailOn(op, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op+"|"+id] = fmt.Errorf("%s %s: %w", op, id, ErrInjected)
}

// Calls returns the recorded invocations.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.calls)
}

// CallCount returns how many times op was invoked.
func (g *Gateway) CallCount(op string) int {
	n := 0
	for _, c := range g.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (g *Gateway) GetEvents(_ context.Context, start, end time.Time) ([]calendar.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(OpGetEvents, ""); err != nil {
		return nil, err
	}
	return g.between(start, end, ""), nil
}

func (g *Gateway) SearchEvents(_ context.Context, start, end time.Time, keyword string) ([]calendar.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(OpSearchEvents, ""); err != nil {
		return nil, err
	}
	return g.between(start, end, keyword), nil
}

func (g *Gateway) GetEvent(_ context.Context, id string) (*calendar.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(OpGetEvent, id); err != nil {
		return nil, err
	}
	i := g.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	e := g.events[i]
	return &e, nil
}

func (g *Gateway) CreateEvent(_ context.Context, draft calendar.Draft) (*calendar.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(OpCreateEvent, ""); err != nil {
		return nil, err
	}
	e := calendar.Event{
		ID:                  g.newID(),
		Summary:             draft.Summary,
		Description:         draft.Description,
		Location:            draft.Location,
		Status:              "confirmed",
		Start:               draft.Start,
		End:                 draft.End,
		Attendees:           slices.Clone(draft.Attendees),
		Recurrence:          slices.Clone(draft.Recurrence),
		UseDefaultReminders: true,
	}
	g.events = append(g.events, e)
	return &e, nil
}

func (g *Gateway) UpdateEvent(_ context.Context, id string, patch calendar.Patch) (*calendar.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(OpUpdateEvent, id); err != nil {
		return nil, err
	}
	i := g.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	g.events[i] = patch.Apply(g.events[i])
	e := g.events[i]
	return &e, nil
}

func (g *Gateway) DeleteEvent(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(OpDeleteEvent, id); err != nil {
		return err
	}
	i := g.index(id)
	if i < 0 {
		return ErrNotFound
	}
	g.events = slices.Delete(g.events, i, i+1)
	return nil
}

// GetFreeBusy reports timed events as busy time for "primary" and the
// identity's email, and FreeBusy entries for everything else.
func (g *Gateway) GetFreeBusy(_ context.Context, start, end time.Time, calendarIDs []string) (map[string][]interval.Interval, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(OpGetFreeBusy, ""); err != nil {
		return nil, err
	}
	window := interval.Interval{Start: start, End: end}
	out := make(map[string][]interval.Interval, len(calendarIDs))
	for _, id := range calendarIDs {
		if id == "primary" || strings.EqualFold(id, g.Identity.Email) {
			var busy []interval.Interval
			for _, e := range g.between(start, end, "") {
				if !e.IsAllDay() {
					busy = append(busy, interval.Interval{Start: e.Start.DateTime, End: e.End.DateTime})
				}
			}
			out[id] = busy
			continue
		}
		if spans, ok := g.FreeBusy[id]; ok {
			out[id] = interval.Clip(spans, window)
		}
	}
	return out, nil
}

func (g *Gateway) GetCallerIdentity(_ context.Context) (calendar.Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(OpIdentity, ""); err != nil {
		return calendar.Identity{}, err
	}
	return g.Identity, nil
}

func (g *Gateway) record(op, id string) error {
	g.calls = append(g.calls, Call{Op: op, ID: id})
	if err, ok := g.failures[op+"|"+id]; ok {
		return err
	}
	if err, ok := g.failures[op+"|"]; ok {
		return err
	}
	return nil
}

func (g *Gateway) newID() string {
	g.nextID++
	return fmt.Sprintf("evt-%d", g.nextID)
}

func (g *Gateway) index(id string) int {
	return slices.IndexFunc(g.events, func(e calendar.Event) bool { return e.ID == id })
}

func (g *Gateway) between(start, end time.Time, keyword string) []calendar.Event {
	needle := strings.ToLower(keyword)
	var out []calendar.Event
	for _, e := range g.events {
		s, en := e.Start.In(g.loc), e.End.In(g.loc)
		if e.IsAllDay() && !en.After(s) {
			en = s.AddDate(0, 0, 1)
		}
		if !s.Before(end) || !en.After(start) {
			continue
		}
		if needle != "" {
			text := strings.ToLower(e.Summary + "\n" + e.Description + "\n" + e.Location)
			if !strings.Contains(text, needle) {
				continue
			}
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b calendar.Event) int {
		return a.Start.In(g.loc).Compare(b.Start.In(g.loc))
	})
	return out
}
