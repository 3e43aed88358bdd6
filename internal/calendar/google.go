package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calmate/internal/interval"
)

const primaryCalendar = "primary"

// GoogleGateway implements Gateway on the Google Calendar API, acting on the
// authenticated user's primary calendar.
type GoogleGateway struct {
	svc      *gcal.Service
	timeZone string
}

// NewGoogleGateway creates a gateway from an authenticated HTTP client.
// timeZone is sent with timed start and end values.
func NewGoogleGateway(ctx context.Context, httpClient *http.Client, timeZone string) (*GoogleGateway, error) {
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return NewGoogleGatewayFromService(svc, timeZone), nil
}

// NewGoogleGatewayFromService wraps an existing Calendar service.
func NewGoogleGatewayFromService(svc *gcal.Service, timeZone string) *GoogleGateway {
	return &GoogleGateway{svc: svc, timeZone: timeZone}
}

// GetEvents lists single event instances overlapping [start, end).
func (g *GoogleGateway) GetEvents(ctx context.Context, start, end time.Time) ([]Event, error) {
	return g.list(ctx, start, end, "")
}

// SearchEvents lists events in [start, end) matching keyword in any text field.
func (g *GoogleGateway) SearchEvents(ctx context.Context, start, end time.Time, keyword string) ([]Event, error) {
	return g.list(ctx, start, end, keyword)
}

func (g *GoogleGateway) list(ctx context.Context, start, end time.Time, query string) ([]Event, error) {
	call := g.svc.Events.List(primaryCalendar).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	if query != "" {
		call = call.Q(query)
	}

	var events []Event
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			events = append(events, fromGoogleEvent(item))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves a specific event by ID.
func (g *GoogleGateway) GetEvent(ctx context.Context, id string) (*Event, error) {
	item, err := g.svc.Events.Get(primaryCalendar, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	event := fromGoogleEvent(item)
	return &event, nil
}

// CreateEvent inserts a new event.
func (g *GoogleGateway) CreateEvent(ctx context.Context, draft Draft) (*Event, error) {
	item := &gcal.Event{
		Summary:     draft.Summary,
		Description: draft.Description,
		Location:    draft.Location,
		Start:       toGoogleTime(draft.Start, g.timeZone),
		End:         toGoogleTime(draft.End, g.timeZone),
		Attendees:   toGoogleAttendees(draft.Attendees),
		Recurrence:  draft.Recurrence,
	}

	created, err := g.svc.Events.Insert(primaryCalendar, item).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	event := fromGoogleEvent(created)
	return &event, nil
}

// UpdateEvent applies a partial update with PATCH semantics.
func (g *GoogleGateway) UpdateEvent(ctx context.Context, id string, patch Patch) (*Event, error) {
	call := g.svc.Events.Patch(primaryCalendar, id, toGooglePatch(patch, g.timeZone)).Context(ctx)
	if patch.SendUpdates != "" {
		call = call.SendUpdates(patch.SendUpdates)
	}

	updated, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to patch event: %w", err)
	}
	event := fromGoogleEvent(updated)
	return &event, nil
}

// DeleteEvent deletes a calendar event.
func (g *GoogleGateway) DeleteEvent(ctx context.Context, id string) error {
	if err := g.svc.Events.Delete(primaryCalendar, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// GetFreeBusy queries busy intervals for the given calendars. Calendars the
// API reports errors for (not found, no access) are omitted.
func (g *GoogleGateway) GetFreeBusy(ctx context.Context, start, end time.Time, calendarIDs []string) (map[string][]interval.Interval, error) {
	items := make([]*gcal.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &gcal.FreeBusyRequestItem{Id: id}
	}

	result, err := g.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	return fromFreeBusy(result), nil
}

// GetCallerIdentity returns the primary calendar id (the user's email) and
// the user's calendar time zone setting.
func (g *GoogleGateway) GetCallerIdentity(ctx context.Context) (Identity, error) {
	entry, err := g.svc.CalendarList.Get(primaryCalendar).Context(ctx).Do()
	if err != nil {
		return Identity{}, fmt.Errorf("failed to get primary calendar: %w", err)
	}

	identity := Identity{Email: entry.Id, TimeZone: entry.TimeZone}
	if setting, err := g.svc.Settings.Get("timezone").Context(ctx).Do(); err == nil && setting.Value != "" {
		identity.TimeZone = setting.Value
	}
	return identity, nil
}

func fromFreeBusy(result *gcal.FreeBusyResponse) map[string][]interval.Interval {
	busy := make(map[string][]interval.Interval, len(result.Calendars))
	for id, cal := range result.Calendars {
		if len(cal.Errors) > 0 {
			continue
		}
		var spans []interval.Interval
		for _, period := range cal.Busy {
			start, err1 := time.Parse(time.RFC3339, period.Start)
			end, err2 := time.Parse(time.RFC3339, period.End)
			if err1 != nil || err2 != nil {
				continue
			}
			if iv, err := interval.New(start, end); err == nil {
				spans = append(spans, iv)
			}
		}
		busy[id] = spans
	}
	return busy
}

func fromGoogleTime(t *gcal.EventDateTime) EventTime {
	if t == nil {
		return EventTime{}
	}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return EventTime{DateTime: parsed, TimeZone: t.TimeZone}
		}
	}
	return EventTime{Date: t.Date, TimeZone: t.TimeZone}
}

func toGoogleTime(t EventTime, timeZone string) *gcal.EventDateTime {
	if t.IsAllDay() {
		return &gcal.EventDateTime{Date: t.Date}
	}
	tz := t.TimeZone
	if tz == "" {
		tz = timeZone
	}
	return &gcal.EventDateTime{
		DateTime: t.DateTime.Format(time.RFC3339),
		TimeZone: tz,
	}
}

// toGooglePatchTime nulls the other form of the time. PATCH merges nested
// objects, so switching between all-day and timed would otherwise send
// both date and dateTime.
func toGooglePatchTime(t EventTime, timeZone string) *gcal.EventDateTime {
	dt := toGoogleTime(t, timeZone)
	if t.IsAllDay() {
		dt.NullFields = []string{"DateTime", "TimeZone"}
	} else {
		dt.NullFields = []string{"Date"}
	}
	return dt
}

func fromGoogleEvent(item *gcal.Event) Event {
	if item == nil {
		return Event{}
	}

	event := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		Start:       fromGoogleTime(item.Start),
		End:         fromGoogleTime(item.End),
		Recurrence:  item.Recurrence,
	}

	for _, att := range item.Attendees {
		event.Attendees = append(event.Attendees, Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
			Organizer:      att.Organizer,
			Resource:       att.Resource,
			Self:           att.Self,
		})
	}

	if item.Reminders != nil {
		event.UseDefaultReminders = item.Reminders.UseDefault
		for _, r := range item.Reminders.Overrides {
			event.Reminders = append(event.Reminders, Reminder{Method: r.Method, Minutes: int(r.Minutes)})
		}
	}

	return event
}

func toGoogleAttendees(attendees []Attendee) []*gcal.EventAttendee {
	if len(attendees) == 0 {
		return nil
	}
	out := make([]*gcal.EventAttendee, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, &gcal.EventAttendee{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			ResponseStatus: a.ResponseStatus,
			Optional:       a.Optional,
			Resource:       a.Resource,
		})
	}
	return out
}

// toGooglePatch builds the request body for Events.Patch. Empty values the
// caller set explicitly are forced into the JSON body so they clear the field.
func toGooglePatch(p Patch, timeZone string) *gcal.Event {
	item := &gcal.Event{}
	var force []string

	if p.Summary != nil {
		item.Summary = *p.Summary
		force = append(force, "Summary")
	}
	if p.Description != nil {
		item.Description = *p.Description
		force = append(force, "Description")
	}
	if p.Location != nil {
		item.Location = *p.Location
		force = append(force, "Location")
	}
	if p.Start != nil {
		item.Start = toGooglePatchTime(*p.Start, timeZone)
	}
	if p.End != nil {
		item.End = toGooglePatchTime(*p.End, timeZone)
	}
	if p.Attendees != nil {
		item.Attendees = toGoogleAttendees(*p.Attendees)
		if item.Attendees == nil {
			item.Attendees = []*gcal.EventAttendee{}
		}
		force = append(force, "Attendees")
	}
	if p.Reminders != nil {
		overrides := make([]*gcal.EventReminder, 0, len(*p.Reminders))
		for _, r := range *p.Reminders {
			method := r.Method
			if method == "" {
				method = ReminderPopup
			}
			overrides = append(overrides, &gcal.EventReminder{
				Method:          method,
				Minutes:         int64(r.Minutes),
				ForceSendFields: []string{"Minutes"},
			})
		}
		item.Reminders = &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault", "Overrides"},
		}
	}

	item.ForceSendFields = force
	return item
}

