package calendar

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"github.com/teemow/calmate/internal/interval"
)

const productID = "-//calmate//EN"

// CalDAVConfig configures a CalDAVGateway.
type CalDAVConfig struct {
	// Endpoint is the server root, e.g. https://caldav.example.com/.
	Endpoint string
	// CalendarPath is the collection holding the user's events.
	CalendarPath string
	Username     string
	Password     string
	// Email identifies the calendar owner. Defaults to Username.
	Email    string
	TimeZone string
}

// CalDAVGateway implements Gateway on a single CalDAV calendar collection.
// Event ids are object paths. Free/busy is only known for the owner's own
// calendar; other calendars are reported as having no busy time.
type CalDAVGateway struct {
	client *caldav.Client
	cfg    CalDAVConfig
	loc    *time.Location
}

// NewCalDAVGateway creates a gateway using HTTP basic auth.
func NewCalDAVGateway(cfg CalDAVConfig) (*CalDAVGateway, error) {
	var httpClient webdav.HTTPClient = http.DefaultClient
	if cfg.Username != "" && cfg.Password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, cfg.Username, cfg.Password)
	}

	client, err := caldav.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	if cfg.Email == "" {
		cfg.Email = cfg.Username
	}
	loc := time.UTC
	if cfg.TimeZone != "" {
		if l, err := time.LoadLocation(cfg.TimeZone); err == nil {
			loc = l
		}
	}
	cfg.CalendarPath = strings.TrimSuffix(cfg.CalendarPath, "/") + "/"

	return &CalDAVGateway{client: client, cfg: cfg, loc: loc}, nil
}

// GetEvents lists events overlapping [start, end).
func (g *CalDAVGateway) GetEvents(ctx context.Context, start, end time.Time) ([]Event, error) {
	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start,
				End:   end,
			}},
		},
	}

	objects, err := g.client.QueryCalendar(ctx, g.cfg.CalendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	var events []Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			events = append(events, g.fromComponent(obj.Path, comp))
		}
	}
	sortEvents(events, g.loc)
	return events, nil
}

// SearchEvents filters GetEvents by a case-insensitive substring match on
// summary, description and location.
func (g *CalDAVGateway) SearchEvents(ctx context.Context, start, end time.Time, keyword string) ([]Event, error) {
	events, err := g.GetEvents(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if keyword == "" {
		return events, nil
	}
	needle := strings.ToLower(keyword)
	var out []Event
	for _, e := range events {
		text := strings.ToLower(e.Summary + "\n" + e.Description + "\n" + e.Location)
		if strings.Contains(text, needle) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetEvent fetches one calendar object by path.
func (g *CalDAVGateway) GetEvent(ctx context.Context, id string) (*Event, error) {
	_, comp, err := g.getComponent(ctx, id)
	if err != nil {
		return nil, err
	}
	event := g.fromComponent(id, comp)
	return &event, nil
}

// CreateEvent stores a new calendar object under a generated UID.
func (g *CalDAVGateway) CreateEvent(ctx context.Context, draft Draft) (*Event, error) {
	uid := uuid.New().String()
	objectPath := path.Join(g.cfg.CalendarPath, uid+".ics")

	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, uid)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	comp.Props.SetText(ical.PropSummary, draft.Summary)
	if draft.Description != "" {
		comp.Props.SetText(ical.PropDescription, draft.Description)
	}
	if draft.Location != "" {
		comp.Props.SetText(ical.PropLocation, draft.Location)
	}
	setTime(comp, ical.PropDateTimeStart, draft.Start)
	setTime(comp, ical.PropDateTimeEnd, draft.End)
	setAttendees(comp, draft.Attendees)
	for _, line := range draft.Recurrence {
		if rule, ok := strings.CutPrefix(line, "RRULE:"); ok {
			comp.Props.SetText(ical.PropRecurrenceRule, rule)
		}
	}

	if _, err := g.client.PutCalendarObject(ctx, objectPath, wrapCalendar(comp)); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	event := g.fromComponent(objectPath, comp)
	return &event, nil
}

// UpdateEvent rewrites the stored object with the patch applied.
func (g *CalDAVGateway) UpdateEvent(ctx context.Context, id string, patch Patch) (*Event, error) {
	cal, comp, err := g.getComponent(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Summary != nil {
		comp.Props.SetText(ical.PropSummary, *patch.Summary)
	}
	if patch.Description != nil {
		setOptionalText(comp, ical.PropDescription, *patch.Description)
	}
	if patch.Location != nil {
		setOptionalText(comp, ical.PropLocation, *patch.Location)
	}
	if patch.Start != nil {
		setTime(comp, ical.PropDateTimeStart, *patch.Start)
	}
	if patch.End != nil {
		setTime(comp, ical.PropDateTimeEnd, *patch.End)
	}
	if patch.Attendees != nil {
		comp.Props.Del(ical.PropAttendee)
		setAttendees(comp, *patch.Attendees)
	}
	if patch.Reminders != nil {
		setAlarms(comp, *patch.Reminders)
	}
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if _, err := g.client.PutCalendarObject(ctx, id, cal); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	event := g.fromComponent(id, comp)
	return &event, nil
}

// DeleteEvent removes the calendar object.
func (g *CalDAVGateway) DeleteEvent(ctx context.Context, id string) error {
	if err := g.client.RemoveAll(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// GetFreeBusy reports busy time of the owner's calendar, which answers to
// "primary" and the owner's email. Other ids map to an empty list.
func (g *CalDAVGateway) GetFreeBusy(ctx context.Context, start, end time.Time, calendarIDs []string) (map[string][]interval.Interval, error) {
	busy := make(map[string][]interval.Interval, len(calendarIDs))

	var own []interval.Interval
	loaded := false
	for _, id := range calendarIDs {
		if id != primaryCalendar && !strings.EqualFold(id, g.cfg.Email) {
			busy[id] = nil
			continue
		}
		if !loaded {
			events, err := g.GetEvents(ctx, start, end)
			if err != nil {
				return nil, err
			}
			for _, span := range BusySpans(events) {
				if !span.AllDay {
					own = append(own, span.Interval)
				}
			}
			loaded = true
		}
		busy[id] = own
	}
	return busy, nil
}

// GetCallerIdentity returns the configured owner.
func (g *CalDAVGateway) GetCallerIdentity(_ context.Context) (Identity, error) {
	return Identity{Email: g.cfg.Email, TimeZone: g.loc.String()}, nil
}

func (g *CalDAVGateway) getComponent(ctx context.Context, id string) (*ical.Calendar, *ical.Component, error) {
	obj, err := g.client.GetCalendarObject(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get event: %w", err)
	}
	if obj.Data == nil {
		return nil, nil, fmt.Errorf("calendar object %s has no data", id)
	}
	for _, comp := range obj.Data.Children {
		if comp.Name == ical.CompEvent {
			return obj.Data, comp, nil
		}
	}
	return nil, nil, fmt.Errorf("no VEVENT component in %s", id)
}

func (g *CalDAVGateway) fromComponent(id string, comp *ical.Component) Event {
	event := Event{
		ID:          id,
		Summary:     propText(comp.Props, ical.PropSummary),
		Description: propText(comp.Props, ical.PropDescription),
		Location:    propText(comp.Props, ical.PropLocation),
		Status:      strings.ToLower(propText(comp.Props, ical.PropStatus)),
		Start:       g.propTime(comp.Props, ical.PropDateTimeStart),
		End:         g.propTime(comp.Props, ical.PropDateTimeEnd),
	}
	if event.Status == "" {
		event.Status = "confirmed"
	}

	for _, prop := range comp.Props[ical.PropAttendee] {
		event.Attendees = append(event.Attendees, Attendee{
			Email:          strings.TrimPrefix(strings.ToLower(prop.Value), "mailto:"),
			DisplayName:    prop.Params.Get("CN"),
			ResponseStatus: fromPartStat(prop.Params.Get("PARTSTAT")),
			Optional:       prop.Params.Get("ROLE") == "OPT-PARTICIPANT",
			Resource:       prop.Params.Get("CUTYPE") == "RESOURCE" || prop.Params.Get("CUTYPE") == "ROOM",
			Self:           strings.EqualFold(strings.TrimPrefix(strings.ToLower(prop.Value), "mailto:"), g.cfg.Email),
		})
	}

	if rule := propText(comp.Props, ical.PropRecurrenceRule); rule != "" {
		event.Recurrence = []string{"RRULE:" + rule}
	}

	event.UseDefaultReminders = true
	for _, child := range comp.Children {
		if child.Name != ical.CompAlarm {
			continue
		}
		event.UseDefaultReminders = false
		trigger := child.Props.Get(ical.PropTrigger)
		if trigger == nil {
			continue
		}
		if d, err := trigger.Duration(); err == nil && d <= 0 {
			event.Reminders = append(event.Reminders, Reminder{Method: ReminderPopup, Minutes: int(-d / time.Minute)})
		}
	}

	return event
}

func (g *CalDAVGateway) propTime(props ical.Props, name string) EventTime {
	prop := props.Get(name)
	if prop == nil {
		return EventTime{}
	}
	t, err := prop.DateTime(g.loc)
	if err != nil {
		return EventTime{}
	}
	if prop.Params.Get("VALUE") == "DATE" {
		return EventTime{Date: t.Format(DateLayout)}
	}
	return EventTime{DateTime: t}
}

func propText(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}

func setOptionalText(comp *ical.Component, name, value string) {
	if value == "" {
		comp.Props.Del(name)
		return
	}
	comp.Props.SetText(name, value)
}

func setTime(comp *ical.Component, name string, t EventTime) {
	if t.IsAllDay() {
		d, err := time.Parse(DateLayout, t.Date)
		if err != nil {
			return
		}
		prop := ical.NewProp(name)
		prop.SetDate(d)
		comp.Props.Set(prop)
		return
	}
	comp.Props.SetDateTime(name, t.DateTime.UTC())
}

func setAttendees(comp *ical.Component, attendees []Attendee) {
	for _, a := range attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + a.Email
		if a.DisplayName != "" {
			prop.Params.Set("CN", a.DisplayName)
		}
		if status := toPartStat(a.ResponseStatus); status != "" {
			prop.Params.Set("PARTSTAT", status)
		}
		if a.Resource {
			prop.Params.Set("CUTYPE", "RESOURCE")
		}
		if a.Optional {
			prop.Params.Set("ROLE", "OPT-PARTICIPANT")
		}
		comp.Props.Add(prop)
	}
}

func setAlarms(comp *ical.Component, reminders []Reminder) {
	kept := comp.Children[:0]
	for _, child := range comp.Children {
		if child.Name != ical.CompAlarm {
			kept = append(kept, child)
		}
	}
	comp.Children = kept

	for _, r := range reminders {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, "Reminder")
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.SetDuration(-time.Duration(r.Minutes) * time.Minute)
		alarm.Props.Set(trigger)
		comp.Children = append(comp.Children, alarm)
	}
}

func wrapCalendar(comp *ical.Component) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, comp)
	return cal
}

var partStats = map[string]string{
	StatusNeedsAction: "NEEDS-ACTION",
	StatusAccepted:    "ACCEPTED",
	StatusDeclined:    "DECLINED",
	StatusTentative:   "TENTATIVE",
}

func toPartStat(status string) string {
	return partStats[status]
}

func fromPartStat(partStat string) string {
	for status, ps := range partStats {
		if strings.EqualFold(ps, partStat) {
			return status
		}
	}
	return StatusNeedsAction
}
