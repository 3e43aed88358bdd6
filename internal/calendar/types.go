package calendar

import (
	"strings"
	"time"
)

// DateLayout is the layout of all-day dates.
const DateLayout = "2006-01-02"

// Attendee response statuses.
const (
	StatusNeedsAction = "needsAction"
	StatusAccepted    = "accepted"
	StatusDeclined    = "declined"
	StatusTentative   = "tentative"
)

// Reminder methods.
const (
	ReminderPopup = "popup"
	ReminderEmail = "email"
)

// Notification policies for UpdateEvent.
const (
	SendUpdatesAll  = "all"
	SendUpdatesNone = "none"
)

// EventTime is either a timed instant or an all-day date.
type EventTime struct {
	// DateTime is set for timed events.
	DateTime time.Time
	// Date is set (YYYY-MM-DD) for all-day events.
	Date string
	// TimeZone is the IANA zone name the remote service reported, if any.
	TimeZone string
}

// At returns a timed EventTime.
func At(t time.Time) EventTime {
	return EventTime{DateTime: t}
}

// OnDate returns an all-day EventTime for the date of t.
func OnDate(t time.Time) EventTime {
	return EventTime{Date: t.Format(DateLayout)}
}

// IsAllDay reports whether the time has no time component.
func (t EventTime) IsAllDay() bool {
	return t.DateTime.IsZero() && t.Date != ""
}

// IsZero reports whether neither a time nor a date is set.
func (t EventTime) IsZero() bool {
	return t.DateTime.IsZero() && t.Date == ""
}

// In returns the instant of the time in loc. All-day dates resolve to
// midnight in loc.
func (t EventTime) In(loc *time.Location) time.Time {
	if !t.DateTime.IsZero() {
		return t.DateTime.In(loc)
	}
	if d, err := time.ParseInLocation(DateLayout, t.Date, loc); err == nil {
		return d
	}
	return time.Time{}
}

// Attendee is an event participant.
type Attendee struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Optional       bool
	Organizer      bool
	// Resource marks bookable rooms or equipment.
	Resource bool
	// Self marks the entry of the calendar owner.
	Self bool
}

// Reminder is a reminder override.
type Reminder struct {
	Method  string
	Minutes int
}

// Event is a calendar event as returned by a Gateway.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Status      string
	Start       EventTime
	End         EventTime
	Attendees   []Attendee
	// UseDefaultReminders is true when the calendar defaults apply instead of Reminders.
	UseDefaultReminders bool
	Reminders           []Reminder
	// Recurrence holds RRULE, EXRULE, RDATE and EXDATE lines.
	Recurrence []string
}

// IsAllDay reports whether the event has no time component.
func (e Event) IsAllDay() bool {
	return e.Start.IsAllDay()
}

// Duration returns the length of a timed event, or zero for all-day events.
func (e Event) Duration() time.Duration {
	if e.IsAllDay() || e.Start.DateTime.IsZero() || e.End.DateTime.IsZero() {
		return 0
	}
	return e.End.DateTime.Sub(e.Start.DateTime)
}

// FindAttendee returns the index of the attendee with the given email,
// compared case-insensitively, or -1.
func (e Event) FindAttendee(email string) int {
	for i, a := range e.Attendees {
		if strings.EqualFold(a.Email, email) {
			return i
		}
	}
	return -1
}

// AttendeeEmails returns the email addresses of all attendees.
func (e Event) AttendeeEmails() []string {
	emails := make([]string, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		emails = append(emails, a.Email)
	}
	return emails
}

// Draft describes an event to create.
type Draft struct {
	Summary     string
	Description string
	Location    string
	Start       EventTime
	End         EventTime
	Attendees   []Attendee
	Recurrence  []string
}

// DraftFromEvent copies the fields of e that can be recreated.
func DraftFromEvent(e Event) Draft {
	return Draft{
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       e.Start,
		End:         e.End,
		Attendees:   append([]Attendee(nil), e.Attendees...),
		Recurrence:  append([]string(nil), e.Recurrence...),
	}
}

// Patch is a partial update. Nil fields are left unchanged; a non-nil
// pointer to an empty slice clears the list.
type Patch struct {
	Summary     *string
	Description *string
	Location    *string
	Start       *EventTime
	End         *EventTime
	Attendees   *[]Attendee
	Reminders   *[]Reminder
	// SendUpdates controls guest notifications ("all" or "none").
	SendUpdates string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Summary == nil && p.Description == nil && p.Location == nil &&
		p.Start == nil && p.End == nil && p.Attendees == nil && p.Reminders == nil
}

// Apply returns a copy of e with the patch applied.
func (p Patch) Apply(e Event) Event {
	if p.Summary != nil {
		e.Summary = *p.Summary
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Start != nil {
		e.Start = *p.Start
	}
	if p.End != nil {
		e.End = *p.End
	}
	if p.Attendees != nil {
		e.Attendees = append([]Attendee(nil), (*p.Attendees)...)
	}
	if p.Reminders != nil {
		e.UseDefaultReminders = false
		e.Reminders = append([]Reminder(nil), (*p.Reminders)...)
	}
	return e
}

// Identity is the calendar owner on whose behalf the assistant acts.
type Identity struct {
	Email    string
	TimeZone string
}
