// Package intent turns the structured request produced by the external
// classifier into a typed, validated Intent.
//
// The classifier output is untrusted. Decode validates it once, so every
// handler receives a value whose required fields are present and whose
// dates have already been parsed in the configured location.
package intent

import (
	"time"

	"github.com/teemow/calmate/internal/recurrence"
)

// Action names a request kind.
type Action string

// Supported actions.
const (
	ActionMove            Action = "move"
	ActionCreate          Action = "create"
	ActionQuery           Action = "query"
	ActionDelete          Action = "delete"
	ActionUpdate          Action = "update"
	ActionRespond         Action = "respond"
	ActionBulkRespond     Action = "bulk_respond"
	ActionAddAttendees    Action = "add_attendees"
	ActionRemoveAttendees Action = "remove_attendees"
	ActionSetReminder     Action = "set_reminder"
	ActionCreateRecurring Action = "create_recurring"
	ActionConfirm         Action = "confirm"
	ActionOther           Action = "other"
)

// Defaults applied when the classifier omits a value.
const (
	DefaultDurationMinutes = 60
	DefaultReminderMinutes = 30
)

// Bulk response filters.
const (
	FilterNeedsAction = "未回答のみ"
	FilterTentative   = "仮承諾のみ"
	FilterAll         = "全て"
)

// Intent is one validated request. The concrete types below are the only
// implementations.
type Intent interface {
	Action() Action
}

// Target identifies an existing event by day and fuzzy title.
type Target struct {
	// Query is the title phrase; empty matches any event of the day.
	Query string
	// Date is midnight of the event's day in the configured location.
	Date time.Time
	// DateText is the date as the classifier wrote it, for messages.
	DateText string
}

// Clock is an "HH:MM" time of day. Intents carry a nil *Clock when no time
// was given.
type Clock struct {
	Hour   int
	Minute int
}

// On returns the instant of the clock on date's day in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}

// Move reschedules an existing event to a slot the user picks.
type Move struct {
	Target
	// NewDate is nil when the user gave no destination day.
	NewDate         *time.Time
	NewTime         *Clock
	IncludeHolidays bool
}

// Create books a new event at a slot the user picks.
type Create struct {
	Title           string
	Date            time.Time
	DateText        string
	Time            *Clock
	DurationMinutes int
	IncludeHolidays bool
}

// Query lists events of one day, or of the coming week.
type Query struct {
	// Date is nil for "the coming week".
	Date     *time.Time
	DateText string
	Keyword  string
}

// Delete removes an existing event.
type Delete struct {
	Target
}

// Update patches the descriptive fields of an event. Nil fields are left alone.
type Update struct {
	Target
	Title       *string
	Description *string
	Location    *string
}

// Respond sets the caller's response status on one event.
type Respond struct {
	Target
	Status string
}

// BulkRespond sets the caller's response status on every matching event in a date range.
type BulkRespond struct {
	// Start and End bound the days searched; End is exclusive.
	Start  time.Time
	End    time.Time
	Status string
	Filter string
}

// AddAttendees invites addresses to an event.
type AddAttendees struct {
	Target
	Emails []string
}

// RemoveAttendees uninvites addresses from an event.
type RemoveAttendees struct {
	Target
	Emails []string
}

// SetReminder replaces the popup reminders of an event.
type SetReminder struct {
	Target
	Minutes int
}

// CreateRecurring creates a recurring series starting at Date.
type CreateRecurring struct {
	Title           string
	Description     string
	Location        string
	Date            time.Time
	DateText        string
	Time            *Clock
	DurationMinutes int
	Rule            recurrence.Spec
	IncludeHolidays bool
}

// Confirm re-enters the conversation with UserResponse as the utterance.
type Confirm struct {
	UserResponse string
}

// Other is anything the assistant does not act on.
type Other struct {
	Message string
}

func (Move) Action() Action            { return ActionMove }
func (Create) Action() Action          { return ActionCreate }
func (Query) Action() Action           { return ActionQuery }
func (Delete) Action() Action          { return ActionDelete }
func (Update) Action() Action          { return ActionUpdate }
func (Respond) Action() Action         { return ActionRespond }
func (BulkRespond) Action() Action     { return ActionBulkRespond }
func (AddAttendees) Action() Action    { return ActionAddAttendees }
func (RemoveAttendees) Action() Action { return ActionRemoveAttendees }
func (SetReminder) Action() Action     { return ActionSetReminder }
func (CreateRecurring) Action() Action { return ActionCreateRecurring }
func (Confirm) Action() Action         { return ActionConfirm }
func (Other) Action() Action           { return ActionOther }
