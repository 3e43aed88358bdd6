package intent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/recurrence"
)

// User-facing messages for rejected intents.
const (
	MsgInvalidDate          = "日付の解析に失敗しました。"
	MsgInvalidNewDate       = "移動先の日付を解析できませんでした。"
	MsgInvalidTime          = "時刻の解析に失敗しました。"
	MsgMissingDateRange     = "日付範囲の指定が必要です。"
	MsgInvalidDateRange     = "日付範囲の解析に失敗しました。"
	MsgMissingAddEmails     = "追加する参加者のメールアドレスが指定されていません。"
	MsgMissingRemoveEmails  = "削除する参加者のメールアドレスが指定されていません。"
	MsgMissingRecurrence    = "繰り返しルールが指定されていません。"
	MsgInvalidRecurrence    = "繰り返しルールの形式が正しくありません。"
	MsgInvalidResponse      = "回答の種類が正しくありません。"
	MsgInvalidDuration      = "所要時間の指定が正しくありません。"
	MsgInvalidReminder      = "リマインダーの時間指定が正しくありません。"
	MsgInvalidJSON          = "リクエストの形式が正しくありません。"
)

// Raw is the classifier payload.
type Raw struct {
	Action          string         `json:"action"`
	EventQuery      string         `json:"eventQuery,omitempty"`
	Date            string         `json:"date,omitempty"`
	NewDate         string         `json:"newDate,omitempty"`
	NewTime         string         `json:"newTime,omitempty"`
	Duration        int            `json:"duration,omitempty"`
	Title           string         `json:"title,omitempty"`
	Description     string         `json:"description,omitempty"`
	Location        string         `json:"location,omitempty"`
	ResponseStatus  string         `json:"responseStatus,omitempty"`
	Attendees       []string       `json:"attendees,omitempty"`
	ReminderMinutes int            `json:"reminderMinutes,omitempty"`
	Recurrence      *RawRecurrence `json:"recurrence,omitempty"`
	DateRange       *RawDateRange  `json:"dateRange,omitempty"`
	FilterCondition string         `json:"filterCondition,omitempty"`
	IncludeHolidays bool           `json:"includeHolidays,omitempty"`
	UserResponse    string         `json:"userResponse,omitempty"`
	Message         string         `json:"message,omitempty"`
}

// RawRecurrence is the recurrence part of Raw.
type RawRecurrence struct {
	Frequency string   `json:"frequency"`
	Interval  int      `json:"interval,omitempty"`
	Count     int      `json:"count,omitempty"`
	Until     string   `json:"until,omitempty"`
	ByDay     []string `json:"byDay,omitempty"`
}

// RawDateRange is the bulk date range part of Raw. Both ends are inclusive
// dates.
type RawDateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Defaults are applied when the classifier omits a value.
type Defaults struct {
	DurationMinutes int
	ReminderMinutes int
}

// StandardDefaults returns DefaultDurationMinutes and DefaultReminderMinutes.
func StandardDefaults() Defaults {
	return Defaults{DurationMinutes: DefaultDurationMinutes, ReminderMinutes: DefaultReminderMinutes}
}

// Parse decodes a JSON payload and validates it with the standard defaults.
func Parse(data []byte, loc *time.Location) (Intent, error) {
	return ParseWith(data, loc, StandardDefaults())
}

// ParseWith is Parse with explicit defaults.
func ParseWith(data []byte, loc *time.Location, defaults Defaults) (Intent, error) {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewInputError("", fmt.Sprintf("decode intent: %v", err), MsgInvalidJSON)
	}
	return DecodeWith(raw, loc, defaults)
}

// Decode validates raw and returns the typed intent. Validation failures
// are *apperrors.InputError carrying the message to show the user. Unknown
// actions decode to Other.
func Decode(raw Raw, loc *time.Location) (Intent, error) {
	return DecodeWith(raw, loc, StandardDefaults())
}

// DecodeWith is Decode with explicit defaults. Non-positive defaults fall
// back to the standard ones.
func DecodeWith(raw Raw, loc *time.Location, defaults Defaults) (Intent, error) {
	if loc == nil {
		loc = time.Local
	}
	if defaults.DurationMinutes <= 0 {
		defaults.DurationMinutes = DefaultDurationMinutes
	}
	if defaults.ReminderMinutes <= 0 {
		defaults.ReminderMinutes = DefaultReminderMinutes
	}
	d := decoder{raw: raw, loc: loc, defaults: defaults}

	switch Action(strings.TrimSpace(raw.Action)) {
	case ActionMove:
		return d.move()
	case ActionCreate:
		return d.create()
	case ActionQuery:
		return d.query()
	case ActionDelete:
		target, err := d.target()
		if err != nil {
			return nil, err
		}
		return Delete{Target: target}, nil
	case ActionUpdate:
		return d.update()
	case ActionRespond:
		return d.respond()
	case ActionBulkRespond:
		return d.bulkRespond()
	case ActionAddAttendees:
		target, emails, err := d.attendees(MsgMissingAddEmails)
		if err != nil {
			return nil, err
		}
		return AddAttendees{Target: target, Emails: emails}, nil
	case ActionRemoveAttendees:
		target, emails, err := d.attendees(MsgMissingRemoveEmails)
		if err != nil {
			return nil, err
		}
		return RemoveAttendees{Target: target, Emails: emails}, nil
	case ActionSetReminder:
		return d.setReminder()
	case ActionCreateRecurring:
		return d.createRecurring()
	case ActionConfirm:
		return Confirm{UserResponse: raw.UserResponse}, nil
	default:
		return Other{Message: raw.Message}, nil
	}
}

type decoder struct {
	raw      Raw
	loc      *time.Location
	defaults Defaults
}

func (d decoder) target() (Target, error) {
	date, err := ParseDate(d.raw.Date, d.loc)
	if err != nil {
		return Target{}, apperrors.NewInputError("date", err.Error(), MsgInvalidDate)
	}
	return Target{
		Query:    strings.TrimSpace(d.raw.EventQuery),
		Date:     date,
		DateText: d.raw.Date,
	}, nil
}

func (d decoder) clock(field, value string) (*Clock, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	c, err := ParseClock(value)
	if err != nil {
		return nil, apperrors.NewInputError(field, err.Error(), MsgInvalidTime)
	}
	return &c, nil
}

func (d decoder) duration() (int, error) {
	switch {
	case d.raw.Duration == 0:
		return d.defaults.DurationMinutes, nil
	case d.raw.Duration < 0:
		return 0, apperrors.NewInputError("duration", "negative duration", MsgInvalidDuration)
	default:
		return d.raw.Duration, nil
	}
}

func (d decoder) move() (Intent, error) {
	target, err := d.target()
	if err != nil {
		return nil, err
	}
	m := Move{Target: target, IncludeHolidays: d.raw.IncludeHolidays}

	if strings.TrimSpace(d.raw.NewDate) != "" {
		newDate, err := ParseDate(d.raw.NewDate, d.loc)
		if err != nil {
			return nil, apperrors.NewInputError("newDate", err.Error(), MsgInvalidNewDate)
		}
		m.NewDate = &newDate
	}
	if m.NewTime, err = d.clock("newTime", d.raw.NewTime); err != nil {
		return nil, err
	}
	return m, nil
}

func (d decoder) create() (Intent, error) {
	date, err := ParseDate(d.raw.Date, d.loc)
	if err != nil {
		return nil, apperrors.NewInputError("date", err.Error(), MsgInvalidDate)
	}
	c := Create{
		Title:           d.title(),
		Date:            date,
		DateText:        d.raw.Date,
		IncludeHolidays: d.raw.IncludeHolidays,
	}
	if c.Time, err = d.clock("newTime", d.raw.NewTime); err != nil {
		return nil, err
	}
	if c.DurationMinutes, err = d.duration(); err != nil {
		return nil, err
	}
	return c, nil
}

func (d decoder) query() (Intent, error) {
	q := Query{Keyword: strings.TrimSpace(d.raw.EventQuery), DateText: d.raw.Date}
	if strings.TrimSpace(d.raw.Date) != "" {
		date, err := ParseDate(d.raw.Date, d.loc)
		if err != nil {
			return nil, apperrors.NewInputError("date", err.Error(), MsgInvalidDate)
		}
		q.Date = &date
	}
	return q, nil
}

func (d decoder) update() (Intent, error) {
	target, err := d.target()
	if err != nil {
		return nil, err
	}
	u := Update{Target: target}
	if v := d.raw.Title; v != "" {
		u.Title = &v
	}
	if v := d.raw.Description; v != "" {
		u.Description = &v
	}
	if v := d.raw.Location; v != "" {
		u.Location = &v
	}
	return u, nil
}

func (d decoder) status() (string, error) {
	switch d.raw.ResponseStatus {
	case calendar.StatusAccepted, calendar.StatusDeclined, calendar.StatusTentative:
		return d.raw.ResponseStatus, nil
	default:
		return "", apperrors.NewInputError("responseStatus",
			fmt.Sprintf("unsupported response status %q", d.raw.ResponseStatus), MsgInvalidResponse)
	}
}

func (d decoder) respond() (Intent, error) {
	target, err := d.target()
	if err != nil {
		return nil, err
	}
	status, err := d.status()
	if err != nil {
		return nil, err
	}
	return Respond{Target: target, Status: status}, nil
}

func (d decoder) bulkRespond() (Intent, error) {
	r := d.raw.DateRange
	if r == nil || strings.TrimSpace(r.Start) == "" || strings.TrimSpace(r.End) == "" {
		return nil, apperrors.NewInputError("dateRange", "missing date range", MsgMissingDateRange)
	}
	start, err := ParseDate(r.Start, d.loc)
	if err != nil {
		return nil, apperrors.NewInputError("dateRange.start", err.Error(), MsgInvalidDateRange)
	}
	end, err := ParseDate(r.End, d.loc)
	if err != nil {
		return nil, apperrors.NewInputError("dateRange.end", err.Error(), MsgInvalidDateRange)
	}
	if end.Before(start) {
		return nil, apperrors.NewInputError("dateRange", "end before start", MsgInvalidDateRange)
	}
	status, err := d.status()
	if err != nil {
		return nil, err
	}
	return BulkRespond{
		Start:  start,
		End:    end.AddDate(0, 0, 1),
		Status: status,
		Filter: strings.TrimSpace(d.raw.FilterCondition),
	}, nil
}

func (d decoder) attendees(missingMsg string) (Target, []string, error) {
	target, err := d.target()
	if err != nil {
		return Target{}, nil, err
	}
	var emails []string
	for _, e := range d.raw.Attendees {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}
	if len(emails) == 0 {
		return Target{}, nil, apperrors.NewInputError("attendees", "no attendees given", missingMsg)
	}
	return target, emails, nil
}

func (d decoder) setReminder() (Intent, error) {
	target, err := d.target()
	if err != nil {
		return nil, err
	}
	minutes := d.raw.ReminderMinutes
	switch {
	case minutes == 0:
		minutes = d.defaults.ReminderMinutes
	case minutes < 0:
		return nil, apperrors.NewInputError("reminderMinutes", "negative offset", MsgInvalidReminder)
	}
	return SetReminder{Target: target, Minutes: minutes}, nil
}

func (d decoder) createRecurring() (Intent, error) {
	date, err := ParseDate(d.raw.Date, d.loc)
	if err != nil {
		return nil, apperrors.NewInputError("date", err.Error(), MsgInvalidDate)
	}
	rec := d.raw.Recurrence
	if rec == nil || strings.TrimSpace(rec.Frequency) == "" {
		return nil, apperrors.NewInputError("recurrence", "missing recurrence", MsgMissingRecurrence)
	}

	spec := recurrence.Spec{
		Frequency: rec.Frequency,
		Interval:  rec.Interval,
		Count:     rec.Count,
		ByDay:     rec.ByDay,
	}
	if strings.TrimSpace(rec.Until) != "" {
		until, err := ParseDate(rec.Until, d.loc)
		if err != nil {
			return nil, apperrors.NewInputError("recurrence.until", err.Error(), MsgInvalidRecurrence)
		}
		spec.Until = until
	}
	if _, err := recurrence.Build(spec); err != nil {
		return nil, apperrors.NewInputError("recurrence", err.Error(), MsgInvalidRecurrence)
	}

	c := CreateRecurring{
		Title:           d.title(),
		Description:     d.raw.Description,
		Location:        d.raw.Location,
		Date:            date,
		DateText:        d.raw.Date,
		Rule:            spec,
		IncludeHolidays: d.raw.IncludeHolidays,
	}
	if c.Time, err = d.clock("newTime", d.raw.NewTime); err != nil {
		return nil, err
	}
	if c.DurationMinutes, err = d.duration(); err != nil {
		return nil, err
	}
	return c, nil
}

func (d decoder) title() string {
	if t := strings.TrimSpace(d.raw.Title); t != "" {
		return t
	}
	return strings.TrimSpace(d.raw.EventQuery)
}
