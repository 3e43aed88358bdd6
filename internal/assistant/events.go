package assistant

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/holiday"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/response"
	"github.com/teemow/calmate/internal/undo"
)

const (
	upcomingLabel = "今後1週間"

	msgNoEventsFmt      = "%sには%s予定がありません。"
	msgDeletedFmt       = "「%s」を削除しました。"
	msgUpdatedFmt       = "「%s」を更新しました。"
	msgNothingToUpdate  = "更新する内容が指定されていません。"
	msgRespondedFmt     = "「%s」に「%s」で回答しました。"
	msgAttendeesAddFmt  = "「%s」に%d名の参加者を追加しました。"
	msgAttendeesDelFmt  = "「%s」から%d名の参加者を削除しました。"
	msgAttendeesPresent = "指定された参加者はすでに追加されています。"
	msgAttendeesMissing = "指定された参加者は見つかりませんでした。"
	msgReminderFmt      = "「%s」にリマインダーを設定しました（%d分前）。"
	msgUpdatedTitleFmt  = "\nタイトル: %s"
	msgUpdatedDescFmt   = "\n説明: %s"
	msgUpdatedPlaceFmt  = "\n場所: %s"
	msgListingHeaderFmt = "「%s」の予定:\n\n"
	msgListingHeader    = "予定:\n\n"
	msgKeywordQualifier = "「%s」に該当する"
)

func (d *Dispatcher) query(ctx context.Context, in intent.Query) (response.Result, error) {
	var start, end time.Time
	label := upcomingLabel
	if in.Date != nil {
		start = d.startOfDay(*in.Date)
		end = start.AddDate(0, 0, 1)
		label = dateLabel(in.DateText, start)
	} else {
		start = d.startOfDay(d.clock())
		end = start.AddDate(0, 0, d.settings.QueryDays)
	}

	var events []calendar.Event
	var err error
	if keyword := strings.TrimSpace(in.Keyword); keyword != "" {
		events, err = d.gateway.SearchEvents(ctx, start, end, keyword)
	} else {
		events, err = d.gateway.GetEvents(ctx, start, end)
	}
	if err != nil {
		return response.Result{}, err
	}
	events = slices.DeleteFunc(events, func(e calendar.Event) bool { return e.Status == "cancelled" })

	if len(events) == 0 {
		qualifier := ""
		if in.Keyword != "" {
			qualifier = fmt.Sprintf(msgKeywordQualifier, in.Keyword)
		}
		return response.Message(fmt.Sprintf(msgNoEventsFmt, label, qualifier)), nil
	}
	return response.Message(d.listing(in.Keyword, events)), nil
}

// listing groups events by day under "3月2日(月)" headers.
func (d *Dispatcher) listing(keyword string, events []calendar.Event) string {
	var b strings.Builder
	if keyword != "" {
		fmt.Fprintf(&b, msgListingHeaderFmt, keyword)
	} else {
		b.WriteString(msgListingHeader)
	}

	var current string
	for _, e := range events {
		day := holiday.FormatDate(e.Start.In(d.loc))
		if day != current {
			if current != "" {
				b.WriteString("\n")
			}
			b.WriteString(day + "\n")
			current = day
		}
		fmt.Fprintf(&b, "  %s: %s\n", eventClock(e, d.loc), e.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dispatcher) delete(ctx context.Context, in intent.Delete) (response.Result, error) {
	event, err := d.findEvent(ctx, in.Target)
	if err != nil {
		return response.Result{}, err
	}
	if err := d.gateway.DeleteEvent(ctx, event.ID); err != nil {
		return response.Result{}, err
	}
	d.ledger.Record(undo.DeleteRecord(event))
	return response.Success(fmt.Sprintf(msgDeletedFmt, event.Summary)), nil
}

func (d *Dispatcher) update(ctx context.Context, in intent.Update) (response.Result, error) {
	patch := calendar.Patch{Summary: in.Title, Description: in.Description, Location: in.Location}
	if patch.IsEmpty() {
		return response.Result{}, apperrors.NewInputError("update", "no fields", msgNothingToUpdate)
	}
	event, err := d.findEvent(ctx, in.Target)
	if err != nil {
		return response.Result{}, err
	}
	if _, err := d.gateway.UpdateEvent(ctx, event.ID, patch); err != nil {
		return response.Result{}, err
	}

	msg := fmt.Sprintf(msgUpdatedFmt, event.Summary)
	if in.Title != nil {
		msg += fmt.Sprintf(msgUpdatedTitleFmt, *in.Title)
	}
	if in.Description != nil {
		msg += fmt.Sprintf(msgUpdatedDescFmt, *in.Description)
	}
	if in.Location != nil {
		msg += fmt.Sprintf(msgUpdatedPlaceFmt, *in.Location)
	}
	return response.Success(msg), nil
}

func (d *Dispatcher) respond(ctx context.Context, in intent.Respond) (response.Result, error) {
	event, err := d.findEvent(ctx, in.Target)
	if err != nil {
		return response.Result{}, err
	}
	me, err := d.gateway.GetCallerIdentity(ctx)
	if err != nil {
		return response.Result{}, err
	}
	attendees := withResponse(event, me.Email, in.Status)
	if _, err := d.gateway.UpdateEvent(ctx, event.ID, calendar.Patch{Attendees: &attendees}); err != nil {
		return response.Result{}, err
	}
	return response.Success(fmt.Sprintf(msgRespondedFmt, event.Summary, statusLabel(in.Status))), nil
}

// selfIndex returns the index of the caller's attendee entry, or -1.
func selfIndex(e calendar.Event, email string) int {
	if i := e.FindAttendee(email); i >= 0 {
		return i
	}
	return slices.IndexFunc(e.Attendees, func(a calendar.Attendee) bool { return a.Self })
}

// withResponse returns a copy of the attendee list with the caller's
// status set, adding the caller when absent.
func withResponse(e calendar.Event, email, status string) []calendar.Attendee {
	attendees := slices.Clone(e.Attendees)
	if i := selfIndex(e, email); i >= 0 {
		attendees[i].ResponseStatus = status
		return attendees
	}
	return append(attendees, calendar.Attendee{Email: email, ResponseStatus: status, Self: true})
}

func (d *Dispatcher) addAttendees(ctx context.Context, in intent.AddAttendees) (response.Result, error) {
	event, err := d.findEvent(ctx, in.Target)
	if err != nil {
		return response.Result{}, err
	}

	attendees := slices.Clone(event.Attendees)
	added := 0
	for _, email := range in.Emails {
		probe := calendar.Event{Attendees: attendees}
		if probe.FindAttendee(email) >= 0 {
			continue
		}
		attendees = append(attendees, calendar.Attendee{
			Email:          email,
			ResponseStatus: calendar.StatusNeedsAction,
			Resource:       d.classifier.IsResourceAddress(email),
		})
		added++
	}
	if added == 0 {
		return response.Message(msgAttendeesPresent), nil
	}

	patch := calendar.Patch{Attendees: &attendees, SendUpdates: calendar.SendUpdatesAll}
	if _, err := d.gateway.UpdateEvent(ctx, event.ID, patch); err != nil {
		return response.Result{}, err
	}
	return response.Success(fmt.Sprintf(msgAttendeesAddFmt, event.Summary, added)), nil
}

func (d *Dispatcher) removeAttendees(ctx context.Context, in intent.RemoveAttendees) (response.Result, error) {
	event, err := d.findEvent(ctx, in.Target)
	if err != nil {
		return response.Result{}, err
	}

	remaining := slices.DeleteFunc(slices.Clone(event.Attendees), func(a calendar.Attendee) bool {
		return slices.ContainsFunc(in.Emails, func(email string) bool { return strings.EqualFold(email, a.Email) })
	})
	removed := len(event.Attendees) - len(remaining)
	if removed == 0 {
		return response.Message(msgAttendeesMissing), nil
	}

	patch := calendar.Patch{Attendees: &remaining, SendUpdates: calendar.SendUpdatesAll}
	if _, err := d.gateway.UpdateEvent(ctx, event.ID, patch); err != nil {
		return response.Result{}, err
	}
	return response.Success(fmt.Sprintf(msgAttendeesDelFmt, event.Summary, removed)), nil
}

func (d *Dispatcher) setReminder(ctx context.Context, in intent.SetReminder) (response.Result, error) {
	event, err := d.findEvent(ctx, in.Target)
	if err != nil {
		return response.Result{}, err
	}
	minutes := in.Minutes
	if minutes <= 0 {
		minutes = d.settings.Defaults.ReminderMinutes
	}
	reminders := []calendar.Reminder{{Method: calendar.ReminderPopup, Minutes: minutes}}
	if _, err := d.gateway.UpdateEvent(ctx, event.ID, calendar.Patch{Reminders: &reminders}); err != nil {
		return response.Result{}, err
	}
	return response.Success(fmt.Sprintf(msgReminderFmt, event.Summary, minutes)), nil
}
