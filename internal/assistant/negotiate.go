package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/conversation"
	"github.com/teemow/calmate/internal/holiday"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/response"
	"github.com/teemow/calmate/internal/undo"
)

const (
	msgNoSlotsFmt  = "申し訳ありません。%sに空き時間が見つかりませんでした。別の日付をご指定いただけますか？"
	msgMovedFmt    = "「%s」を%sに移動しました！"
	msgCreatedFmt  = "「%s」を%sに作成しました！"
	defaultTitle   = "新しい予定"
	allDayDuration = 24 * time.Hour
)

func (d *Dispatcher) move(ctx context.Context, in intent.Move) (response.Result, error) {
	event, err := d.findEvent(ctx, in.Target)
	if err != nil {
		return response.Result{}, err
	}

	duration := event.Duration()
	if event.IsAllDay() {
		duration = allDayDuration
	}
	minutes := int(duration / time.Minute)

	var start, end time.Time
	switch {
	case in.NewDate != nil && in.NewTime != nil:
		start = d.startOfDay(*in.NewDate)
		end = start.AddDate(0, 0, d.settings.FlexibleDays)
	case in.NewDate != nil:
		start = d.startOfDay(*in.NewDate)
		end = start.AddDate(0, 0, 1)
	default:
		start = d.startOfDay(event.Start.In(d.loc)).AddDate(0, 0, 1)
		end = start.AddDate(0, 0, d.settings.RescheduleDays)
	}

	pool, err := d.searchSlots(ctx, start, end, minutes, d.options(in.IncludeHolidays), event.AttendeeEmails())
	if err != nil {
		return response.Result{}, err
	}
	if len(pool) == 0 {
		return response.Result{}, noSlots(start)
	}

	humans, resources := d.classifier.Partition(event.Attendees)
	n := d.convo.Open(ctx, conversation.Negotiation{
		Kind:              conversation.KindMove,
		Event:             &event,
		DurationMinutes:   minutes,
		PreferTime:        in.NewTime,
		Pool:              pool,
		HumanAttendees:    humans,
		ResourceAttendees: resources,
	})
	return d.suggestions(n, d.convo.Message(n)), nil
}

func (d *Dispatcher) create(ctx context.Context, in intent.Create) (response.Result, error) {
	start := d.startOfDay(in.Date)
	end := start.AddDate(0, 0, 1)
	if in.Time != nil {
		end = start.AddDate(0, 0, d.settings.FlexibleDays)
	}
	minutes := in.DurationMinutes
	if minutes <= 0 {
		minutes = d.settings.Defaults.DurationMinutes
	}

	pool, err := d.searchSlots(ctx, start, end, minutes, d.options(in.IncludeHolidays), nil)
	if err != nil {
		return response.Result{}, err
	}
	if len(pool) == 0 {
		return response.Result{}, noSlots(start)
	}

	title := in.Title
	if title == "" {
		title = defaultTitle
	}
	n := d.convo.Open(ctx, conversation.Negotiation{
		Kind:            conversation.KindCreate,
		Title:           title,
		DurationMinutes: minutes,
		PreferTime:      in.Time,
		Pool:            pool,
	})
	return d.suggestions(n, d.convo.Message(n)), nil
}

// reply resolves utterance against the open negotiation.
func (d *Dispatcher) reply(ctx context.Context, utterance string) (response.Result, error) {
	out := d.convo.Resolve(ctx, utterance)
	switch out.Kind {
	case conversation.OutcomeSelected:
		return d.commit(ctx, out.Negotiation, out.Proposal)
	case conversation.OutcomeRefined:
		return d.suggestions(out.Negotiation, out.Message), nil
	case conversation.OutcomeDelegate:
		return d.delegate(ctx, utterance)
	case conversation.OutcomeIdle:
		return response.Result{}, apperrors.NewStateError("no pending negotiation", out.Message)
	default:
		return response.Message(out.Message), nil
	}
}

// commit applies the selected proposal. The negotiation stays open when
// the gateway call fails so the user can pick again.
func (d *Dispatcher) commit(ctx context.Context, n *conversation.Negotiation, p conversation.Proposal) (response.Result, error) {
	when := p.Start.In(d.loc).Format(dateTimeLayout)

	switch n.Kind {
	case conversation.KindMove:
		event := *n.Event
		start := calendar.At(p.Start)
		end := calendar.At(p.Start.Add(time.Duration(n.DurationMinutes) * time.Minute))
		if _, err := d.gateway.UpdateEvent(ctx, event.ID, calendar.Patch{Start: &start, End: &end}); err != nil {
			return response.Result{}, err
		}
		d.ledger.Record(undo.MoveRecord(event))
		d.convo.Commit(ctx)
		return response.Success(fmt.Sprintf(msgMovedFmt, event.Summary, when)), nil

	case conversation.KindCreate:
		created, err := d.gateway.CreateEvent(ctx, calendar.Draft{
			Summary: n.Title,
			Start:   calendar.At(p.Start),
			End:     calendar.At(p.Start.Add(time.Duration(n.DurationMinutes) * time.Minute)),
		})
		if err != nil {
			return response.Result{}, err
		}
		d.ledger.Record(undo.CreateRecord(*created))
		d.convo.Commit(ctx)
		return response.Success(fmt.Sprintf(msgCreatedFmt, n.Title, when)), nil

	default:
		return response.Result{}, fmt.Errorf("unknown negotiation kind %q", n.Kind)
	}
}

func (d *Dispatcher) suggestions(n *conversation.Negotiation, message string) response.Result {
	return response.Suggestions(message, n.Suggestions(), n.EventView())
}

func noSlots(day time.Time) error {
	return apperrors.NewNotFound("free slot", fmt.Sprintf(msgNoSlotsFmt, holiday.FormatMonthDay(day)))
}
