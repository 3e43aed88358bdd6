package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/recurrence"
	"github.com/teemow/calmate/internal/response"
	"github.com/teemow/calmate/internal/undo"
)

const (
	msgRecurringNoSlotFmt  = "%sに空き時間が見つかりませんでした。時刻を指定してください。"
	msgRecurringCreatedFmt = "「%s」を%sで作成しました。"
	msgRecurringNextFmt    = "\n次回以降: %s"

	previewOccurrences = 3
)

func (d *Dispatcher) createRecurring(ctx context.Context, in intent.CreateRecurring) (response.Result, error) {
	rule, err := recurrence.Build(in.Rule)
	if err != nil {
		return response.Result{}, apperrors.NewInputError("recurrence", err.Error(), intent.MsgInvalidRecurrence)
	}
	minutes := in.DurationMinutes
	if minutes <= 0 {
		minutes = d.settings.Defaults.DurationMinutes
	}

	day := d.startOfDay(in.Date)
	var start time.Time
	if in.Time != nil {
		start = in.Time.On(day, d.loc)
	} else {
		slots, err := d.searchSlots(ctx, day, day.AddDate(0, 0, 1), minutes, d.options(in.IncludeHolidays), nil)
		if err != nil {
			return response.Result{}, err
		}
		if len(slots) == 0 {
			return response.Result{}, apperrors.NewNotFound("free slot",
				fmt.Sprintf(msgRecurringNoSlotFmt, dateLabel(in.DateText, day)))
		}
		start = slots[0].Start
	}

	title := in.Title
	if title == "" {
		title = defaultTitle
	}
	created, err := d.gateway.CreateEvent(ctx, calendar.Draft{
		Summary:     title,
		Description: in.Description,
		Location:    in.Location,
		Start:       calendar.At(start),
		End:         calendar.At(start.Add(time.Duration(minutes) * time.Minute)),
		Recurrence:  []string{rule},
	})
	if err != nil {
		return response.Result{}, err
	}
	d.ledger.Record(undo.CreateRecord(*created))

	msg := fmt.Sprintf(msgRecurringCreatedFmt, title, recurrence.FrequencyLabel(in.Rule.Frequency))
	if next := d.preview(rule, start); next != "" {
		msg += fmt.Sprintf(msgRecurringNextFmt, next)
	}
	return response.Success(msg), nil
}

// preview lists the first occurrences of rule, or "" when it cannot be
// expanded.
func (d *Dispatcher) preview(rule string, start time.Time) string {
	occurrences, err := recurrence.Preview(rule, start, previewOccurrences)
	if err != nil {
		d.logger.Debug("Could not preview recurrence", logging.Err(err))
		return ""
	}
	parts := make([]string, 0, len(occurrences))
	for _, t := range occurrences {
		e := calendar.Event{Start: calendar.At(t)}
		parts = append(parts, shortWhen(e, d.loc))
	}
	return strings.Join(parts, ", ")
}
