package assistant

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/response"
)

const (
	msgBulkNoneFmt   = "指定期間内に%sのイベントが見つかりませんでした。"
	msgBulkDoneFmt   = "%d件のイベントに「%s」で回答しました。"
	msgBulkSucceeded = "\n\n【処理したイベント】"
	msgBulkFailed    = "\n\n【失敗】"
	defaultFilter    = "未回答"
)

// bulkOutcome is the result of one independent update.
type bulkOutcome struct {
	event calendar.Event
	err   error
}

func (d *Dispatcher) bulkRespond(ctx context.Context, in intent.BulkRespond) (response.Result, error) {
	events, err := d.gateway.GetEvents(ctx, in.Start, in.End)
	if err != nil {
		return response.Result{}, err
	}
	me, err := d.gateway.GetCallerIdentity(ctx)
	if err != nil {
		return response.Result{}, err
	}

	var targets []calendar.Event
	for _, e := range events {
		i := selfIndex(e, me.Email)
		if i < 0 || e.Status == "cancelled" {
			continue
		}
		if matchesFilter(in.Filter, e.Attendees[i].ResponseStatus) {
			targets = append(targets, e)
		}
	}
	if len(targets) == 0 {
		label := in.Filter
		if label == "" {
			label = defaultFilter
		}
		return response.Message(fmt.Sprintf(msgBulkNoneFmt, label)), nil
	}

	// Each update runs independently; a failure is collected and never
	// cancels the others.
	outcomes := make([]bulkOutcome, len(targets))
	var g errgroup.Group
	g.SetLimit(d.settings.BulkConcurrency)
	for i, e := range targets {
		g.Go(func() error {
			attendees := withResponse(e, me.Email, in.Status)
			_, err := d.gateway.UpdateEvent(ctx, e.ID, calendar.Patch{Attendees: &attendees})
			outcomes[i] = bulkOutcome{event: e, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return d.bulkResult(in.Status, outcomes), nil
}

// matchesFilter applies a bulk filter to the caller's response status.
// Unknown filters select events not yet answered.
func matchesFilter(filter, status string) bool {
	switch filter {
	case intent.FilterAll:
		return true
	case intent.FilterTentative:
		return status == calendar.StatusTentative
	case intent.FilterNeedsAction:
		return status == calendar.StatusNeedsAction
	default:
		return status == calendar.StatusNeedsAction || status == ""
	}
}

func (d *Dispatcher) bulkResult(status string, outcomes []bulkOutcome) response.Result {
	summary := &response.BulkSummary{Succeeded: []response.BulkEntry{}}
	for _, o := range outcomes {
		if o.err != nil {
			d.logger.Warn("Bulk response update failed", logging.Err(o.err))
			summary.Failed = append(summary.Failed, o.event.Summary)
			continue
		}
		summary.Succeeded = append(summary.Succeeded, response.BulkEntry{
			Summary: o.event.Summary,
			Date:    o.event.Start.In(d.loc).Format(calendar.DateLayout),
			Time:    eventClock(o.event, d.loc),
		})
	}
	summary.SuccessCount = len(summary.Succeeded)

	var b strings.Builder
	fmt.Fprintf(&b, msgBulkDoneFmt, summary.SuccessCount, statusLabel(status))
	if summary.SuccessCount > 0 {
		b.WriteString(msgBulkSucceeded)
		n := 0
		for _, o := range outcomes {
			if o.err != nil {
				continue
			}
			n++
			fmt.Fprintf(&b, "\n%d. %s (%s)", n, o.event.Summary, shortWhen(o.event, d.loc))
		}
	}
	if len(summary.Failed) > 0 {
		b.WriteString(msgBulkFailed)
		for _, name := range summary.Failed {
			b.WriteString("\n" + name)
		}
	}

	res := response.Success(b.String())
	res.Bulk = summary
	return res
}
