package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/holiday"
)

const dateLayout = "2006-01-02"

type slotsOptions struct {
	from      string
	to        string
	duration  int
	attendees []string
}

func newSlotsCmd() *cobra.Command {
	var opts slotsOptions

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print free slots within business hours",
		Long: `Print the free slots of the configured calendar between two dates
(inclusive), within business hours on working days. With --attendee the
slots must also be free for every attendee.`,
		Example: `  calmate slots --from 2026-03-02 --to 2026-03-06 --duration 30
  calmate slots --from 2026-03-02 --attendee alice@example.com --attendee bob@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSlots(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "First day to search (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last day to search, inclusive (YYYY-MM-DD, default: --from)")
	cmd.Flags().IntVar(&opts.duration, "duration", 0, "Meeting length in minutes (default: defaults.duration_minutes)")
	cmd.Flags().StringSliceVar(&opts.attendees, "attendee", nil, "Attendee email or calendar id (repeatable)")

	return cmd
}

func runSlots(ctx context.Context, w io.Writer, opts slotsOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, nil, newLogger(os.Stderr, debugMode))
	if err != nil {
		return err
	}
	d, err := a.newDispatcher()
	if err != nil {
		return err
	}

	loc := d.Location()
	start, end, err := parseRange(opts.from, opts.to, time.Now().In(loc), loc)
	if err != nil {
		return err
	}
	duration := opts.duration
	if duration == 0 {
		duration = d.DefaultDuration()
	}
	if duration < 0 {
		return fmt.Errorf("--duration must be positive, got %d", duration)
	}

	slots, err := d.FindFreeSlots(ctx, start, end, duration, opts.attendees)
	if err != nil {
		return err
	}
	return printSlots(w, slots, loc)
}

// parseRange returns [from, to+1 day) in loc. Empty dates default to today
// and to from respectively.
func parseRange(from, to string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	var start time.Time
	if from == "" {
		y, m, d := now.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	} else {
		var err error
		if start, err = time.ParseInLocation(dateLayout, from, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q, expected YYYY-MM-DD", from)
		}
	}

	last := start
	if to != "" {
		var err error
		if last, err = time.ParseInLocation(dateLayout, to, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q, expected YYYY-MM-DD", to)
		}
	}
	if last.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", last.Format(dateLayout), start.Format(dateLayout))
	}
	return start, last.AddDate(0, 0, 1), nil
}

// printSlots writes one line per slot, e.g. "3月2日(月) 09:00-10:00 (60分)".
func printSlots(w io.Writer, slots []availability.FreeSlot, loc *time.Location) error {
	if len(slots) == 0 {
		_, err := fmt.Fprintln(w, "空き時間が見つかりませんでした。")
		return err
	}
	for _, s := range slots {
		start, end := s.Start.In(loc), s.End.In(loc)
		if _, err := fmt.Fprintf(w, "%s %s-%s (%d分)\n",
			holiday.FormatDate(start), start.Format("15:04"), end.Format("15:04"), s.DurationMinutes); err != nil {
			return err
		}
	}
	return nil
}
