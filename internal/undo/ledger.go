// Package undo keeps the single most recent reversible calendar change.
package undo

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
)

// MsgNothingToUndo is shown when the ledger is empty.
const MsgNothingToUndo = "取り消せる操作がありません。"

// Kind is the kind of a recorded change.
type Kind string

// Recorded change kinds.
const (
	KindCreate Kind = "create"
	KindMove   Kind = "move"
	KindDelete Kind = "delete"
)

var kindLabels = map[Kind]string{
	KindCreate: "作成",
	KindMove:   "移動",
	KindDelete: "削除",
}

// Record holds what is needed to reverse one change.
type Record struct {
	Kind    Kind
	EventID string
	Summary string
	// OriginalStart and OriginalEnd are set for moves.
	OriginalStart calendar.EventTime
	OriginalEnd   calendar.EventTime
	// Snapshot is the deleted event, set for deletes.
	Snapshot *calendar.Event
}

// CreateRecord records that e was created.
func CreateRecord(e calendar.Event) Record {
	return Record{Kind: KindCreate, EventID: e.ID, Summary: e.Summary}
}

// MoveRecord records that e was moved away from its current start and end.
func MoveRecord(e calendar.Event) Record {
	return Record{
		Kind:          KindMove,
		EventID:       e.ID,
		Summary:       e.Summary,
		OriginalStart: e.Start,
		OriginalEnd:   e.End,
	}
}

// DeleteRecord records that e was deleted.
func DeleteRecord(e calendar.Event) Record {
	snapshot := e
	snapshot.Attendees = append([]calendar.Attendee(nil), e.Attendees...)
	return Record{Kind: KindDelete, EventID: e.ID, Summary: e.Summary, Snapshot: &snapshot}
}

// Ledger holds zero or one Record. It is not safe for concurrent use; the
// owning session serializes access.
type Ledger struct {
	gateway calendar.Gateway
	logger  *slog.Logger
	record  *Record
}

// NewLedger creates an empty ledger that reverses changes through gateway.
func NewLedger(gateway calendar.Gateway, logger *slog.Logger) *Ledger {
	return &Ledger{gateway: gateway, logger: logging.WithOperation(logger, "undo")}
}

// Record replaces the held record.
func (l *Ledger) Record(r Record) {
	l.record = &r
}

// CanUndo reports whether a record is held.
func (l *Ledger) CanUndo() bool {
	return l.record != nil
}

// Peek returns the held record.
func (l *Ledger) Peek() (Record, bool) {
	if l.record == nil {
		return Record{}, false
	}
	return *l.record, true
}

// Clear drops the held record.
func (l *Ledger) Clear() {
	l.record = nil
}

// Undo reverses the held change and returns the message to show. With
// nothing held it returns a *apperrors.StateError. The record is kept when
// the gateway call fails.
func (l *Ledger) Undo(ctx context.Context) (msg string, err error) {
	if l.record == nil {
		return "", apperrors.NewStateError("nothing to undo", MsgNothingToUndo)
	}
	r := *l.record

	ctx, span := instrumentation.StartSpan(ctx, "undo.apply",
		attribute.String(instrumentation.SpanAttrUndoKind, string(r.Kind)))
	defer func() { instrumentation.EndSpan(span, err) }()

	switch r.Kind {
	case KindCreate:
		err = l.gateway.DeleteEvent(ctx, r.EventID)
	case KindMove:
		start, end := r.OriginalStart, r.OriginalEnd
		_, err = l.gateway.UpdateEvent(ctx, r.EventID, calendar.Patch{Start: &start, End: &end})
	case KindDelete:
		if r.Snapshot == nil {
			return "", fmt.Errorf("delete record for %s has no snapshot", r.EventID)
		}
		draft := calendar.DraftFromEvent(*r.Snapshot)
		draft.Recurrence = nil
		_, err = l.gateway.CreateEvent(ctx, draft)
	default:
		return "", fmt.Errorf("unknown undo kind %q", r.Kind)
	}
	if err != nil {
		l.logger.WarnContext(ctx, "undo failed", slog.String("kind", string(r.Kind)), logging.Err(err))
		return "", err
	}

	l.record = nil
	l.logger.DebugContext(ctx, "undo applied", slog.String("kind", string(r.Kind)))
	return fmt.Sprintf("「%s」の%sを取り消しました。", r.Summary, kindLabels[r.Kind]), nil
}
