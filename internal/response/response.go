// Package response defines the result every assistant operation returns to
// the presentation layer.
package response

import (
	"github.com/teemow/calmate/internal/apperrors"
)

// Type is the kind of a Result.
type Type string

// Result types.
const (
	TypeSuccess     Type = "success"
	TypeMessage     Type = "message"
	TypeError       Type = "error"
	TypeSuggestions Type = "suggestions"
)

// ErrorPrefix starts the message of results produced from unexpected errors.
const ErrorPrefix = "エラーが発生しました: "

// Result is the outcome of one request.
type Result struct {
	Type        Type         `json:"type"`
	Message     string       `json:"message"`
	Event       *EventView   `json:"event,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Bulk        *BulkSummary `json:"bulk,omitempty"`
	// Undone is set when the result reverses a previous action.
	Undone bool `json:"undone,omitempty"`
}

// Suggestion is one proposed slot.
type Suggestion struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Time   string `json:"time"` // HH:MM
	Reason string `json:"reason"`
}

// EventView describes the event a move negotiation is about.
type EventView struct {
	Summary        string   `json:"summary"`
	Start          string   `json:"start"`
	Attendees      []string `json:"attendees,omitempty"`
	HumanAttendees []string `json:"humanAttendees,omitempty"`
	RoomResources  []string `json:"roomResources,omitempty"`
}

// BulkSummary reports the outcome of a bulk response.
type BulkSummary struct {
	SuccessCount int         `json:"successCount"`
	Succeeded    []BulkEntry `json:"succeeded"`
	Failed       []string    `json:"failed,omitempty"`
}

// BulkEntry is one event a bulk response was applied to.
type BulkEntry struct {
	Summary string `json:"summary"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Success returns a success result.
func Success(message string) Result {
	return Result{Type: TypeSuccess, Message: message}
}

// Message returns an informational result.
func Message(message string) Result {
	return Result{Type: TypeMessage, Message: message}
}

// Error returns an error result.
func Error(message string) Result {
	return Result{Type: TypeError, Message: message}
}

// Suggestions returns a suggestions result.
func Suggestions(message string, suggestions []Suggestion, event *EventView) Result {
	return Result{Type: TypeSuggestions, Message: message, Suggestions: suggestions, Event: event}
}

// FromError maps err to a result. Errors carrying a user-facing message
// (input, not found, state) become messages; everything else, gateway
// failures included, becomes an error result.
func FromError(err error) Result {
	if err == nil {
		return Message("")
	}
	if msg, ok := apperrors.UserMessage(err); ok {
		return Message(msg)
	}
	return Error(ErrorPrefix + err.Error())
}
