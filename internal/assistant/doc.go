// Package assistant dispatches validated intents to their handlers.
//
// A Dispatcher belongs to one conversation. It searches free slots through
// the availability engine, opens negotiations in the conversation context,
// commits the user's selection through the calendar gateway and records
// reversible changes in the undo ledger. Every call returns exactly one
// response.Result; expected outcomes such as "no matching event" are
// messages, and only gateway failures become error results.
package assistant
