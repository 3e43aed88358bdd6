package instrumentation

// Gateway operation names used as metric labels and span names.
const (
	OperationGetEvents      = "get_events"
	OperationGetEvent       = "get_event"
	OperationCreateEvent    = "create_event"
	OperationUpdateEvent    = "update_event"
	OperationDeleteEvent    = "delete_event"
	OperationFreeBusy       = "free_busy"
	OperationSearchEvents   = "search_events"
	OperationCallerIdentity = "caller_identity"
)

// SessionLabel shortens a session id to a low-cardinality prefix.
//
// Example:
//
//	SessionLabel("3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e")  // "3f2b8c1e"
//	SessionLabel("")                                      // "unknown"
func SessionLabel(id string) string {
	if id == "" {
		return "unknown"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
