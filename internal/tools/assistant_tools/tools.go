package assistant_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/response"
	"github.com/teemow/calmate/internal/server"
	"github.com/teemow/calmate/internal/tools/common"
)

const dateLayout = "2006-01-02"

const sessionDescription = "Conversation id (default: the MCP session). Requests with the same id share one pending proposal and one undo record."

// RegisterAssistantTools registers the scheduling assistant tools with the MCP server
func RegisterAssistantTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	handleIntentTool := mcp.NewTool("assistant_handle_intent",
		mcp.WithDescription(`Run one classified scheduling request. The intent is a JSON object with an "action" (move, create, delete, query, confirm, update, respond, bulk_respond, add_attendees, remove_attendees, set_reminder, create_recurring, other) and its fields. Moves and creations answer with up to three proposed slots; pick one with assistant_reply.`),
		mcp.WithString("intent",
			mcp.Required(),
			mcp.Description("Intent JSON, e.g. {\"action\":\"move\",\"eventQuery\":\"定例\",\"date\":\"2026-03-02\",\"newDate\":\"2026-03-03\"}"),
		),
		mcp.WithString(common.SessionArg, mcp.Description(sessionDescription)),
	)
	s.AddTool(handleIntentTool, common.InstrumentedToolHandler("assistant_handle_intent", sc, handleIntent(sc)))

	replyTool := mcp.NewTool("assistant_reply",
		mcp.WithDescription("Answer a pending proposal in free text: a number (\"2\" or \"2番目\"), the day after the original date (\"翌日\"), a time window (\"14時以降\", \"午前中\", \"午後\"), a confirmation (\"はい\") or a cancellation (\"キャンセル\"). Without a pending proposal the text goes to the general responder."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's follow-up utterance"),
		),
		mcp.WithString(common.SessionArg, mcp.Description(sessionDescription)),
	)
	s.AddTool(replyTool, common.InstrumentedToolHandler("assistant_reply", sc, reply(sc)))

	undoTool := mcp.NewTool("assistant_undo",
		mcp.WithDescription("Reverse the most recent create, move or delete of this conversation. Only one level of undo is kept."),
		mcp.WithString(common.SessionArg, mcp.Description(sessionDescription)),
	)
	s.AddTool(undoTool, common.InstrumentedToolHandler("assistant_undo", sc, undo(sc)))

	statusTool := mcp.NewTool("assistant_status",
		mcp.WithDescription("Show the conversation state, the pending proposals and whether undo is possible."),
		mcp.WithString(common.SessionArg, mcp.Description(sessionDescription)),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("assistant_status", sc, status(sc)))

	freeSlotsTool := mcp.NewTool("assistant_find_free_slots",
		mcp.WithDescription("List free slots within business hours on working days, shared with the given attendees."),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("First day to search (YYYY-MM-DD)"),
		),
		mcp.WithString("to",
			mcp.Description("Last day to search, inclusive (YYYY-MM-DD, default: from)"),
		),
		mcp.WithNumber("duration",
			mcp.Description("Meeting length in minutes (default: configured duration)"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendee emails or calendar ids"),
		),
		mcp.WithString(common.SessionArg, mcp.Description(sessionDescription)),
	)
	s.AddTool(freeSlotsTool, common.InstrumentedToolHandler("assistant_find_free_slots", sc, findFreeSlots(sc)))

	return nil
}

// withDispatcher runs fn on the conversation the request belongs to.
func withDispatcher(ctx context.Context, sc *server.ServerContext, request mcp.CallToolRequest, fn func(d *assistant.Dispatcher)) error {
	sess, err := sc.Sessions().Get(ctx, common.GetSessionFromArgs(ctx, request.GetArguments()))
	if err != nil {
		return err
	}
	sess.Do(fn)
	return nil
}

func handleIntent(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := request.RequireString("intent")
		if err != nil || strings.TrimSpace(payload) == "" {
			return mcp.NewToolResultError("intent is required"), nil
		}

		var res response.Result
		err = withDispatcher(ctx, sc, request, func(d *assistant.Dispatcher) {
			res = d.HandleJSON(ctx, []byte(payload))
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to open conversation: %v", err)), nil
		}

		common.Annotate(ctx, intentAction(payload), string(res.Type))
		return resultToTool(res)
	}
}

func reply(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message := strings.TrimSpace(request.GetString("message", ""))
		if message == "" {
			return mcp.NewToolResultError("message is required"), nil
		}

		var res response.Result
		err := withDispatcher(ctx, sc, request, func(d *assistant.Dispatcher) {
			res = d.Reply(ctx, message)
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to open conversation: %v", err)), nil
		}

		common.Annotate(ctx, "reply", string(res.Type))
		return resultToTool(res)
	}
}

func undo(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var res response.Result
		err := withDispatcher(ctx, sc, request, func(d *assistant.Dispatcher) {
			res = d.Undo(ctx)
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to open conversation: %v", err)), nil
		}

		common.Annotate(ctx, "undo", string(res.Type))
		return resultToTool(res)
	}
}

func status(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var st assistant.Status
		err := withDispatcher(ctx, sc, request, func(d *assistant.Dispatcher) {
			st = d.Status()
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to open conversation: %v", err)), nil
		}

		result, _ := json.MarshalIndent(st, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}
}

// slotView is the JSON form of a free slot.
type slotView struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"durationMinutes"`
}

func findFreeSlots(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		from := request.GetString("from", "")
		if from == "" {
			return mcp.NewToolResultError("from is required"), nil
		}
		to := request.GetString("to", from)
		duration := request.GetInt("duration", 0)
		if duration < 0 {
			return mcp.NewToolResultError("duration must be positive"), nil
		}
		attendees := parseAttendees(request.GetString("attendees", ""))

		var (
			slots   []slotView
			callErr error
		)
		err := withDispatcher(ctx, sc, request, func(d *assistant.Dispatcher) {
			loc := d.Location()
			start, err := time.ParseInLocation(dateLayout, from, loc)
			if err != nil {
				callErr = fmt.Errorf("invalid from date %q, expected YYYY-MM-DD", from)
				return
			}
			last, err := time.ParseInLocation(dateLayout, to, loc)
			if err != nil {
				callErr = fmt.Errorf("invalid to date %q, expected YYYY-MM-DD", to)
				return
			}
			if last.Before(start) {
				callErr = fmt.Errorf("to (%s) is before from (%s)", to, from)
				return
			}
			if duration == 0 {
				duration = d.DefaultDuration()
			}

			found, err := d.FindFreeSlots(ctx, start, last.AddDate(0, 0, 1), duration, attendees)
			if err != nil {
				callErr = fmt.Errorf("failed to find free slots: %w", err)
				return
			}
			slots = make([]slotView, 0, len(found))
			for _, s := range found {
				slots = append(slots, slotView{
					Start:           s.Start.In(loc).Format(time.RFC3339),
					End:             s.End.In(loc).Format(time.RFC3339),
					DurationMinutes: s.DurationMinutes,
				})
			}
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to open conversation: %v", err)), nil
		}
		if callErr != nil {
			return mcp.NewToolResultError(callErr.Error()), nil
		}

		result, _ := json.MarshalIndent(slots, "", "  ")
		return mcp.NewToolResultText(string(result)), nil
	}
}

// resultToTool renders a dispatcher result as JSON. Error results are
// flagged as tool errors.
func resultToTool(res response.Result) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	if res.Type == response.TypeError {
		return mcp.NewToolResultError(string(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// intentAction returns the action named by an intent payload, or "" when
// it cannot be read.
func intentAction(payload string) string {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(payload), &head); err != nil {
		return ""
	}
	return head.Action
}

// parseAttendees parses a comma-separated list of email addresses
func parseAttendees(attendeesStr string) []string {
	if attendeesStr == "" {
		return nil
	}

	var attendees []string
	for _, email := range strings.Split(attendeesStr, ",") {
		email = strings.TrimSpace(email)
		if email != "" {
			attendees = append(attendees, email)
		}
	}
	return attendees
}
