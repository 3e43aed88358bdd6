// Package conversation holds the pending scheduling negotiation of a
// session and resolves follow-up utterances against it.
//
// A Context is either idle or awaiting a selection. While a negotiation is
// open, Resolve classifies the next utterance, in this order:
//
//   - a time-of-day constraint ("14時以降", "午前中") narrows the proposals
//     to slots of the pool starting inside the window
//   - "翌日" or "次の日" picks the proposal on the day after the moved
//     event, if any
//   - an ordinal ("2番目") or a bare number within range selects a proposal
//   - a negative phrase cancels the negotiation, even next to an
//     affirmative one ("キャンセルして")
//   - an affirmative phrase selects the first proposal
//
// Anything else is handed to a Responder and leaves the negotiation open.
// Selections are only cleared by Commit, so a failed calendar update keeps
// the proposals available.
package conversation
