// Package scope implements the research scoping dialogue: a small state machine
// that asks the user clarifying questions, confirms what it will research, and
// then produces a structured research brief.
//
// # States
//
//	AWAITING_INPUT --user--> clarification round
//	    needs clarification    -> CLARIFYING (wait for user)
//	    verified               -> BRIEF_READY -> brief generation -> DONE
//
// Every round appends to the session's Conversation and increments
// ClarificationCount. Once the count reaches the controller's clarification budget
// the next round skips the model's decision and asks for a one-sentence
// verification instead, so a session always reaches DONE within
// MaxClarifications+1 clarification calls. A DONE session rejects further input
// with ErrSessionDone.
//
// # Tolerant parsing
//
// Model replies are untrusted text. ParseDecision extracts the largest {...}
// block and decodes it; anything it cannot read becomes FallbackDecision, which
// asks the user to rephrase. A reply without a boolean need_clarification flag is
// treated as still needing clarification. ParseBrief follows the same policy and
// wraps a missing or malformed research_brief into an {error, content} record.
//
// FormatBrief renders any brief, including error records and arbitrary values,
// without failing.
//
// # Research
//
// WithResearch adds the search-and-summarize step: after the brief is written the
// controller searches for its main question and stores a model-written Report.
//
// # Usage
//
//	ctrl := scope.NewController(invoker,
//		scope.WithMaxClarifications(5),
//		scope.WithCallTimeout(30*time.Second),
//	)
//	st := scope.NewSessionState(id)
//	reply, err := ctrl.Step(ctx, st, "find recent research on renewable energy")
package scope
