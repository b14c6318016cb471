package scope

import "errors"

var (
	// ErrSessionDone is returned when input arrives for a session that already
	// produced its brief.
	ErrSessionDone = errors.New("session is done")

	// ErrEmptyInput is returned for blank user messages.
	ErrEmptyInput = errors.New("empty user message")
)

// Messages the controller falls back to when the model cannot be used.
const (
	FallbackQuestion     = "I'm sorry, I had an error processing your request. Could you rephrase it?"
	DefaultQuestion      = "Could you please clarify your request?"
	DefaultVerification  = "Got it. Proceeding with the research."
	BriefFailureMessage  = "I'm sorry, I couldn't generate the research brief. Please start a new session and try again."
	ReportFailureMessage = "I'm sorry, I couldn't summarize the search results into a report."
)
