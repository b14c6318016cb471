package scope

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/smallnest/scopeagent/prompt"
)

// Status is the dialogue controller's state.
type Status string

const (
	StatusAwaitingInput Status = "AWAITING_INPUT"
	StatusClarifying    Status = "CLARIFYING"
	StatusBriefReady    Status = "BRIEF_READY"
	StatusDone          Status = "DONE"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusDone
}

// Turn is one conversation entry.
type Turn = prompt.Turn

// Conversation is the append-only history of a session.
type Conversation []Turn

// LastAssistant returns the most recent assistant turn, or "".
func (c Conversation) LastAssistant() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == prompt.RoleAssistant {
			return c[i].Content
		}
	}
	return ""
}

// Decision is the parsed outcome of one clarification round.
type Decision struct {
	NeedsClarification bool   `json:"need_clarification"`
	Question           string `json:"question"`
	Verification       string `json:"verification"`
}

// SessionState is everything the controller knows about one session.
type SessionState struct {
	ID                 string       `json:"id"`
	Status             Status       `json:"status"`
	Conversation       Conversation `json:"conversation"`
	ClarificationCount int          `json:"clarification_count"`
	LastVerification   *string      `json:"last_verification,omitempty"`
	Brief              Brief        `json:"brief,omitempty"`
	Report             string       `json:"report,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// NewSessionState returns an empty session in AWAITING_INPUT.
func NewSessionState(id string) *SessionState {
	now := time.Now()
	return &SessionState{
		ID:        id,
		Status:    StatusAwaitingInput,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares no mutable data with s.
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.Conversation = slices.Clone(s.Conversation)
	if s.LastVerification != nil {
		v := *s.LastVerification
		c.LastVerification = &v
	}
	if s.Brief != nil {
		c.Brief = Brief(cloneValue(map[string]any(s.Brief)).(map[string]any))
	}
	return &c
}

func (s *SessionState) append(role prompt.Role, content string) {
	s.Conversation = append(s.Conversation, Turn{Role: role, Content: content})
}

// MarshalState encodes a session for a store.
func MarshalState(s *SessionState) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalState decodes a session written by MarshalState.
func UnmarshalState(data []byte) (*SessionState, error) {
	var s SessionState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Status == "" {
		s.Status = StatusAwaitingInput
	}
	return &s, nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := maps.Clone(t)
		for k, vv := range m {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := slices.Clone(t)
		for i, vv := range s {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}
