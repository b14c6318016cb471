package prompt

import (
	"strings"
	"time"
)

// DateLayout renders dates like "Mon Oct 19, 2026".
const DateLayout = "Mon Jan 2, 2006"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation entry.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Buffer renders turns one per line as "Human: ..." / "AI: ...".
func Buffer(turns []Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch t.Role {
		case RoleUser:
			sb.WriteString("Human: ")
		case RoleAssistant:
			sb.WriteString("AI: ")
		default:
			sb.WriteString(string(t.Role) + ": ")
		}
		sb.WriteString(t.Content)
	}
	return sb.String()
}

// Formatter fills the prompt templates. The zero value uses time.Now.
type Formatter struct {
	Now func() time.Time
}

// NewFormatter returns a Formatter using the given clock; nil means time.Now.
func NewFormatter(now func() time.Time) *Formatter {
	return &Formatter{Now: now}
}

// Today returns the current date in DateLayout.
func (f *Formatter) Today() string {
	now := time.Now
	if f != nil && f.Now != nil {
		now = f.Now
	}
	return now().Format(DateLayout)
}

// Clarify builds the clarification prompt from the whole conversation.
func (f *Formatter) Clarify(turns []Turn) string {
	return fill(clarifyTemplate, map[string]string{
		"messages": Buffer(turns),
		"date":     f.Today(),
	})
}

// ForceVerification builds the prompt used once the clarification budget is spent.
func (f *Formatter) ForceVerification(turns []Turn) string {
	return fill(forceVerificationTemplate, map[string]string{
		"messages": Buffer(turns),
		"date":     f.Today(),
	})
}

// Brief builds the research brief prompt.
func (f *Formatter) Brief(turns []Turn, verification string) string {
	return fill(briefTemplate, map[string]string{
		"messages":     Buffer(turns),
		"verification": verification,
		"date":         f.Today(),
	})
}

// Summarize builds the prompt that turns search results into a report.
func (f *Formatter) Summarize(query, results string) string {
	return fill(summarizeTemplate, map[string]string{
		"query":          query,
		"search_results": results,
		"date":           f.Today(),
	})
}

func fill(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
