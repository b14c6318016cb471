package scope

import (
	"context"
	"errors"
	"sync"
	"time"
)

var testNow = func() time.Time {
	return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
}

// scriptedModel replays queued replies and records prompts and call kinds.
type scriptedModel struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
	json    []bool
}

type reply struct {
	text string
	err  error
	wait bool // block until the context expires
}

func script(replies ...reply) *scriptedModel {
	return &scriptedModel{replies: replies}
}

func text(s string) reply { return reply{text: s} }
func failure(msg string) reply { return reply{err: errors.New(msg)} }
func stall() reply { return reply{wait: true} }

func (m *scriptedModel) Invoke(ctx context.Context, prompt string) (string, error) {
	return m.next(ctx, prompt, false)
}

func (m *scriptedModel) InvokeJSON(ctx context.Context, prompt string) (string, error) {
	return m.next(ctx, prompt, true)
}

func (m *scriptedModel) next(ctx context.Context, prompt string, json bool) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.json = append(m.json, json)
	if len(m.replies) == 0 {
		m.mu.Unlock()
		return "", errors.New("script exhausted")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	m.mu.Unlock()

	if r.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.text, r.err
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

const (
	clarifyJSON = `{"need_clarification": true, "question": "Which region should the research focus on?", "verification": "N/A"}`
	verifyJSON  = `{"need_clarification": false, "question": "N/A", "verification": "Researching renewable energy"}`
	briefJSON   = "```json\n" + `{
  "research_brief": {
    "title": "Renewable Energy in Europe",
    "main_question": "How has renewable capacity in Europe changed since 2020?",
    "objectives": ["Quantify capacity growth", "Compare solar and wind"],
    "key_questions": ["Which countries lead?"],
    "scope": {"in_scope": ["EU member states"], "out_of_scope": ["Nuclear power"]},
    "constraints": ["Sources from 2020 onwards"]
  }
}` + "\n```"
)
