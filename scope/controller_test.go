package scope

import (
	"context"
	"testing"
	"time"

	"github.com/smallnest/scopeagent/log"
	"github.com/smallnest/scopeagent/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(m *scriptedModel, opts ...Option) *Controller {
	base := []Option{WithClock(testNow), WithLogger(log.NoOpLogger{}), WithCallTimeout(time.Second)}
	return NewController(m, append(base, opts...)...)
}

func TestStep_AsksForClarification(t *testing.T) {
	m := script(text(clarifyJSON))
	c := newTestController(m)
	st := NewSessionState("s-1")

	r, err := c.Step(context.Background(), st, "find recent research on renewable energy")
	require.NoError(t, err)

	assert.Equal(t, StatusClarifying, st.Status)
	assert.Equal(t, 1, st.ClarificationCount)
	assert.Nil(t, st.Brief)
	assert.Nil(t, st.LastVerification)
	assert.Equal(t, "Which region should the research focus on?", r.Message)
	assert.Equal(t, []string{"Which region should the research focus on?"}, r.Messages)
	assert.Empty(t, r.RenderedBrief)

	require.Len(t, st.Conversation, 2)
	assert.Equal(t, prompt.RoleUser, st.Conversation[0].Role)
	assert.Equal(t, prompt.RoleAssistant, st.Conversation[1].Role)

	// Clarification prompts carry the conversation and date and use JSON mode.
	require.Equal(t, 1, m.calls())
	assert.Contains(t, m.prompts[0], "Human: find recent research on renewable energy")
	assert.Contains(t, m.prompts[0], "Mon Oct 19, 2026")
	assert.True(t, m.json[0])
}

func TestStep_VerificationProducesBrief(t *testing.T) {
	m := script(text(verifyJSON), text(briefJSON))
	c := newTestController(m)
	st := NewSessionState("s-2")

	r, err := c.Step(context.Background(), st, "renewable energy adoption in the EU since 2020")
	require.NoError(t, err)

	require.NotNil(t, st.LastVerification)
	assert.Equal(t, "Researching renewable energy", *st.LastVerification)
	assert.Equal(t, StatusDone, st.Status)
	assert.Equal(t, 1, st.ClarificationCount)
	require.NotNil(t, st.Brief)
	assert.Equal(t, "Renewable Energy in Europe", st.Brief.Title())
	assert.Equal(t, "Mon Oct 19, 2026", st.Brief[KeyDate])

	// Brief generation ran right after the verification, with the verification text.
	require.Equal(t, 2, m.calls())
	assert.Contains(t, m.prompts[1], "Confirmed research topic: Researching renewable energy")

	assert.Equal(t, []string{"Researching renewable energy", "Research brief ready: Renewable Energy in Europe"}, r.Messages)
	assert.Equal(t, "Research brief ready: Renewable Energy in Europe", r.Message)
	assert.Contains(t, r.RenderedBrief, "# Research Brief: Renewable Energy in Europe")
	assert.Equal(t, StatusDone, r.Status)
}

func TestStep_MissingFlagStaysClarifying(t *testing.T) {
	m := script(text(`{"question": "Do you mean residential or utility scale?", "verification": "I will research solar"}`))
	c := newTestController(m)
	st := NewSessionState("s-3")

	r, err := c.Step(context.Background(), st, "solar")
	require.NoError(t, err)
	assert.Equal(t, StatusClarifying, st.Status)
	assert.Nil(t, st.LastVerification)
	assert.Equal(t, "Do you mean residential or utility scale?", r.Message)
	assert.Equal(t, 1, m.calls())
}

func TestStep_MalformedReplyAsksToRephrase(t *testing.T) {
	m := script(text("I am not JSON at all"))
	c := newTestController(m)
	st := NewSessionState("s-4")

	r, err := c.Step(context.Background(), st, "hello")
	require.NoError(t, err)
	assert.Equal(t, FallbackQuestion, r.Message)
	assert.Equal(t, StatusClarifying, st.Status)
}

func TestStep_ModelFailureAsksToRephrase(t *testing.T) {
	m := script(failure("503 from provider"))
	c := newTestController(m)
	st := NewSessionState("s-5")

	r, err := c.Step(context.Background(), st, "hello")
	require.NoError(t, err)
	assert.Equal(t, FallbackQuestion, r.Message)
	assert.Equal(t, 1, st.ClarificationCount)
}

func TestStep_TimeoutIsAFallback(t *testing.T) {
	m := script(stall())
	c := newTestController(m, WithCallTimeout(20*time.Millisecond))
	st := NewSessionState("s-6")

	start := time.Now()
	r, err := c.Step(context.Background(), st, "hello")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, FallbackQuestion, r.Message)
	assert.Equal(t, StatusClarifying, st.Status)
}

func TestStep_EmptyQuestionUsesDefault(t *testing.T) {
	m := script(text(`{"need_clarification": true, "question": "N/A"}`))
	c := newTestController(m)
	st := NewSessionState("s-7")

	r, err := c.Step(context.Background(), st, "hello")
	require.NoError(t, err)
	assert.Equal(t, DefaultQuestion, r.Message)
}

func TestStep_Liveness(t *testing.T) {
	const maxRounds = 5

	// The model never produces anything usable, yet the session must finish.
	replies := make([]reply, 0, maxRounds+2)
	for range maxRounds {
		replies = append(replies, text("garbage"))
	}
	replies = append(replies, text("I will research whatever the user meant."), text("still garbage"))

	m := script(replies...)
	c := newTestController(m, WithMaxClarifications(maxRounds))
	st := NewSessionState("s-8")

	prevCount := 0
	rounds := 0
	for !st.Status.Terminal() {
		rounds++
		require.LessOrEqual(t, rounds, maxRounds+1, "dialogue did not terminate")

		_, err := c.Step(context.Background(), st, "answer")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, st.ClarificationCount, prevCount)
		assert.Equal(t, rounds, st.ClarificationCount)
		prevCount = st.ClarificationCount
	}

	assert.Equal(t, maxRounds+1, rounds)
	require.NotNil(t, st.LastVerification)
	assert.Equal(t, "I will research whatever the user meant.", *st.LastVerification)
	// The brief reply was garbage too, so the brief is an error placeholder.
	require.NotNil(t, st.Brief)
	assert.True(t, st.Brief.IsError())
	assert.Equal(t, maxRounds+2, m.calls())
}

func TestStep_ForcedVerificationAtLimit(t *testing.T) {
	// Even a clear "needs clarification" answer is ignored once the budget is spent.
	m := script(text(`"I will research offshore wind in the North Sea."`), text(briefJSON))
	c := newTestController(m, WithMaxClarifications(5))

	st := NewSessionState("s-9")
	st.Status = StatusClarifying
	st.ClarificationCount = 5

	r, err := c.Step(context.Background(), st, "still not sure, maybe something about wind?")
	require.NoError(t, err)

	assert.Equal(t, StatusDone, st.Status)
	assert.Equal(t, 6, st.ClarificationCount)
	require.NotNil(t, st.LastVerification)
	assert.Equal(t, "I will research offshore wind in the North Sea.", *st.LastVerification)
	assert.Contains(t, m.prompts[0], "ONE sentence")
	assert.False(t, m.json[0])
	assert.NotEmpty(t, r.RenderedBrief)
}

func TestStep_ForcedVerificationFailureUsesDefault(t *testing.T) {
	m := script(failure("boom"), text(briefJSON))
	c := newTestController(m, WithMaxClarifications(0))
	st := NewSessionState("s-10")

	_, err := c.Step(context.Background(), st, "anything")
	require.NoError(t, err)
	require.NotNil(t, st.LastVerification)
	assert.Equal(t, DefaultVerification, *st.LastVerification)
	assert.Equal(t, StatusDone, st.Status)
}

func TestStep_BriefFailureEndsWithApology(t *testing.T) {
	m := script(text(verifyJSON), failure("connection reset"))
	c := newTestController(m)
	st := NewSessionState("s-11")

	r, err := c.Step(context.Background(), st, "solar")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, st.Status)
	assert.Nil(t, st.Brief)
	assert.Equal(t, BriefFailureMessage, r.Message)
	assert.Empty(t, r.RenderedBrief)
}

func TestStep_StringBriefIsWrapped(t *testing.T) {
	m := script(text(verifyJSON), text(`{"research_brief": "Study renewable energy."}`))
	c := newTestController(m)
	st := NewSessionState("s-12")

	r, err := c.Step(context.Background(), st, "solar")
	require.NoError(t, err)
	require.NotNil(t, st.Brief)
	assert.True(t, st.Brief.IsError())
	assert.Equal(t, "Study renewable energy.", st.Brief[KeyContent])
	assert.Equal(t, Brief{KeyError: "research_brief is not a structured record", KeyContent: "Study renewable energy."}, st.Brief)
	assert.Contains(t, r.RenderedBrief, "## Error")
	assert.Equal(t, "Research brief ready: untitled", r.Message)
}

func TestStep_MissingBriefKeepsErrorRecordShape(t *testing.T) {
	m := script(text(verifyJSON), text(`{"summary": "no brief here"}`))
	c := newTestController(m)
	st := NewSessionState("s-12b")

	_, err := c.Step(context.Background(), st, "solar")
	require.NoError(t, err)
	require.NotNil(t, st.Brief)
	assert.Equal(t, Brief{KeyError: "research_brief field missing", KeyContent: nil}, st.Brief)
	assert.NotContains(t, st.Brief, KeyDate)
}

func TestStep_DoneSessionRejectsInput(t *testing.T) {
	m := script(text(verifyJSON), text(briefJSON))
	c := newTestController(m)
	st := NewSessionState("s-13")

	_, err := c.Step(context.Background(), st, "solar")
	require.NoError(t, err)
	before := st.Clone()

	_, err = c.Step(context.Background(), st, "one more thing")
	assert.ErrorIs(t, err, ErrSessionDone)
	assert.Equal(t, before, st)
	assert.Equal(t, 2, m.calls())
}

func TestStep_EmptyInputRejected(t *testing.T) {
	m := script()
	c := newTestController(m)
	st := NewSessionState("s-14")

	_, err := c.Step(context.Background(), st, "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, st.Conversation)
	assert.Equal(t, 0, m.calls())
}

func TestStep_MultiRoundConversation(t *testing.T) {
	m := script(text(clarifyJSON), text(verifyJSON), text(briefJSON))
	c := newTestController(m)
	st := NewSessionState("s-15")

	_, err := c.Step(context.Background(), st, "renewable energy research")
	require.NoError(t, err)
	_, err = c.Step(context.Background(), st, "Europe, please")
	require.NoError(t, err)

	assert.Equal(t, StatusDone, st.Status)
	assert.Equal(t, 2, st.ClarificationCount)
	// The second clarification prompt saw the whole history.
	assert.Contains(t, m.prompts[1], "Human: renewable energy research\nAI: Which region should the research focus on?\nHuman: Europe, please")
	assert.Len(t, st.Conversation, 5)
}

func TestSessionState_CloneIsIndependent(t *testing.T) {
	v := "verified"
	st := NewSessionState("s")
	st.Conversation = Conversation{{Role: prompt.RoleUser, Content: "a"}}
	st.LastVerification = &v
	st.Brief = Brief{"objectives": []any{"x"}}

	c := st.Clone()
	c.Conversation[0].Content = "changed"
	*c.LastVerification = "changed"
	c.Brief["objectives"].([]any)[0] = "changed"

	assert.Equal(t, "a", st.Conversation[0].Content)
	assert.Equal(t, "verified", *st.LastVerification)
	assert.Equal(t, "x", st.Brief["objectives"].([]any)[0])
}

func TestMarshalRoundTripKeepsStatus(t *testing.T) {
	m := script(text(clarifyJSON))
	c := newTestController(m)
	st := NewSessionState("s-16")
	_, err := c.Step(context.Background(), st, "hello")
	require.NoError(t, err)

	data, err := MarshalState(st)
	require.NoError(t, err)
	got, err := UnmarshalState(data)
	require.NoError(t, err)
	assert.Equal(t, st.Status, got.Status)
	assert.Equal(t, st.ClarificationCount, got.ClarificationCount)
	assert.Equal(t, st.Conversation, got.Conversation)
}
