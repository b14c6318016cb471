package scope

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallnest/scopeagent/log"
	"github.com/smallnest/scopeagent/model"
	"github.com/smallnest/scopeagent/prompt"
	"github.com/smallnest/scopeagent/search"
)

// DefaultMaxClarifications bounds the number of clarification rounds per session.
const DefaultMaxClarifications = 5

// DefaultCallTimeout bounds every model call.
const DefaultCallTimeout = 60 * time.Second

// Reply is what one Step produced for the user.
type Reply struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
	// Messages holds every assistant turn appended during the step, in order.
	Messages []string `json:"messages"`
	// Message is the latest assistant utterance.
	Message string `json:"message"`
	Brief   Brief  `json:"brief,omitempty"`
	// RenderedBrief is set once the session is terminal and a brief exists.
	RenderedBrief string `json:"rendered_brief,omitempty"`
	Report        string `json:"report,omitempty"`
}

// Controller is the clarification and brief-generation state machine. It holds no
// per-session data, so one Controller can serve any number of sessions as long as
// each SessionState is stepped by one caller at a time.
type Controller struct {
	invoker           model.Invoker
	prompts           *prompt.Formatter
	searcher          search.Searcher
	research          bool
	maxClarifications int
	callTimeout       time.Duration
	logger            log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxClarifications sets how many clarification rounds run before the
// controller forces a verification. Negative values are treated as zero.
func WithMaxClarifications(n int) Option {
	return func(c *Controller) {
		c.maxClarifications = max(n, 0)
	}
}

// WithCallTimeout sets the deadline applied to every model call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.callTimeout = d
	}
}

// WithClock replaces time.Now for prompt dates.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.prompts = prompt.NewFormatter(now)
	}
}

// WithResearch enables the search-and-summarize step after a brief is produced.
func WithResearch(s search.Searcher) Option {
	return func(c *Controller) {
		c.searcher = s
		c.research = s != nil
	}
}

// WithLogger sets the logger. The package default is used otherwise.
func WithLogger(l log.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController creates a controller around the given model invoker.
func NewController(inv model.Invoker, opts ...Option) *Controller {
	c := &Controller{
		invoker:           inv,
		prompts:           prompt.NewFormatter(nil),
		maxClarifications: DefaultMaxClarifications,
		callTimeout:       DefaultCallTimeout,
		logger:            log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.invoker = model.WithTimeout(c.invoker, c.callTimeout)
	return c
}

// MaxClarifications returns the configured clarification budget.
func (c *Controller) MaxClarifications() int {
	return c.maxClarifications
}

// Step feeds one user message into the session and runs the dialogue until it
// needs the user again or reaches DONE. st is updated only when the step
// completes; rejected input leaves it untouched.
func (c *Controller) Step(ctx context.Context, st *SessionState, userText string) (*Reply, error) {
	if st.Status.Terminal() {
		return nil, ErrSessionDone
	}
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, ErrEmptyInput
	}

	next := st.Clone()
	next.append(prompt.RoleUser, userText)
	start := len(next.Conversation)

	for !next.Status.Terminal() {
		prev := next.Status
		switch next.Status {
		case StatusAwaitingInput, StatusClarifying:
			if c.clarify(ctx, next) {
				// Waiting on the user again.
				c.logger.Debug("session %s: %s -> %s (round %d)", next.ID, prev, next.Status, next.ClarificationCount)
				return c.commit(st, next, start), nil
			}
		case StatusBriefReady:
			c.writeBrief(ctx, next)
		default:
			return nil, fmt.Errorf("session %s: unknown status %q", next.ID, next.Status)
		}
		c.logger.Debug("session %s: %s -> %s", next.ID, prev, next.Status)
	}

	return c.commit(st, next, start), nil
}

func (c *Controller) commit(st, next *SessionState, start int) *Reply {
	next.UpdatedAt = time.Now()
	*st = *next

	reply := &Reply{
		SessionID: st.ID,
		Status:    st.Status,
		Message:   st.Conversation.LastAssistant(),
		Report:    st.Report,
	}
	for _, t := range st.Conversation[start:] {
		if t.Role == prompt.RoleAssistant {
			reply.Messages = append(reply.Messages, t.Content)
		}
	}
	if st.Status.Terminal() && st.Brief != nil {
		reply.Brief = st.Brief
		reply.RenderedBrief = FormatBrief(st.Brief)
	}
	return reply
}

// clarify runs one clarification round. It returns true when the session must
// wait for the user, false when it moved on to BRIEF_READY.
func (c *Controller) clarify(ctx context.Context, st *SessionState) bool {
	var d Decision
	if st.ClarificationCount >= c.maxClarifications {
		d = c.forceVerification(ctx, st)
	} else {
		d = c.decide(ctx, st)
	}

	if d.NeedsClarification {
		q := d.Question
		if q == "" {
			q = DefaultQuestion
		}
		st.append(prompt.RoleAssistant, q)
		st.ClarificationCount++
		st.Status = StatusClarifying
		return true
	}

	v := d.Verification
	if v == "" {
		v = DefaultVerification
	}
	st.append(prompt.RoleAssistant, v)
	st.LastVerification = &v
	st.ClarificationCount++
	st.Status = StatusBriefReady
	return false
}

func (c *Controller) decide(ctx context.Context, st *SessionState) Decision {
	p := c.prompts.Clarify(st.Conversation)
	c.logger.Debug("session %s: clarify prompt:\n%s", st.ID, p)

	raw, err := model.InvokeJSON(ctx, c.invoker, p)
	if err != nil {
		c.logger.Warn("session %s: clarification call failed: %v", st.ID, err)
		return FallbackDecision()
	}
	d := ParseDecision(raw)
	if d.Question == FallbackQuestion {
		c.logger.Warn("session %s: unparseable clarification reply: %q", st.ID, raw)
	}
	return d
}

// forceVerification ends the clarification phase regardless of what the model
// would decide.
func (c *Controller) forceVerification(ctx context.Context, st *SessionState) Decision {
	c.logger.Info("session %s: clarification limit (%d) reached, forcing verification", st.ID, c.maxClarifications)

	raw, err := c.invoker.Invoke(ctx, c.prompts.ForceVerification(st.Conversation))
	if err != nil {
		c.logger.Warn("session %s: forced verification failed: %v", st.ID, err)
		raw = ""
	}
	return Decision{NeedsClarification: false, Verification: firstLine(raw)}
}

// writeBrief generates the brief and always leaves st in DONE.
func (c *Controller) writeBrief(ctx context.Context, st *SessionState) {
	verification := ""
	if st.LastVerification != nil {
		verification = *st.LastVerification
	}

	raw, err := model.InvokeJSON(ctx, c.invoker, c.prompts.Brief(st.Conversation, verification))
	if err != nil {
		c.logger.Error("session %s: brief generation failed: %v", st.ID, err)
		st.append(prompt.RoleAssistant, BriefFailureMessage)
		st.Brief = nil
		st.Status = StatusDone
		return
	}

	brief := ParseBrief(raw)
	if brief.IsError() {
		c.logger.Warn("session %s: %s", st.ID, brief.ErrorReason())
	}
	if _, ok := brief[KeyDate]; !ok && !brief.IsError() {
		brief[KeyDate] = c.prompts.Today()
	}
	st.Brief = brief

	title := brief.Title()
	if title == "" {
		title = "untitled"
	}
	st.append(prompt.RoleAssistant, "Research brief ready: "+title)
	c.logger.Info("session %s: research brief ready after %d round(s)", st.ID, st.ClarificationCount)

	if c.research {
		c.runResearch(ctx, st, verification)
	}
	st.Status = StatusDone
}

// firstLine trims the reply to its first non-empty line, without surrounding quotes.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"`)
		if line != "" {
			return line
		}
	}
	return ""
}
