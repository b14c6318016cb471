package scope

import (
	"context"

	"github.com/smallnest/scopeagent/prompt"
	"github.com/smallnest/scopeagent/search"
)

// researchQuery picks the search query for a brief: its main question, then its
// title, then the verification text.
func researchQuery(b Brief, verification string) string {
	if b != nil && !b.IsError() {
		if q := b.MainQuestion(); q != "" {
			return q
		}
		if t := b.Title(); t != "" {
			return t
		}
	}
	return verification
}

// runResearch searches for the brief's topic and summarizes the hits into a report.
// Failures leave Report empty; the session still ends normally.
func (c *Controller) runResearch(ctx context.Context, st *SessionState, verification string) {
	if st.Brief == nil {
		c.logger.Warn("session %s: No research brief provided.", st.ID)
		return
	}
	query := researchQuery(st.Brief, verification)
	if query == "" {
		c.logger.Warn("session %s: no research query could be derived from the brief", st.ID)
		return
	}

	content, err := search.Run(ctx, c.searcher, query)
	if err != nil {
		c.logger.Warn("session %s: search failed: %v", st.ID, err)
	}

	report, err := c.invoker.Invoke(ctx, c.prompts.Summarize(query, content))
	if err != nil {
		c.logger.Error("session %s: report summarization failed: %v", st.ID, err)
		st.append(prompt.RoleAssistant, ReportFailureMessage)
		return
	}
	st.Report = report
	st.append(prompt.RoleAssistant, report)
}
