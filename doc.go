// Scope Agent - turning vague research requests into research briefs
//
// Scope Agent is a research scoping assistant. It reads what the user wants
// researched, asks clarifying questions until the request is clear (or a fixed
// budget of questions is spent), confirms what it will research and then writes a
// structured research brief. Optionally it searches the web for the brief's main
// question and summarizes the hits into a report.
//
// # Quick Start
//
// Run the console chat with an OpenAI key in the environment:
//
//	export OPENAI_API_KEY=sk-...
//	go run ./cmd/scopeagent chat
//
// Or serve the session API:
//
//	go run ./cmd/scopeagent serve --addr :8080
//
// Embedding the controller directly:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/scopeagent/model"
//		"github.com/smallnest/scopeagent/scope"
//	)
//
//	func main() {
//		ctx := context.Background()
//		llm, _ := model.NewOpenAI("", "gpt-4o-mini", "", 0)
//
//		c := scope.NewController(llm, scope.WithMaxClarifications(3))
//		st := scope.NewSessionState("demo")
//
//		reply, _ := c.Step(ctx, st, "I want to research renewable energy")
//		fmt.Println(reply.Message)
//		if reply.Status == scope.StatusDone {
//			fmt.Println(reply.RenderedBrief)
//		}
//	}
//
// # Dialogue
//
// Each session is an explicit state machine:
//
//	AWAITING_INPUT -> CLARIFYING -> BRIEF_READY -> DONE
//
// Every user message runs clarification rounds until the controller needs the user
// again or reaches DONE. Once the clarification count reaches the configured
// maximum (5 by default) the controller stops asking and forces a verification, so
// a session always finishes within MAX+1 rounds. Model failures, timeouts and
// unparseable replies never abort a session: they degrade to a "please rephrase"
// question or to an apology in place of the brief.
//
// # Package Structure
//
// scope/
// The dialogue controller, tolerant response parsing, brief parsing and the total
// brief formatter.
//
// prompt/
// Prompt templates and the conversation buffer ("Human: ..." / "AI: ...").
//
// model/
// The Invoker interface with providers for OpenAI (langchaingo), Gemini (genai)
// and OpenAI-compatible endpoints (go-openai), plus the per-call timeout wrapper.
//
// search/
// Tavily and Brave web search for the research step.
//
// store/
// Session snapshots in memory, SQLite, Redis or PostgreSQL.
//
//	s := redis.NewRedisSessionStore(redis.RedisOptions{
//		Addr: "localhost:6379",
//		TTL:  24 * time.Hour,
//	})
//
// session/
// Loads, steps and saves sessions by id with a per-id lock.
//
// server/
// chi HTTP routes over the session manager.
//
// render/
// Markdown to sanitized HTML for briefs and reports.
//
// config/
// Defaults, .env, an optional YAML file and SCOPE_* environment variables.
//
// log/
// Leveled logging with standard-library and golog backends.
//
// # Configuration
//
// The most common environment variables:
//
//	SCOPE_MODEL_PROVIDER      openai | gemini | compatible
//	SCOPE_MODEL               model name
//	SCOPE_MAX_CLARIFICATIONS  clarification budget (default 5)
//	SCOPE_CALL_TIMEOUT        per model call, e.g. 60s
//	SCOPE_RESEARCH            enable search and report
//	SCOPE_STORE               memory | sqlite | redis | postgres
//	OPENAI_API_KEY, GOOGLE_API_KEY, TAVILY_API_KEY, BRAVE_API_KEY
package scopeagent // import "github.com/smallnest/scopeagent"
