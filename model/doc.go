// Package model is the boundary between the scoping agent and hosted language models.
//
// The agent only needs one operation, Invoke, which sends a prompt and returns the
// model's raw text. Providers that can constrain their output to a JSON object also
// implement StructuredInvoker; callers go through InvokeJSON, which uses JSON mode
// when available and plain Invoke otherwise. Either way the reply is untrusted text
// that the scope package parses tolerantly.
//
// # Providers
//
//   - LangChain wraps any github.com/tmc/langchaingo llms.Model; NewOpenAI builds
//     one on langchaingo's OpenAI client.
//   - Gemini uses google.golang.org/genai against the Gemini API.
//   - Compatible uses github.com/sashabaranov/go-openai against any
//     OpenAI-compatible endpoint.
//
// New selects one by name from configuration:
//
//	inv, err := model.New(ctx, model.Options{Provider: "gemini", APIKey: key})
//	inv = model.WithTimeout(inv, 30*time.Second)
//
// # Timeouts
//
// WithTimeout gives every call its own deadline so a stalled provider cannot block a
// session forever. The scope controller treats a timed-out call like any other model
// failure.
//
// # Testing
//
// InvokerFunc turns a closure into an Invoker, which is how the controller tests
// script model replies.
package model
