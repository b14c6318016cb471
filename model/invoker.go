package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Invoker sends a prompt to a hosted text-generation model and returns its raw text.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// StructuredInvoker is implemented by invokers that can ask the provider for a JSON
// object instead of free text. The result is still raw text and must be parsed
// tolerantly by the caller.
type StructuredInvoker interface {
	Invoker
	InvokeJSON(ctx context.Context, prompt string) (string, error)
}

// InvokerFunc adapts a plain function to Invoker.
type InvokerFunc func(ctx context.Context, prompt string) (string, error)

// Invoke calls f(ctx, prompt).
func (f InvokerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// InvokeJSON asks inv for JSON output when it supports it and falls back to Invoke.
func InvokeJSON(ctx context.Context, inv Invoker, prompt string) (string, error) {
	if s, ok := inv.(StructuredInvoker); ok {
		return s.InvokeJSON(ctx, prompt)
	}
	return inv.Invoke(ctx, prompt)
}

// timeoutInvoker bounds every call with its own deadline.
type timeoutInvoker struct {
	next    Invoker
	timeout time.Duration
}

// WithTimeout wraps inv so every call runs under a deadline of d. A non-positive d
// returns inv unchanged.
func WithTimeout(inv Invoker, d time.Duration) Invoker {
	if d <= 0 {
		return inv
	}
	return &timeoutInvoker{next: inv, timeout: d}
}

func (t *timeoutInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	return t.call(ctx, prompt, t.next.Invoke)
}

func (t *timeoutInvoker) InvokeJSON(ctx context.Context, prompt string) (string, error) {
	return t.call(ctx, prompt, func(ctx context.Context, p string) (string, error) {
		return InvokeJSON(ctx, t.next, p)
	})
}

func (t *timeoutInvoker) call(ctx context.Context, prompt string, fn InvokerFunc) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := fn(callCtx, prompt)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("model call timed out after %s: %w", t.timeout, err)
		}
		return "", err
	}
	return out, nil
}
