package agentics

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a Tool with cross-cutting behavior (logging, recovery, timeout).
type Middleware func(Tool) Tool

// WithLogging returns a middleware that logs start, end, duration, and errors.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggingTool{toolBase: toolBase{next: next}, logger: logger}
	}
}

// WithRecovery returns a middleware that recovers panics and returns SystemError.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return &recoveryTool{toolBase{next: next}}
	}
}

// WithTimeoutMiddleware returns a middleware that bounds each call of the tool to d.
// The executor itself never time-boxes tools; this is the opt-in.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Tool) Tool {
		return &timeoutTool{toolBase: toolBase{next: next}, timeout: d}
	}
}

// toolBase delegates Tool and ToolMetadata to the wrapped Tool; used by middleware wrappers.
type toolBase struct{ next Tool }

func (b *toolBase) Name() string               { return b.next.Name() }
func (b *toolBase) Description() string        { return b.next.Description() }
func (b *toolBase) Parameters() map[string]any { return b.next.Parameters() }

func (b *toolBase) Strict() bool {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Strict()
	}
	return false
}

type loggingTool struct {
	toolBase
	logger *slog.Logger
}

func (m *loggingTool) Call(ctx context.Context, args []byte) (any, error) {
	m.logger.InfoContext(ctx, "tool start", "tool", m.next.Name())
	start := time.Now()
	res, err := m.next.Call(ctx, args)
	dur := time.Since(start)
	if err != nil {
		m.logger.ErrorContext(ctx, "tool error", "tool", m.next.Name(), "duration", dur, "error", err)
		return nil, err
	}
	m.logger.InfoContext(ctx, "tool end", "tool", m.next.Name(), "duration", dur)
	return res, nil
}

type recoveryTool struct{ toolBase }

func (r *recoveryTool) Call(ctx context.Context, args []byte) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &SystemError{Err: &panicError{p: p}}
		}
	}()
	return r.next.Call(ctx, args)
}

type timeoutTool struct {
	toolBase
	timeout time.Duration
}

func (t *timeoutTool) Call(ctx context.Context, args []byte) (any, error) {
	if t.timeout <= 0 {
		return t.next.Call(ctx, args)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	res, err := t.next.Call(ctx, args)
	if err != nil {
		return nil, err
	}
	// Deferred results are resolved here so the deadline also covers them.
	return await(ctx, res)
}

// Use stores the given middlewares and reapplies them from scratch to all registered tools (onion order:
// first middleware is outermost). Tools registered after Use will also get these middlewares applied.
// Calling Use multiple times replaces the middleware chain and rewraps from raw tools, avoiding double-wrapping.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, raw := range r.rawTools {
		t := raw
		for i := len(middlewares) - 1; i >= 0; i-- {
			t = middlewares[i](t)
		}
		r.tools[name] = t
	}
}

var (
	_ ToolMetadata = (*loggingTool)(nil)
	_ ToolMetadata = (*recoveryTool)(nil)
	_ ToolMetadata = (*timeoutTool)(nil)
)
