package agentics

import (
	"context"
	"log/slog"
	"maps"
	"time"
)

// toolOptions hold optional tool settings used by Describe, NewTool and NewDynamicTool.
type toolOptions struct {
	name        string
	description string
	params      []string
	bind        map[string]any
	defaults    map[string]any
	strict      bool
}

// ToolOption configures a tool (e.g. WithName, WithBind, WithStrict).
type ToolOption func(*toolOptions)

// WithName overrides the name derived from the func symbol.
func WithName(name string) ToolOption {
	return func(o *toolOptions) {
		o.name = name
	}
}

// WithDescription sets the tool description shown to the model.
func WithDescription(description string) ToolOption {
	return func(o *toolOptions) {
		o.description = description
	}
}

// WithParams names the positional parameters of the func (after an optional context.Context).
// Go does not keep parameter names at runtime, so positional funcs need it.
func WithParams(names ...string) ToolOption {
	return func(o *toolOptions) {
		o.params = append([]string(nil), names...)
	}
}

// WithBind partially applies arguments. Bound parameters are hidden from the model and merged
// under the model's arguments at call time; the model wins on collision.
func WithBind(args map[string]any) ToolOption {
	return func(o *toolOptions) {
		o.bind = maps.Clone(args)
	}
}

// WithDefaults makes parameters optional; the schema advertises the default and missing
// arguments fall back to it.
func WithDefaults(defaults map[string]any) ToolOption {
	return func(o *toolOptions) {
		o.defaults = maps.Clone(defaults)
	}
}

// WithStrict sets strict mode for schema: additionalProperties: false for all objects,
// and all properties become required. Use for OpenAI Structured Outputs compatibility.
func WithStrict() ToolOption {
	return func(o *toolOptions) {
		o.strict = true
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	recoverPanics bool
	logger        *slog.Logger
	onBefore      func(context.Context, ToolCall)
	onAfter       func(context.Context, ToolCall, ExecutionSummary, time.Duration)
}

// WithRecoverPanics enables panic recovery in Execute (returns SystemError). Enabled by default.
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithRegistryLogger sets the logger used for output formatting fallbacks.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(o *registryOptions) {
		o.logger = logger
	}
}

// WithOnBeforeExecute sets a hook called before each tool execution.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute sets a hook called after each tool execution.
func WithOnAfterExecute(fn func(context.Context, ToolCall, ExecutionSummary, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	systemPrompt string
	model        string
	maxRounds    int
	logger       *slog.Logger
	history      []Message
	registryOpts []RegistryOption
	middlewares  []Middleware
	cacheSize    int
}

// WithSystemPrompt seeds the history with a system message.
func WithSystemPrompt(prompt string) SessionOption {
	return func(o *sessionOptions) {
		o.systemPrompt = prompt
	}
}

// WithModel sets the model identifier passed to the gateway.
func WithModel(model string) SessionOption {
	return func(o *sessionOptions) {
		o.model = model
	}
}

// WithMaxRounds sets the default number of tool rounds allowed per ChatWithTools call.
func WithMaxRounds(n int) SessionOption {
	return func(o *sessionOptions) {
		o.maxRounds = n
	}
}

// WithLogger sets the session logger. Defaults to a logger that discards everything.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithHistory seeds the session with a prior history (after the system prompt, if any).
// The history is validated by NewSession.
func WithHistory(history []Message) SessionOption {
	return func(o *sessionOptions) {
		o.history = cloneMessages(history)
	}
}

// WithRegistryOptions sets options for the registry built on every ChatWithTools call.
func WithRegistryOptions(opts ...RegistryOption) SessionOption {
	return func(o *sessionOptions) {
		o.registryOpts = opts
	}
}

// WithToolMiddleware wraps every tool of every ChatWithTools call (see Registry.Use).
func WithToolMiddleware(middlewares ...Middleware) SessionOption {
	return func(o *sessionOptions) {
		o.middlewares = middlewares
	}
}

// WithSignatureCache memoizes signature analysis of funcs passed to ChatWithTools.
func WithSignatureCache(size int) SessionOption {
	return func(o *sessionOptions) {
		o.cacheSize = size
	}
}

// CallOption configures a single ChatWithTools call.
type CallOption func(*callOptions)

type callOptions struct {
	maxRounds int
}

// WithRoundLimit overrides the session's max rounds for one call. n must be >= 1.
func WithRoundLimit(n int) CallOption {
	return func(o *callOptions) {
		o.maxRounds = n
	}
}
