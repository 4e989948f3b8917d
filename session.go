package agentics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxRounds = 10
)

var errUnexpectedToolCalls = errors.New("model requested tool calls but no tools were offered")

// Session is one conversation with a model: it owns the ordered history and drives the tool loop.
// A Session is not safe for concurrent use.
//
// A failed call leaves the history exactly as it was before the call.
type Session struct {
	gw           Gateway
	model        string
	maxRounds    int
	logger       *slog.Logger
	seed         []Message
	history      []Message
	registryOpts []RegistryOption
	middlewares  []Middleware
	cache        *SignatureCache
}

// NewSession creates a session talking to gw.
func NewSession(gw Gateway, opts ...SessionOption) (*Session, error) {
	if gw == nil {
		return nil, errors.New("new session: gateway is required")
	}
	o := sessionOptions{
		model:     DefaultModel,
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxRounds < 1 {
		return nil, fmt.Errorf("new session: max rounds must be >= 1, got %d", o.maxRounds)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	var seed []Message
	if o.systemPrompt != "" {
		seed = append(seed, SystemMessage(o.systemPrompt))
	}
	seed = append(seed, o.history...)
	if err := ValidateHistory(seed); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	s := &Session{
		gw:           gw,
		model:        o.model,
		maxRounds:    o.maxRounds,
		logger:       o.logger,
		seed:         seed,
		history:      cloneMessages(seed),
		registryOpts: o.registryOpts,
		middlewares:  o.middlewares,
	}
	if o.cacheSize > 0 {
		cache, err := NewSignatureCache(o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("new session: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Model returns the model identifier sent to the gateway.
func (s *Session) Model() string { return s.model }

// History returns a copy of the conversation history.
func (s *Session) History() []Message { return cloneMessages(s.history) }

// Reset drops everything but the seeded history (system prompt and WithHistory).
func (s *Session) Reset() { s.history = cloneMessages(s.seed) }

// Chat appends prompt as a user message (unless empty), asks the model without tools,
// appends the reply and returns it.
func (s *Session) Chat(ctx context.Context, prompt string) (string, error) {
	mark := len(s.history)
	if prompt != "" {
		s.history = append(s.history, UserMessage(prompt))
	}
	reply, err := s.complete(ctx, nil)
	if err == nil && len(reply.ToolCalls) > 0 {
		err = &GatewayError{Op: "complete", Err: errUnexpectedToolCalls}
	}
	if err != nil {
		s.history = s.history[:mark]
		return "", err
	}
	s.history = append(s.history, AssistantMessage(reply.Content))
	return reply.Content, nil
}

// ChatWithTools appends prompt as a user message (unless empty) and runs the tool loop with tools.
//
// Each element of tools is a Tool, a ToolSpec (see Func) or a func described with Describe defaults.
// A registry is built per call. Every round sends the history and tool definitions to the model;
// a text reply ends the loop and is returned. Tool calls are recorded as a tool request, executed
// in request order and each result appended. If the model still requests tools after the round
// limit, the call fails with ErrToolLoopExceeded. With no tools it behaves like Chat.
func (s *Session) ChatWithTools(ctx context.Context, prompt string, tools []any, opts ...CallOption) (string, error) {
	co := callOptions{maxRounds: s.maxRounds}
	for _, opt := range opts {
		opt(&co)
	}
	if co.maxRounds < 1 {
		return "", fmt.Errorf("chat with tools: max rounds must be >= 1, got %d", co.maxRounds)
	}
	if len(tools) == 0 {
		return s.Chat(ctx, prompt)
	}
	reg, err := s.buildRegistry(tools)
	if err != nil {
		return "", err
	}

	mark := len(s.history)
	if prompt != "" {
		s.history = append(s.history, UserMessage(prompt))
	}
	text, err := s.runToolLoop(ctx, reg, co.maxRounds)
	if err != nil {
		s.history = s.history[:mark]
		return "", err
	}
	return text, nil
}

func (s *Session) runToolLoop(ctx context.Context, reg *Registry, maxRounds int) (string, error) {
	defs := reg.Definitions()
	for round := 0; ; round++ {
		reply, err := s.complete(ctx, defs)
		if err != nil {
			return "", err
		}
		if len(reply.ToolCalls) == 0 {
			s.history = append(s.history, AssistantMessage(reply.Content))
			s.logger.DebugContext(ctx, "tool loop done", "rounds", round)
			return reply.Content, nil
		}
		if round >= maxRounds {
			s.logger.WarnContext(ctx, "tool loop exceeded", "max_rounds", maxRounds)
			return "", &LoopError{Rounds: maxRounds}
		}

		calls := fillCallIDs(reply.ToolCalls)
		request, err := ToolCallsMessage(calls...)
		if err != nil {
			return "", &GatewayError{Op: "complete", Err: err}
		}
		s.history = append(s.history, request)
		for _, call := range calls {
			out, err := reg.Execute(ctx, call)
			if err != nil {
				s.logger.WarnContext(ctx, "tool call failed", "tool", call.Name, "call_id", call.ID, "error", err)
				return "", err
			}
			result, err := ToolResultMessage(call.ID, call.Name, out)
			if err != nil {
				return "", err
			}
			s.history = append(s.history, result)
		}
		s.logger.DebugContext(ctx, "tool round complete", "round", round+1, "calls", len(calls))
	}
}

func (s *Session) complete(ctx context.Context, defs []ToolDefinition) (Reply, error) {
	reply, err := s.gw.Complete(ctx, CompletionRequest{
		Model:    s.model,
		Messages: cloneMessages(s.history),
		Tools:    defs,
	})
	if err != nil {
		return Reply{}, &GatewayError{Op: "complete", Err: err}
	}
	return reply, nil
}

// fillCallIDs copies calls, giving a fresh id to calls the provider left without one or whose
// id repeats an earlier call in the same reply, so every tool result references exactly one call.
func fillCallIDs(calls []ToolCall) []ToolCall {
	out := make([]ToolCall, len(calls))
	seen := make(map[string]bool, len(calls))
	for i, c := range calls {
		if c.ID == "" || seen[c.ID] {
			c.ID = "call_" + uuid.NewString()
		}
		seen[c.ID] = true
		out[i] = c
	}
	return out
}

// ToolSpec is a func plus the options to describe it with, for use in ChatWithTools.
type ToolSpec struct {
	Fn   any
	Opts []ToolOption
}

// Func pairs fn with Describe options.
func Func(fn any, opts ...ToolOption) ToolSpec {
	return ToolSpec{Fn: fn, Opts: opts}
}

func (s *Session) buildRegistry(tools []any) (*Registry, error) {
	opts := append([]RegistryOption{WithRegistryLogger(s.logger)}, s.registryOpts...)
	reg := NewRegistry(opts...)
	if len(s.middlewares) > 0 {
		reg.Use(s.middlewares...)
	}
	for i, item := range tools {
		var (
			t   Tool
			err error
		)
		switch v := item.(type) {
		case nil:
			err = fmt.Errorf("tool %d is nil", i)
		case Tool:
			t = v
		case ToolSpec:
			t, err = describe(s.cache, v.Fn, v.Opts)
		default:
			t, err = describe(s.cache, v, nil)
		}
		if err == nil {
			err = reg.Register(t)
		}
		if err != nil {
			return nil, fmt.Errorf("build tools: %w", err)
		}
	}
	return reg, nil
}
