package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/skosovsky/agentics"
)

// ErrScriptExhausted is returned by ScriptedGateway when no scripted answer is left.
var ErrScriptExhausted = errors.New("scripted gateway: no replies left")

// ScriptedGateway is an in-memory agentics.Gateway. CompleteFn and ParseFn take precedence;
// otherwise Replies and Outputs are consumed in order. Every request is recorded.
type ScriptedGateway struct {
	mu sync.Mutex

	Replies    []agentics.Reply
	Outputs    []json.RawMessage
	CompleteFn func(ctx context.Context, req agentics.CompletionRequest) (agentics.Reply, error)
	ParseFn    func(ctx context.Context, req agentics.ParseRequest) (json.RawMessage, error)

	CompleteRequests []agentics.CompletionRequest
	ParseRequests    []agentics.ParseRequest
}

// Complete records req and answers with CompleteFn or the next scripted reply.
func (g *ScriptedGateway) Complete(ctx context.Context, req agentics.CompletionRequest) (agentics.Reply, error) {
	g.mu.Lock()
	g.CompleteRequests = append(g.CompleteRequests, req)
	fn := g.CompleteFn
	var (
		reply agentics.Reply
		ok    bool
	)
	if fn == nil && len(g.Replies) > 0 {
		reply, g.Replies, ok = g.Replies[0], g.Replies[1:], true
	}
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	if !ok {
		return agentics.Reply{}, ErrScriptExhausted
	}
	return reply, nil
}

// Parse records req and answers with ParseFn or the next scripted output.
func (g *ScriptedGateway) Parse(ctx context.Context, req agentics.ParseRequest) (json.RawMessage, error) {
	g.mu.Lock()
	g.ParseRequests = append(g.ParseRequests, req)
	fn := g.ParseFn
	var (
		out json.RawMessage
		ok  bool
	)
	if fn == nil && len(g.Outputs) > 0 {
		out, g.Outputs, ok = g.Outputs[0], g.Outputs[1:], true
	}
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	if !ok {
		return nil, ErrScriptExhausted
	}
	return out, nil
}

// Calls returns a Reply requesting the given calls.
func Calls(calls ...agentics.ToolCall) agentics.Reply {
	return agentics.Reply{ToolCalls: calls}
}

// Text returns a plain text Reply.
func Text(content string) agentics.Reply {
	return agentics.Reply{Content: content}
}

var _ agentics.Gateway = (*ScriptedGateway)(nil)
