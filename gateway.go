package agentics

import (
	"context"
	"encoding/json"
)

// CompletionRequest is one chat-completion round.
type CompletionRequest struct {
	Model    string
	Messages []Message
	// Tools is empty for plain chat.
	Tools []ToolDefinition
}

// Reply is the model's answer to a CompletionRequest: either text or one or more tool calls.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// ParseRequest asks the model for output conforming to Format.
type ParseRequest struct {
	Model    string
	Messages []Message
	Format   ResponseFormat
}

// Gateway is the remote model capability. Implementations own transport, authentication,
// retries and timeouts; the session propagates their errors as *GatewayError.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (Reply, error)
	// Parse returns the model's structured output as JSON. The session validates it against
	// req.Format.Schema.
	Parse(ctx context.Context, req ParseRequest) (json.RawMessage, error)
}
