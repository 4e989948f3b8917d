package agentics

import (
	"context"
)

// Tool is the contract for an LLM-callable instrument. It is provider-agnostic.
type Tool interface {
	Name() string
	// Description may be empty; the model then receives a tool without description.
	Description() string
	// Parameters returns a JSON Schema object describing the arguments the model must supply.
	Parameters() map[string]any
	// Call runs the tool with a JSON object of arguments and returns its raw result.
	// The result may be deferred (see Awaitable); the executor resolves and formats it.
	Call(ctx context.Context, argsJSON []byte) (any, error)
}

// ToolMetadata is implemented by tools built with Describe, NewTool and NewDynamicTool.
type ToolMetadata interface {
	// Strict reports whether the tool schema is in OpenAI strict mode.
	Strict() bool
}

// ExecutionSummary is passed to the after-execution hook (WithOnAfterExecute) when a tool
// execution finishes, successfully or not.
type ExecutionSummary struct {
	CallID         string
	ToolName       string
	Error          error
	OutputBytes    int
	FormatFallback bool // output could not be JSON-encoded and was rendered with fmt
}

// Definition returns the provider-facing definition of t.
func Definition(t Tool) ToolDefinition {
	d := ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
	if d.Parameters == nil {
		d.Parameters = emptyObjectSchema()
	}
	if tm, ok := t.(ToolMetadata); ok {
		d.Strict = tm.Strict()
	}
	return d
}
