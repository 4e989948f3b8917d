// Package testutil provides test helpers for agentics (MockTool, NewTestRegistry, ScriptedGateway).
package testutil

import (
	"context"

	"github.com/skosovsky/agentics"
)

// MockTool is a configurable Tool implementation for tests.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	CallFn    func(ctx context.Context, args []byte) (any, error)
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Parameters returns the parameters schema (or an empty object schema).
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{"type": "object"}
}

// Call runs CallFn if set, otherwise returns nil.
func (m *MockTool) Call(ctx context.Context, args []byte) (any, error) {
	if m.CallFn != nil {
		return m.CallFn(ctx, args)
	}
	return nil, nil
}

// Ensure MockTool implements Tool.
var _ agentics.Tool = (*MockTool)(nil)
