package agentics

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds the tools offered to the model for one conversation turn and executes their calls.
// Tools keep registration order. Safe for concurrent registration and lookup.
type Registry struct {
	tools       map[string]Tool // wrapped with middlewares, used by Execute
	rawTools    map[string]Tool // unwrapped, used by Use() to re-apply middlewares from scratch
	order       []string
	opts        registryOptions
	mu          sync.Mutex
	middlewares []Middleware
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		recoverPanics: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Registry{
		tools:    make(map[string]Tool),
		rawTools: make(map[string]Tool),
		opts:     o,
	}
}

// Register adds a tool. Stored middlewares (see Use) are applied to the tool before registration.
// Names are unique: registering a second tool with the same name fails with ErrDuplicateTool.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("register: %w", &SignatureError{Reason: "tool is nil", Err: ErrUnsupportedSignature})
	}
	name := t.Name()
	if err := validateToolName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rawTools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.rawTools[name] = t
	r.order = append(r.order, name)
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		t = r.middlewares[i](t)
	}
	r.tools[name] = t
	return nil
}

// GetAllTools returns all registered tools (after middlewares) in registration order.
func (r *Registry) GetAllTools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// GetTool returns the tool with the given name (after middlewares are applied), or (nil, false) if not found.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Definitions returns the provider-facing definitions of all tools in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	tools := r.GetAllTools()
	out := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		out[i] = Definition(t)
	}
	return out
}

// panicError wraps a recovered panic value for SystemError; used by Registry and WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
