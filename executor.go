package agentics

import (
	"context"
	"time"
)

// Execute runs one tool call and returns its output as text.
//
// The tool is looked up by name (ErrToolNotFound otherwise), the argument text is decoded as a JSON
// object (ErrInvalidArguments otherwise) and the tool is invoked. Deferred results are resolved
// before the output is normalized with FormatToolOutput. Every failure is a *ToolError carrying the
// call id and tool name. The tool is neither sandboxed nor time-boxed; see WithTimeoutMiddleware.
func (r *Registry) Execute(ctx context.Context, call ToolCall) (out string, err error) {
	t, ok := r.GetTool(call.Name)
	if !ok {
		return "", &ToolError{CallID: call.ID, ToolName: call.Name, Err: ErrToolNotFound}
	}

	summary := ExecutionSummary{CallID: call.ID, ToolName: call.Name}
	start := time.Now()
	// Recover defer is registered after onAfter so it runs first on panic and sets summary.Error before the hook runs.
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, summary, time.Since(start))
		}
	}()
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				err = &ToolError{CallID: call.ID, ToolName: call.Name, Err: &SystemError{Err: &panicError{p: p}}}
				out = ""
				summary.Error = err
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	args := []byte(call.Arguments)
	if _, err := decodeArguments(args); err != nil {
		summary.Error = &ToolError{CallID: call.ID, ToolName: call.Name, Err: err}
		return "", summary.Error
	}
	raw, err := t.Call(ctx, args)
	if err == nil {
		raw, err = await(ctx, raw)
	}
	if err != nil {
		summary.Error = &ToolError{CallID: call.ID, ToolName: call.Name, Err: err}
		return "", summary.Error
	}
	out, summary.FormatFallback = formatToolOutput(r.opts.logger, raw)
	summary.OutputBytes = len(out)
	return out, nil
}
