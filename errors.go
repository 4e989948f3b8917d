package agentics

import (
	"errors"
	"fmt"
)

// Sentinel errors for agentics. Use errors.Is to check.
var (
	ErrInvalidMessage       = errors.New("invalid message")
	ErrUnsupportedSignature = errors.New("unsupported tool signature")
	ErrInvalidToolName      = errors.New("invalid tool name")
	ErrDuplicateTool        = errors.New("duplicate tool name")
	ErrToolNotFound         = errors.New("tool not found")
	ErrInvalidArguments     = errors.New("invalid tool arguments")
	ErrToolLoopExceeded     = errors.New("tool loop exceeded max rounds")
	ErrGateway              = errors.New("model gateway error")
	ErrSchemaValidation     = errors.New("schema validation failed")
)

// MessageError reports a message that violates the message model, either at construction
// (Index is -1) or at a position inside a history.
type MessageError struct {
	Index  int
	Reason string
}

func (e *MessageError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid message: %s", e.Reason)
	}
	return fmt.Sprintf("invalid message at index %d: %s", e.Index, e.Reason)
}

func (e *MessageError) Unwrap() error { return ErrInvalidMessage }

// SignatureError is returned by Describe when a func cannot be turned into a tool.
// Err is ErrUnsupportedSignature or ErrInvalidToolName; Cause optionally carries the underlying error.
type SignatureError struct {
	Tool   string
	Param  string
	Reason string
	Err    error
	Cause  error
}

func (e *SignatureError) Error() string {
	msg := e.Err.Error()
	if e.Tool != "" {
		msg += fmt.Sprintf(": tool %q", e.Tool)
	}
	if e.Param != "" {
		msg += fmt.Sprintf(" param %q", e.Param)
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SignatureError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// ToolError ties a tool failure to the call that caused it.
// Err is ErrToolNotFound, a *ClientError wrapping ErrInvalidArguments, or the handler error.
type ToolError struct {
	CallID   string
	ToolName string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q (call %s): %v", e.ToolName, e.CallID, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ClientError is an error caused by the model's input (invalid JSON, schema violation).
// Err optionally wraps a sentinel (e.g. ErrInvalidArguments) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrInvalidArguments)).
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure inside a tool (panic, broken invariant).
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// LoopError is returned when the model still requests tools after Rounds tool rounds.
type LoopError struct {
	Rounds int
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("%s (%d)", ErrToolLoopExceeded, e.Rounds)
}

func (e *LoopError) Unwrap() error { return ErrToolLoopExceeded }

// GatewayError wraps a failure of the model gateway. Op is "complete" or "parse".
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("model gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() []error { return []error{ErrGateway, e.Err} }

// SchemaError reports structured output that does not conform to the requested schema.
type SchemaError struct {
	Schema string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s for %q: %s", ErrSchemaValidation, e.Schema, e.Reason)
}

func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchemaValidation}
	}
	return []error{ErrSchemaValidation, e.Err}
}

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapJSONParseError returns a ClientError for JSON unmarshal failures of tool arguments.
func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error(), Err: ErrInvalidArguments}
}
