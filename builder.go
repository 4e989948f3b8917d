package agentics

import (
	"context"
	"maps"
)

// tool is the internal implementation of Tool built by Describe, NewTool, or NewDynamicTool.
type tool struct {
	name        string
	description string
	schema      map[string]any
	strict      bool
	call        func(context.Context, []byte) (any, error)
}

// NewTool builds a Tool from a typed function whose argument is a struct T. Schema and validation
// are delegated to ArgumentDecoder[T]; the result R is returned as is and formatted by the executor.
// WithBind and WithDefaults name fields of T by their json names.
// Returns an error if the name is invalid or schema generation fails (e.g. unsupported type).
func NewTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateToolName(name); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, &SignatureError{Tool: name, Reason: "handler must not be nil", Err: ErrUnsupportedSignature}
	}
	dec, err := NewArgumentDecoder[T](o.strict)
	if err != nil {
		return nil, &SignatureError{Tool: name, Reason: "schema generation failed", Err: ErrUnsupportedSignature, Cause: err}
	}
	full, err := cloneSchema(dec.Schema())
	if err != nil {
		return nil, &SignatureError{Tool: name, Reason: "schema copy failed", Err: ErrUnsupportedSignature, Cause: err}
	}
	if k := applyArgumentDefaults(full, o); k != "" {
		return nil, &SignatureError{Tool: name, Param: k, Reason: "not a field of the argument struct", Err: ErrUnsupportedSignature}
	}
	published, err := publishedSchema(full, o)
	if err != nil {
		return nil, &SignatureError{Tool: name, Reason: "schema copy failed", Err: ErrUnsupportedSignature, Cause: err}
	}
	bound := maps.Clone(o.bind)
	call := func(ctx context.Context, argsJSON []byte) (any, error) {
		if len(bound) > 0 || len(o.defaults) > 0 {
			data, _, err := mergeArguments(o.defaults, bound, argsJSON)
			if err != nil {
				return nil, err
			}
			argsJSON = data
		} else if len(argsJSON) == 0 {
			argsJSON = []byte("{}")
		}
		args, err := dec.Decode(argsJSON)
		if err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      published,
		strict:      o.strict,
		call:        call,
	}, nil
}

// NewDynamicTool creates a Tool from a raw JSON Schema map and a function that receives the validated
// arguments. Useful for runtime API integration (e.g. OpenAPI). schemaMap and fn must be non-nil.
// The provided schemaMap is not mutated; a deep copy is made before any modifications (e.g. WithStrict).
// WithBind and WithDefaults keys must be root properties of schemaMap.
func NewDynamicTool(
	name, description string,
	schemaMap map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateToolName(name); err != nil {
		return nil, err
	}
	if schemaMap == nil {
		return nil, &SignatureError{Tool: name, Reason: "dynamic schema map must not be nil", Err: ErrUnsupportedSignature}
	}
	if fn == nil {
		return nil, &SignatureError{Tool: name, Reason: "dynamic tool handler must not be nil", Err: ErrUnsupportedSignature}
	}
	schemaCopy, err := cloneSchema(schemaMap)
	if err != nil {
		return nil, &SignatureError{Tool: name, Reason: "failed to deep copy schema map", Err: ErrUnsupportedSignature, Cause: err}
	}
	stripSchemaIDs(schemaCopy)
	if k := applyArgumentDefaults(schemaCopy, o); k != "" {
		return nil, &SignatureError{Tool: name, Param: k, Reason: "not a property of the schema", Err: ErrUnsupportedSignature}
	}
	compiled, err := compileRawSchema(schemaCopy)
	if err != nil {
		return nil, &SignatureError{Tool: name, Reason: "failed to compile dynamic schema", Err: ErrUnsupportedSignature, Cause: err}
	}
	published, err := publishedSchema(schemaCopy, o)
	if err != nil {
		return nil, &SignatureError{Tool: name, Reason: "failed to deep copy schema map", Err: ErrUnsupportedSignature, Cause: err}
	}
	call := func(ctx context.Context, argsJSON []byte) (any, error) {
		_, args, err := mergeArguments(o.defaults, o.bind, argsJSON)
		if err != nil {
			return nil, err
		}
		if err := checkSchema(compiled, args); err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      published,
		strict:      o.strict,
		call:        call,
	}, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }
func (t *tool) Strict() bool        { return t.strict }

// Parameters returns a deep copy of the JSON Schema; callers may mutate it freely.
func (t *tool) Parameters() map[string]any {
	schema, err := cloneSchema(t.schema)
	if err != nil {
		return maps.Clone(t.schema)
	}
	return schema
}

func (t *tool) Call(ctx context.Context, argsJSON []byte) (any, error) {
	return t.call(ctx, argsJSON)
}

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
