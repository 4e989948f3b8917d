package agentics

import (
	"encoding/json"
	"maps"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// Validatable is implemented by argument types with checks a JSON Schema cannot express.
// Validate runs after the arguments passed the schema and were decoded.
type Validatable interface {
	Validate() error
}

// ArgumentDecoder turns raw tool-call arguments into a T. Arguments are checked against the
// schema reflected from T first, then decoded, then passed to Validate when T (or *T) is Validatable.
// Failures of any step are ClientErrors wrapping ErrInvalidArguments.
type ArgumentDecoder[T any] struct {
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
}

// NewArgumentDecoder reflects T into a parameter schema. With strict set every object in the
// schema is closed and lists all of its properties as required.
func NewArgumentDecoder[T any](strict bool) (*ArgumentDecoder[T], error) {
	schemaMap, resolved, err := generateSchema[T](strict)
	if err != nil {
		return nil, err
	}
	return &ArgumentDecoder[T]{schemaMap: schemaMap, resolved: resolved}, nil
}

// Schema returns a shallow copy of the parameter schema. Nested maps are shared.
func (d *ArgumentDecoder[T]) Schema() map[string]any {
	return maps.Clone(d.schemaMap)
}

// Decode validates argsJSON and decodes it into a T.
func (d *ArgumentDecoder[T]) Decode(argsJSON []byte) (T, error) {
	var zero T
	var generic any
	if err := json.Unmarshal(argsJSON, &generic); err != nil {
		return zero, wrapJSONParseError(err)
	}
	if err := checkSchema(d.resolved, generic); err != nil {
		return zero, err
	}
	var args T
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return zero, wrapJSONParseError(err)
	}
	if err := checkValidatable(validationTarget(&args)); err != nil {
		return zero, err
	}
	return args, nil
}

// validationTarget picks the receiver Validate should run on: *T covers both value and pointer
// receivers of a struct T; when T is itself a pointer the decoded value is used.
func validationTarget[T any](args *T) any {
	if _, ok := any(args).(Validatable); ok {
		return args
	}
	v := reflect.ValueOf(*args)
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil
	}
	return *args
}

// checkSchema validates an already decoded JSON value.
func checkSchema(resolved *jsonschema.Resolved, v any) error {
	if err := resolved.Validate(v); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrInvalidArguments}
	}
	return nil
}

// checkValidatable runs v.Validate when v implements Validatable. Errors that are not already
// ClientErrors are wrapped as invalid arguments.
func checkValidatable(v any) error {
	val, ok := v.(Validatable)
	if !ok {
		return nil
	}
	err := val.Validate()
	if err == nil || IsClientError(err) {
		return err
	}
	return &ClientError{Reason: err.Error(), Err: ErrInvalidArguments}
}
