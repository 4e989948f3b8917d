package agentics

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// argShape is how a func receives its arguments.
type argShape int

const (
	shapePositional argShape = iota
	shapeStruct
)

type param struct {
	name     string
	typ      reflect.Type
	optional bool
}

// signature is the invocation plan and schema of a func, independent of the func value.
// It depends only on the func type and the schema-affecting options, so it can be cached.
type signature struct {
	hasCtx    bool
	shape     argShape
	argType   reflect.Type // shapeStruct: the struct or *struct argument
	params    []param      // shapePositional
	hasResult bool
	hasError  bool
	defaults  map[string]any
	// published is the schema shown to the model (bound parameters removed).
	published map[string]any
	// full validates the merged arguments (defaults < bound < model).
	full *jsonschema.Resolved
}

// analyzeSignature maps a func type to its schema and invocation plan. It never calls the func.
func analyzeSignature(fnType reflect.Type, o toolOptions) (*signature, error) {
	fail := func(p, reason string, cause error) error {
		return &SignatureError{Tool: o.name, Param: p, Reason: reason, Err: ErrUnsupportedSignature, Cause: cause}
	}
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, fail("", fmt.Sprintf("expected a func, got %v", fnType), nil)
	}
	if fnType.IsVariadic() {
		return nil, fail("", "variadic funcs are not supported", nil)
	}
	sig := &signature{defaults: o.defaults}

	in := make([]reflect.Type, 0, fnType.NumIn())
	for i := range fnType.NumIn() {
		in = append(in, fnType.In(i))
	}
	if len(in) > 0 && in[0] == contextType {
		sig.hasCtx = true
		in = in[1:]
	}
	if slices.Contains(in, contextType) {
		return nil, fail("", "context.Context must be the first parameter", nil)
	}

	switch fnType.NumOut() {
	case 0:
	case 1:
		if fnType.Out(0) == errorType {
			sig.hasError = true
		} else {
			sig.hasResult = true
		}
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fail("", "second result must be error", nil)
		}
		sig.hasResult, sig.hasError = true, true
	default:
		return nil, fail("", fmt.Sprintf("too many results (%d)", fnType.NumOut()), nil)
	}

	var full map[string]any
	if len(o.params) == 0 && len(in) == 1 && isStructArg(in[0]) {
		sig.shape = shapeStruct
		sig.argType = in[0]
		if err := checkType(in[0], map[reflect.Type]bool{}); err != nil {
			return nil, fail("", err.Error(), nil)
		}
		base := in[0]
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		m, err := schemaForType(base)
		if err != nil {
			return nil, fail("", "schema generation failed", err)
		}
		full = m
	} else {
		if len(o.params) != len(in) {
			return nil, fail("", fmt.Sprintf("func has %d parameters but %d names were given (use WithParams)", len(in), len(o.params)), nil)
		}
		m, params, err := positionalSchema(in, o)
		if err != nil {
			return nil, err
		}
		sig.shape = shapePositional
		sig.params = params
		full = m
	}

	if k := applyArgumentDefaults(full, o); k != "" {
		return nil, fail(k, "not a parameter of the func", nil)
	}
	resolved, err := compileRawSchema(full)
	if err != nil {
		return nil, fail("", "schema does not compile", err)
	}
	sig.full = resolved

	published, err := publishedSchema(full, o)
	if err != nil {
		return nil, fail("", "schema copy failed", err)
	}
	sig.published = published
	return sig, nil
}

func positionalSchema(in []reflect.Type, o toolOptions) (map[string]any, []param, error) {
	props := make(map[string]any, len(in))
	required := make([]any, 0, len(in))
	params := make([]param, len(in))
	for i, t := range in {
		name := o.params[i]
		if name == "" {
			return nil, nil, &SignatureError{Tool: o.name, Param: fmt.Sprintf("#%d", i), Reason: "empty parameter name", Err: ErrUnsupportedSignature}
		}
		if _, dup := props[name]; dup {
			return nil, nil, &SignatureError{Tool: o.name, Param: name, Reason: "duplicate parameter name", Err: ErrUnsupportedSignature}
		}
		if err := checkType(t, map[reflect.Type]bool{}); err != nil {
			return nil, nil, &SignatureError{Tool: o.name, Param: name, Reason: err.Error(), Err: ErrUnsupportedSignature}
		}
		s, err := schemaForType(t)
		if err != nil {
			return nil, nil, &SignatureError{Tool: o.name, Param: name, Reason: "schema generation failed", Err: ErrUnsupportedSignature, Cause: err}
		}
		props[name] = s
		optional := t.Kind() == reflect.Pointer
		if !optional {
			required = append(required, name)
		}
		params[i] = param{name: name, typ: t, optional: optional}
	}
	schemaMap := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schemaMap["required"] = required
	}
	return schemaMap, params, nil
}

func isStructArg(t reflect.Type) bool {
	if isCustomType(t) {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && !isCustomType(t)
}

// checkType rejects types that have no JSON Schema representation.
func checkType(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] || isCustomType(t) {
		return nil
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer, reflect.Uintptr:
		return fmt.Errorf("type %v has no JSON Schema mapping", t)
	case reflect.Interface:
		if t.NumMethod() > 0 {
			return fmt.Errorf("interface type %v has no JSON Schema mapping", t)
		}
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("map key type %v is not a string", t.Key())
		}
		return checkType(t.Elem(), seen)
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return checkType(t.Elem(), seen)
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkType(f.Type, seen); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
	}
	return nil
}
