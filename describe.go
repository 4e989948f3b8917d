package agentics

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

var (
	toolNamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	anonymousPattern = regexp.MustCompile(`^(func\d+|\d+)$`)
)

// Describe turns an arbitrary func into a Tool.
//
// The name comes from WithName or the func symbol; the description from WithDescription (it may be
// absent). The parameter schema is derived from the signature: after an optional leading
// context.Context the func takes either a single struct (or *struct) whose JSON fields are the
// parameters, or positional parameters named with WithParams. Results may be none, R, error or
// (R, error); R may be deferred (Awaitable or a receive channel).
//
// Describe fails with ErrUnsupportedSignature when a parameter type has no JSON Schema mapping and
// with ErrInvalidToolName when no valid name can be determined.
func Describe(fn any, opts ...ToolOption) (Tool, error) {
	return describe(nil, fn, opts)
}

func describe(cache *SignatureCache, fn any, opts []ToolOption) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, &SignatureError{Tool: o.name, Reason: fmt.Sprintf("expected a non-nil func, got %T", fn), Err: ErrUnsupportedSignature}
	}
	if o.name == "" {
		name, err := funcName(v)
		if err != nil {
			return nil, err
		}
		o.name = name
	}
	if err := validateToolName(o.name); err != nil {
		return nil, err
	}

	var (
		sig *signature
		err error
	)
	if cache != nil {
		sig, err = cache.signature(v.Type(), o)
	} else {
		sig, err = analyzeSignature(v.Type(), o)
	}
	if err != nil {
		return nil, err
	}

	bind := maps.Clone(o.bind)
	return &tool{
		name:        o.name,
		description: o.description,
		schema:      sig.published,
		strict:      o.strict,
		call: func(ctx context.Context, argsJSON []byte) (any, error) {
			return sig.invoke(ctx, v, bind, argsJSON)
		},
	}, nil
}

// funcName derives a tool name from the runtime symbol of fn:
// "example.com/pkg.add" → "add", "pkg.(*T).Method-fm" → "Method". Closures have no usable name.
func funcName(v reflect.Value) (string, error) {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "", &SignatureError{Reason: "cannot resolve func symbol; use WithName", Err: ErrInvalidToolName}
	}
	full := strings.TrimSuffix(f.Name(), "-fm")
	if i := strings.Index(full, "["); i >= 0 {
		full = full[:i]
	}
	short := full[strings.LastIndex(full, "/")+1:]
	parts := strings.Split(short, ".")
	last := parts[len(parts)-1]
	if last == "" || anonymousPattern.MatchString(last) {
		return "", &SignatureError{Tool: f.Name(), Reason: "anonymous func has no name; use WithName", Err: ErrInvalidToolName}
	}
	return last, nil
}

func validateToolName(name string) error {
	if !toolNamePattern.MatchString(name) {
		return &SignatureError{Tool: name, Reason: "name must match " + toolNamePattern.String(), Err: ErrInvalidToolName}
	}
	return nil
}

// mergeArguments layers defaults < bound < model and normalizes the result through JSON.
func mergeArguments(defaults, bound map[string]any, argsJSON []byte) ([]byte, map[string]any, error) {
	model, err := decodeArguments(argsJSON)
	if err != nil {
		return nil, nil, err
	}
	merged := make(map[string]any, len(defaults)+len(bound)+len(model))
	maps.Copy(merged, defaults)
	maps.Copy(merged, bound)
	maps.Copy(merged, model)
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, nil, &ClientError{Reason: "cannot encode merged arguments: " + err.Error(), Err: ErrInvalidArguments}
	}
	var normalized map[string]any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, nil, wrapJSONParseError(err)
	}
	return data, normalized, nil
}

// decodeArguments parses the model's argument text as a JSON object. Empty text is an empty object.
func decodeArguments(argsJSON []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(argsJSON))) == 0 {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal(argsJSON, &v); err != nil {
		return nil, wrapJSONParseError(err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ClientError{Reason: fmt.Sprintf("arguments must be a JSON object, got %T", v), Err: ErrInvalidArguments}
	}
	return m, nil
}

func (s *signature) invoke(ctx context.Context, fn reflect.Value, bound map[string]any, argsJSON []byte) (any, error) {
	data, merged, err := mergeArguments(s.defaults, bound, argsJSON)
	if err != nil {
		return nil, err
	}
	if err := checkSchema(s.full, merged); err != nil {
		return nil, err
	}

	in := make([]reflect.Value, 0, len(s.params)+2)
	if s.hasCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	switch s.shape {
	case shapeStruct:
		arg, err := s.decodeStruct(data)
		if err != nil {
			return nil, err
		}
		in = append(in, arg)
	default:
		args, err := s.decodePositional(data)
		if err != nil {
			return nil, err
		}
		in = append(in, args...)
	}

	out := fn.Call(in)
	if s.hasError {
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}
	if s.hasResult {
		return out[0].Interface(), nil
	}
	return nil, nil
}

func (s *signature) decodeStruct(data []byte) (reflect.Value, error) {
	base := s.argType
	isPtr := base.Kind() == reflect.Pointer
	if isPtr {
		base = base.Elem()
	}
	ptr := reflect.New(base)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, wrapJSONParseError(err)
	}
	if err := checkValidatable(ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	if isPtr {
		return ptr, nil
	}
	return ptr.Elem(), nil
}

func (s *signature) decodePositional(data []byte) ([]reflect.Value, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wrapJSONParseError(err)
	}
	args := make([]reflect.Value, len(s.params))
	for i, p := range s.params {
		ptr := reflect.New(p.typ)
		msg, ok := raw[p.name]
		if !ok && !p.optional {
			return nil, &ClientError{Reason: fmt.Sprintf("missing required argument %q", p.name), Err: ErrInvalidArguments}
		}
		if ok {
			if err := json.Unmarshal(msg, ptr.Interface()); err != nil {
				return nil, &ClientError{Reason: fmt.Sprintf("argument %q: %v", p.name, err), Err: ErrInvalidArguments}
			}
		}
		args[i] = ptr.Elem()
	}
	return args, nil
}
