package agentics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

// ResponseFormat describes the structured output requested from the model.
type ResponseFormat struct {
	Name        string
	Description string
	Schema      map[string]any
	Strict      bool
}

type wireJSONSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
	Strict      bool           `json:"strict"`
}

type wireResponseFormat struct {
	Type       string         `json:"type"`
	JSONSchema wireJSONSchema `json:"json_schema"`
}

// MarshalJSON encodes f as {"type":"json_schema","json_schema":{...}}.
func (f ResponseFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireResponseFormat{
		Type: "json_schema",
		JSONSchema: wireJSONSchema{
			Name:        f.Name,
			Description: f.Description,
			Schema:      f.Schema,
			Strict:      f.Strict,
		},
	})
}

var formatNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ResponseFormatFor reflects T into a strict ResponseFormat named after the type.
// Fields with a jsonschema tag (invopop syntax, e.g. `jsonschema:"description=...,enum=a,enum=b"`)
// are honoured.
func ResponseFormatFor[T any]() (ResponseFormat, error) {
	t := reflect.TypeFor[T]()
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
		Anonymous:      true,
	}
	schemaMap, err := toSchemaMap(r.ReflectFromType(t))
	if err != nil {
		return ResponseFormat{}, &SchemaError{Schema: t.String(), Reason: "schema reflection failed", Err: err}
	}
	delete(schemaMap, "$schema")
	stripSchemaIDs(schemaMap)
	applyStrictMode(schemaMap)

	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	name := formatNameSanitizer.ReplaceAllString(base.Name(), "_")
	if name == "" {
		name = "response"
	}
	return ResponseFormat{Name: name, Schema: schemaMap, Strict: true}, nil
}

// compileResponseSchema compiles format.Schema for validating model output.
func compileResponseSchema(format ResponseFormat) (*validator.Schema, error) {
	data, err := json.Marshal(format.Schema)
	if err != nil {
		return nil, err
	}
	doc, err := validator.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c := validator.NewCompiler()
	c.DefaultDraft(validator.Draft2020)
	if err := c.AddResource("response.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("response.json")
}

// CastFormat sends history to the gateway's Parse operation and returns output that conforms to
// format. history is not appended to the session. Invalid output fails with ErrSchemaValidation.
func (s *Session) CastFormat(ctx context.Context, history []Message, format ResponseFormat) (json.RawMessage, error) {
	if len(history) == 0 {
		return nil, &MessageError{Index: -1, Reason: "cast needs at least one message"}
	}
	if err := ValidateHistory(history); err != nil {
		return nil, err
	}
	if format.Schema == nil {
		return nil, &SchemaError{Schema: format.Name, Reason: "response format has no schema"}
	}
	compiled, err := compileResponseSchema(format)
	if err != nil {
		return nil, &SchemaError{Schema: format.Name, Reason: "invalid response schema", Err: err}
	}

	raw, err := s.gw.Parse(ctx, ParseRequest{
		Model:    s.model,
		Messages: cloneMessages(history),
		Format:   format,
	})
	if err != nil {
		return nil, &GatewayError{Op: "parse", Err: err}
	}
	inst, err := validator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &SchemaError{Schema: format.Name, Reason: "output is not JSON", Err: err}
	}
	if err := compiled.Validate(inst); err != nil {
		return nil, &SchemaError{Schema: format.Name, Reason: "output does not match schema", Err: err}
	}
	return raw, nil
}

// CastPrompt is CastFormat over a fresh history: the system prompt (if any) and prompt.
func (s *Session) CastPrompt(ctx context.Context, prompt string, format ResponseFormat) (json.RawMessage, error) {
	return s.CastFormat(ctx, s.freshHistory(prompt), format)
}

func (s *Session) freshHistory(prompt string) []Message {
	var history []Message
	if len(s.seed) > 0 && s.seed[0].Role == RoleSystem {
		history = append(history, s.seed[0])
	}
	return append(history, UserMessage(prompt))
}

// Cast asks the model for a T answering prompt in a fresh history.
func Cast[T any](ctx context.Context, s *Session, prompt string) (T, error) {
	return CastHistory[T](ctx, s, s.freshHistory(prompt))
}

// CastHistory asks the model for a T given history.
func CastHistory[T any](ctx context.Context, s *Session, history []Message) (T, error) {
	var zero T
	format, err := ResponseFormatFor[T]()
	if err != nil {
		return zero, err
	}
	raw, err := s.CastFormat(ctx, history, format)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, &SchemaError{Schema: format.Name, Reason: fmt.Sprintf("output does not decode into %T", out), Err: err}
	}
	return out, nil
}

// ChatWithToolsAs runs the tool loop like ChatWithTools and then casts the final accumulated
// history into T.
func ChatWithToolsAs[T any](ctx context.Context, s *Session, prompt string, tools []any, opts ...CallOption) (T, error) {
	var zero T
	if _, err := s.ChatWithTools(ctx, prompt, tools, opts...); err != nil {
		return zero, err
	}
	return CastHistory[T](ctx, s, s.history)
}
