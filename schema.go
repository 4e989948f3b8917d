package agentics

import (
	"encoding/json"
	"errors"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	customTypesMu sync.RWMutex
	customTypes   = make(map[reflect.Type]*jsonschema.Schema)
)

// RegisterType maps the type of emptyInstance to a JSON Schema type (and optional format) in
// every schema reflected afterwards, e.g. RegisterType(uuid.UUID{}, "string", "uuid").
// Register at startup: signatures already held by a SignatureCache keep their old schema.
// It panics when emptyInstance is nil or jsonType is empty.
func RegisterType(emptyInstance any, jsonType, format string) {
	if emptyInstance == nil || jsonType == "" {
		panic("agentics: RegisterType needs a value and a JSON type")
	}
	customTypesMu.Lock()
	defer customTypesMu.Unlock()
	customTypes[reflect.TypeOf(emptyInstance)] = &jsonschema.Schema{Type: jsonType, Format: format}
}

func isCustomType(t reflect.Type) bool {
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	return customTypes[t] != nil
}

func customTypeSchemas() map[reflect.Type]*jsonschema.Schema {
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	out := make(map[reflect.Type]*jsonschema.Schema, len(customTypes))
	for t, s := range customTypes {
		out[t] = s.CloneSchemas()
	}
	return out
}

var errNilSchema = errors.New("schema reflection returned nil")

// schemaForType reflects t into a JSON Schema map with ids removed. The description and enum
// struct tags of t's own fields are applied to its properties.
func schemaForType(t reflect.Type) (map[string]any, error) {
	schema, err := jsonschema.ForType(t, &jsonschema.ForOptions{TypeSchemas: customTypeSchemas()})
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, errNilSchema
	}
	schemaMap, err := toSchemaMap(schema)
	if err != nil {
		return nil, err
	}
	applyFieldTags(schemaMap, t)
	stripSchemaIDs(schemaMap)
	return schemaMap, nil
}

// generateSchema reflects T and compiles the result. strict closes every object.
func generateSchema[T any](strict bool) (map[string]any, *jsonschema.Resolved, error) {
	schemaMap, err := schemaForType(reflect.TypeFor[T]())
	if err != nil {
		return nil, nil, err
	}
	if strict {
		applyStrictMode(schemaMap)
	}
	resolved, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, resolved, nil
}

// toSchemaMap converts a schema value to a map. The unrestricted schema, which marshals as
// true, becomes an empty map.
func toSchemaMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "true" {
		return map[string]any{}, nil
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, err
	}
	return schemaMap, nil
}

// cloneSchema deep-copies a JSON Schema map through JSON.
func cloneSchema(schemaMap map[string]any) (map[string]any, error) {
	if schemaMap == nil {
		return nil, nil
	}
	return toSchemaMap(schemaMap)
}

// compileRawSchema resolves schemaMap for validation without mutating it.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

// applyFieldTags copies `description:"..."` and `enum:"a,b"` tags onto the matching root
// properties (matched by json name).
func applyFieldTags(schemaMap map[string]any, t reflect.Type) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	props, _ := schemaMap["properties"].(map[string]any)
	if t == nil || t.Kind() != reflect.Struct || len(props) == 0 {
		return
	}
	for field := range fieldsOf(t) {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		prop, ok := props[name].(map[string]any)
		if name == "" || name == "-" || !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			var values []any
			for v := range strings.SplitSeq(enum, ",") {
				values = append(values, strings.TrimSpace(v))
			}
			prop["enum"] = values
		}
	}
}

func fieldsOf(t reflect.Type) func(yield func(reflect.StructField) bool) {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			if !yield(t.Field(i)) {
				return
			}
		}
	}
}

// walkSchema calls visit on schemaMap and every map nested in it, including inside arrays.
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					walkSchema(m, visit)
				}
			}
		}
	}
}

// applyStrictMode closes every object node and marks all of its properties required, sorted.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		props, ok := n["properties"].(map[string]any)
		if !ok {
			return
		}
		n["additionalProperties"] = false
		if len(props) == 0 {
			return
		}
		keys := slices.Sorted(maps.Keys(props))
		required := make([]any, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		n["required"] = required
	})
}

func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
}

// removeProperties drops keys from the root properties and required list.
func removeProperties(schemaMap map[string]any, keys []string) {
	if len(keys) == 0 {
		return
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		for _, k := range keys {
			delete(props, k)
		}
	}
	dropRequired(schemaMap, func(name string) bool { return slices.Contains(keys, name) })
}

// dropRequired removes the names matching drop from the root required list, deleting the
// list when it becomes empty.
func dropRequired(schemaMap map[string]any, drop func(string) bool) {
	required, ok := schemaMap["required"].([]any)
	if !ok {
		return
	}
	kept := make([]any, 0, len(required))
	for _, r := range required {
		if name, ok := r.(string); ok && drop(name) {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		delete(schemaMap, "required")
		return
	}
	schemaMap["required"] = kept
}

// applyArgumentDefaults checks that every WithBind and WithDefaults key names a root property
// of full, then records defaults as schema "default" values and makes them optional.
// It returns the first unknown key, or "".
func applyArgumentDefaults(full map[string]any, o toolOptions) string {
	props, _ := full["properties"].(map[string]any)
	for _, group := range []map[string]any{o.bind, o.defaults} {
		for _, k := range slices.Sorted(maps.Keys(group)) {
			if _, ok := props[k]; !ok {
				return k
			}
		}
	}
	for k, v := range o.defaults {
		if prop, ok := props[k].(map[string]any); ok {
			prop["default"] = v
		}
	}
	dropRequired(full, func(name string) bool {
		_, ok := o.defaults[name]
		return ok
	})
	return ""
}

// publishedSchema is the copy of full shown to the model: bound parameters removed and, with
// WithStrict, every object closed.
func publishedSchema(full map[string]any, o toolOptions) (map[string]any, error) {
	published, err := cloneSchema(full)
	if err != nil {
		return nil, err
	}
	removeProperties(published, slices.Collect(maps.Keys(o.bind)))
	if o.strict {
		applyStrictMode(published)
	}
	return published, nil
}
