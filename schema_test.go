package agentics

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCustomTypes restores the RegisterType table when t ends. Tests using it must not be parallel.
func withCustomTypes(t *testing.T) {
	t.Helper()
	customTypesMu.Lock()
	saved := maps.Clone(customTypes)
	customTypesMu.Unlock()
	t.Cleanup(func() {
		customTypesMu.Lock()
		customTypes = saved
		customTypesMu.Unlock()
	})
}

// typeIncludes reports whether the "type" of node is want, or a list containing want.
func typeIncludes(node map[string]any, want string) bool {
	switch typ := node["type"].(type) {
	case string:
		return typ == want
	case []any:
		return slices.Contains(typ, any(want))
	}
	return false
}

// countNodes counts schema nodes for which match returns true.
func countNodes(schemaMap map[string]any, match func(map[string]any) bool) int {
	n := 0
	walkSchema(schemaMap, func(node map[string]any) {
		if match(node) {
			n++
		}
	})
	return n
}

type searchArgs struct {
	Query   string      `json:"query" jsonschema:"Full-text query"`
	Limit   int         `json:"limit,omitempty" jsonschema:"Maximum number of hits"`
	Filters searchRange `json:"filters"`
}

type searchRange struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
}

func TestGenerateSchema(t *testing.T) {
	m, resolved, err := generateSchema[searchArgs](false)
	require.NoError(t, err)
	require.NotNil(t, resolved)

	assert.Equal(t, "object", m["type"])
	assert.Equal(t, []any{"query", "filters"}, m["required"])
	props := m["properties"].(map[string]any)
	assert.Equal(t, "Full-text query", props["query"].(map[string]any)["description"])
	assert.Equal(t, "integer", props["limit"].(map[string]any)["type"])
	filters := props["filters"].(map[string]any)
	assert.Equal(t, []any{"from"}, filters["required"])

	assert.NotContains(t, m, "$defs")
	assert.Zero(t, countNodes(m, func(n map[string]any) bool { _, ok := n["$ref"]; return ok }),
		"nested structs are inlined")
}

func TestGenerateSchema_Strict(t *testing.T) {
	m, _, err := generateSchema[searchArgs](true)
	require.NoError(t, err)

	objects := countNodes(m, func(n map[string]any) bool { _, ok := n["properties"]; return ok })
	closed := countNodes(m, func(n map[string]any) bool { return n["additionalProperties"] == false })
	assert.Equal(t, 2, objects)
	assert.Equal(t, objects, closed)

	assert.Equal(t, []any{"filters", "limit", "query"}, m["required"])
	filters := m["properties"].(map[string]any)["filters"].(map[string]any)
	assert.Equal(t, []any{"from", "to"}, filters["required"])
}

func TestGenerateSchema_Validates(t *testing.T) {
	_, resolved, err := generateSchema[searchArgs](false)
	require.NoError(t, err)

	tests := []struct {
		args string
		ok   bool
	}{
		{`{"query":"go","filters":{"from":"2024"}}`, true},
		{`{"query":"go","limit":5,"filters":{"from":"2024","to":"2025"}}`, true},
		{`{"query":"go"}`, false},
		{`{"query":1,"filters":{"from":"2024"}}`, false},
		{`{"query":"go","filters":{"from":"2024","until":"now"}}`, false},
	}
	for _, tt := range tests {
		var v any
		require.NoError(t, json.Unmarshal([]byte(tt.args), &v))
		err := resolved.Validate(v)
		if tt.ok {
			assert.NoError(t, err, tt.args)
		} else {
			assert.Error(t, err, tt.args)
		}
	}
}

func TestApplyStrictMode(t *testing.T) {
	m := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"z": map[string]any{"type": "string"},
			"a": map[string]any{
				"type":       "object",
				"properties": map[string]any{"c": map[string]any{"type": "integer"}},
			},
		},
		"required": []any{"z"},
	}
	applyStrictMode(m)
	assert.Equal(t, false, m["additionalProperties"])
	assert.Equal(t, []any{"a", "z"}, m["required"])
	nested := m["properties"].(map[string]any)["a"].(map[string]any)
	assert.Equal(t, false, nested["additionalProperties"])
	assert.Equal(t, []any{"c"}, nested["required"])
}

func FuzzValidate(f *testing.F) {
	_, resolved, err := generateSchema[searchArgs](false)
	if err != nil {
		f.Fatal(err)
	}
	f.Add([]byte(`{"query":"go","filters":{"from":"x"}}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Fuzz(func(_ *testing.T, data []byte) {
		var instance any
		_ = json.Unmarshal(data, &instance)
		_ = resolved.Validate(instance)
	})
}

type money struct{ Cents int64 }

func TestRegisterType(t *testing.T) {
	withCustomTypes(t)
	RegisterType(money{}, "number", "decimal")

	type invoice struct {
		Total    money  `json:"total"`
		Discount *money `json:"discount,omitempty"`
	}
	m, _, err := generateSchema[invoice](false)
	require.NoError(t, err)
	props := m["properties"].(map[string]any)

	total := props["total"].(map[string]any)
	assert.Equal(t, "number", total["type"])
	assert.Equal(t, "decimal", total["format"])

	discount := props["discount"].(map[string]any)
	assert.True(t, typeIncludes(discount, "number"), "discount: %v", discount)
	assert.Equal(t, "decimal", discount["format"])
}

func TestRegisterType_UsedByDescribe(t *testing.T) {
	withCustomTypes(t)
	RegisterType(money{}, "string", "decimal")

	tool, err := Describe(func(amount money) string { return "ok" }, WithName("charge"), WithParams("amount"))
	require.NoError(t, err)
	amount := tool.Parameters()["properties"].(map[string]any)["amount"].(map[string]any)
	assert.Equal(t, "string", amount["type"])
	assert.Equal(t, "decimal", amount["format"])
}

func TestRegisterType_InvalidArgs(t *testing.T) {
	withCustomTypes(t)
	assert.Panics(t, func() { RegisterType(nil, "string", "uuid") })
	assert.Panics(t, func() { RegisterType(money{}, "", "uuid") })
}

func TestApplyFieldTags(t *testing.T) {
	type Args struct {
		Unit  string `json:"unit,omitempty" description:"Temperature unit" enum:"celsius, fahrenheit"`
		City  string `json:"city"`
		Skip  string `json:"-"`
		Plain string
	}
	m, _, err := generateSchema[Args](false)
	require.NoError(t, err)
	props := m["properties"].(map[string]any)
	unit := props["unit"].(map[string]any)
	assert.Equal(t, "Temperature unit", unit["description"])
	assert.Equal(t, []any{"celsius", "fahrenheit"}, unit["enum"])
	assert.NotContains(t, props["city"], "description")
	assert.NotContains(t, props, "Skip")
}

func TestRemoveProperties(t *testing.T) {
	m := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"b": map[string]any{"type": "string"},
		},
		"required": []any{"a", "b"},
	}
	removeProperties(m, []string{"a"})
	assert.Equal(t, []any{"b"}, m["required"])
	assert.NotContains(t, m["properties"], "a")

	removeProperties(m, []string{"b"})
	assert.NotContains(t, m, "required")
	assert.Empty(t, m["properties"])
}

func TestCloneSchema_Deep(t *testing.T) {
	orig := map[string]any{
		"type":       "object",
		"properties": map[string]any{"a": map[string]any{"type": "string"}},
	}
	clone, err := cloneSchema(orig)
	require.NoError(t, err)
	clone["properties"].(map[string]any)["a"].(map[string]any)["type"] = "integer"
	assert.Equal(t, "string", orig["properties"].(map[string]any)["a"].(map[string]any)["type"])

	none, err := cloneSchema(nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStripSchemaIDs(t *testing.T) {
	m := map[string]any{
		"$id": "https://example.com/root",
		"properties": map[string]any{
			"n": map[string]any{"id": "nested", "type": "string"},
		},
	}
	stripSchemaIDs(m)
	assert.NotContains(t, m, "$id")
	assert.Equal(t, map[string]any{"type": "string"}, m["properties"].(map[string]any)["n"])
}

func TestSchemaForType_Scalars(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[int](), "integer"},
		{reflect.TypeFor[string](), "string"},
		{reflect.TypeFor[bool](), "boolean"},
		{reflect.TypeFor[float64](), "number"},
	}
	for _, tt := range tests {
		m, err := schemaForType(tt.typ)
		require.NoError(t, err)
		assert.Equal(t, tt.want, m["type"], tt.typ.String())
	}
}
