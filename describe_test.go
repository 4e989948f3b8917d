package agentics

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(a, b int) int { return a + b }

func pair(a, b int) string { return fmt.Sprintf("%d,%d", a, b) }

func power(base, exp int) int {
	out := 1
	for range exp {
		out *= base
	}
	return out
}

type greetArgs struct {
	Name   string `json:"name" description:"Who to greet"`
	Polite bool   `json:"polite,omitempty"`
}

func greet(_ context.Context, args greetArgs) (string, error) {
	if args.Polite {
		return "Good day, " + args.Name, nil
	}
	return "hi " + args.Name, nil
}

type rangeArgs struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

func (r *rangeArgs) Validate() error {
	if r.Low > r.High {
		return errors.New("low must be <= high")
	}
	return nil
}

func span(args *rangeArgs) int { return args.High - args.Low }

type calculator struct{ factor int }

func (c *calculator) Scale(x int) int { return x * c.factor }

type ctxKey struct{}

func whoami(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

func mustCall(t *testing.T, tool Tool, args string) any {
	t.Helper()
	out, err := tool.Call(context.Background(), []byte(args))
	require.NoError(t, err)
	return out
}

func TestDescribe_Positional(t *testing.T) {
	t.Parallel()
	tool, err := Describe(add, WithParams("a", "b"), WithDescription("Add two integers"))
	require.NoError(t, err)
	assert.Equal(t, "add", tool.Name())
	assert.Equal(t, "Add two integers", tool.Description())

	params := tool.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.ElementsMatch(t, []any{"a", "b"}, params["required"])
	props := params["properties"].(map[string]any)
	assert.Equal(t, "integer", props["a"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["b"].(map[string]any)["type"])

	assert.Equal(t, 8, mustCall(t, tool, `{"a":5,"b":3}`))
}

func TestDescribe_PositionalValidation(t *testing.T) {
	t.Parallel()
	tool, err := Describe(add, WithParams("a", "b"))
	require.NoError(t, err)
	for _, args := range []string{`{"a":5}`, `{"a":"five","b":3}`, `{"a":1.5,"b":3}`, `[5,3]`, `{bad`} {
		_, err := tool.Call(context.Background(), []byte(args))
		assert.ErrorIs(t, err, ErrInvalidArguments, "args %s", args)
	}
}

func TestDescribe_Bind(t *testing.T) {
	t.Parallel()
	tool, err := Describe(pair, WithParams("a", "b"), WithBind(map[string]any{"a": 5}))
	require.NoError(t, err)

	params := tool.Parameters()
	props := params["properties"].(map[string]any)
	assert.NotContains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Equal(t, []any{"b"}, params["required"])

	assert.Equal(t, "5,3", mustCall(t, tool, `{"b":3}`))
	// model arguments win over bound ones
	assert.Equal(t, "1,3", mustCall(t, tool, `{"a":1,"b":3}`))
}

func TestDescribe_BindSecrets(t *testing.T) {
	t.Parallel()
	fetch := func(token, query string) string { return token + ":" + query }
	tool, err := Describe(fetch, WithName("fetch"), WithParams("token", "query"), WithBind(map[string]any{"token": "s3cr3t"}))
	require.NoError(t, err)
	def, err := Definition(tool).MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(def), "token")
	assert.NotContains(t, string(def), "s3cr3t")
	assert.Equal(t, "s3cr3t:weather", mustCall(t, tool, `{"query":"weather"}`))
}

func TestDescribe_Defaults(t *testing.T) {
	t.Parallel()
	tool, err := Describe(power, WithParams("base", "exp"), WithDefaults(map[string]any{"exp": 2}))
	require.NoError(t, err)
	params := tool.Parameters()
	assert.Equal(t, []any{"base"}, params["required"])
	exp := params["properties"].(map[string]any)["exp"].(map[string]any)
	assert.EqualValues(t, 2, exp["default"])

	assert.Equal(t, 9, mustCall(t, tool, `{"base":3}`))
	assert.Equal(t, 27, mustCall(t, tool, `{"base":3,"exp":3}`))
}

func TestDescribe_StructArgument(t *testing.T) {
	t.Parallel()
	tool, err := Describe(greet)
	require.NoError(t, err)
	assert.Equal(t, "greet", tool.Name())

	params := tool.Parameters()
	props := params["properties"].(map[string]any)
	require.Contains(t, props, "name")
	require.Contains(t, props, "polite")
	assert.Equal(t, "Who to greet", props["name"].(map[string]any)["description"])
	assert.Equal(t, []any{"name"}, params["required"])

	assert.Equal(t, "hi Ann", mustCall(t, tool, `{"name":"Ann"}`))
	assert.Equal(t, "Good day, Ann", mustCall(t, tool, `{"name":"Ann","polite":true}`))

	_, err = tool.Call(context.Background(), []byte(`{"polite":true}`))
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestDescribe_StructPointerValidatable(t *testing.T) {
	t.Parallel()
	tool, err := Describe(span)
	require.NoError(t, err)
	assert.Equal(t, 9, mustCall(t, tool, `{"low":1,"high":10}`))

	_, err = tool.Call(context.Background(), []byte(`{"low":10,"high":1}`))
	require.ErrorIs(t, err, ErrInvalidArguments)
	assert.Contains(t, err.Error(), "low must be <= high")
}

func TestDescribe_StructBind(t *testing.T) {
	t.Parallel()
	tool, err := Describe(greet, WithBind(map[string]any{"polite": true}))
	require.NoError(t, err)
	assert.NotContains(t, tool.Parameters()["properties"], "polite")
	assert.Equal(t, "Good day, Bob", mustCall(t, tool, `{"name":"Bob"}`))
}

func TestDescribe_Context(t *testing.T) {
	t.Parallel()
	tool, err := Describe(whoami)
	require.NoError(t, err)
	assert.Empty(t, tool.Parameters()["required"])
	ctx := context.WithValue(context.Background(), ctxKey{}, "agent-7")
	out, err := tool.Call(ctx, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "agent-7", out)
}

func TestDescribe_ResultShapes(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	tests := []struct {
		name    string
		fn      any
		want    any
		wantErr error
	}{
		{"no results", func() {}, nil, nil},
		{"only error nil", func() error { return nil }, nil, nil},
		{"only error", func() error { return boom }, nil, boom},
		{"value and error", func() (string, error) { return "ok", nil }, "ok", nil},
		{"value and failing error", func() (string, error) { return "ignored", boom }, nil, boom},
		{"single value", func() []int { return []int{1, 2} }, []int{1, 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, err := Describe(tt.fn, WithName("shape"))
			require.NoError(t, err)
			out, err := tool.Call(context.Background(), nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestDescribe_OptionalPointerParam(t *testing.T) {
	t.Parallel()
	maybe := func(n *int) string {
		if n == nil {
			return "none"
		}
		return fmt.Sprint(*n)
	}
	tool, err := Describe(maybe, WithName("maybe"), WithParams("n"))
	require.NoError(t, err)
	assert.NotContains(t, tool.Parameters(), "required")
	assert.Equal(t, "none", mustCall(t, tool, `{}`))
	assert.Equal(t, "4", mustCall(t, tool, `{"n":4}`))
}

func TestDescribe_Strict(t *testing.T) {
	t.Parallel()
	tool, err := Describe(greet, WithStrict())
	require.NoError(t, err)
	params := tool.Parameters()
	assert.Equal(t, false, params["additionalProperties"])
	assert.Equal(t, []any{"name", "polite"}, params["required"])
	assert.True(t, Definition(tool).Strict)
}

func TestDescribe_Names(t *testing.T) {
	t.Parallel()
	calc := &calculator{factor: 3}
	tool, err := Describe(calc.Scale, WithParams("x"))
	require.NoError(t, err)
	assert.Equal(t, "Scale", tool.Name())
	assert.Equal(t, 12, mustCall(t, tool, `{"x":4}`))

	_, err = Describe(func(int) int { return 0 }, WithParams("x"))
	require.ErrorIs(t, err, ErrInvalidToolName)

	tool, err = Describe(func(int) int { return 0 }, WithParams("x"), WithName("anon_ok"))
	require.NoError(t, err)
	assert.Equal(t, "anon_ok", tool.Name())

	_, err = Describe(add, WithParams("a", "b"), WithName("not valid"))
	require.ErrorIs(t, err, ErrInvalidToolName)
	_, err = Describe(add, WithParams("a", "b"), WithName(strings.Repeat("x", 65)))
	require.ErrorIs(t, err, ErrInvalidToolName)
}

func TestDescribe_UnsupportedSignatures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		fn   any
		opts []ToolOption
	}{
		{"not a func", 42, nil},
		{"nil func", (func())(nil), nil},
		{"channel param", func(chan int) {}, []ToolOption{WithParams("ch")}},
		{"func param", func(func()) {}, []ToolOption{WithParams("cb")}},
		{"complex param", func(complex128) {}, []ToolOption{WithParams("z")}},
		{"int keyed map", func(map[int]string) {}, []ToolOption{WithParams("m")}},
		{"interface with methods", func(fmt.Stringer) {}, []ToolOption{WithParams("s")}},
		{"channel field", func(struct{ C chan int }) {}, nil},
		{"variadic", func(...int) {}, []ToolOption{WithParams("xs")}},
		{"too many results", func() (int, int, error) { return 0, 0, nil }, nil},
		{"second result not error", func() (int, string) { return 0, "" }, nil},
		{"context not first", func(int, context.Context) {}, []ToolOption{WithParams("x", "ctx")}},
		{"missing param names", add, nil},
		{"wrong param count", add, []ToolOption{WithParams("a")}},
		{"duplicate param names", add, []ToolOption{WithParams("a", "a")}},
		{"empty param name", add, []ToolOption{WithParams("a", "")}},
		{"bind unknown param", add, []ToolOption{WithParams("a", "b"), WithBind(map[string]any{"c": 1})}},
		{"default unknown param", add, []ToolOption{WithParams("a", "b"), WithDefaults(map[string]any{"z": 1})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]ToolOption{WithName("subject")}, tt.opts...)
			_, err := Describe(tt.fn, opts...)
			require.ErrorIs(t, err, ErrUnsupportedSignature)
			var se *SignatureError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "subject", se.Tool)
		})
	}
}

func TestDescribe_SupportedTypes(t *testing.T) {
	t.Parallel()
	type inner struct {
		Tags []string          `json:"tags"`
		Meta map[string]string `json:"meta,omitempty"`
	}
	fn := func(when time.Time, items []inner, anything any, ratio float32) string {
		return fmt.Sprintf("%d %d %v %.1f", when.Year(), len(items), anything, ratio)
	}
	tool, err := Describe(fn, WithName("kitchen_sink"), WithParams("when", "items", "anything", "ratio"))
	require.NoError(t, err)
	out := mustCall(t, tool, `{"when":"2024-05-01T00:00:00Z","items":[{"tags":["a"]}],"anything":"x","ratio":0.5}`)
	assert.Equal(t, "2024 1 x 0.5", out)
}

func TestAnalyzeSignature_DoesNotCall(t *testing.T) {
	t.Parallel()
	called := false
	fn := func(a int) int {
		called = true
		return a
	}
	sig, err := analyzeSignature(reflect.TypeOf(fn), toolOptions{name: "sample", params: []string{"a"}})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, shapePositional, sig.shape)
	assert.False(t, sig.hasCtx)
	assert.True(t, sig.hasResult)
	assert.False(t, sig.hasError)
	require.Len(t, sig.params, 1)
	assert.Equal(t, "a", sig.params[0].name)
}

func TestFuncName(t *testing.T) {
	t.Parallel()
	name, err := funcName(reflect.ValueOf(add))
	require.NoError(t, err)
	assert.Equal(t, "add", name)

	name, err = funcName(reflect.ValueOf(strings.ToUpper))
	require.NoError(t, err)
	assert.Equal(t, "ToUpper", name)

	_, err = funcName(reflect.ValueOf(func() {}))
	assert.ErrorIs(t, err, ErrInvalidToolName)
}

func TestMergeArguments(t *testing.T) {
	t.Parallel()
	data, merged, err := mergeArguments(
		map[string]any{"a": 1, "b": 1, "c": 1},
		map[string]any{"b": 2, "c": 2},
		[]byte(`{"c":3}`),
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":2,"c":3}`, string(data))
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2), "c": float64(3)}, merged)

	_, _, err = mergeArguments(nil, nil, []byte(`"nope"`))
	assert.ErrorIs(t, err, ErrInvalidArguments)
}
