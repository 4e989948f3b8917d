package agentics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
)

// FormatToolOutput normalizes a tool result to the text sent back to the model:
// nil → "", strings pass through, byte slices are taken as text, and any other value is
// JSON-encoded using its declared JSON shape (struct tags, MarshalJSON). Values that cannot be
// encoded fall back to fmt's default format; the fallback is logged with slog.Default and never fails.
func FormatToolOutput(v any) string {
	out, _ := formatToolOutput(slog.Default(), v)
	return out
}

// formatToolOutput reports whether the fmt fallback was used.
func formatToolOutput(logger *slog.Logger, v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, false
	case json.RawMessage:
		return string(x), false
	case []byte:
		return string(x), false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
	case reflect.String:
		return rv.String(), false
	}
	data, err := safeMarshal(v)
	if err == nil {
		return string(data), false
	}
	logger.Warn("tool output format fallback", "type", fmt.Sprintf("%T", v), "error", err)
	return fmt.Sprint(v), true
}

// safeMarshal is json.Marshal that turns a panicking MarshalJSON into an error.
func safeMarshal(v any) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, &panicError{p: p}
		}
	}()
	return json.Marshal(v)
}
