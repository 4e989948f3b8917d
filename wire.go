package agentics

import (
	"encoding/json"
	"fmt"
)

// Wire encoding follows the chat-completion JSON shape expected by model providers.
// Field order is fixed per variant so encoded payloads are stable.

const toolTypeFunction = "function"

type wireTextMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type wireToolRequestMessage struct {
	Role      Role           `json:"role"`
	Content   *string        `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type wireToolResultMessage struct {
	Role       Role   `json:"role"`
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// wireAnyMessage is the union used for decoding.
type wireAnyMessage struct {
	Role       Role           `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls"`
	ToolCallID string         `json:"tool_call_id"`
	Name       string         `json:"name"`
}

// MarshalJSON encodes m in the chat-completion message shape. A tool request carries
// "content": null; an invalid message is an error.
func (m Message) MarshalJSON() ([]byte, error) {
	if reason := validateMessage(m); reason != "" {
		return nil, &MessageError{Index: -1, Reason: reason}
	}
	switch m.Kind() {
	case KindToolRequest:
		calls := make([]wireToolCall, len(m.ToolCalls))
		for i, c := range m.ToolCalls {
			calls[i] = wireToolCall{
				ID:       c.ID,
				Type:     toolTypeFunction,
				Function: wireFunctionCall{Name: c.Name, Arguments: c.Arguments},
			}
		}
		return json.Marshal(wireToolRequestMessage{Role: RoleAssistant, ToolCalls: calls})
	case KindToolResult:
		return json.Marshal(wireToolResultMessage{
			Role:       RoleTool,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
			Content:    m.Content,
		})
	default:
		return json.Marshal(wireTextMessage{Role: m.Role, Content: m.Content})
	}
}

// UnmarshalJSON decodes a chat-completion message and validates it.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireAnyMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Message{Role: w.Role, ToolCallID: w.ToolCallID, Name: w.Name}
	if w.Content != nil {
		out.Content = *w.Content
	}
	if len(w.ToolCalls) > 0 {
		out.ToolCalls = make([]ToolCall, len(w.ToolCalls))
		for i, c := range w.ToolCalls {
			if c.Type != "" && c.Type != toolTypeFunction {
				return &MessageError{Index: -1, Reason: fmt.Sprintf("tool call %d: unsupported type %q", i, c.Type)}
			}
			out.ToolCalls[i] = ToolCall{ID: c.ID, Name: c.Function.Name, Arguments: c.Function.Arguments}
		}
	}
	if reason := validateMessage(out); reason != "" {
		return &MessageError{Index: -1, Reason: reason}
	}
	*m = out
	return nil
}

// ToolDefinition is the provider-facing description of a tool.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
	Strict      bool
}

type wireToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict,omitempty"`
}

type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

// MarshalJSON encodes d as {"type":"function","function":{...}}. The description is omitted when empty.
func (d ToolDefinition) MarshalJSON() ([]byte, error) {
	params := d.Parameters
	if params == nil {
		params = emptyObjectSchema()
	}
	return json.Marshal(wireTool{
		Type: toolTypeFunction,
		Function: wireToolFunction{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
			Strict:      d.Strict,
		},
	})
}

// UnmarshalJSON decodes the {"type":"function","function":{...}} shape.
func (d *ToolDefinition) UnmarshalJSON(data []byte) error {
	var w wireTool
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type != toolTypeFunction {
		return fmt.Errorf("unsupported tool type %q", w.Type)
	}
	*d = ToolDefinition{
		Name:        w.Function.Name,
		Description: w.Function.Description,
		Parameters:  w.Function.Parameters,
		Strict:      w.Function.Strict,
	}
	return nil
}

func emptyObjectSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
