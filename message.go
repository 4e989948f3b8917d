package agentics

import (
	"fmt"
	"slices"
)

// Role identifies the author of a message in the conversation history.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Kind distinguishes the five message variants. Assistant text and assistant tool requests
// share RoleAssistant on the wire.
type Kind int

const (
	KindInvalid Kind = iota
	KindSystem
	KindUser
	KindAssistant
	KindToolRequest
	KindToolResult
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindUser:
		return "user"
	case KindAssistant:
		return "assistant"
	case KindToolRequest:
		return "assistant_tool_request"
	case KindToolResult:
		return "tool_result"
	default:
		return "invalid"
	}
}

// ToolCall is a single tool execution request as produced by the model.
// Arguments is the raw JSON text the model emitted.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of a conversation history. Build it with the constructors
// (SystemMessage, UserMessage, AssistantMessage, ToolCallsMessage, ToolResultMessage);
// the zero value is not a valid message.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// SystemMessage returns a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant text message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolCallsMessage returns an assistant tool request carrying calls in order. It has no content.
// An empty call list, or a call without id or name, is rejected with ErrInvalidMessage.
func ToolCallsMessage(calls ...ToolCall) (Message, error) {
	if len(calls) == 0 {
		return Message{}, &MessageError{Index: -1, Reason: "tool request without tool calls"}
	}
	for i, c := range calls {
		if reason := validateToolCall(c); reason != "" {
			return Message{}, &MessageError{Index: -1, Reason: fmt.Sprintf("tool call %d: %s", i, reason)}
		}
	}
	return Message{Role: RoleAssistant, ToolCalls: slices.Clone(calls)}, nil
}

// ToolResultMessage returns a tool result answering the call with callID.
// content must already be text (see FormatToolOutput).
func ToolResultMessage(callID, name, content string) (Message, error) {
	if callID == "" {
		return Message{}, &MessageError{Index: -1, Reason: "tool result without tool_call_id"}
	}
	if name == "" {
		return Message{}, &MessageError{Index: -1, Reason: "tool result without name"}
	}
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}, nil
}

// Kind reports which variant m is, or KindInvalid.
func (m Message) Kind() Kind {
	switch m.Role {
	case RoleSystem:
		return KindSystem
	case RoleUser:
		return KindUser
	case RoleAssistant:
		if len(m.ToolCalls) > 0 {
			return KindToolRequest
		}
		return KindAssistant
	case RoleTool:
		return KindToolResult
	default:
		return KindInvalid
	}
}

// IsToolRequest reports whether m is an assistant tool request.
func (m Message) IsToolRequest() bool { return m.Kind() == KindToolRequest }

// Equal reports whether m and o are the same message.
func (m Message) Equal(o Message) bool {
	return m.Role == o.Role &&
		m.Content == o.Content &&
		m.ToolCallID == o.ToolCallID &&
		m.Name == o.Name &&
		slices.Equal(m.ToolCalls, o.ToolCalls)
}

// Clone returns a copy of m that shares no memory with it.
func (m Message) Clone() Message {
	m.ToolCalls = slices.Clone(m.ToolCalls)
	return m
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// ValidateHistory checks every message and the pairing invariant: each tool result must answer a
// call of a tool request seen earlier in the same turn (since the last user message), at most once.
func ValidateHistory(history []Message) error {
	pending := make(map[string]struct{})
	for i, m := range history {
		if reason := validateMessage(m); reason != "" {
			return &MessageError{Index: i, Reason: reason}
		}
		switch m.Kind() {
		case KindUser:
			clear(pending)
		case KindToolRequest:
			for _, c := range m.ToolCalls {
				pending[c.ID] = struct{}{}
			}
		case KindToolResult:
			if _, ok := pending[m.ToolCallID]; !ok {
				return &MessageError{
					Index:  i,
					Reason: fmt.Sprintf("tool result %q has no matching tool request", m.ToolCallID),
				}
			}
			delete(pending, m.ToolCallID)
		}
	}
	return nil
}

func validateMessage(m Message) string {
	switch m.Kind() {
	case KindInvalid:
		return fmt.Sprintf("unknown role %q", m.Role)
	case KindSystem, KindUser:
		if len(m.ToolCalls) > 0 || m.ToolCallID != "" {
			return fmt.Sprintf("%s message with tool fields", m.Role)
		}
	case KindAssistant:
		if m.ToolCallID != "" {
			return "assistant message with tool_call_id"
		}
	case KindToolRequest:
		if m.Content != "" {
			return "tool request with content"
		}
		for i, c := range m.ToolCalls {
			if reason := validateToolCall(c); reason != "" {
				return fmt.Sprintf("tool call %d: %s", i, reason)
			}
		}
	case KindToolResult:
		if m.ToolCallID == "" {
			return "tool result without tool_call_id"
		}
		if m.Name == "" {
			return "tool result without name"
		}
		if len(m.ToolCalls) > 0 {
			return "tool result with tool calls"
		}
	}
	return ""
}

func validateToolCall(c ToolCall) string {
	if c.ID == "" {
		return "missing id"
	}
	if c.Name == "" {
		return "missing name"
	}
	return ""
}
