// Package agentics is a lightweight orchestration layer for LLM conversations: plain chat,
// function/tool invocation, and structured (schema-validated) output.
//
// # Overview
//
// A Session owns an ordered conversation history and talks to a model through a Gateway, which
// exposes exactly two operations: Complete (chat completion, optionally with tools) and Parse
// (structured output against a JSON Schema). The session drives the tool-calling loop:
//
//	prompt → Gateway.Complete(history, tools) → tool calls? → Registry.Execute each (in order)
//	       → tool results appended → Gateway.Complete again … → final text (or Parse → typed value)
//
// The loop is bounded by a round limit; a model that keeps requesting tools fails with
// ErrToolLoopExceeded instead of looping forever.
//
// # Tools
//
// Any Go func can become a tool with Describe. Parameters come from the signature: either a single
// struct argument (its JSON fields) or positional arguments named with WithParams. Bound arguments
// (WithBind) are hidden from the model and merged under its arguments at call time:
//
//	func add(a, b int) int { return a + b }
//
//	tool, err := agentics.Describe(add, agentics.WithParams("a", "b"))
//
// Typed tools can also be built with NewTool and raw-schema tools with NewDynamicTool.
//
// # Example
//
//	s, err := agentics.NewSession(gw, agentics.WithSystemPrompt("You are terse."))
//	if err != nil { ... }
//	type Sum struct { Sum int `json:"sum"` }
//	out, err := agentics.ChatWithToolsAs[Sum](ctx, s, "What is 5 plus 3? Use the add tool.", []any{tool})
package agentics
