package translate

import (
	"encoding/json"
	"fmt"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/sashabaranov/go-openai"
)

// toolResultLabel joins a tool name and its result when a proxy cannot carry
// tool turns natively.
const toolResultLabel = "결과"

// Fragment is the dialect-specific part of a request body. Exactly one of
// OpenAI or Anthropic is populated.
type Fragment struct {
	Dialect contract.Dialect

	OpenAI      []OpenAIMessage
	OpenAITools []openai.Tool

	System         string
	Anthropic      []AnthropicMessage
	AnthropicTools []AnthropicTool

	// Warnings record lossy but accepted input, e.g. several system turns.
	Warnings []string
}

// HasTools reports whether tool definitions survived translation.
func (f *Fragment) HasTools() bool {
	return len(f.OpenAITools) > 0 || len(f.AnthropicTools) > 0
}

// Translate converts turns and optional tool definitions into the wire shape
// of dialect d. Input slices are not modified.
func Translate(d contract.Dialect, turns []contract.Turn, tools []contract.ToolDef) (*Fragment, error) {
	if len(turns) == 0 {
		return nil, pgptErrors.ErrEmptyConversation
	}

	switch d.Family {
	case contract.FamilyOpenAI:
		msgs, err := toOpenAI(d, turns)
		if err != nil {
			return nil, err
		}
		f := &Fragment{Dialect: d, OpenAI: msgs}
		if !d.FlattensTools() {
			f.OpenAITools = openAITools(tools)
		}
		return f, nil

	case contract.FamilyAnthropic:
		system, msgs, warnings, err := toAnthropic(d, turns)
		if err != nil {
			return nil, err
		}
		f := &Fragment{Dialect: d, System: system, Anthropic: msgs, Warnings: warnings}
		if !d.FlattensTools() {
			f.AnthropicTools = anthropicTools(tools)
		}
		return f, nil
	}

	return nil, pgptErrors.InvalidInput(fmt.Sprintf("unsupported dialect %s", d))
}

// encodeArguments renders tool arguments as the JSON string OpenAI expects.
func encodeArguments(args map[string]any) (string, error) {
	if args == nil {
		return "{}", nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func flattenToolResult(t contract.ToolTurn) string {
	return fmt.Sprintf("%s %s: %s", t.ToolName, toolResultLabel, t.Result)
}

func emptySchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// issuedCalls tracks tool call ids so tool results can be correlated.
type issuedCalls map[string]struct{}

func (c issuedCalls) add(calls []contract.ToolCall) {
	for _, tc := range calls {
		c[tc.ID] = struct{}{}
	}
}

func (c issuedCalls) check(index int, t contract.ToolTurn) error {
	if _, ok := c[t.ToolCallID]; ok {
		return nil
	}
	return fmt.Errorf("turn %d references %q: %w", index, t.ToolCallID, pgptErrors.ErrUnknownToolCall)
}
