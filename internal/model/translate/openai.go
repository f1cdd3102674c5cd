package translate

import (
	"fmt"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/sashabaranov/go-openai"
)

// OpenAIMessage mirrors the chat completions message. Content is a pointer
// so an assistant turn carrying only tool calls encodes as null.
type OpenAIMessage struct {
	Role       string            `json:"role"`
	Content    *string           `json:"content"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []openai.ToolCall `json:"tool_calls,omitempty"`
}

func text(s string) *string { return &s }

func toOpenAI(d contract.Dialect, turns []contract.Turn) ([]OpenAIMessage, error) {
	flatten := d.FlattensTools()
	issued := issuedCalls{}
	out := make([]OpenAIMessage, 0, len(turns))

	for i, turn := range turns {
		switch t := turn.(type) {
		case contract.SystemTurn:
			out = append(out, OpenAIMessage{Role: openai.ChatMessageRoleSystem, Content: text(t.Text)})

		case contract.UserTurn:
			out = append(out, OpenAIMessage{Role: openai.ChatMessageRoleUser, Content: text(t.Text)})

		case contract.AssistantTurn:
			msg := OpenAIMessage{Role: openai.ChatMessageRoleAssistant, Content: text(t.Text)}
			if flatten || len(t.ToolCalls) == 0 {
				out = append(out, msg)
				continue
			}

			calls := make([]openai.ToolCall, 0, len(t.ToolCalls))
			for j, tc := range t.ToolCalls {
				args, err := encodeArguments(tc.Arguments)
				if err != nil {
					return nil, pgptErrors.InvalidInput(fmt.Sprintf("turn %d tool call %d arguments: %v", i, j, err))
				}
				calls = append(calls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: args,
					},
				})
			}
			issued.add(t.ToolCalls)
			if t.Text == "" {
				msg.Content = nil
			}
			msg.ToolCalls = calls
			out = append(out, msg)

		case contract.ToolTurn:
			if flatten {
				out = append(out, OpenAIMessage{Role: openai.ChatMessageRoleUser, Content: text(flattenToolResult(t))})
				continue
			}
			if err := issued.check(i, t); err != nil {
				return nil, err
			}
			out = append(out, OpenAIMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    text(t.Result),
				ToolCallID: t.ToolCallID,
			})

		default:
			return nil, pgptErrors.InvalidInput(fmt.Sprintf("turn %d: unsupported turn type %T", i, turn))
		}
	}

	return out, nil
}

func openAITools(defs []contract.ToolDef) []openai.Tool {
	if len(defs) == 0 {
		return nil
	}

	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		params := def.Parameters
		if params == nil {
			params = emptySchema()
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}
