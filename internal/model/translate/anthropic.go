package translate

import (
	"fmt"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"
)

type AnthropicMessage struct {
	Role    string           `json:"role"`
	Content []AnthropicBlock `json:"content"`
}

// AnthropicBlock covers the text, tool_use and tool_result block types.
// Pointer fields keep empty text and empty results on the wire.
type AnthropicBlock struct {
	Type      string  `json:"type"`
	Text      *string `json:"text,omitempty"`
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Input     any     `json:"input,omitempty"`
	ToolUseID string  `json:"tool_use_id,omitempty"`
	Content   *string `json:"content,omitempty"`
}

type AnthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

func textBlock(s string) AnthropicBlock {
	return AnthropicBlock{Type: "text", Text: text(s)}
}

func toAnthropic(d contract.Dialect, turns []contract.Turn) (string, []AnthropicMessage, []string, error) {
	flatten := d.FlattensTools()
	issued := issuedCalls{}

	var (
		system   string
		systems  int
		warnings []string
	)
	out := make([]AnthropicMessage, 0, len(turns))

	for i, turn := range turns {
		switch t := turn.(type) {
		case contract.SystemTurn:
			systems++
			system = t.Text

		case contract.UserTurn:
			out = append(out, AnthropicMessage{Role: string(contract.RoleUser), Content: []AnthropicBlock{textBlock(t.Text)}})

		case contract.AssistantTurn:
			var blocks []AnthropicBlock
			if t.Text != "" {
				blocks = append(blocks, textBlock(t.Text))
			}
			if !flatten {
				for _, tc := range t.ToolCalls {
					input := tc.Arguments
					if input == nil {
						input = map[string]any{}
					}
					blocks = append(blocks, AnthropicBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
				}
				issued.add(t.ToolCalls)
			}
			if len(blocks) == 0 {
				blocks = []AnthropicBlock{textBlock("")}
			}
			out = append(out, AnthropicMessage{Role: string(contract.RoleAssistant), Content: blocks})

		case contract.ToolTurn:
			if flatten {
				out = append(out, AnthropicMessage{Role: string(contract.RoleUser), Content: []AnthropicBlock{textBlock(flattenToolResult(t))}})
				continue
			}
			if err := issued.check(i, t); err != nil {
				return "", nil, nil, err
			}
			out = append(out, AnthropicMessage{
				Role: string(contract.RoleUser),
				Content: []AnthropicBlock{{
					Type:      "tool_result",
					ToolUseID: t.ToolCallID,
					Content:   text(t.Result),
				}},
			})

		default:
			return "", nil, nil, pgptErrors.InvalidInput(fmt.Sprintf("turn %d: unsupported turn type %T", i, turn))
		}
	}

	if systems > 1 {
		warnings = append(warnings, fmt.Sprintf("%d system turns supplied; only the last one is sent", systems))
	}
	if len(out) == 0 {
		return "", nil, nil, pgptErrors.InvalidInput("conversation holds only system turns")
	}

	return system, out, warnings, nil
}

func anthropicTools(defs []contract.ToolDef) []AnthropicTool {
	if len(defs) == 0 {
		return nil
	}

	tools := make([]AnthropicTool, 0, len(defs))
	for _, def := range defs {
		schema := def.Parameters
		if schema == nil {
			schema = emptySchema()
		}
		tools = append(tools, AnthropicTool{Name: def.Name, Description: def.Description, InputSchema: schema})
	}
	return tools
}
