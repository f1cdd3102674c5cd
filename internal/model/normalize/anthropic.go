package normalize

import (
	"encoding/json"
	"strings"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"
)

// anthropicShapes has no field fallback chain: the content array is
// authoritative. Only tolerant dialects accept other objects.
var anthropicShapes = []shape{
	{name: "content", match: hasContentBlocks, extract: extractMessage},
	stringify,
}

func hasContentBlocks(_ contract.Dialect, r gjson.Result) bool {
	return r.Get("content").IsArray()
}

func extractMessage(r gjson.Result) (*contract.Response, error) {
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(r.Raw), &msg); err != nil {
		return nil, pgptErrors.Malformed("decode anthropic message", err)
	}

	resp := &contract.Response{
		StopReason: string(msg.StopReason),
		Usage: contract.Usage{
			PromptTokens:     msg.Usage.InputTokens,
			CompletionTokens: msg.Usage.OutputTokens,
		},
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args, err := decodeInput(b.Input)
			if err != nil {
				return nil, &pgptErrors.ToolArgumentError{Index: len(resp.ToolCalls), Name: b.Name, Err: err}
			}
			resp.ToolCalls = append(resp.ToolCalls, contract.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	resp.Text = text.String()

	return resp, nil
}

func decodeInput(input any) (map[string]any, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	return decodeArguments(gjson.ParseBytes(raw))
}
