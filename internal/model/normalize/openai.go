package normalize

import (
	"encoding/json"
	"strings"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/tidwall/gjson"
)

// openAIShapes lists the OpenAI-family layouts in priority order: a populated
// choices array, then the proxy fields response, answer and result. After
// that strict dialects accept an empty choice as empty text while tolerant
// dialects return the stringified object.
var openAIShapes = []shape{
	{name: "choices", match: hasPopulatedChoice, extract: extractChoices},
	fallbackField("response"),
	fallbackField("answer"),
	fallbackField("result"),
	{name: "choices-empty", match: hasStrictChoices, extract: extractChoices},
	stringify,
}

func hasChoices(_ contract.Dialect, r gjson.Result) bool {
	choices := r.Get("choices")
	return choices.IsArray() && len(choices.Array()) > 0
}

func hasStrictChoices(d contract.Dialect, r gjson.Result) bool {
	return !d.Tolerant() && r.Get("choices").IsArray()
}

func hasPopulatedChoice(d contract.Dialect, r gjson.Result) bool {
	if !hasChoices(d, r) {
		return false
	}
	msg := r.Get("choices.0.message")
	return present(msg.Get("content")) || len(msg.Get("tool_calls").Array()) > 0
}

func fallbackField(field string) shape {
	return shape{
		name: field,
		match: func(_ contract.Dialect, r gjson.Result) bool {
			return present(r.Get(field))
		},
		extract: func(r gjson.Result) (*contract.Response, error) {
			resp := &contract.Response{Text: valueText(r.Get(field))}
			resp.Usage = openAIUsage(r)
			return resp, nil
		},
	}
}

func extractChoices(r gjson.Result) (*contract.Response, error) {
	choice := r.Get("choices.0")
	msg := choice.Get("message")

	resp := &contract.Response{
		StopReason: choice.Get("finish_reason").String(),
		Usage:      openAIUsage(r),
	}
	if content := msg.Get("content"); present(content) {
		resp.Text = valueText(content)
	}

	for i, tc := range msg.Get("tool_calls").Array() {
		name := tc.Get("function.name").String()
		args, err := decodeArguments(tc.Get("function.arguments"))
		if err != nil {
			return nil, &pgptErrors.ToolArgumentError{Index: i, Name: name, Err: err}
		}
		resp.ToolCalls = append(resp.ToolCalls, contract.ToolCall{
			ID:        tc.Get("id").String(),
			Name:      name,
			Arguments: args,
		})
	}

	return resp, nil
}

// decodeArguments accepts the JSON-string encoding OpenAI uses as well as a
// bare object some proxies send. Missing or empty arguments decode to {}.
func decodeArguments(v gjson.Result) (map[string]any, error) {
	var raw string
	switch {
	case !v.Exists(), v.Type == gjson.Null:
		return map[string]any{}, nil
	case v.Type == gjson.String:
		raw = strings.TrimSpace(v.String())
		if raw == "" {
			return map[string]any{}, nil
		}
	default:
		raw = v.Raw
	}

	args := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func openAIUsage(r gjson.Result) contract.Usage {
	return contract.Usage{
		PromptTokens:     r.Get("usage.prompt_tokens").Int(),
		CompletionTokens: r.Get("usage.completion_tokens").Int(),
	}
}
