package translate

import (
	"encoding/json"
	"errors"
	"testing"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"pgregory.net/rapid"
)

func toolConversation() []contract.Turn {
	return []contract.Turn{
		contract.SystemTurn{Text: "be brief"},
		contract.UserTurn{Text: "weather in Seoul?"},
		contract.AssistantTurn{ToolCalls: []contract.ToolCall{
			{ID: "call_1", Name: "get_weather", Arguments: map[string]any{"city": "Seoul"}},
		}},
		contract.ToolTurn{ToolCallID: "call_1", ToolName: "get_weather", Result: "sunny"},
	}
}

func weatherTool() []contract.ToolDef {
	return []contract.ToolDef{{
		Name:        "get_weather",
		Description: "current weather",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"city": map[string]any{"type": "string"}},
		},
	}}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestTranslateEmptyConversation(t *testing.T) {
	for _, d := range []contract.Dialect{contract.OpenAI, contract.CustomProxy, contract.Anthropic, contract.AnthropicProxy} {
		_, err := Translate(d, nil, nil)
		assert.ErrorIs(t, err, pgptErrors.ErrEmptyConversation, d.String())
	}
}

func TestTranslateOpenAI(t *testing.T) {
	f, err := Translate(contract.OpenAI, toolConversation(), weatherTool())
	require.NoError(t, err)

	raw := mustJSON(t, f.OpenAI)
	msgs := gjson.Parse(raw).Array()
	require.Len(t, msgs, 4)

	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, "be brief", msgs[0].Get("content").String())

	assistant := msgs[2]
	assert.Equal(t, gjson.Null, assistant.Get("content").Type)
	assert.Equal(t, "call_1", assistant.Get("tool_calls.0.id").String())
	assert.Equal(t, "function", assistant.Get("tool_calls.0.type").String())
	assert.Equal(t, "get_weather", assistant.Get("tool_calls.0.function.name").String())
	assert.JSONEq(t, `{"city":"Seoul"}`, assistant.Get("tool_calls.0.function.arguments").String())

	assert.Equal(t, "tool", msgs[3].Get("role").String())
	assert.Equal(t, "call_1", msgs[3].Get("tool_call_id").String())
	assert.Equal(t, "sunny", msgs[3].Get("content").String())

	tools := gjson.Parse(mustJSON(t, f.OpenAITools))
	assert.Equal(t, "function", tools.Get("0.type").String())
	assert.Equal(t, "get_weather", tools.Get("0.function.name").String())
	assert.Equal(t, "object", tools.Get("0.function.parameters.type").String())
}

func TestTranslateOpenAIAssistantTextWithCalls(t *testing.T) {
	turns := []contract.Turn{
		contract.UserTurn{Text: "hi"},
		contract.AssistantTurn{Text: "checking", ToolCalls: []contract.ToolCall{{ID: "c", Name: "f"}}},
	}
	f, err := Translate(contract.OpenAI, turns, nil)
	require.NoError(t, err)

	msg := gjson.Parse(mustJSON(t, f.OpenAI[1]))
	assert.Equal(t, "checking", msg.Get("content").String())
	assert.Equal(t, "{}", msg.Get("tool_calls.0.function.arguments").String())
	assert.Nil(t, f.OpenAITools)
}

func TestTranslateCustomProxyFlattensTools(t *testing.T) {
	f, err := Translate(contract.CustomProxy, toolConversation(), weatherTool())
	require.NoError(t, err)

	require.Len(t, f.OpenAI, 4)
	assert.False(t, f.HasTools())

	assistant := gjson.Parse(mustJSON(t, f.OpenAI[2]))
	assert.Equal(t, gjson.String, assistant.Get("content").Type)
	assert.Equal(t, "", assistant.Get("content").String())
	assert.False(t, assistant.Get("tool_calls").Exists())

	assert.Equal(t, "user", f.OpenAI[3].Role)
	assert.Equal(t, "get_weather 결과: sunny", *f.OpenAI[3].Content)
	assert.Empty(t, f.OpenAI[3].ToolCallID)
}

func TestTranslateProxyWithNativeTools(t *testing.T) {
	d := contract.Dialect{Family: contract.FamilyOpenAI, Proxy: true, ProxyTools: true}
	f, err := Translate(d, toolConversation(), weatherTool())
	require.NoError(t, err)

	assert.True(t, f.HasTools())
	assert.Equal(t, "tool", f.OpenAI[3].Role)
	assert.Len(t, f.OpenAI[2].ToolCalls, 1)
}

func TestTranslateUnknownToolCall(t *testing.T) {
	turns := []contract.Turn{
		contract.UserTurn{Text: "hi"},
		contract.ToolTurn{ToolCallID: "ghost", ToolName: "f", Result: "x"},
	}

	_, err := Translate(contract.OpenAI, turns, nil)
	assert.ErrorIs(t, err, pgptErrors.ErrUnknownToolCall)

	_, err = Translate(contract.Anthropic, turns, nil)
	assert.ErrorIs(t, err, pgptErrors.ErrUnknownToolCall)

	f, err := Translate(contract.CustomProxy, turns, nil)
	require.NoError(t, err)
	assert.Equal(t, "f 결과: x", *f.OpenAI[1].Content)
}

func TestTranslateAnthropic(t *testing.T) {
	f, err := Translate(contract.Anthropic, toolConversation(), weatherTool())
	require.NoError(t, err)

	assert.Equal(t, "be brief", f.System)
	assert.Empty(t, f.Warnings)

	msgs := gjson.Parse(mustJSON(t, f.Anthropic)).Array()
	require.Len(t, msgs, 3)

	assert.Equal(t, "user", msgs[0].Get("role").String())
	assert.Equal(t, "text", msgs[0].Get("content.0.type").String())
	assert.Equal(t, "weather in Seoul?", msgs[0].Get("content.0.text").String())

	assert.Equal(t, "assistant", msgs[1].Get("role").String())
	assert.Equal(t, "tool_use", msgs[1].Get("content.0.type").String())
	assert.Equal(t, "call_1", msgs[1].Get("content.0.id").String())
	assert.Equal(t, "Seoul", msgs[1].Get("content.0.input.city").String())

	assert.Equal(t, "user", msgs[2].Get("role").String())
	assert.Equal(t, "tool_result", msgs[2].Get("content.0.type").String())
	assert.Equal(t, "call_1", msgs[2].Get("content.0.tool_use_id").String())
	assert.Equal(t, "sunny", msgs[2].Get("content.0.content").String())

	tools := gjson.Parse(mustJSON(t, f.AnthropicTools))
	assert.Equal(t, "get_weather", tools.Get("0.name").String())
	assert.Equal(t, "object", tools.Get("0.input_schema.type").String())
}

func TestTranslateAnthropicEmptyAssistant(t *testing.T) {
	turns := []contract.Turn{
		contract.UserTurn{Text: "hi"},
		contract.AssistantTurn{},
		contract.UserTurn{Text: "again"},
	}
	f, err := Translate(contract.Anthropic, turns, nil)
	require.NoError(t, err)

	assert.JSONEq(t, `[{"type":"text","text":""}]`, mustJSON(t, f.Anthropic[1].Content))
}

func TestTranslateAnthropicToolUseWithoutArguments(t *testing.T) {
	turns := []contract.Turn{
		contract.UserTurn{Text: "now?"},
		contract.AssistantTurn{ToolCalls: []contract.ToolCall{{ID: "t", Name: "clock"}}},
	}
	f, err := Translate(contract.Anthropic, turns, nil)
	require.NoError(t, err)

	assert.JSONEq(t, `[{"type":"tool_use","id":"t","name":"clock","input":{}}]`, mustJSON(t, f.Anthropic[1].Content))
}

func TestTranslateAnthropicMultipleSystemTurns(t *testing.T) {
	turns := []contract.Turn{
		contract.SystemTurn{Text: "first"},
		contract.UserTurn{Text: "hi"},
		contract.SystemTurn{Text: "second"},
	}
	f, err := Translate(contract.Anthropic, turns, nil)
	require.NoError(t, err)

	assert.Equal(t, "second", f.System)
	assert.Len(t, f.Warnings, 1)
	assert.Len(t, f.Anthropic, 1)
}

func TestTranslateAnthropicProxyFlattens(t *testing.T) {
	f, err := Translate(contract.AnthropicProxy, toolConversation(), weatherTool())
	require.NoError(t, err)

	assert.False(t, f.HasTools())
	require.Len(t, f.Anthropic, 3)
	assert.JSONEq(t, `[{"type":"text","text":""}]`, mustJSON(t, f.Anthropic[1].Content))
	assert.Equal(t, "get_weather 결과: sunny", *f.Anthropic[2].Content[0].Text)
}

func TestTranslateAnthropicOnlySystem(t *testing.T) {
	_, err := Translate(contract.Anthropic, []contract.Turn{contract.SystemTurn{Text: "x"}}, nil)
	assert.True(t, errors.Is(err, pgptErrors.ErrInvalidInput))
}

func TestTranslateDoesNotMutateInput(t *testing.T) {
	turns := toolConversation()
	before := mustJSON(t, turns)

	_, err := Translate(contract.OpenAI, turns, nil)
	require.NoError(t, err)
	_, err = Translate(contract.Anthropic, turns, nil)
	require.NoError(t, err)

	assert.Equal(t, before, mustJSON(t, turns))
}

func conversationGen() *rapid.Generator[[]contract.Turn] {
	return rapid.Custom(func(rt *rapid.T) []contract.Turn {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		turns := make([]contract.Turn, 0, n)
		for i := 0; i < n; i++ {
			body := rapid.StringMatching(`[a-z ]{0,12}`).Draw(rt, "text")
			switch rapid.IntRange(0, 2).Draw(rt, "kind") {
			case 0:
				turns = append(turns, contract.SystemTurn{Text: body})
			case 1:
				turns = append(turns, contract.UserTurn{Text: body})
			default:
				turns = append(turns, contract.AssistantTurn{Text: body})
			}
		}
		return turns
	})
}

type roleText struct {
	role string
	text string
}

func TestTranslatePreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		turns := conversationGen().Draw(rt, "turns")

		var want []roleText
		var wantAll []roleText
		for _, turn := range turns {
			var body string
			switch v := turn.(type) {
			case contract.SystemTurn:
				body = v.Text
			case contract.UserTurn:
				body = v.Text
			case contract.AssistantTurn:
				body = v.Text
			}
			wantAll = append(wantAll, roleText{string(turn.Role()), body})
			if turn.Role() != contract.RoleSystem {
				want = append(want, roleText{string(turn.Role()), body})
			}
		}

		f, err := Translate(contract.OpenAI, turns, nil)
		if err != nil {
			rt.Fatalf("openai: %v", err)
		}
		var gotAll []roleText
		for _, m := range f.OpenAI {
			gotAll = append(gotAll, roleText{m.Role, *m.Content})
		}
		if !assert.Equal(rt, wantAll, gotAll) {
			return
		}

		f, err = Translate(contract.Anthropic, turns, nil)
		if len(want) == 0 {
			if !errors.Is(err, pgptErrors.ErrInvalidInput) {
				rt.Fatalf("expected invalid input for system-only conversation, got %v", err)
			}
			return
		}
		if err != nil {
			rt.Fatalf("anthropic: %v", err)
		}
		var got []roleText
		for _, m := range f.Anthropic {
			got = append(got, roleText{m.Role, *m.Content[0].Text})
		}
		assert.Equal(rt, want, got)
	})
}
