package proxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harunnryd/pgpt/internal/config"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	auth string
	body map[string]any
}

func newServer(t *testing.T, reply string, seen *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &seen.body)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewAppliesProxyDefaults(t *testing.T) {
	var seen captured
	srv := newServer(t, `{"answer":"from proxy"}`, &seen)

	c, err := New(config.ModelRegistry{
		Name: "internal", BaseURL: srv.URL, APIKey: "k", SystemCode: "SYS", CompanyCode: "CO",
	})
	require.NoError(t, err)
	assert.Equal(t, contract.CustomProxy, c.Dialect())

	text, err := c.Chat(context.Background(), []contract.Turn{contract.UserTurn{Text: "hello"}}, contract.Options{})
	require.NoError(t, err)
	assert.Equal(t, "from proxy", text)

	require.True(t, strings.HasPrefix(seen.auth, "Bearer "))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(seen.auth, "Bearer "))
	require.NoError(t, err)
	assert.JSONEq(t, `{"apiKey":"k","systemCode":"SYS","companyCode":"CO"}`, string(decoded))

	assert.EqualValues(t, config.DefaultProxyTopK, seen.body["topK"])
	assert.Equal(t, true, seen.body["need_origin"])
}

func TestNewFlattensToolsUnlessEnabled(t *testing.T) {
	turns := []contract.Turn{
		contract.UserTurn{Text: "weather?"},
		contract.AssistantTurn{ToolCalls: []contract.ToolCall{{ID: "c1", Name: "weather", Arguments: map[string]any{"city": "Seoul"}}}},
		contract.ToolTurn{ToolCallID: "c1", ToolName: "weather", Result: "sunny"},
	}
	tools := []contract.ToolDef{{Name: "weather", Parameters: map[string]any{"type": "object"}}}

	var flat captured
	srv := newServer(t, `{"result":"done"}`, &flat)
	c, err := New(config.ModelRegistry{Name: "internal", BaseURL: srv.URL, APIKey: "k", TopK: 2})
	require.NoError(t, err)

	_, err = c.ChatWithTools(context.Background(), turns, tools, contract.Options{})
	require.NoError(t, err)
	assert.NotContains(t, flat.body, "tools")
	assert.EqualValues(t, 2, flat.body["topK"])
	messages := flat.body["messages"].([]any)
	last := messages[len(messages)-1].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.Equal(t, "weather 결과: sunny", last["content"])

	var native captured
	srv = newServer(t, `{"choices":[{"message":{"content":"done"}}]}`, &native)
	c, err = New(config.ModelRegistry{Name: "internal", BaseURL: srv.URL, APIKey: "k", ProxyTools: true})
	require.NoError(t, err)
	assert.True(t, c.Dialect().ProxyTools)

	_, err = c.ChatWithTools(context.Background(), turns, tools, contract.Options{})
	require.NoError(t, err)
	assert.Contains(t, native.body, "tools")
	messages = native.body["messages"].([]any)
	last = messages[len(messages)-1].(map[string]any)
	assert.Equal(t, "tool", last["role"])
}
