package sse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAIStream = `data: {"choices":[{"delta":{"role":"assistant"}}]}

data: {"choices":[{"delta":{"content":"Hel"}}]}
: keep-alive
data: {broken json
data: {"choices":[{"delta":{"content":"lo"},"finish_reason":"stop"}]}
data: {"choices":[],"usage":{"prompt_tokens":9,"completion_tokens":2,"total_tokens":11}}

data: [DONE]
data: {"choices":[{"delta":{"content":"ignored"}}]}
`

func TestReadOpenAIStream(t *testing.T) {
	var deltas []string
	resp, err := Read(context.Background(), strings.NewReader(openAIStream), contract.FamilyOpenAI, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Text)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, contract.Usage{PromptTokens: 9, CompletionTokens: 2}, resp.Usage)
	assert.Nil(t, resp.Raw)
}

func TestReadBuffersPartialLines(t *testing.T) {
	resp, err := Read(context.Background(), iotest.OneByteReader(strings.NewReader(openAIStream)), contract.FamilyOpenAI, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Text)
}

func TestReadWithoutDoneMarker(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"tail\"}}]}"
	resp, err := Read(context.Background(), strings.NewReader(body), contract.FamilyOpenAI, nil)
	require.NoError(t, err)
	assert.Equal(t, "tail", resp.Text)
	assert.Empty(t, resp.StopReason)
}

func TestReadAnthropicStream(t *testing.T) {
	body := strings.Join([]string{
		`event: message_start`,
		`data: {"type":"message_start","message":{"id":"msg_1","usage":{"input_tokens":12,"output_tokens":1}}}`,
		`event: content_block_delta`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"안녕"}}`,
		`data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"x\""}}`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"하세요"}}`,
		`data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":7}}`,
		`data: {"type":"message_stop"}`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"late"}}`,
	}, "\n")

	resp, err := Read(context.Background(), strings.NewReader(body), contract.FamilyAnthropic, nil)
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", resp.Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, contract.Usage{PromptTokens: 12, CompletionTokens: 7}, resp.Usage)
}

func TestReadStopsOnCallbackError(t *testing.T) {
	stop := errors.New("enough")
	resp, err := Read(context.Background(), strings.NewReader(openAIStream), contract.FamilyOpenAI, func(string) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
	require.NotNil(t, resp)
	assert.Equal(t, "Hel", resp.Text)
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Read(ctx, strings.NewReader(openAIStream), contract.FamilyOpenAI, nil)
	assert.ErrorIs(t, err, pgptErrors.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
