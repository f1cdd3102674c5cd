package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"
	maxLine    = 8 << 20
)

// DeltaFunc receives each text fragment as it arrives. Returning an error
// stops the stream.
type DeltaFunc func(delta string) error

// Read consumes a server-sent event body. The returned Response carries the
// concatenated text plus the stop reason and token usage when the stream
// reports them; Raw stays nil. It is non-nil even when an error ends the
// stream early. Lines that are not data lines and chunks that fail to parse
// are skipped.
func Read(ctx context.Context, body io.Reader, family contract.Family, onDelta DeltaFunc) (*contract.Response, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	resp := &contract.Response{}
	var out strings.Builder
	finish := func(err error) (*contract.Response, error) {
		resp.Text = out.String()
		return resp, err
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return finish(pgptErrors.Transport("stream cancelled", err))
		}

		line := strings.TrimSpace(scanner.Text())
		payload, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == doneMarker {
			break
		}

		delta, done := decodeChunk(family, payload, resp)
		if delta != "" {
			out.WriteString(delta)
			if onDelta != nil {
				if err := onDelta(delta); err != nil {
					return finish(err)
				}
			}
		}
		if done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return finish(pgptErrors.Transport("stream cancelled", err))
		}
		return finish(pgptErrors.Transport("read stream", err))
	}
	return finish(nil)
}

// decodeChunk returns the text carried by one event and whether the stream
// is over. Stop reasons and usage counts are recorded on resp.
func decodeChunk(family contract.Family, payload string, resp *contract.Response) (string, bool) {
	switch family {
	case contract.FamilyAnthropic:
		if !gjson.Valid(payload) {
			return "", false
		}
		event := gjson.Parse(payload)
		switch event.Get("type").String() {
		case "message_start":
			resp.Usage.PromptTokens = event.Get("message.usage.input_tokens").Int()
		case "content_block_delta":
			if event.Get("delta.type").String() == "text_delta" {
				return event.Get("delta.text").String(), false
			}
		case "message_delta":
			if reason := event.Get("delta.stop_reason").String(); reason != "" {
				resp.StopReason = reason
			}
			if n := event.Get("usage.output_tokens"); n.Exists() {
				resp.Usage.CompletionTokens = n.Int()
			}
		case "message_stop":
			return "", true
		}
		return "", false

	default:
		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", false
		}
		if chunk.Usage != nil {
			resp.Usage = contract.Usage{
				PromptTokens:     int64(chunk.Usage.PromptTokens),
				CompletionTokens: int64(chunk.Usage.CompletionTokens),
			}
		}
		if len(chunk.Choices) == 0 {
			return "", false
		}
		if reason := chunk.Choices[0].FinishReason; reason != "" {
			resp.StopReason = string(reason)
		}
		return chunk.Choices[0].Delta.Content, false
	}
}
