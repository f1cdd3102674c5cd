package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/logger"
	"github.com/harunnryd/pgpt/internal/model/auth"
	"github.com/harunnryd/pgpt/internal/model/contract"
	"github.com/harunnryd/pgpt/internal/model/normalize"
	"github.com/harunnryd/pgpt/internal/model/sse"
	"github.com/harunnryd/pgpt/internal/model/translate"
	"github.com/harunnryd/pgpt/internal/observe"
)

const maxResponseBody = 8 << 20

// ChatStructured asks an OpenAI-family endpoint for JSON matching schema and
// decodes the reply into out.
func (c *Client) ChatStructured(ctx context.Context, turns []contract.Turn, schema contract.StructuredSchema, opts contract.Options, out any) error {
	if c.cfg.Dialect.Family != contract.FamilyOpenAI {
		return pgptErrors.InvalidInput(fmt.Sprintf("%s: structured output needs an openai dialect, have %s", c.cfg.Name, c.cfg.Dialect))
	}
	if schema.Name == "" || schema.Schema == nil {
		return pgptErrors.InvalidInput("structured output needs a schema name and body")
	}

	resp, err := c.send(ctx, call{turns: turns, opts: opts, structured: &schema})
	if err != nil {
		return err
	}
	if resp.Text == "" {
		return pgptErrors.Malformed(fmt.Sprintf("%s: structured reply is empty", c.cfg.Name), nil)
	}
	if err := json.Unmarshal([]byte(resp.Text), out); err != nil {
		return pgptErrors.Malformed(fmt.Sprintf("%s: decode structured reply", c.cfg.Name), err)
	}
	return nil
}

// Stream requests a server-sent event response, calling onDelta for every
// text fragment. The returned Response carries the concatenated text and,
// when the stream reports them, the stop reason and usage. Raw is nil.
func (c *Client) Stream(ctx context.Context, turns []contract.Turn, opts contract.Options, onDelta sse.DeltaFunc) (*contract.Response, error) {
	return c.send(ctx, call{turns: turns, opts: opts, stream: true, onDelta: onDelta})
}

func (c *Client) send(ctx context.Context, cl call) (*contract.Response, error) {
	if len(cl.turns) == 0 {
		return nil, fmt.Errorf("%s: %w", c.cfg.Name, pgptErrors.ErrEmptyConversation)
	}

	frag, err := translate.Translate(c.cfg.Dialect, cl.turns, cl.tools)
	if err != nil {
		return nil, pgptErrors.Wrap(err, c.cfg.Name)
	}

	ctx, requestID := logger.EnsureRequestID(ctx)
	for _, w := range frag.Warnings {
		c.logger.WarnContext(ctx, "Conversation adjusted for provider", "provider", c.cfg.Name, "detail", w)
	}

	r := c.resolve(cl.opts)
	body, err := c.buildBody(frag, cl, r)
	if err != nil {
		return nil, pgptErrors.InvalidInput(fmt.Sprintf("%s: encode request: %v", c.cfg.Name, err))
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	headers := auth.ProviderHeaders(c.cfg.Dialect, c.cfg.Credential)
	if cl.stream {
		headers.Set("Accept", "text/event-stream")
	}

	info := observe.RequestInfo{
		RequestID: requestID,
		Provider:  c.cfg.Name,
		Dialect:   c.cfg.Dialect,
		Endpoint:  c.cfg.Endpoint,
		Model:     r.model,
		Stream:    cl.stream,
		Turns:     len(cl.turns),
		Tools:     len(frag.OpenAITools) + len(frag.AnthropicTools),
		Headers:   auth.RedactHeaders(headers),
		Body:      body,
	}
	ctx = c.observer.RequestStarted(ctx, info)
	started := time.Now()

	resp, status, raw, err := c.roundTrip(ctx, headers, body, cl)
	result := observe.ResultInfo{
		Request:      info,
		Status:       status,
		Duration:     time.Since(started),
		ResponseBody: raw,
		Err:          err,
	}
	if resp != nil {
		result.ToolCalls = len(resp.ToolCalls)
		result.Usage = resp.Usage
	}
	c.observer.RequestFinished(ctx, result)

	return resp, err
}

// roundTrip posts body and reads the reply. It never retries.
func (c *Client) roundTrip(ctx context.Context, headers http.Header, body []byte, cl call) (*contract.Response, int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, nil, pgptErrors.InvalidInput(fmt.Sprintf("%s: build request: %v", c.cfg.Name, err))
	}
	req.Header = headers

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, nil, pgptErrors.Transport(fmt.Sprintf("%s: post %s", c.cfg.Name, c.cfg.Endpoint), err)
	}
	defer httpResp.Body.Close()

	status := httpResp.StatusCode
	if status < 200 || status >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
		return nil, status, raw, &pgptErrors.ProviderHTTPError{
			Provider: c.cfg.Name,
			Endpoint: c.cfg.Endpoint,
			Status:   status,
			Body:     string(raw),
		}
	}

	if cl.stream {
		resp, err := sse.Read(ctx, httpResp.Body, c.cfg.Dialect.Family, cl.onDelta)
		if err != nil {
			return nil, status, nil, pgptErrors.Wrap(err, c.cfg.Name)
		}
		return resp, status, nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody+1))
	if err != nil {
		return nil, status, nil, pgptErrors.Transport(fmt.Sprintf("%s: read response", c.cfg.Name), err)
	}
	if len(raw) > maxResponseBody {
		return nil, status, nil, pgptErrors.Malformed(fmt.Sprintf("%s: response exceeds %d bytes", c.cfg.Name, maxResponseBody), nil)
	}

	resp, err := normalize.Normalize(c.cfg.Dialect, raw)
	if err != nil {
		return nil, status, raw, pgptErrors.Wrap(err, c.cfg.Name)
	}
	return resp, status, raw, nil
}
