package client

import (
	"encoding/json"

	"github.com/harunnryd/pgpt/internal/model/auth"
	"github.com/harunnryd/pgpt/internal/model/contract"
	"github.com/harunnryd/pgpt/internal/model/sse"
	"github.com/harunnryd/pgpt/internal/model/translate"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/sjson"
)

type call struct {
	turns      []contract.Turn
	tools      []contract.ToolDef
	opts       contract.Options
	structured *contract.StructuredSchema
	stream     bool
	onDelta    sse.DeltaFunc
}

type openAIRequest struct {
	Model       string                    `json:"model"`
	Messages    []translate.OpenAIMessage `json:"messages"`
	Temperature float64                   `json:"temperature"`
	MaxTokens   int                       `json:"max_tokens,omitempty"`
	Tools       []openai.Tool             `json:"tools,omitempty"`
	Stream      bool                      `json:"stream,omitempty"`
}

type anthropicRequest struct {
	Model       anthropic.Model              `json:"model"`
	MaxTokens   int                          `json:"max_tokens"`
	System      string                       `json:"system,omitempty"`
	Messages    []translate.AnthropicMessage `json:"messages"`
	Temperature float64                      `json:"temperature"`
	Tools       []translate.AnthropicTool    `json:"tools,omitempty"`
	Stream      bool                         `json:"stream,omitempty"`
}

// resolved holds per-call values after options are applied.
type resolved struct {
	model       string
	temperature float64
	maxTokens   int
	topK        int
}

func (c *Client) resolve(opts contract.Options) resolved {
	r := resolved{
		model:       c.cfg.Model,
		temperature: c.cfg.Temperature,
		maxTokens:   c.cfg.MaxTokens,
		topK:        c.cfg.TopK,
	}
	if opts.Model != "" {
		r.model = opts.Model
	}
	if opts.Temperature != nil {
		r.temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		r.maxTokens = opts.MaxTokens
	}
	if opts.TopK > 0 {
		r.topK = opts.TopK
	}
	return r
}

func (c *Client) buildBody(f *translate.Fragment, cl call, r resolved) ([]byte, error) {
	var (
		body []byte
		err  error
	)

	switch f.Dialect.Family {
	case contract.FamilyAnthropic:
		body, err = json.Marshal(anthropicRequest{
			Model:       anthropic.Model(r.model),
			MaxTokens:   r.maxTokens,
			System:      f.System,
			Messages:    f.Anthropic,
			Temperature: r.temperature,
			Tools:       f.AnthropicTools,
			Stream:      cl.stream,
		})
	default:
		body, err = json.Marshal(openAIRequest{
			Model:       r.model,
			Messages:    f.OpenAI,
			Temperature: r.temperature,
			MaxTokens:   r.maxTokens,
			Tools:       f.OpenAITools,
			Stream:      cl.stream,
		})
	}
	if err != nil {
		return nil, err
	}

	if f.Dialect.Proxy && r.topK > 0 {
		if body, err = sjson.SetBytes(body, "topK", r.topK); err != nil {
			return nil, err
		}
	}

	if cl.structured != nil {
		if body, err = sjson.SetBytes(body, "response_format", responseFormat(cl.structured)); err != nil {
			return nil, err
		}
	}

	return auth.MarkOrigin(body, c.cfg.Credential)
}

func responseFormat(s *contract.StructuredSchema) map[string]any {
	schema := map[string]any{
		"name":   s.Name,
		"strict": true,
		"schema": s.Schema,
	}
	if s.Description != "" {
		schema["description"] = s.Description
	}
	return map[string]any{
		"type":        "json_schema",
		"json_schema": schema,
	}
}
