package anthropic

import (
	"fmt"

	"github.com/harunnryd/pgpt/internal/config"
	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/auth"
	"github.com/harunnryd/pgpt/internal/model/client"
	"github.com/harunnryd/pgpt/internal/model/contract"
)

// New builds a Messages API client. Entries with system and company codes
// go through the proxy variant, which drops x-api-key and tolerates
// non-JSON replies.
func New(entry config.ModelRegistry, opts ...client.Option) (*client.Client, error) {
	timeout, err := entry.Timeout()
	if err != nil {
		return nil, pgptErrors.Configuration(fmt.Sprintf("%s: request_timeout: %v", entry.Name, err))
	}

	baseURL := entry.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultAnthropicBaseURL
	}

	model := entry.Model
	if model == "" {
		model = config.DefaultAnthropicModel
	}

	temperature := entry.Temperature
	if temperature == 0 {
		temperature = config.DefaultTemperature
	}

	maxTokens := entry.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultAnthropicMaxTokens
	}

	credential := auth.FromParts(entry.APIKey, entry.SystemCode, entry.CompanyCode)
	dialect := contract.Anthropic
	topK := 0
	if credential.IsCustom() {
		dialect = contract.AnthropicProxy
		dialect.ProxyTools = entry.ProxyTools
		topK = entry.TopK
	}

	return client.New(client.Config{
		Name:        entry.Name,
		Dialect:     dialect,
		Endpoint:    baseURL,
		Credential:  credential,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopK:        topK,
		Timeout:     timeout,
	}, opts...)
}
