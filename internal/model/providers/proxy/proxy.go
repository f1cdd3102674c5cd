package proxy

import (
	"fmt"

	"github.com/harunnryd/pgpt/internal/config"
	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/auth"
	"github.com/harunnryd/pgpt/internal/model/client"
	"github.com/harunnryd/pgpt/internal/model/contract"
)

// New builds a client for the in-house chat proxy. The proxy accepts the
// OpenAI request shape plus topK and answers in several loose shapes.
// Tool definitions are flattened into plain turns unless the entry sets
// proxy_tools.
func New(entry config.ModelRegistry, opts ...client.Option) (*client.Client, error) {
	timeout, err := entry.Timeout()
	if err != nil {
		return nil, pgptErrors.Configuration(fmt.Sprintf("%s: request_timeout: %v", entry.Name, err))
	}

	model := entry.Model
	if model == "" {
		model = config.DefaultOpenAIModel
	}

	temperature := entry.Temperature
	if temperature == 0 {
		temperature = config.DefaultTemperature
	}

	topK := entry.TopK
	if topK <= 0 {
		topK = config.DefaultProxyTopK
	}

	dialect := contract.CustomProxy
	dialect.ProxyTools = entry.ProxyTools

	return client.New(client.Config{
		Name:        entry.Name,
		Dialect:     dialect,
		Endpoint:    entry.BaseURL,
		Credential:  auth.FromParts(entry.APIKey, entry.SystemCode, entry.CompanyCode),
		Model:       model,
		Temperature: temperature,
		MaxTokens:   entry.MaxTokens,
		TopK:        topK,
		Timeout:     timeout,
	}, opts...)
}
