package openai

import (
	"fmt"

	"github.com/harunnryd/pgpt/internal/config"
	pgptErrors "github.com/harunnryd/pgpt/internal/errors"
	"github.com/harunnryd/pgpt/internal/model/auth"
	"github.com/harunnryd/pgpt/internal/model/client"
	"github.com/harunnryd/pgpt/internal/model/contract"
)

// New builds a strict OpenAI chat-completions client. A registry entry that
// carries system and company codes still talks the OpenAI dialect; only the
// authorization header and the need_origin marker change.
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

	return client.New(client.Config{
		Name:        entry.Name,
		Dialect:     contract.OpenAI,
		Endpoint:    entry.BaseURL,
		Credential:  auth.FromParts(entry.APIKey, entry.SystemCode, entry.CompanyCode),
		Model:       model,
		Temperature: temperature,
		MaxTokens:   entry.MaxTokens,
		Timeout:     timeout,
	}, opts...)
}
