package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Log       LogConfig       `koanf:"log" yaml:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry" yaml:"telemetry"`
	Models    ModelsConfig    `koanf:"models" yaml:"models"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	// Payloads enables debug logging of request and response bodies.
	Payloads bool `koanf:"payloads" yaml:"payloads"`
}

// TelemetryConfig controls OTLP export of provider spans and metrics.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled" yaml:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string  `koanf:"service_name" yaml:"service_name"`
	SampleRate   float64 `koanf:"sample_rate" yaml:"sample_rate"`
}

type ModelsConfig struct {
	Default  string          `koanf:"default" yaml:"default"`
	Registry []ModelRegistry `koanf:"registry" yaml:"registry"`
}

// ModelRegistry is one named provider endpoint.
type ModelRegistry struct {
	Name           string  `koanf:"name" yaml:"name"`
	Provider       string  `koanf:"provider" yaml:"provider"`
	BaseURL        string  `koanf:"base_url" yaml:"base_url"`
	APIKey         string  `koanf:"api_key" yaml:"api_key"`
	SystemCode     string  `koanf:"system_code" yaml:"system_code"`
	CompanyCode    string  `koanf:"company_code" yaml:"company_code"`
	Model          string  `koanf:"model" yaml:"model"`
	Temperature    float64 `koanf:"temperature" yaml:"temperature"`
	MaxTokens      int     `koanf:"max_tokens" yaml:"max_tokens"`
	TopK           int     `koanf:"top_k" yaml:"top_k"`
	ProxyTools     bool    `koanf:"proxy_tools" yaml:"proxy_tools"`
	RequestTimeout string  `koanf:"request_timeout" yaml:"request_timeout"`
}

const (
	ProviderOpenAI    = "openai"
	ProviderProxy     = "proxy"
	ProviderAnthropic = "anthropic"
)

const (
	DefaultLogLevel           = "info"
	DefaultModelName          = "gpt"
	DefaultOpenAIModel        = "gpt-4o"
	DefaultAnthropicModel     = "claude-sonnet-4-5-20250929"
	DefaultAnthropicBaseURL   = "https://api.anthropic.com/v1"
	DefaultTemperature        = 0.7
	DefaultAnthropicMaxTokens = 4096
	DefaultProxyTopK          = 5
	DefaultRequestTimeout     = "120s"
	DefaultOTLPEndpoint       = "localhost:4317"
	DefaultServiceName        = "pgpt"
	DefaultSampleRate         = 1.0
	EnvPrefix                 = "PGPT_"
)

// Legacy deployment variables. They fill registry
// entries that leave the matching field empty.
const (
	EnvGPTAPIKey       = "GPT_API_KEY"
	EnvGPTAPIURL       = "GPT_API_URL"
	EnvGPTSystemCode   = "GPT_SYSTEM_CODE"
	EnvGPTCompanyCode  = "GPT_COMPANY_CODE"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvAnthropicAPIURL = "ANTHROPIC_API_URL"
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"log.level":               DefaultLogLevel,
		"log.payloads":            false,
		"telemetry.enabled":       false,
		"telemetry.otlp_endpoint": DefaultOTLPEndpoint,
		"telemetry.service_name":  DefaultServiceName,
		"telemetry.sample_rate":   DefaultSampleRate,
		"models.default":          DefaultModelName,
		"models.registry":         []ModelRegistry{{Name: DefaultModelName, Provider: ProviderOpenAI}},
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else if path, err := DefaultPath(); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			slog.Debug("Global config not found or invalid", "path", path, "error", err)
		}
	}

	k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		// PGPT_LOG_LEVEL -> log.level; PGPT_MODELS_DEFAULT -> models.default
		section, rest, ok := strings.Cut(key, "_")
		if !ok {
			return key
		}
		return section + "." + rest
	}), nil)

	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	injectEnv(&cfg)

	return &cfg, nil
}

// DefaultPath is $HOME/.pgpt/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pgpt", "config.yaml"), nil
}

func applyDefaults(cfg *Config) {
	for i := range cfg.Models.Registry {
		m := &cfg.Models.Registry[i]
		m.Provider = strings.ToLower(strings.TrimSpace(m.Provider))
		if m.Provider == "" {
			m.Provider = ProviderOpenAI
		}
		if m.RequestTimeout == "" {
			m.RequestTimeout = DefaultRequestTimeout
		}
	}
}

func injectEnv(cfg *Config) {
	gptKey := os.Getenv(EnvGPTAPIKey)
	gptURL := os.Getenv(EnvGPTAPIURL)
	systemCode := os.Getenv(EnvGPTSystemCode)
	companyCode := os.Getenv(EnvGPTCompanyCode)
	anthropicKey := os.Getenv(EnvAnthropicAPIKey)
	anthropicURL := os.Getenv(EnvAnthropicAPIURL)

	for i := range cfg.Models.Registry {
		m := &cfg.Models.Registry[i]
		switch m.Provider {
		case ProviderOpenAI, ProviderProxy:
			fillEmpty(&m.APIKey, gptKey)
			fillEmpty(&m.BaseURL, gptURL)
			// the bundle is only meaningful when both codes are known
			if m.SystemCode == "" && m.CompanyCode == "" && systemCode != "" && companyCode != "" {
				m.SystemCode = systemCode
				m.CompanyCode = companyCode
			}
		case ProviderAnthropic:
			fillEmpty(&m.APIKey, anthropicKey)
			fillEmpty(&m.BaseURL, anthropicURL)
		}
	}
}

func fillEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

// Lookup returns the registry entry called name, or the default entry when
// name is empty.
func (c *Config) Lookup(name string) (ModelRegistry, bool) {
	if name == "" {
		name = c.Models.Default
	}
	for _, m := range c.Models.Registry {
		if m.Name == name {
			return m, true
		}
	}
	return ModelRegistry{}, false
}

// Validate reports every registry problem at once.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Models.Registry))

	for i, m := range c.Models.Registry {
		label := m.Name
		if label == "" {
			label = fmt.Sprintf("registry[%d]", i)
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		}
		if seen[m.Name] && m.Name != "" {
			errs = append(errs, fmt.Errorf("%s: duplicate name", label))
		}
		seen[m.Name] = true

		switch m.Provider {
		case ProviderOpenAI, ProviderProxy:
			if m.BaseURL == "" {
				errs = append(errs, fmt.Errorf("%s: base_url is required (or set %s)", label, EnvGPTAPIURL))
			}
			if m.APIKey == "" {
				errs = append(errs, fmt.Errorf("%s: api_key is required (or set %s)", label, EnvGPTAPIKey))
			}
		case ProviderAnthropic:
			if m.APIKey == "" {
				errs = append(errs, fmt.Errorf("%s: api_key is required (or set %s)", label, EnvAnthropicAPIKey))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", label, m.Provider))
		}

		if (m.SystemCode == "") != (m.CompanyCode == "") {
			errs = append(errs, fmt.Errorf("%s: system_code and company_code must be set together", label))
		}
		if _, err := m.Timeout(); err != nil {
			errs = append(errs, fmt.Errorf("%s: request_timeout: %w", label, err))
		}
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %v", c.Telemetry.SampleRate))
	}

	if c.Models.Default != "" && len(c.Models.Registry) > 0 {
		if _, ok := c.Lookup(c.Models.Default); !ok {
			errs = append(errs, fmt.Errorf("models.default %q is not in the registry", c.Models.Default))
		}
	}

	return errors.Join(errs...)
}
