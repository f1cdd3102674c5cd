package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{EnvGPTAPIKey, EnvGPTAPIURL, EnvGPTSystemCode, EnvGPTCompanyCode, EnvAnthropicAPIKey, EnvAnthropicAPIURL} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) *cobra.Command {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", configPath); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Expected log level %s, got %s", DefaultLogLevel, cfg.Log.Level)
	}
	if cfg.Models.Default != DefaultModelName {
		t.Errorf("Expected default model %s, got %s", DefaultModelName, cfg.Models.Default)
	}
	if len(cfg.Models.Registry) != 1 {
		t.Fatalf("Expected one registry entry, got %d", len(cfg.Models.Registry))
	}
	entry := cfg.Models.Registry[0]
	if entry.Provider != ProviderOpenAI {
		t.Errorf("Expected provider %s, got %s", ProviderOpenAI, entry.Provider)
	}
	if entry.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("Expected request timeout %s, got %s", DefaultRequestTimeout, entry.RequestTimeout)
	}
}

func TestLoadWithConfigFlag(t *testing.T) {
	clearProviderEnv(t)

	cmd := writeConfig(t, `
log:
  level: debug
models:
  default: claude
  registry:
    - name: claude
      provider: Anthropic
      api_key: sk-ant-test
      max_tokens: 2048
    - name: internal
      provider: proxy
      base_url: http://proxy.local/v1/chat
      api_key: proxy-key
      system_code: SYS
      company_code: CO
      top_k: 3
      proxy_tools: true
`)

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("failed to load config with --config: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.Log.Level)
	}
	claude, ok := cfg.Lookup("")
	if !ok {
		t.Fatal("expected default entry to resolve")
	}
	if claude.Provider != ProviderAnthropic || claude.MaxTokens != 2048 {
		t.Fatalf("unexpected claude entry: %+v", claude)
	}

	internal, ok := cfg.Lookup("internal")
	if !ok {
		t.Fatal("expected internal entry")
	}
	if !internal.ProxyTools || internal.TopK != 3 || internal.SystemCode != "SYS" {
		t.Fatalf("unexpected proxy entry: %+v", internal)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadWithMissingConfigFlagReturnsError(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	if _, err := Load(cmd); err == nil {
		t.Fatal("expected error when --config points to missing file")
	}
}

func TestLoadInjectsLegacyEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvGPTAPIKey, "env-key")
	t.Setenv(EnvGPTAPIURL, "http://env.local/chat")
	t.Setenv(EnvGPTSystemCode, "SYS")
	t.Setenv(EnvGPTCompanyCode, "CO")
	t.Setenv(EnvAnthropicAPIKey, "ant-key")

	cmd := writeConfig(t, `
models:
  default: gpt
  registry:
    - name: gpt
      provider: openai
    - name: pinned
      provider: proxy
      api_key: file-key
      base_url: http://file.local
    - name: claude
      provider: anthropic
`)

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	gpt, _ := cfg.Lookup("gpt")
	if gpt.APIKey != "env-key" || gpt.BaseURL != "http://env.local/chat" {
		t.Fatalf("expected env values, got %+v", gpt)
	}
	if gpt.SystemCode != "SYS" || gpt.CompanyCode != "CO" {
		t.Fatalf("expected env codes, got %+v", gpt)
	}

	pinned, _ := cfg.Lookup("pinned")
	if pinned.APIKey != "file-key" || pinned.BaseURL != "http://file.local" {
		t.Fatalf("file values must win over env, got %+v", pinned)
	}

	claude, _ := cfg.Lookup("claude")
	if claude.APIKey != "ant-key" {
		t.Fatalf("expected anthropic key from env, got %q", claude.APIKey)
	}
	if claude.SystemCode != "" {
		t.Fatalf("gpt codes must not leak into anthropic entries, got %q", claude.SystemCode)
	}
}

func TestLoadIgnoresHalfCodePair(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(EnvGPTSystemCode, "SYS")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Models.Registry[0].SystemCode != "" {
		t.Fatalf("expected no system code without company code, got %q", cfg.Models.Registry[0].SystemCode)
	}
}

func TestLoadPrefixedEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("PGPT_LOG_LEVEL", "warn")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("expected warn from PGPT_LOG_LEVEL, got %s", cfg.Log.Level)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := &Config{Models: ModelsConfig{
		Default: "missing",
		Registry: []ModelRegistry{
			{Name: "a", Provider: ProviderOpenAI},
			{Name: "a", Provider: "gemini", APIKey: "k"},
			{Name: "b", Provider: ProviderProxy, APIKey: "k", BaseURL: "http://x", SystemCode: "S", RequestTimeout: "soon"},
		},
	}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	msg := err.Error()
	for _, want := range []string{
		"a: base_url is required",
		"a: api_key is required",
		"a: duplicate name",
		`unknown provider "gemini"`,
		"system_code and company_code must be set together",
		"b: request_timeout",
		`models.default "missing"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 7 {
		t.Errorf("expected 7 joined errors")
	}
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("", DefaultRequestTimeout)
	if err != nil || d.Seconds() != 120 {
		t.Fatalf("expected 120s default, got %v (%v)", d, err)
	}
	if _, err := DurationOrDefault("", ""); err == nil {
		t.Fatal("expected error for empty duration")
	}
	if _, err := DurationOrDefault("-5s", DefaultRequestTimeout); err == nil {
		t.Fatal("expected error for negative duration")
	}

	d, err = ModelRegistry{RequestTimeout: "30s"}.Timeout()
	if err != nil || d.Seconds() != 30 {
		t.Fatalf("expected 30s, got %v (%v)", d, err)
	}
}

func TestLoadTelemetry(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("PGPT_TELEMETRY_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Telemetry.Enabled {
		t.Fatal("expected telemetry disabled by default")
	}
	if cfg.Telemetry.OTLPEndpoint != "collector:4317" {
		t.Fatalf("expected endpoint from env, got %q", cfg.Telemetry.OTLPEndpoint)
	}
	if cfg.Telemetry.ServiceName != DefaultServiceName || cfg.Telemetry.SampleRate != DefaultSampleRate {
		t.Fatalf("unexpected telemetry defaults: %+v", cfg.Telemetry)
	}
}
