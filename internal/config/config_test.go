package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/listingest/internal/chunker"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "LISTINGEST_API_KEY", "COMPLETION_PROVIDER", "MODEL_ID",
		"REPAIR_JSON", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_AZURE",
		"OPENAI_AZURE_DEPLOYMENTS", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "ANTHROPIC_BASE_URL",
		"CHUNK_SIZE", "CHUNK_OVERLAP", "MAX_CONCURRENT_COMPLETIONS", "STRUCTURE_MODE",
		"DEDUP_DESCRIPTIONS", "LOG_LEVEL", "LOG_FORMAT", "WORKER_COUNT", "MAX_QUEUE_SIZE",
		"MAX_UPLOAD_BYTES", "JOB_TTL", "LLM_STATS_WINDOW", "PDF_FALLBACK_PDFTOTEXT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSize != 100 || cfg.ChunkOverlap != 10 {
		t.Errorf("expected chunk 100/10, got %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.Provider != ProviderOpenAI || cfg.StructureMode != StructurePrompt {
		t.Errorf("unexpected provider/mode %q/%q", cfg.Provider, cfg.StructureMode)
	}
	if cfg.MaxConcurrentCompletions != 0 {
		t.Errorf("expected unbounded concurrency by default, got %d", cfg.MaxConcurrentCompletions)
	}
	if cfg.DedupDescriptions || cfg.RepairJSON {
		t.Error("expected dedup and repair off by default")
	}
	if cfg.JobTTL != time.Hour || cfg.WorkerCount != 4 || cfg.Port != "8090" {
		t.Errorf("unexpected server defaults %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHUNK_SIZE", "50")
	t.Setenv("CHUNK_OVERLAP", "5")
	t.Setenv("COMPLETION_PROVIDER", "Anthropic")
	t.Setenv("STRUCTURE_MODE", "CHAT")
	t.Setenv("DEDUP_DESCRIPTIONS", "true")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("MAX_CONCURRENT_COMPLETIONS", "8")
	t.Setenv("OPENAI_AZURE_DEPLOYMENTS", "gpt-35=gpt-35-turbo, gpt-4=gpt-4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkConfig() != (chunker.Config{ChunkSize: 50, Overlap: 5}) {
		t.Errorf("unexpected chunk config %+v", cfg.ChunkConfig())
	}
	if cfg.Provider != ProviderAnthropic || cfg.StructureMode != StructureChat {
		t.Errorf("expected lowercased provider/mode, got %q/%q", cfg.Provider, cfg.StructureMode)
	}
	if !cfg.DedupDescriptions || cfg.JobTTL != 15*time.Minute || cfg.MaxConcurrentCompletions != 8 {
		t.Errorf("unexpected overrides %+v", cfg)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected invalid worker count clamped to 4, got %d", cfg.WorkerCount)
	}
	if cfg.OpenAIAzureDeployments["gpt-35"] != "gpt-35-turbo" || cfg.OpenAIAzureDeployments["gpt-4"] != "gpt-4" {
		t.Errorf("unexpected deployments %v", cfg.OpenAIAzureDeployments)
	}
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHUNK_SIZE", "lots")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSize != 100 {
		t.Errorf("expected fallback 100, got %d", cfg.ChunkSize)
	}
}

func TestLoad_ConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "listingest.yaml")
	data := `completion_provider: openai
model_id: gpt-35
openai_azure: true
openai_base_url: https://example.openai.azure.com
openai_azure_deployments:
  gpt-35: gpt-35-turbo
chunk_size: 40
chunk_overlap: 4
job_ttl: 30m
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHUNK_OVERLAP", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ModelID != "gpt-35" || !cfg.OpenAIAzure || cfg.OpenAIAzureDeployments["gpt-35"] != "gpt-35-turbo" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ChunkSize != 40 {
		t.Errorf("expected chunk size from file, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 8 {
		t.Errorf("expected env to override file, got %d", cfg.ChunkOverlap)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("expected job ttl 30m, got %v", cfg.JobTTL)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected defaults kept for keys absent from file, got %d", cfg.WorkerCount)
	}
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("chunk_size: [1, 2"), 0o600)
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestLoad_BadDeployments(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_AZURE_DEPLOYMENTS", "gpt-35")
	if _, err := Load(); err == nil {
		t.Error("expected error for pair without deployment")
	}
}

func validCLIConfig() Config {
	cfg := Defaults()
	cfg.OpenAIAPIKey = "sk-test"
	return cfg
}

func TestValidateCLI(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing openai key", func(c *Config) { c.OpenAIAPIKey = "" }, true},
		{"azure without endpoint", func(c *Config) { c.OpenAIAzure = true }, true},
		{"anthropic", func(c *Config) { c.Provider = ProviderAnthropic; c.AnthropicAPIKey = "ak" }, false},
		{"anthropic missing key", func(c *Config) { c.Provider = ProviderAnthropic }, true},
		{"unknown provider", func(c *Config) { c.Provider = "llama" }, true},
		{"chat on openai", func(c *Config) { c.StructureMode = StructureChat }, false},
		{"chat on anthropic", func(c *Config) {
			c.Provider = ProviderAnthropic
			c.AnthropicAPIKey = "ak"
			c.StructureMode = StructureChat
		}, true},
		{"unknown mode", func(c *Config) { c.StructureMode = "stream" }, true},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validCLIConfig()
			tc.mutate(&cfg)
			err := cfg.ValidateCLI()
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateCLI_ChunkingError(t *testing.T) {
	cfg := validCLIConfig()
	cfg.ChunkSize = -5
	var chunkErr *chunker.ChunkingError
	if err := cfg.ValidateCLI(); !errors.As(err, &chunkErr) {
		t.Fatalf("expected ChunkingError, got %v", err)
	}
}

func TestValidate_RequiresAPIKey(t *testing.T) {
	cfg := validCLIConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without LISTINGEST_API_KEY")
	}
	cfg.APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "INFO": "INFO", "warn": "WARN", "error": "ERROR"} {
		level, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if level.String() != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, level, want)
		}
	}
}
