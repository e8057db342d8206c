package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/listingest/internal/chunker"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	StructurePrompt = "prompt"
	StructureChat   = "chat"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Completion provider
	Provider   string `yaml:"completion_provider"`
	ModelID    string `yaml:"model_id"`
	RepairJSON bool   `yaml:"repair_json"`

	OpenAIAPIKey           string            `yaml:"openai_api_key"`
	OpenAIBaseURL          string            `yaml:"openai_base_url"`
	OpenAIModel            string            `yaml:"openai_model"`
	OpenAIAzure            bool              `yaml:"openai_azure"`
	OpenAIAzureDeployments map[string]string `yaml:"openai_azure_deployments"`

	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
	AnthropicModel   string `yaml:"anthropic_model"`
	AnthropicBaseURL string `yaml:"anthropic_base_url"`

	// Pipeline
	ChunkSize                int    `yaml:"chunk_size"`
	ChunkOverlap             int    `yaml:"chunk_overlap"`
	MaxConcurrentCompletions int    `yaml:"max_concurrent_completions"`
	StructureMode            string `yaml:"structure_mode"`
	DedupDescriptions        bool   `yaml:"dedup_descriptions"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL         time.Duration `yaml:"job_ttl"`
	LLMStatsWindow time.Duration `yaml:"llm_stats_window"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:     "8090",
		Provider: ProviderOpenAI,

		OpenAIModel:    "gpt-3.5-turbo",
		AnthropicModel: "claude-sonnet-4-5-20250929",

		ChunkSize:     100,
		ChunkOverlap:  10,
		StructureMode: StructurePrompt,

		LogLevel:  "info",
		LogFormat: "json",

		WorkerCount:    4,
		MaxQueueSize:   100,
		MaxUploadBytes: 52428800, // 50MB

		JobTTL:         1 * time.Hour,
		LLMStatsWindow: 1 * time.Hour,

		PDFFallbackPdftotext: true,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("LISTINGEST_API_KEY", cfg.APIKey)

	cfg.Provider = strings.ToLower(envOr("COMPLETION_PROVIDER", cfg.Provider))
	cfg.ModelID = envOr("MODEL_ID", cfg.ModelID)
	cfg.RepairJSON = envBool("REPAIR_JSON", cfg.RepairJSON)

	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = envOr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIModel = envOr("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIAzure = envBool("OPENAI_AZURE", cfg.OpenAIAzure)
	if v := os.Getenv("OPENAI_AZURE_DEPLOYMENTS"); v != "" {
		deployments, err := ParseDeployments(v)
		if err != nil {
			return Config{}, fmt.Errorf("OPENAI_AZURE_DEPLOYMENTS: %w", err)
		}
		cfg.OpenAIAzureDeployments = deployments
	}

	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.AnthropicBaseURL = envOr("ANTHROPIC_BASE_URL", cfg.AnthropicBaseURL)

	cfg.ChunkSize = envInt("CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = envInt("CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.MaxConcurrentCompletions = envInt("MAX_CONCURRENT_COMPLETIONS", cfg.MaxConcurrentCompletions)
	cfg.StructureMode = strings.ToLower(envOr("STRUCTURE_MODE", cfg.StructureMode))
	cfg.DedupDescriptions = envBool("DEDUP_DESCRIPTIONS", cfg.DedupDescriptions)

	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(envOr("LOG_FORMAT", cfg.LogFormat))

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.LLMStatsWindow = envDuration("LLM_STATS_WINDOW", cfg.LLMStatsWindow)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	// Chunk parameters are left as given; Validate reports bad values.
	def := Defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.MaxConcurrentCompletions < 0 {
		cfg.MaxConcurrentCompletions = 0
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}
	if cfg.LLMStatsWindow <= 0 {
		cfg.LLMStatsWindow = def.LLMStatsWindow
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ValidateCLI checks what a one-shot run needs: a usable completion provider
// and valid chunking parameters.
func (c Config) ValidateCLI() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
		if c.OpenAIAzure && c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_BASE_URL is required with OPENAI_AZURE")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown COMPLETION_PROVIDER %q", c.Provider)
	}

	switch c.StructureMode {
	case StructurePrompt:
	case StructureChat:
		if c.Provider != ProviderOpenAI {
			return fmt.Errorf("STRUCTURE_MODE=chat requires the openai provider")
		}
	default:
		return fmt.Errorf("unknown STRUCTURE_MODE %q", c.StructureMode)
	}

	if err := c.ChunkConfig().Validate(); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Validate checks the server configuration.
func (c Config) Validate() error {
	if err := c.ValidateCLI(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("LISTINGEST_API_KEY is required")
	}
	return nil
}

func (c Config) ChunkConfig() chunker.Config {
	return chunker.Config{ChunkSize: c.ChunkSize, Overlap: c.ChunkOverlap}
}

// ParseDeployments parses "model=deployment" pairs separated by commas,
// e.g. "gpt-35=gpt-35-turbo,gpt-4=gpt-4".
func ParseDeployments(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		model, deployment, ok := strings.Cut(pair, "=")
		model, deployment = strings.TrimSpace(model), strings.TrimSpace(deployment)
		if !ok || model == "" || deployment == "" {
			return nil, fmt.Errorf("invalid pair %q, want model=deployment", pair)
		}
		out[model] = deployment
	}
	return out, nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown LOG_LEVEL %q", s)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
