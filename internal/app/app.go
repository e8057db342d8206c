// Package app wires configuration into the logger, completion provider and
// pipeline shared by both binaries.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/listingest/internal/completion"
	"github.com/dgallion1/listingest/internal/config"
	"github.com/dgallion1/listingest/internal/extract"
	"github.com/dgallion1/listingest/internal/pipeline"
)

// NewLogger builds the slog logger described by LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Completion is the configured provider wrapped with latency stats.
type Completion struct {
	*completion.Instrumented
	// Model is the id sent with requests, or the provider default.
	Model string
	close func()
}

// Close releases provider resources.
func (c *Completion) Close() {
	if c.close != nil {
		c.close()
	}
}

// NewCompletion builds the provider selected by COMPLETION_PROVIDER.
func NewCompletion(cfg config.Config, log *slog.Logger) (*Completion, error) {
	stats := completion.NewLLMStats(cfg.LLMStatsWindow)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		c := completion.NewOpenAI(completion.OpenAIConfig{
			APIKey:           cfg.OpenAIAPIKey,
			BaseURL:          cfg.OpenAIBaseURL,
			Model:            cfg.OpenAIModel,
			Azure:            cfg.OpenAIAzure,
			AzureDeployments: cfg.OpenAIAzureDeployments,
		})
		return &Completion{
			Instrumented: completion.Instrument(c, stats, log),
			Model:        modelOr(cfg.ModelID, c.Model()),
		}, nil

	case config.ProviderAnthropic:
		c := completion.NewAnthropic(completion.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
		})
		return &Completion{
			Instrumented: completion.Instrument(c, stats, log),
			Model:        modelOr(cfg.ModelID, c.Model()),
			close:        c.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
}

func modelOr(id, fallback string) string {
	if id != "" {
		return id
	}
	return fallback
}

// NewPipeline builds the segment and structure stages on top of c.
func NewPipeline(cfg config.Config, c completion.Completer, log *slog.Logger) *pipeline.Pipeline {
	opts := extract.Options{ModelID: cfg.ModelID, RepairJSON: cfg.RepairJSON}

	var st pipeline.Structurer = extract.NewStructurer(c, opts)
	if cfg.StructureMode == config.StructureChat {
		st = extract.NewChatStructurer(c, opts, nil)
	}

	return pipeline.New(extract.NewSegmenter(c, opts), st, pipeline.Options{
		Chunk:         cfg.ChunkConfig(),
		MaxConcurrent: cfg.MaxConcurrentCompletions,
		Dedup:         cfg.DedupDescriptions,
	}, log)
}
