package completion

import (
	"context"
	"log/slog"
	"time"
)

// Instrumented wraps a Completer, recording latency and outcome of every call.
type Instrumented struct {
	next  Completer
	stats *LLMStats
	log   *slog.Logger
}

func Instrument(next Completer, stats *LLMStats, log *slog.Logger) *Instrumented {
	if log == nil {
		log = slog.Default()
	}
	return &Instrumented{next: next, stats: stats, log: log}
}

func (c *Instrumented) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := c.next.Complete(ctx, req)
	elapsed := time.Since(start)

	if c.stats != nil {
		c.stats.Record(elapsed, err)
	}
	if err != nil {
		c.log.Warn("completion failed",
			"model", req.ModelID,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return "", err
	}
	c.log.Debug("completion",
		"model", req.ModelID,
		"tools", len(req.Tools),
		"duration_ms", elapsed.Milliseconds(),
		"response_bytes", len(out),
	)
	return out, nil
}

// Stats returns the latency tracker, possibly nil.
func (c *Instrumented) Stats() *LLMStats {
	return c.stats
}
