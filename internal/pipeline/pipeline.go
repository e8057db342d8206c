// Package pipeline drives listing extraction: split a document into line
// windows, segment every window into listing descriptions, then structure
// every description into a Listing. Both fan-out stages run concurrently and
// fail as a whole on the first error.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/listingest/internal/chunker"
	"github.com/dgallion1/listingest/internal/extract"
)

// Segmenter splits chunk text into listing descriptions.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]string, error)
}

// Structurer converts one description into a Listing.
type Structurer interface {
	Structure(ctx context.Context, description string) (extract.Listing, error)
}

// Options tune a Pipeline.
type Options struct {
	Chunk chunker.Config
	// MaxConcurrent caps in-flight completion calls per stage. Zero means no cap.
	MaxConcurrent int
	// Dedup drops descriptions whose text repeats an earlier one, such as
	// listings seen twice in the overlap of adjacent chunks.
	Dedup bool
}

// Pipeline runs chunk, segment and structure over one document.
type Pipeline struct {
	segmenter  Segmenter
	structurer Structurer
	opts       Options
	log        *slog.Logger
}

func New(seg Segmenter, st Structurer, opts Options, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{segmenter: seg, structurer: st, opts: opts, log: log}
}

// WithLogger returns a copy of p that logs to log.
func (p *Pipeline) WithLogger(log *slog.Logger) *Pipeline {
	cp := *p
	cp.log = log
	return &cp
}

// StageError attributes a failure to one chunk or description.
type StageError struct {
	Stage string // "segment" or "structure"
	Index int    // chunk index or description index
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Stage, e.Index, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Run extracts the listings in content. Listings come back in document order:
// by chunk, then by position within the chunk's segmentation. Any failed call
// fails the whole run and no listings are returned.
func (p *Pipeline) Run(ctx context.Context, content string, tr Tracker) ([]extract.Listing, error) {
	if tr == nil {
		tr = nopTracker{}
	}

	// Stage 1: split.
	tr.SetStatus(StatusChunking, "chunking")
	chunks, err := chunker.Split(content, p.opts.Chunk)
	if err != nil {
		return nil, err
	}
	tr.SetTotalChunks(len(chunks))
	p.log.Info("chunked document",
		"chunks", len(chunks),
		"chunk_size", p.opts.Chunk.ChunkSize,
		"overlap", p.opts.Chunk.Overlap,
	)

	// Stage 2: segment every chunk.
	tr.SetStatus(StatusSegmenting, "segmenting")
	perChunk, err := fanOut(ctx, chunks, p.opts.MaxConcurrent, func(ctx context.Context, i int, c chunker.Chunk) ([]string, error) {
		text := c.Text()
		p.log.Debug("segmenting chunk", "chunk", i, "lines", len(c.Lines), "approx_tokens", chunker.EstimateTokens(text))
		descs, err := p.segmenter.Segment(ctx, text)
		if err != nil {
			return nil, &StageError{Stage: "segment", Index: i, Err: err}
		}
		tr.IncrChunksSegmented()
		return descs, nil
	})
	if err != nil {
		p.log.Error("segmentation failed", "error", err)
		return nil, err
	}

	var descriptions []string
	for _, descs := range perChunk {
		descriptions = append(descriptions, descs...)
	}
	if p.opts.Dedup {
		before := len(descriptions)
		descriptions = dedupe(descriptions)
		p.log.Info("deduplicated descriptions", "before", before, "after", len(descriptions))
	}
	tr.SetTotalDescriptions(len(descriptions))
	p.log.Info("segmentation complete", "descriptions", len(descriptions))

	// Stage 3: structure every description.
	tr.SetStatus(StatusStructuring, "structuring")
	listings, err := fanOut(ctx, descriptions, p.opts.MaxConcurrent, func(ctx context.Context, i int, desc string) (extract.Listing, error) {
		l, err := p.structurer.Structure(ctx, desc)
		if err != nil {
			return extract.Listing{}, &StageError{Stage: "structure", Index: i, Err: err}
		}
		tr.IncrListingsStructured()
		return l, nil
	})
	if err != nil {
		p.log.Error("structuring failed", "error", err)
		return nil, err
	}

	p.log.Info("structuring complete", "listings", len(listings))
	return listings, nil
}

// Format renders listings one per line.
func Format(listings []extract.Listing) string {
	lines := make([]string, len(listings))
	for i, l := range listings {
		lines[i] = l.String()
	}
	return strings.Join(lines, "\n")
}

// dedupe keeps the first occurrence of each description, comparing text with
// surrounding whitespace trimmed.
func dedupe(descriptions []string) []string {
	seen := make(map[string]bool, len(descriptions))
	out := descriptions[:0:0]
	for _, d := range descriptions {
		key := strings.TrimSpace(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}
