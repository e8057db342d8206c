// Package extract turns listing text into structured records using a
// completion service: the Segmenter splits a chunk into descriptions and the
// structurers convert one description into a Listing.
package extract

import (
	"context"

	"github.com/dgallion1/listingest/internal/completion"
)

// Options are shared by the segmenter and structurers.
type Options struct {
	// ModelID is passed to the completer; empty uses the provider default.
	ModelID string
	// RepairJSON retries decoding of malformed model output through jsonrepair.
	RepairJSON bool
}

// Segmenter splits chunk text into individual listing descriptions.
type Segmenter struct {
	completer completion.Completer
	opts      Options
}

func NewSegmenter(c completion.Completer, opts Options) *Segmenter {
	return &Segmenter{completer: c, opts: opts}
}

// Segment returns the descriptions found in text, in the order the model
// returned them. Any failure is a *SegmentationError.
func (s *Segmenter) Segment(ctx context.Context, text string) ([]string, error) {
	resp, err := s.completer.Complete(ctx, completion.Request{
		Template:  SegmentPrompt,
		Variables: map[string]string{"content": text},
		ModelID:   s.opts.ModelID,
	})
	if err != nil {
		return nil, &SegmentationError{Err: err}
	}
	descriptions, err := decodeDescriptions(resp, s.opts.RepairJSON)
	if err != nil {
		return nil, &SegmentationError{Response: resp, Err: err}
	}
	return descriptions, nil
}
