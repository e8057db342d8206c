package extract

import (
	"context"

	"github.com/dgallion1/listingest/internal/completion"
)

// Structurer converts one description into a Listing with a single prompt.
type Structurer struct {
	completer completion.Completer
	opts      Options
}

func NewStructurer(c completion.Completer, opts Options) *Structurer {
	return &Structurer{completer: c, opts: opts}
}

// Structure returns the Listing for description. Any failure is a
// *StructuringError.
func (s *Structurer) Structure(ctx context.Context, description string) (Listing, error) {
	return structure(ctx, s.completer, completion.Request{
		Template:  StructurePrompt,
		Variables: map[string]string{"content": description},
		ModelID:   s.opts.ModelID,
	}, s.opts.RepairJSON)
}

// ChatStructurer is the function-calling variant: the instruction goes in the
// system message, the description in the user message, and the model may call
// ConvertToDollar to report Price in US dollars.
type ChatStructurer struct {
	completer completion.Completer
	opts      Options
	currency  *CurrencyConverter
}

// NewChatStructurer uses a default CurrencyConverter when conv is nil.
func NewChatStructurer(c completion.Completer, opts Options, conv *CurrencyConverter) *ChatStructurer {
	if conv == nil {
		conv = NewCurrencyConverter()
	}
	return &ChatStructurer{completer: c, opts: opts, currency: conv}
}

func (s *ChatStructurer) Structure(ctx context.Context, description string) (Listing, error) {
	return structure(ctx, s.completer, completion.Request{
		System:    ChatStructureSystem,
		Template:  chatUserTemplate,
		Variables: map[string]string{"content": description},
		ModelID:   s.opts.ModelID,
		Tools:     []completion.Tool{s.currency.Tool()},
	}, s.opts.RepairJSON)
}

func structure(ctx context.Context, c completion.Completer, req completion.Request, repair bool) (Listing, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return Listing{}, &StructuringError{Err: err}
	}
	l, err := decodeListing(resp, repair)
	if err != nil {
		return Listing{}, &StructuringError{Response: resp, Err: err}
	}
	return l, nil
}
