package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/dgallion1/listingest/internal/completion"
)

// CurrencyConverter is a placeholder conversion tool offered to the model.
// It knows no exchange rates: ConvertToDollar multiplies the amount by a
// random factor in [0,2). Results are not meant to be correct.
type CurrencyConverter struct {
	factor func() float64
}

func NewCurrencyConverter() *CurrencyConverter {
	return &CurrencyConverter{factor: func() float64 { return rand.Float64() * 2 }}
}

// ConvertToDollar returns the "USD equivalent" of amount. currencyCode is
// accepted and ignored.
func (c *CurrencyConverter) ConvertToDollar(currencyCode string, amount float64) float64 {
	return amount * c.factor()
}

var convertToDollarSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "currencyCode": {"type": "string", "description": "The ISO 4217 currency code"},
    "amount": {"type": "number", "description": "The amount of money to convert"}
  },
  "required": ["currencyCode", "amount"]
}`)

type convertArgs struct {
	CurrencyCode string   `json:"currencyCode"`
	Amount       *float64 `json:"amount"`
}

// Tool exposes ConvertToDollar to a completion provider.
func (c *CurrencyConverter) Tool() completion.Tool {
	return completion.Tool{
		Name:        "ConvertToDollar",
		Description: "Converts a currency amount and returns the equivalent amount in USD",
		Parameters:  convertToDollarSchema,
		Call: func(_ context.Context, arguments string) (string, error) {
			var args convertArgs
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("decode arguments: %w", err)
			}
			if args.Amount == nil {
				return "", fmt.Errorf("missing amount")
			}
			out, err := json.Marshal(c.ConvertToDollar(args.CurrencyCode, *args.Amount))
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}
