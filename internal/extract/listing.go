package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Listing is one structured car listing.
//
// Odometer and ManufacturerDate are kept as text; model output mixes units
// and date formats ("100,000 miles", "October 2015").
type Listing struct {
	Make             string `json:"Make"`
	Model            string `json:"Model"`
	Odometer         string `json:"Odometer"`
	ManufacturerDate string `json:"ManufacturerDate"`
	Price            Price  `json:"Price"`
	Contact          string `json:"Contact"`
}

// String renders "{Make} {Model} [{Odometer}/{ManufacturerDate}] - {Price} | {Contact}".
func (l Listing) String() string {
	return fmt.Sprintf("%s %s [%s/%s] - %s | %s", l.Make, l.Model, l.Odometer, l.ManufacturerDate, l.Price, l.Contact)
}

// listingKeys is the exact key set of a Listing object.
var listingKeys = []string{"Make", "Model", "Odometer", "ManufacturerDate", "Price", "Contact"}

// Price holds the price as text. It decodes from a JSON string ("16900") or a
// JSON number (16900.5, returned by the chat structurer) and always encodes as
// a JSON string.
type Price string

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("price: null")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("price: %w", err)
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("price: want string or number, got %s", truncate(string(b), 40))
	}
	*p = Price(n.String())
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p Price) String() string {
	return string(p)
}
