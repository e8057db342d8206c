package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeBlock removes a surrounding markdown code fence, if any.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// decodeJSON unmarshals model output into v. When repair is set and the first
// attempt fails, the output is run through jsonrepair and decoded once more.
func decodeJSON(raw string, repair bool, v any) error {
	s := stripCodeBlock(raw)
	err := json.Unmarshal([]byte(s), v)
	if err == nil || !repair {
		return err
	}
	repaired, repairErr := jsonrepair.JSONRepair(s)
	if repairErr != nil {
		return fmt.Errorf("%w (repair: %v)", err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode repaired json: %w", err)
	}
	return nil
}

// decodeDescriptions parses a JSON array of strings.
func decodeDescriptions(raw string, repair bool) ([]string, error) {
	var out []string
	if err := decodeJSON(raw, repair, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("response is null, want array of strings")
	}
	return out, nil
}

// decodeListing parses a JSON object with exactly the Listing keys. Missing,
// unknown or null fields and wrong types are errors.
func decodeListing(raw string, repair bool) (Listing, error) {
	var fields map[string]json.RawMessage
	if err := decodeJSON(raw, repair, &fields); err != nil {
		return Listing{}, err
	}
	if fields == nil {
		return Listing{}, errors.New("response is null, want object")
	}

	for k := range fields {
		if !slices.Contains(listingKeys, k) {
			return Listing{}, fmt.Errorf("unknown field %q", k)
		}
	}

	var l Listing
	targets := map[string]any{
		"Make":             &l.Make,
		"Model":            &l.Model,
		"Odometer":         &l.Odometer,
		"ManufacturerDate": &l.ManufacturerDate,
		"Price":            &l.Price,
		"Contact":          &l.Contact,
	}
	for _, k := range listingKeys {
		v, ok := fields[k]
		if !ok {
			return Listing{}, fmt.Errorf("missing field %q", k)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Listing{}, fmt.Errorf("field %q is null", k)
		}
		if err := json.Unmarshal(v, targets[k]); err != nil {
			return Listing{}, fmt.Errorf("field %q: %w", k, err)
		}
	}
	return l, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
