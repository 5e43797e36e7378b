package model

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Nutrients maps a nutrient key (e.g. "sugars_100g") to its amount per 100g.
// The catalog delivers values as JSON numbers or numeric strings, sometimes
// null; unmarshalling normalizes everything to a non-negative float64 and
// drops anything unparseable to 0.
type Nutrients map[string]float64

// Get returns the value for key, or 0 when absent.
func (n Nutrients) Get(key string) float64 {
	if n == nil {
		return 0
	}
	return n[key]
}

// UnmarshalJSON coerces number-or-string nutrient values to float64.
// Invalid, NaN, infinite, or negative values become 0 so downstream scoring
// never sees them.
func (n *Nutrients) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Nutrients, len(raw))
	for k, v := range raw {
		out[k] = coerceNutrient(v)
	}
	*n = out
	return nil
}

func coerceNutrient(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// ProductPayload is one product as delivered by the external catalog. Only
// the fields the pipeline reads are declared; the rest of the payload is
// ignored on decode.
type ProductPayload struct {
	Code            string    `json:"code"`
	ProductName     string    `json:"product_name"`
	Categories      string    `json:"categories"`
	Countries       string    `json:"countries"`
	ImageURL        string    `json:"image_url"`
	NutriscoreGrade string    `json:"nutriscore_grade"`
	EcoscoreGrade   string    `json:"ecoscore_grade"`
	Nutriments      Nutrients `json:"nutriments"`
}

// SourceRecord is one raw product as persisted by the collect step.
// Immutable once fetched.
type SourceRecord struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
	RawHash   string         `json:"raw_hash"`
	Payload   ProductPayload `json:"payload"`
}
