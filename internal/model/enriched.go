package model

import "time"

// EnrichedValue is the normalized payload derived from one source record.
type EnrichedValue struct {
	ProductName string `json:"product_name"`
	Categories  string `json:"categories"`
	Countries   string `json:"countries"`
	EcoScore    Grade  `json:"eco_score"`
	Nutriscore  Grade  `json:"nutriscore"`
	Code        string `json:"code"`
	ImageURL    string `json:"image_url"`
}

// EnrichedRecord is the result of enriching exactly one SourceRecord.
// RawProductID is the idempotency key: a raw id is enriched at most once.
type EnrichedRecord struct {
	ID           string        `json:"id"`
	RawProductID string        `json:"raw_product_id"`
	Status       bool          `json:"status"`
	EnrichedAt   time.Time     `json:"enriched_at"`
	Value        EnrichedValue `json:"enriched_value"`
}
