// Package enrich turns raw catalog records into enriched records and drives
// the batch enrichment run.
package enrich

import (
	"time"

	"github.com/foodpipe/foodpipe/internal/model"
	"github.com/foodpipe/foodpipe/internal/score"
)

// Enrich derives one EnrichedRecord from one SourceRecord. It cannot fail:
// missing payload fields default to empty strings and missing nutrient data
// degrades to the fallback grade, so Status is always true.
//
// The nutrient grade is computed first because the environmental grade is
// defined as a function of it.
func Enrich(raw model.SourceRecord) model.EnrichedRecord {
	p := raw.Payload

	nutri := score.NutriGrade(p.Nutriments, p.NutriscoreGrade)
	eco := score.EcoGrade(p.EcoscoreGrade, nutri)

	return model.EnrichedRecord{
		RawProductID: raw.ID,
		Status:       true,
		EnrichedAt:   time.Now().UTC(),
		Value: model.EnrichedValue{
			ProductName: p.ProductName,
			Categories:  p.Categories,
			Countries:   p.Countries,
			EcoScore:    eco,
			Nutriscore:  nutri,
			Code:        p.Code,
			ImageURL:    p.ImageURL,
		},
	}
}
