// Package score computes the nutrient and environmental quality grades.
// All functions are pure and safe for concurrent use.
package score

import "github.com/foodpipe/foodpipe/internal/model"

// Catalog nutrient keys, per 100g.
const (
	keyEnergyKcal    = "energy-kcal_100g"
	keyEnergyKj      = "energy_100g"
	keyCarbohydrates = "carbohydrates_100g"
	keySugars        = "sugars_100g"
	keyFat           = "fat_100g"
	keySaturatedFat  = "saturated-fat_100g"
	keySalt          = "salt_100g"
	keyProteins      = "proteins_100g"
	keyFiber         = "fiber_100g"
	keyCalcium       = "calcium_100g"
	keyFruitsLegumes = "fruits-vegetables-legumes-estimate-from-ingredients_100g"
	keyFruitsNuts    = "fruits-vegetables-nuts-estimate-from-ingredients_100g"
	keyNovaGroup100g = "nova-group_100g"
	keyNovaGroup     = "nova-group"
)

// kJ per kcal, used when only energy_100g (kJ) is populated.
const kjPerKcal = 4.184

// band returns the penalty or bonus for v against ascending thresholds:
// points[i] applies when v exceeds (or, for inclusive bands, reaches)
// thresholds[i], scanning from the highest band down.
func band(v float64, thresholds []float64, points []int, inclusive bool) int {
	for i := range thresholds {
		if (inclusive && v >= thresholds[i]) || (!inclusive && v > thresholds[i]) {
			return points[i]
		}
	}
	return 0
}

// NutriGrade computes the nutrient grade for a measurement bag. When no
// contributing measurement is present at all, fallback is returned if it is a
// valid letter, else "e". The thresholds and the final score cut points are
// fixed for compatibility with historical data and must not be tuned.
func NutriGrade(n model.Nutrients, fallback string) model.Grade {
	energyKcal := n.Get(keyEnergyKcal)
	if energyKcal == 0 {
		energyKcal = n.Get(keyEnergyKj) / kjPerKcal
	}
	carbohydrates := n.Get(keyCarbohydrates)
	sugars := n.Get(keySugars)
	fat := n.Get(keyFat)
	saturatedFat := n.Get(keySaturatedFat)
	salt := n.Get(keySalt)
	proteins := n.Get(keyProteins)
	fiber := n.Get(keyFiber)
	calcium := n.Get(keyCalcium)
	fruitsLegumes := n.Get(keyFruitsLegumes)
	fruitsNuts := n.Get(keyFruitsNuts)
	nova := n.Get(keyNovaGroup100g)
	if nova == 0 {
		nova = n.Get(keyNovaGroup)
	}

	hasAny := energyKcal > 0 || carbohydrates > 0 || fat > 0 || proteins > 0 ||
		calcium > 0 || fruitsLegumes > 0 || fruitsNuts > 0
	if !hasAny {
		if g, ok := model.ParseGrade(fallback); ok {
			return g
		}
		return model.GradeE
	}

	neg := band(energyKcal, []float64{335, 270, 205, 135, 80}, []int{10, 8, 6, 4, 2}, false)

	sugarsOrCarbs := sugars
	if sugarsOrCarbs == 0 {
		sugarsOrCarbs = carbohydrates
	}
	neg += band(sugarsOrCarbs, []float64{45, 36, 27, 13.5, 4.5}, []int{10, 8, 6, 4, 2}, false)

	fatToUse := saturatedFat
	if fatToUse == 0 {
		fatToUse = fat
	}
	neg += band(fatToUse, []float64{10, 7, 4, 2, 1}, []int{10, 8, 6, 4, 2}, false)

	neg += band(salt, []float64{2.7, 2.25, 1.8, 0.9, 0.45}, []int{10, 8, 6, 4, 2}, false)

	// Ultra-processed penalty.
	neg += band(nova, []float64{4, 3}, []int{2, 1}, true)

	pos := band(proteins, []float64{8, 6.4, 4.8, 3.2, 1.6}, []int{5, 4, 3, 2, 1}, true)
	pos += band(fiber, []float64{4.7, 3.5, 2.8, 1.9, 0.9}, []int{5, 4, 3, 2, 1}, true)

	fruitsPct := max(fruitsLegumes, fruitsNuts)
	pos += band(fruitsPct, []float64{80, 60, 40, 20, 10}, []int{5, 4, 3, 2, 1}, true)

	// calcium_100g is in grams; the bonus thresholds are in milligrams.
	pos += band(calcium*1000, []float64{320, 160}, []int{2, 1}, true)

	total := neg - pos
	switch {
	case total <= -1:
		return model.GradeA
	case total <= 2:
		return model.GradeB
	case total <= 10:
		return model.GradeC
	case total <= 18:
		return model.GradeD
	default:
		return model.GradeE
	}
}
