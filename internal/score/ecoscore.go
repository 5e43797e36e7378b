package score

import "github.com/foodpipe/foodpipe/internal/model"

// EcoGrade derives the environmental grade from the catalog's base grade and
// the already-computed nutrient grade. An unrecognized base collapses to "e".
// A poor nutrient grade ("d" or "e") downgrades the base by exactly one step
// toward "e"; never more, and "e" cannot get worse.
func EcoGrade(base string, nutri model.Grade) model.Grade {
	g, ok := model.ParseGrade(base)
	if !ok {
		g = model.GradeE
	}

	if nutri != model.GradeD && nutri != model.GradeE {
		return g
	}

	for i, grade := range model.Grades {
		if grade == g && i < len(model.Grades)-1 {
			return model.Grades[i+1]
		}
	}
	return g
}
