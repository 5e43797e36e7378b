package model

import "strings"

// Grade is a quality letter from "a" (best) to "e" (worst), used for both
// the nutrient grade and the environmental grade.
type Grade string

const (
	GradeA Grade = "a"
	GradeB Grade = "b"
	GradeC Grade = "c"
	GradeD Grade = "d"
	GradeE Grade = "e"
)

// Grades lists all valid grades in order from best to worst. The ordering is
// load-bearing: downgrades move one index toward the end.
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD, GradeE}

// Valid reports whether g is one of the five letters a-e.
func (g Grade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeD, GradeE:
		return true
	}
	return false
}

// ParseGrade normalizes a free-text grade letter (trim + lowercase) and
// reports whether the result is a valid grade.
func ParseGrade(s string) (Grade, bool) {
	g := Grade(strings.ToLower(strings.TrimSpace(s)))
	return g, g.Valid()
}
