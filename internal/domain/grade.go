package domain

// Grade is the discrete risk verdict, A (safest) through F (most severe).
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

var gradeSeverity = map[Grade]int{
	GradeA: 0,
	GradeB: 1,
	GradeC: 2,
	GradeD: 3,
	GradeE: 4,
	GradeF: 5,
}

// Severity returns the ordinal severity of a grade; -1 for unknown values.
func (g Grade) Severity() int {
	if s, ok := gradeSeverity[g]; ok {
		return s
	}
	return -1
}

// IsValid reports whether g is one of the six known grades.
func (g Grade) IsValid() bool {
	_, ok := gradeSeverity[g]
	return ok
}

// ThresholdSet holds the five ascending cut points that map a probability to
// a grade for one branch. Valid sets satisfy 0 <= Safe < Low < Medium < High
// < Critical <= 1; validation lives in the grade mapper.
type ThresholdSet struct {
	Safe     float64 `json:"safe"`
	Low      float64 `json:"low"`
	Medium   float64 `json:"medium"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}
