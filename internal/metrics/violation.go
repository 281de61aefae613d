package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Violation tracks the largest constraint acceleration error seen.
type Violation struct {
	name    string
	max     float64
	samples int
}

func NewViolation() *Violation {
	return &Violation{name: "constraint_violation"}
}

func (v *Violation) Name() string { return v.name }

func (v *Violation) Observe(s Sample) {
	v.samples++
	if len(s.Violation) == 0 {
		return
	}
	v.max = math.Max(v.max, floats.Norm(s.Violation, math.Inf(1)))
}

func (v *Violation) Value() float64 { return v.max }

// Within reports whether every observed sample stayed below tol.
func (v *Violation) Within(tol float64) bool {
	return v.samples > 0 && v.max <= tol
}

func (v *Violation) Reset() {
	v.max = 0
	v.samples = 0
}
