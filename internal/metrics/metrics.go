package metrics

import "time"

// Sample is the outcome of one constrained solve.
type Sample struct {
	QDDot     []float64
	Forces    []float64
	Violation []float64 // n·a - desired, per constraint
	Duration  time.Duration
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}
