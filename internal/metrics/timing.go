package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SolveTime collects solve durations in microseconds.
type SolveTime struct {
	name    string
	samples []float64
}

func NewSolveTime() *SolveTime {
	return &SolveTime{name: "solve_time_us"}
}

func (s *SolveTime) Name() string { return s.name }

func (s *SolveTime) Observe(sample Sample) {
	s.samples = append(s.samples, float64(sample.Duration.Nanoseconds())/1e3)
}

// Value is the mean duration.
func (s *SolveTime) Value() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	return stat.Mean(s.samples, nil)
}

func (s *SolveTime) StdDev() float64 {
	if len(s.samples) < 2 {
		return 0
	}
	return stat.StdDev(s.samples, nil)
}

func (s *SolveTime) Quantile(p float64) float64 {
	return Quantile(s.samples, p)
}

// Quantile returns the empirical p-quantile of samples, p in [0, 1].
func Quantile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Samples returns the recorded durations in observation order.
func (s *SolveTime) Samples() []float64 {
	return s.samples
}

func (s *SolveTime) Reset() { s.samples = s.samples[:0] }
