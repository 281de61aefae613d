package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type PeakForce struct {
	name string
	peak float64
}

func NewPeakForce() *PeakForce {
	return &PeakForce{name: "peak_force"}
}

func (p *PeakForce) Name() string { return p.name }

func (p *PeakForce) Observe(s Sample) {
	if len(s.Forces) == 0 {
		return
	}
	p.peak = math.Max(p.peak, floats.Norm(s.Forces, math.Inf(1)))
}

func (p *PeakForce) Value() float64 { return p.peak }

func (p *PeakForce) Reset() { p.peak = 0 }
