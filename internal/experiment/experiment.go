package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/san-kum/contactdyn/internal/config"
	"github.com/san-kum/contactdyn/internal/contacts"
	"github.com/san-kum/contactdyn/internal/kinematics"
	"github.com/san-kum/contactdyn/internal/logging"
	"github.com/san-kum/contactdyn/internal/metrics"
	"github.com/san-kum/contactdyn/internal/model"
)

type Result struct {
	Method    string
	Impulse   bool
	Output    []float64 // qddot, or qdot+ for impulse methods
	Forces    []float64
	Targets   []float64 // desired normal acceleration, or target velocity
	Violation []float64
	Metrics   map[string]float64
	Timings   []float64 // microseconds per solve
}

// Experiment runs solver methods against one scenario. The constraint set
// is built on first use and reused across runs.
type Experiment struct {
	scenario *config.Scenario
	log      logr.Logger
	set      *contacts.ConstraintSet
	data     *model.Data
	targets  []float64
}

func New(s *config.Scenario, log logr.Logger) *Experiment {
	return &Experiment{
		scenario: s,
		log:      log.WithName("experiment"),
		data:     model.NewData(s.Model),
	}
}

func (e *Experiment) Scenario() *config.Scenario { return e.scenario }

func (e *Experiment) constraintSet() (*config.Scenario, *contacts.ConstraintSet, error) {
	if e.set == nil {
		cs, err := e.scenario.ConstraintSet()
		if err != nil {
			return nil, nil, err
		}
		cs.SetLogger(e.log)
		e.set = cs
	}
	return e.scenario, e.set, nil
}

// Run solves the scenario once with the named method.
func (e *Experiment) Run(ctx context.Context, method string) (*Result, error) {
	return e.Bench(ctx, method, 1)
}

// Bench solves the scenario n times and reports metrics over all solves.
// The output, forces and violation are those of the last solve.
func (e *Experiment) Bench(ctx context.Context, method string, n int) (*Result, error) {
	m, err := GetMethod(method)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("repeat count must be positive, got %d", n)
	}

	s := e.scenario
	timer := metrics.NewSolveTime()
	ms := []metrics.Metric{metrics.NewViolation(), metrics.NewPeakForce(), timer}
	res := &Result{
		Method:  m.Name,
		Impulse: m.Impulse,
		Output:  make([]float64, s.Model.DofCount),
		Metrics: make(map[string]float64, len(ms)),
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		f, err := m.run(e, res.Output)
		elapsed := time.Since(start)
		if err != nil {
			e.log.V(logging.VERBOSE).Info("solve failed", "method", m.Name, "iteration", i, "err", err)
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}

		res.Forces = append(res.Forces[:0], f...)
		res.Violation = e.violation(m, res.Output, res.Violation[:0])
		sample := metrics.Sample{
			QDDot:     res.Output,
			Forces:    res.Forces,
			Violation: res.Violation,
			Duration:  elapsed,
		}
		for _, mt := range ms {
			mt.Observe(sample)
		}
	}

	res.Targets = make([]float64, len(s.Contacts))
	for i, c := range s.Contacts {
		res.Targets[i] = c.Acceleration
	}
	if m.Impulse {
		copy(res.Targets, e.targets)
	}
	for _, mt := range ms {
		res.Metrics[mt.Name()] = mt.Value()
	}
	res.Timings = timer.Samples()
	e.log.V(logging.DEFAULT).Info("solved", "method", m.Name, "repeat", n,
		"violation", res.Metrics["constraint_violation"], "mean_us", res.Metrics["solve_time_us"])
	return res, nil
}

// violation measures n·a - desired per contact, or n·v+ - target for
// impulse methods.
func (e *Experiment) violation(m Method, out, dst []float64) []float64 {
	s := e.scenario
	if m.Impulse {
		kinematics.UpdateCustom(s.Model, e.data, s.Q, out, nil)
		for i, c := range s.Contacts {
			v := kinematics.PointVelocity(s.Model, e.data, s.Q, out, c.BodyID, c.Point, false)
			dst = append(dst, c.Normal.Dot(v)-e.targets[i])
		}
		return dst
	}

	kinematics.Update(s.Model, e.data, s.Q, s.QDot, out)
	for _, c := range s.Contacts {
		a := kinematics.PointAcceleration(s.Model, e.data, s.Q, s.QDot, out, c.BodyID, c.Point, false)
		dst = append(dst, c.Normal.Dot(a)-c.Acceleration)
	}
	return dst
}
