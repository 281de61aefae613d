package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/contactdyn/internal/config"
	"github.com/san-kum/contactdyn/internal/contacts"
	"github.com/san-kum/contactdyn/internal/logging"
	"github.com/san-kum/contactdyn/internal/model"
)

const tol = 1e-8

func newExperiment(t *testing.T, modelName, preset string) *Experiment {
	t.Helper()
	cfg := config.GetPreset(modelName, preset)
	if cfg == nil {
		t.Fatalf("missing preset %s/%s", modelName, preset)
	}
	s, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	return New(s, logging.NewTestLogger(t))
}

func TestMethodsAgree(t *testing.T) {
	e := newExperiment(t, "planar_box", "corners")
	ctx := context.Background()

	ref, err := e.Run(ctx, "lagrangian")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"compliance", "list"} {
		t.Run(name, func(t *testing.T) {
			res, err := e.Run(ctx, name)
			if err != nil {
				t.Fatal(err)
			}
			for i := range ref.Output {
				if math.Abs(res.Output[i]-ref.Output[i]) > tol {
					t.Errorf("qddot[%d]: got %f, want %f", i, res.Output[i], ref.Output[i])
				}
			}
			for i := range ref.Forces {
				if math.Abs(res.Forces[i]-ref.Forces[i]) > tol {
					t.Errorf("force[%d]: got %f, want %f", i, res.Forces[i], ref.Forces[i])
				}
			}
			if res.Metrics["constraint_violation"] > tol {
				t.Errorf("violation %g", res.Metrics["constraint_violation"])
			}
		})
	}
}

func TestRestingBox(t *testing.T) {
	e := newExperiment(t, "box", "resting")
	res, err := e.Run(context.Background(), "lagrangian")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Output[0]) > tol {
		t.Errorf("expected the box to stay at rest, got %f", res.Output[0])
	}
	if math.Abs(res.Forces[0]-model.DefaultGravity) > tol {
		t.Errorf("expected force %f, got %f", model.DefaultGravity, res.Forces[0])
	}
	if math.Abs(res.Metrics["peak_force"]-math.Abs(model.DefaultGravity)) > tol {
		t.Errorf("unexpected peak force %f", res.Metrics["peak_force"])
	}
}

func TestImpulse(t *testing.T) {
	e := newExperiment(t, "biped", "landing")
	res, err := e.Run(context.Background(), "impulse")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violation) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(res.Violation))
	}
	if res.Metrics["constraint_violation"] > tol {
		t.Errorf("post-impact velocity misses restitution target by %g", res.Metrics["constraint_violation"])
	}
}

func TestBench(t *testing.T) {
	e := newExperiment(t, "biped", "stance")
	res, err := e.Bench(context.Background(), "compliance", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Timings) != 5 {
		t.Errorf("expected 5 timings, got %d", len(res.Timings))
	}
	if res.Metrics["solve_time_us"] <= 0 {
		t.Error("expected positive mean solve time")
	}
}

func TestRedundantScenarioFails(t *testing.T) {
	e := newExperiment(t, "planar_box", "redundant")
	_, err := e.Run(context.Background(), "lagrangian")
	if !errors.Is(err, contacts.ErrNumericalFailure) {
		t.Fatalf("expected numerical failure, got %v", err)
	}
	var ne *contacts.NumericalError
	if !errors.As(err, &ne) || len(ne.Constraints) == 0 {
		t.Errorf("expected offending constraints, got %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	e := newExperiment(t, "box", "resting")

	if _, err := e.Run(context.Background(), "simplex"); err == nil {
		t.Error("expected error for unknown method")
	}
	if _, err := e.Bench(context.Background(), "lagrangian", 0); err == nil {
		t.Error("expected error for zero repeat")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx, "lagrangian"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestListMethods(t *testing.T) {
	names := ListMethods()
	want := []string{"compliance", "impulse", "lagrangian", "list"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("got %v, want %v", names, want)
		}
		if m, _ := GetMethod(names[i]); m.Description == "" {
			t.Errorf("%s has no description", names[i])
		}
	}
}
