package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/contactdyn/internal/contacts"
)

// Method is one way of solving a scenario. run writes the joint output
// (accelerations, or post-impact velocities for impulse methods) into out and
// returns the per-constraint forces or impulses.
type Method struct {
	Name        string
	Description string
	Impulse     bool
	run         func(e *Experiment, out []float64) ([]float64, error)
}

var methods = map[string]Method{
	"lagrangian": {
		Name:        "lagrangian",
		Description: "dense KKT system over a bound constraint set",
		run: func(e *Experiment, out []float64) ([]float64, error) {
			s, cs, err := e.constraintSet()
			if err != nil {
				return nil, err
			}
			cs.Clear()
			if err := contacts.ForwardDynamicsContactsLagrangian(s.Model, s.Q, s.QDot, s.Tau, cs, out); err != nil {
				return nil, err
			}
			return cs.Force, nil
		},
	},
	"compliance": {
		Name:        "compliance",
		Description: "compliance matrix from articulated-body test forces",
		run: func(e *Experiment, out []float64) ([]float64, error) {
			s, cs, err := e.constraintSet()
			if err != nil {
				return nil, err
			}
			cs.Clear()
			if err := contacts.ForwardDynamicsContacts(s.Model, s.Q, s.QDot, s.Tau, cs, out); err != nil {
				return nil, err
			}
			return cs.Force, nil
		},
	},
	"list": {
		Name:        "list",
		Description: "compliance matrix over a plain contact list",
		run: func(e *Experiment, out []float64) ([]float64, error) {
			s := e.scenario
			list := s.ContactList()
			if err := contacts.ForwardDynamicsContactsList(s.Model, s.Q, s.QDot, s.Tau, list, out); err != nil {
				return nil, err
			}
			return forces(list), nil
		},
	},
	"impulse": {
		Name:        "impulse",
		Description: "collision impulses with restitution targets",
		Impulse:     true,
		run: func(e *Experiment, out []float64) ([]float64, error) {
			s := e.scenario
			list := s.ContactList()
			if err := contacts.SetRestitutionTargets(s.Model, s.Q, s.QDot, list, s.Restitution); err != nil {
				return nil, err
			}
			e.targets = targets(e.targets[:0], list)
			if err := contacts.ComputeContactImpulsesLagrangian(s.Model, s.Q, s.QDot, list, out); err != nil {
				return nil, err
			}
			return forces(list), nil
		},
	},
}

func forces(list []contacts.ContactInfo) []float64 {
	f := make([]float64, len(list))
	for i, c := range list {
		f[i] = c.Force
	}
	return f
}

func targets(dst []float64, list []contacts.ContactInfo) []float64 {
	for _, c := range list {
		dst = append(dst, c.Acceleration)
	}
	return dst
}

func GetMethod(name string) (Method, error) {
	m, ok := methods[name]
	if !ok {
		return Method{}, fmt.Errorf("unknown method: %s", name)
	}
	return m, nil
}

func ListMethods() []string {
	var names []string
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
