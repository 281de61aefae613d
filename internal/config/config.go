package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/contactdyn/internal/contacts"
	"github.com/san-kum/contactdyn/internal/linalg"
	"github.com/san-kum/contactdyn/internal/model"
	"github.com/san-kum/contactdyn/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel   = "box"
	DefaultMethod  = "lagrangian"
	DefaultGravity = model.DefaultGravity
	DefaultRepeat  = 1
)

var ErrInvalidConfig = errors.New("config: invalid scenario")

type Config struct {
	Name        string          `yaml:"name,omitempty"`
	Model       string          `yaml:"model"`
	Method      string          `yaml:"method"`
	Solver      linalg.Method   `yaml:"solver"`
	Gravity     float64         `yaml:"gravity"`
	Restitution float64         `yaml:"restitution"`
	Repeat      int             `yaml:"repeat"`
	State       StateConfig     `yaml:"state"`
	Contacts    []ContactConfig `yaml:"contacts"`
}

// StateConfig holds the joint state. Empty vectors mean zeros.
type StateConfig struct {
	Q    []float64 `yaml:"q,flow,omitempty"`
	QDot []float64 `yaml:"qdot,flow,omitempty"`
	Tau  []float64 `yaml:"tau,flow,omitempty"`
}

type ContactConfig struct {
	Name         string     `yaml:"name,omitempty"`
	Body         string     `yaml:"body"`
	Point        [3]float64 `yaml:"point,flow"`
	Normal       [3]float64 `yaml:"normal,flow"`
	Acceleration float64    `yaml:"acceleration,omitempty"`
}

// Scenario is a Config resolved against its model.
type Scenario struct {
	Name         string
	ModelName    string
	Model        *model.Model
	Q, QDot, Tau []float64
	Contacts     []contacts.ContactInfo
	ContactNames []string
	Solver       linalg.Method
	Restitution  float64
}

func DefaultConfig() *Config {
	return &Config{
		Model:   DefaultModel,
		Method:  DefaultMethod,
		Solver:  linalg.PartialPivLU,
		Gravity: DefaultGravity,
		Repeat:  DefaultRepeat,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that do not need the model.
func (c *Config) Validate() error {
	if c.Repeat < 1 {
		return fmt.Errorf("%w: repeat must be at least 1, got %d", ErrInvalidConfig, c.Repeat)
	}
	if c.Restitution < 0 {
		return fmt.Errorf("%w: negative restitution %g", ErrInvalidConfig, c.Restitution)
	}
	for i, cc := range c.Contacts {
		if cc.Body == "" {
			return fmt.Errorf("%w: contact %d has no body", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Build resolves the model and body names and sizes the state vectors.
// Normals are passed through unchanged so the constraint layer rejects
// anything that is not a positive world axis.
func (c *Config) Build() (*Scenario, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	m, err := models.Get(c.Model)
	if err != nil {
		return nil, err
	}
	m.Gravity = mgl64.Vec3{0, 0, c.Gravity}

	s := &Scenario{
		Name:        c.Name,
		ModelName:   c.Model,
		Model:       m,
		Solver:      c.Solver,
		Restitution: c.Restitution,
	}
	if s.Q, err = stateVector("q", c.State.Q, m.DofCount); err != nil {
		return nil, err
	}
	if s.QDot, err = stateVector("qdot", c.State.QDot, m.DofCount); err != nil {
		return nil, err
	}
	if s.Tau, err = stateVector("tau", c.State.Tau, m.DofCount); err != nil {
		return nil, err
	}

	for i, cc := range c.Contacts {
		id, ok := m.BodyID(cc.Body)
		if !ok {
			return nil, fmt.Errorf("%w: contact %d references unknown body %q of model %s",
				ErrInvalidConfig, i, cc.Body, c.Model)
		}
		name := cc.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", cc.Body, i)
		}
		s.ContactNames = append(s.ContactNames, name)
		s.Contacts = append(s.Contacts, contacts.ContactInfo{
			BodyID:       id,
			Point:        mgl64.Vec3(cc.Point),
			Normal:       mgl64.Vec3(cc.Normal),
			Acceleration: cc.Acceleration,
		})
	}
	return s, nil
}

func stateVector(name string, v []float64, dof int) ([]float64, error) {
	if len(v) == 0 {
		return make([]float64, dof), nil
	}
	if len(v) != dof {
		return nil, fmt.Errorf("%w: %s has %d entries, model has %d dofs", ErrInvalidConfig, name, len(v), dof)
	}
	return slices.Clone(v), nil
}

// ConstraintSet registers the scenario contacts in a fresh set bound to the
// scenario model.
func (s *Scenario) ConstraintSet() (*contacts.ConstraintSet, error) {
	cs := contacts.NewConstraintSet()
	cs.LinearSolver = s.Solver
	for i, c := range s.Contacts {
		if _, err := cs.AddConstraint(c.BodyID, c.Point, c.Normal, s.ContactNames[i], c.Acceleration); err != nil {
			return nil, err
		}
	}
	if err := cs.Bind(s.Model); err != nil {
		return nil, err
	}
	return cs, nil
}

// ContactList returns a copy of the scenario contacts for the list-based
// entry points.
func (s *Scenario) ContactList() []contacts.ContactInfo {
	return slices.Clone(s.Contacts)
}
