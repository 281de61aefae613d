package config

import (
	"sort"

	"github.com/san-kum/contactdyn/internal/linalg"
	"github.com/san-kum/contactdyn/internal/models"
)

var (
	up    = [3]float64{0, 0, 1}
	ahead = [3]float64{1, 0, 0}
	side  = [3]float64{0, 1, 0}

	boxCornerLeft  = [3]float64(models.CornerLeft)
	boxCornerRight = [3]float64(models.CornerRight)
	foot           = [3]float64(models.Foot)
	toolTip        = [3]float64{0, 0, -0.1}
)

var Presets = map[string]map[string]func() *Config{
	"box": {
		"resting": func() *Config {
			return preset("box", "resting", StateConfig{},
				ContactConfig{Name: "floor", Body: "box", Normal: up})
		},
		"lift": func() *Config {
			return preset("box", "lift", StateConfig{},
				ContactConfig{Name: "floor", Body: "box", Normal: up, Acceleration: 2.0})
		},
	},
	"planar_box": {
		"corners": func() *Config {
			return preset("planar_box", "corners", StateConfig{
				Q:    []float64{0.1, 0.3, 0.2},
				QDot: []float64{0.4, -0.2, 0.7},
				Tau:  []float64{0.5, 1.0, -0.3},
			},
				ContactConfig{Name: "left", Body: "box", Point: boxCornerLeft, Normal: up},
				ContactConfig{Name: "right", Body: "box", Point: boxCornerRight, Normal: up, Acceleration: 0.3},
			)
		},
		"redundant": func() *Config {
			c := preset("planar_box", "redundant", StateConfig{Q: []float64{0, 0.25, 0}},
				ContactConfig{Name: "left", Body: "box", Point: boxCornerLeft, Normal: up},
				ContactConfig{Name: "right", Body: "box", Point: boxCornerRight, Normal: up},
				ContactConfig{Name: "right_again", Body: "box", Point: boxCornerRight, Normal: up},
			)
			c.Solver = linalg.ColPivHouseholderQR
			return c
		},
	},
	"two_boxes": {
		"both": func() *Config {
			return preset("two_boxes", "both", StateConfig{Tau: []float64{5, 10}},
				ContactConfig{Name: "left", Body: "left", Normal: up},
				ContactConfig{Name: "right", Body: "right", Normal: up, Acceleration: -1},
			)
		},
	},
	"biped": {
		"stance": func() *Config {
			return preset("biped", "stance", StateConfig{
				Q:    []float64{0.05, 1.0, 0.1, 0.3, -0.25},
				QDot: []float64{0.2, -0.1, 0.3, -0.5, 0.4},
				Tau:  []float64{0, 0, 0, 4.0, -3.0},
			},
				ContactConfig{Name: "left_x", Body: "left_leg", Point: foot, Normal: ahead},
				ContactConfig{Name: "left_z", Body: "left_leg", Point: foot, Normal: up},
				ContactConfig{Name: "right_z", Body: "right_leg", Point: foot, Normal: up, Acceleration: -0.2},
			)
		},
		"landing": func() *Config {
			c := preset("biped", "landing", StateConfig{
				Q:    []float64{0, 0.8, 0, 0.1, -0.1},
				QDot: []float64{0.3, -1.5, 0, 0.2, -0.2},
			},
				ContactConfig{Name: "left_z", Body: "left_leg", Point: foot, Normal: up},
				ContactConfig{Name: "right_z", Body: "right_leg", Point: foot, Normal: up},
			)
			c.Method = "impulse"
			c.Solver = linalg.ColPivHouseholderQR
			c.Restitution = 0.2
			return c
		},
	},
	"arm": {
		"pinned": func() *Config {
			return preset("arm", "pinned", StateConfig{
				Q:    []float64{0.3, -0.4, 0.8, 0.1},
				QDot: []float64{0.5, 1.1, -0.7, 0.2},
				Tau:  []float64{1.0, -2.0, 0.5, 3.0},
			},
				ContactConfig{Name: "tip_x", Body: "tool", Point: toolTip, Normal: ahead},
				ContactConfig{Name: "tip_y", Body: "tool", Point: toolTip, Normal: side},
				ContactConfig{Name: "tip_z", Body: "tool", Point: toolTip, Normal: up, Acceleration: 0.5},
			)
		},
	},
}

func preset(model, name string, state StateConfig, cs ...ContactConfig) *Config {
	c := DefaultConfig()
	c.Name = model + "/" + name
	c.Model = model
	c.State = state
	c.Contacts = cs
	return c
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	if presets, ok := Presets[model]; ok {
		if fn, ok := presets[name]; ok {
			return fn()
		}
	}
	return nil
}

func ListPresets(model string) []string {
	var names []string
	if presets, ok := Presets[model]; ok {
		for name := range presets {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func ListModels() []string {
	var names []string
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
