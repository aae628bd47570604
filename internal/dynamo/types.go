package dynamo

import (
	"math"
)

type State []float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control carries the per-interval inputs a System needs besides its state.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// DeriverInto is implemented by systems that can write their derivative into
// a caller-owned slice instead of allocating one.
type DeriverInto interface {
	DeriveInto(dst, x State, u Control, t float64)
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Metric observes the flat step vectors produced by an environment.
type Metric interface {
	Name() string
	Observe(step State)
	Value() float64
	Reset()
}
