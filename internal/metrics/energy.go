package metrics

import (
	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/physics"
)

type hamiltonian interface {
	Energy(x dynamo.State) float64
}

// Energy tracks the mean mechanical energy of in-bounds steps.
type Energy struct {
	name        string
	dyn         hamiltonian
	samples     int
	totalEnergy float64
}

func NewEnergy(dyn hamiltonian) *Energy {
	return &Energy{
		name: "energy",
		dyn:  dyn,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(step dynamo.State) {
	if !withinBounds(step) {
		return
	}
	e.totalEnergy += e.dyn.Energy(step[:physics.StateDim])
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}
