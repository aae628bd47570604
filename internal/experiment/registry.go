package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/rocketrl/internal/rocket"
)

// Policy picks the next action from the latest snapshot.
type Policy interface {
	Act(s rocket.Snapshot) rocket.Action
}

type randomPolicy struct {
	sim *rocket.Simulator
}

func (p randomPolicy) Act(rocket.Snapshot) rocket.Action { return p.sim.Sample() }

// HoverPolicy is a bang-bang baseline: thrust while sinking or below the
// origin, and steer the nozzle toward a trim that cancels tilt.
type HoverPolicy struct {
	TiltGain float64
	RateGain float64
	Deadband float64
	TrimMax  float64
}

func NewHoverPolicy(p rocket.Params) *HoverPolicy {
	return &HoverPolicy{
		TiltGain: 0.8,
		RateGain: 0.3,
		Deadband: 0.01,
		TrimMax:  p.TrimMax,
	}
}

func (h *HoverPolicy) Act(s rocket.Snapshot) rocket.Action {
	lit := s[rocket.IdxIgnition] != 0
	want := s[rocket.IdxV] < 0 || s[rocket.IdxY] < 0
	if lit != want {
		return rocket.ToggleIgnition
	}

	target := -h.TiltGain*s[rocket.IdxPhi] - h.RateGain*s[rocket.IdxW]
	target = math.Max(-h.TrimMax, math.Min(h.TrimMax, target))

	dir := 0
	if diff := target - s[rocket.IdxTheta]; diff > h.Deadband {
		dir = 1
	} else if diff < -h.Deadband {
		dir = -1
	}
	return steer(int(s[rocket.IdxRotation]), dir)
}

// steer returns the toggle action that moves rotation from current toward
// desired. Leaving one direction for the other takes two steps.
func steer(current, desired int) rocket.Action {
	switch {
	case current == desired:
		return rocket.NoOp
	case current != 0:
		return rocket.RotateRight
	case desired > 0:
		return rocket.RotateRight
	default:
		return rocket.RotateLeft
	}
}

type Registry struct {
	policies map[string]func(*rocket.Simulator) Policy
}

func NewRegistry() *Registry {
	r := &Registry{
		policies: make(map[string]func(*rocket.Simulator) Policy),
	}

	r.policies["random"] = func(sim *rocket.Simulator) Policy { return randomPolicy{sim: sim} }
	r.policies["hover"] = func(sim *rocket.Simulator) Policy { return NewHoverPolicy(sim.Params()) }
	r.policies["idle"] = func(*rocket.Simulator) Policy { return constPolicy(rocket.NoOp) }

	return r
}

type constPolicy rocket.Action

func (c constPolicy) Act(rocket.Snapshot) rocket.Action { return rocket.Action(c) }

func (r *Registry) GetPolicy(name string, sim *rocket.Simulator) (Policy, error) {
	fn, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
	return fn(sim), nil
}

func (r *Registry) ListPolicies() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
