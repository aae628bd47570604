package metrics

import (
	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/rocket"
)

func withinBounds(step dynamo.State) bool {
	return step[rocket.IdxWithinBounds] != 0
}

// Return sums the rewards of an episode.
type Return struct {
	sum float64
}

func NewReturn() *Return { return &Return{} }

func (r *Return) Name() string { return "return" }

func (r *Return) Observe(step dynamo.State) { r.sum += step[rocket.IdxReward] }

func (r *Return) Value() float64 { return r.sum }

func (r *Return) Reset() { r.sum = 0 }

// Survival is the fraction of steps that ended inside the flight envelope.
type Survival struct {
	inBounds int
	samples  int
}

func NewSurvival() *Survival { return &Survival{} }

func (s *Survival) Name() string { return "survival" }

func (s *Survival) Observe(step dynamo.State) {
	s.samples++
	if withinBounds(step) {
		s.inBounds++
	}
}

func (s *Survival) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return float64(s.inBounds) / float64(s.samples)
}

func (s *Survival) Reset() {
	s.inBounds = 0
	s.samples = 0
}

// IgnitionDuty is the fraction of steps flown with the engine lit.
type IgnitionDuty struct {
	lit     int
	samples int
}

func NewIgnitionDuty() *IgnitionDuty { return &IgnitionDuty{} }

func (d *IgnitionDuty) Name() string { return "ignition_duty" }

func (d *IgnitionDuty) Observe(step dynamo.State) {
	d.samples++
	if step[rocket.IdxIgnition] != 0 {
		d.lit++
	}
}

func (d *IgnitionDuty) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return float64(d.lit) / float64(d.samples)
}

func (d *IgnitionDuty) Reset() {
	d.lit = 0
	d.samples = 0
}

// Default returns the metrics recorded for every episode.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewReturn(),
		NewSurvival(),
		NewIgnitionDuty(),
	}
}
