package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/rocketrl/internal/dynamo"
)

const (
	DefaultGravity  = 9.81
	DefaultThrust   = 130.0
	DefaultMass     = 10.0
	DefaultArmA     = 1.0
	DefaultArmB     = 1.0
	DefaultTrimRate = 2.0
)

// Control layout expected by Rocket.Derive.
const (
	CtrlIgnition = iota // 0 or 1
	CtrlTrim            // nozzle trim angle at the start of the micro-step
	CtrlRotation        // -1, 0 or +1
	CtrlEpoch           // simulated time at the start of the micro-step
	ControlDim
)

// State layout: x, y, phi, u, v, w.
const (
	X = iota
	Y
	Phi
	U
	V
	W
	StateDim
)

var (
	_ dynamo.System       = (*Rocket)(nil)
	_ dynamo.DeriverInto  = (*Rocket)(nil)
	_ dynamo.Configurable = (*Rocket)(nil)
)

// Rocket is a planar rigid body with a single gimballed engine. The nozzle
// angle swings linearly in time from the trim angle at the start of each
// micro-step while a rotation command is active.
type Rocket struct {
	Gravity  float64
	Thrust   float64
	Mass     float64
	ArmA     float64
	ArmB     float64
	TrimRate float64
}

func NewRocket() *Rocket {
	return &Rocket{
		Gravity:  DefaultGravity,
		Thrust:   DefaultThrust,
		Mass:     DefaultMass,
		ArmA:     DefaultArmA,
		ArmB:     DefaultArmB,
		TrimRate: DefaultTrimRate,
	}
}

func (r *Rocket) StateDim() int   { return StateDim }
func (r *Rocket) ControlDim() int { return ControlDim }

// Nozzle returns the effective nozzle angle at simulated time t.
func (r *Rocket) Nozzle(u dynamo.Control, t float64) float64 {
	return u[CtrlTrim] + u[CtrlRotation]*r.TrimRate*(t-u[CtrlEpoch])
}

func (r *Rocket) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, StateDim)
	r.DeriveInto(dx, x, u, t)
	return dx
}

func (r *Rocket) DeriveInto(dst, x dynamo.State, u dynamo.Control, t float64) {
	f := r.Thrust * u[CtrlIgnition]
	delta := r.Nozzle(u, t)

	dst[X] = x[U]
	dst[Y] = x[V]
	dst[Phi] = x[W]
	dst[U] = -f * math.Sin(x[Phi]+delta) / r.Mass
	dst[V] = -r.Gravity + f*math.Cos(x[Phi]+delta)/r.Mass
	dst[W] = 6.0 * f * r.ArmB * math.Sin(delta) / (r.Mass * (r.ArmA*r.ArmA + r.ArmB*r.ArmB))
}

func (r *Rocket) Energy(x dynamo.State) float64 {
	ke := 0.5 * r.Mass * (x[U]*x[U] + x[V]*x[V])
	inertia := r.Mass * (r.ArmA*r.ArmA + r.ArmB*r.ArmB) / 12.0
	keRot := 0.5 * inertia * x[W] * x[W]
	pe := r.Mass * r.Gravity * x[Y]
	return ke + keRot + pe
}

func (r *Rocket) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":   r.Gravity,
		"thrust":    r.Thrust,
		"mass":      r.Mass,
		"arm_a":     r.ArmA,
		"arm_b":     r.ArmB,
		"trim_rate": r.TrimRate,
	}
}

func (r *Rocket) SetParam(name string, value float64) error {
	switch name {
	case "gravity":
		r.Gravity = value
	case "thrust":
		r.Thrust = value
	case "mass":
		if value <= 0 {
			return fmt.Errorf("mass must be positive, got %f", value)
		}
		r.Mass = value
	case "arm_a":
		r.ArmA = value
	case "arm_b":
		r.ArmB = value
	case "trim_rate":
		r.TrimRate = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
