package rocket

import (
	"math"

	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/physics"
)

// Params holds every constant of the simulator. Ranges are full widths of
// symmetric intervals centred on zero.
type Params struct {
	Gravity  float64 `yaml:"gravity"`
	Thrust   float64 `yaml:"thrust"`
	Mass     float64 `yaml:"mass"`
	ArmA     float64 `yaml:"arm_a"`
	ArmB     float64 `yaml:"arm_b"`
	TrimRate float64 `yaml:"trim_rate"`
	TrimMax  float64 `yaml:"trim_max"`

	MicroStep float64 `yaml:"micro_step"`
	SubSteps  int     `yaml:"sub_steps"`

	TiltMax float64 `yaml:"tilt_max"`
	Area    float64 `yaml:"area"`
	Penalty float64 `yaml:"penalty"`

	XRange    float64 `yaml:"x_range"`
	YRange    float64 `yaml:"y_range"`
	TiltRange float64 `yaml:"tilt_range"`
	URange    float64 `yaml:"u_range"`
	VRange    float64 `yaml:"v_range"`
	TrimRange float64 `yaml:"trim_range"`
}

func DefaultParams() Params {
	const trimMax = 0.523598776
	return Params{
		Gravity:   physics.DefaultGravity,
		Thrust:    physics.DefaultThrust,
		Mass:      physics.DefaultMass,
		ArmA:      physics.DefaultArmA,
		ArmB:      physics.DefaultArmB,
		TrimRate:  physics.DefaultTrimRate,
		TrimMax:   trimMax,
		MicroStep: 0.001,
		SubSteps:  50,
		TiltMax:   math.Pi / 3,
		Area:      10,
		Penalty:   -700,
		XRange:    1.5,
		YRange:    1.5,
		TiltRange: math.Pi / 36,
		URange:    4,
		VRange:    4,
		TrimRange: trimMax / 4,
	}
}

// MacroStep is the simulated time covered by one Step call.
func (p Params) MacroStep() float64 {
	return p.MicroStep * float64(p.SubSteps)
}

func (p Params) Validate() error {
	const op = "rocket params"
	switch {
	case p.Mass <= 0:
		return dynamo.Errorf(op, dynamo.ErrInvalidArgument, "mass must be positive, got %g", p.Mass)
	case p.ArmA*p.ArmA+p.ArmB*p.ArmB == 0:
		return dynamo.Errorf(op, dynamo.ErrInvalidArgument, "moment arms cannot both be zero")
	case p.MicroStep <= 0:
		return dynamo.Errorf(op, dynamo.ErrInvalidArgument, "micro_step must be positive, got %g", p.MicroStep)
	case p.SubSteps <= 0:
		return dynamo.Errorf(op, dynamo.ErrInvalidArgument, "sub_steps must be positive, got %d", p.SubSteps)
	case p.TrimMax <= 0:
		return dynamo.Errorf(op, dynamo.ErrInvalidArgument, "trim_max must be positive, got %g", p.TrimMax)
	case p.TiltMax <= 0 || p.Area <= 0:
		return dynamo.Errorf(op, dynamo.ErrInvalidArgument, "bounds must be positive")
	}
	for _, r := range []float64{p.XRange, p.YRange, p.TiltRange, p.URange, p.VRange, p.TrimRange} {
		if r < 0 {
			return dynamo.Errorf(op, dynamo.ErrInvalidArgument, "reset ranges cannot be negative, got %g", r)
		}
	}
	return nil
}

// Body builds the rigid-body model described by p.
func (p Params) Body() *physics.Rocket {
	return &physics.Rocket{
		Gravity:  p.Gravity,
		Thrust:   p.Thrust,
		Mass:     p.Mass,
		ArmA:     p.ArmA,
		ArmB:     p.ArmB,
		TrimRate: p.TrimRate,
	}
}
