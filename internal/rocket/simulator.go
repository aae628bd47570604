package rocket

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/integrators"
	"github.com/san-kum/rocketrl/internal/physics"
)

// Snapshot layout, shared with StepResult.
const (
	IdxX = iota
	IdxY
	IdxPhi
	IdxU
	IdxV
	IdxW
	IdxTheta
	IdxIgnition
	IdxRotation
	IdxReward
	IdxWithinBounds

	SnapshotSize = IdxReward
	StepSize     = IdxWithinBounds + 1
)

// Snapshot is (x, y, phi, u, v, w, theta, ignition, rotation).
type Snapshot [SnapshotSize]float64

// StepResult is a Snapshot followed by reward and the within-bounds flag.
type StepResult [StepSize]float64

func (r StepResult) Reward() float64 { return r[IdxReward] }

func (r StepResult) WithinBounds() bool { return r[IdxWithinBounds] != 0 }

func (r StepResult) Snapshot() Snapshot {
	var s Snapshot
	copy(s[:], r[:SnapshotSize])
	return s
}

type Option func(*Simulator)

func WithParams(p Params) Option {
	return func(s *Simulator) { s.params = p }
}

func WithSeed(seed uint64) Option {
	return func(s *Simulator) { s.src = dynamo.NewSource(seed) }
}

func WithSource(src rand.Source) Option {
	return func(s *Simulator) { s.src = src }
}

var _ dynamo.Configurable = (*Simulator)(nil)

// Simulator advances one rocket under discrete toggle commands. It is not
// safe for concurrent use.
type Simulator struct {
	params Params
	dyn    *physics.Rocket
	integ  *integrators.RK4
	src    rand.Source
	rng    *rand.Rand

	state dynamo.State
	ctrl  dynamo.Control
	theta float64
	t     float64

	ignition int
	rotation int
	inBounds bool
}

// New builds a simulator and resets it.
func New(opts ...Option) (*Simulator, error) {
	s := &Simulator{params: DefaultParams()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	if s.src == nil {
		s.src = dynamo.NewSource(0)
	}
	s.rng = rand.New(s.src)
	s.dyn = s.params.Body()
	s.integ = integrators.NewRK4()
	s.state = make(dynamo.State, physics.StateDim)
	s.ctrl = make(dynamo.Control, physics.ControlDim)
	s.Reset()
	return s, nil
}

func (s *Simulator) Params() Params { return s.params }

// GetParams reports the physical parameters of the rocket body.
func (s *Simulator) GetParams() map[string]float64 { return s.dyn.GetParams() }

// SetParam changes one physical parameter. It takes effect from the next
// Step and leaves the current state untouched.
func (s *Simulator) SetParam(name string, value float64) error {
	body := *s.dyn
	if err := body.SetParam(name, value); err != nil {
		return dynamo.Errorf("set param", dynamo.ErrInvalidArgument, "%v", err)
	}
	p := s.params
	p.Gravity, p.Thrust, p.Mass = body.Gravity, body.Thrust, body.Mass
	p.ArmA, p.ArmB, p.TrimRate = body.ArmA, body.ArmB, body.TrimRate
	if err := p.Validate(); err != nil {
		return err
	}
	*s.dyn = body
	s.params = p
	return nil
}

func (s *Simulator) Elapsed() float64 { return s.t }

func (s *Simulator) WithinBounds() bool { return s.inBounds }

// Reset draws a new initial condition and clears the control state.
func (s *Simulator) Reset() Snapshot {
	p := s.params
	s.state[physics.X] = s.draw(p.XRange)
	s.state[physics.Y] = s.draw(p.YRange)
	s.state[physics.Phi] = s.draw(p.TiltRange)
	s.state[physics.U] = s.draw(p.URange)
	s.state[physics.V] = s.draw(p.VRange)
	s.state[physics.W] = 0
	s.theta = s.draw(p.TrimRange)
	s.t = 0

	s.ignition = 0
	s.rotation = 0
	s.inBounds = true

	return s.State()
}

func (s *Simulator) draw(width float64) float64 {
	if width == 0 {
		return 0
	}
	return distuv.Uniform{Min: -width / 2, Max: width / 2, Src: s.src}.Rand()
}

// Sample draws an action uniformly from the valid ids.
func (s *Simulator) Sample() Action {
	return Action(s.rng.Intn(int(NumActions)))
}

func (s *Simulator) State() Snapshot {
	return Snapshot{
		s.state[physics.X],
		s.state[physics.Y],
		s.state[physics.Phi],
		s.state[physics.U],
		s.state[physics.V],
		s.state[physics.W],
		s.theta,
		float64(s.ignition),
		float64(s.rotation),
	}
}

// Step applies a, integrates one macro-step and scores the result. Once the
// rocket has left the flight envelope, physics stays frozen and every
// further step reports the penalty until Reset.
func (s *Simulator) Step(a Action) (StepResult, error) {
	if !a.Valid() {
		return StepResult{}, dynamo.Errorf("step", dynamo.ErrInvalidArgument, "action %d outside [0, %d)", int(a), int(NumActions))
	}
	s.apply(a)

	if s.inBounds {
		s.integrate()
	}

	reward := s.params.Penalty
	if s.inBounds {
		reward = s.reward()
	}
	return s.result(reward), nil
}

// apply performs the toggle transitions. A rotate command while already
// rotating either way returns the nozzle to neutral.
func (s *Simulator) apply(a Action) {
	switch a {
	case ToggleIgnition:
		s.ignition = 1 - s.ignition
	case RotateRight:
		s.rotation = toggleRotation(s.rotation, 1)
	case RotateLeft:
		s.rotation = toggleRotation(s.rotation, -1)
	}
}

func toggleRotation(current, dir int) int {
	if current != 0 {
		return 0
	}
	return dir
}

func (s *Simulator) integrate() {
	p := s.params
	h := p.MicroStep
	rate := float64(s.rotation) * p.TrimRate

	s.ctrl[physics.CtrlIgnition] = float64(s.ignition)
	s.ctrl[physics.CtrlRotation] = float64(s.rotation)

	for i := 0; i < p.SubSteps && s.inBounds; i++ {
		s.ctrl[physics.CtrlTrim] = s.theta
		s.ctrl[physics.CtrlEpoch] = s.t
		s.integ.StepInto(s.state, s.dyn, s.state, s.ctrl, s.t, h)

		s.theta += rate * h
		if math.Abs(s.theta) >= p.TrimMax {
			s.theta = math.Copysign(p.TrimMax, s.theta)
		}
		s.t += h

		s.inBounds = s.check()
	}
}

func (s *Simulator) check() bool {
	p := s.params
	if !s.state.IsValid() {
		return false
	}
	return math.Abs(s.state[physics.Phi]) < p.TiltMax &&
		math.Abs(s.state[physics.X]) < p.Area &&
		math.Abs(s.state[physics.Y]) < p.Area
}

// reward favours long flights near the origin with the body upright.
func (s *Simulator) reward() float64 {
	x, y := s.state[physics.X], s.state[physics.Y]
	r2 := x*x + y*y
	return 30.0 * (1.0 + s.t) / (1.0 + r2*r2) * math.Abs(math.Cos(s.state[physics.Phi]))
}

func (s *Simulator) result(reward float64) StepResult {
	var r StepResult
	snap := s.State()
	copy(r[:], snap[:])
	r[IdxReward] = reward
	if s.inBounds {
		r[IdxWithinBounds] = 1
	}
	return r
}
