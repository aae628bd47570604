package integrators

import "github.com/san-kum/rocketrl/internal/dynamo"

var _ dynamo.Integrator = (*RK4)(nil)

// RK4 is the classic fourth-order Runge-Kutta stepper. Stage buffers are
// kept between calls, so a single RK4 must not be shared across goroutines.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func derive(dyn dynamo.System, dst, x dynamo.State, u dynamo.Control, t float64) {
	if d, ok := dyn.(dynamo.DeriverInto); ok {
		d.DeriveInto(dst, x, u, t)
		return
	}
	copy(dst, dyn.Derive(x, u, t))
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	result := make(dynamo.State, len(x))
	r.StepInto(result, dyn, x, u, t, dt)
	return result
}

// StepInto advances x by dt and writes the result to dst. dst may alias x.
func (r *RK4) StepInto(dst dynamo.State, dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) {
	n := len(x)
	r.ensureScratch(n)

	derive(dyn, r.k1, x, u, t)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	derive(dyn, r.k2, r.scratch, u, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	derive(dyn, r.k3, r.scratch, u, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	derive(dyn, r.k4, r.scratch, u, t+dt)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		dst[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
}
