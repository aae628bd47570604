// Package dynamo provides the core primitives shared by the simulator and
// the replay store.
//
//   - [State]: flat vector of float64 values
//   - [System]: ODE right-hand side (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [Metric]: accumulator over environment step vectors
//
// Errors returned by components wrap one of the sentinel values below in an
// [OpError], so callers can branch with errors.Is:
//
//	if errors.Is(err, dynamo.ErrEmptyBuffer) {
//	    // nothing stored yet
//	}
//
// # Thread Safety
//
// Nothing in this module is safe for concurrent use. Each simulator and each
// replay buffer is owned by a single goroutine.
package dynamo
