// Package physics holds the rigid-body model behind the rocket environment.
//
// [Rocket] implements [dynamo.System] and [dynamo.DeriverInto]: a planar
// body with one gimballed engine whose nozzle angle is part of the control
// vector. Rocket also implements [dynamo.Configurable] so its constants can
// be tuned between steps, and exposes its mechanical energy for metrics.
package physics
