// Package viz renders the rocket in the terminal.
//
// [Canvas] is a Braille dot grid, [Scene] projects the flight envelope onto
// it and [Model] is a Bubble Tea program that flies one episode after another.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	R      - Start a new episode
//	A      - Toggle autopilot
//	Up     - Toggle ignition
//	Left   - Rotate nozzle left
//	Right  - Rotate nozzle right
//	T      - Cycle color themes
//	?      - Show help overlay
package viz
