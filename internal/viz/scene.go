package viz

import (
	"math"

	"github.com/san-kum/rocketrl/internal/rocket"
)

const flameLength = 0.8

// Scene maps the flight envelope [-Area, Area]² onto a canvas.
type Scene struct {
	canvas *Canvas
	area   float64
	armA   float64
	armB   float64
}

func NewScene(c *Canvas, p rocket.Params) *Scene {
	return &Scene{canvas: c, area: p.Area, armA: p.ArmA, armB: p.ArmB}
}

// project maps world coordinates to dots, keeping the aspect ratio.
func (s *Scene) project(x, y float64) (int, int) {
	w, h := s.canvas.Dots()
	scale := float64(min(w, h)-1) / (2 * s.area)
	px := float64(w-1)/2 + x*scale
	py := float64(h-1)/2 - y*scale
	return int(math.Round(px)), int(math.Round(py))
}

func (s *Scene) line(x0, y0, x1, y1 float64) {
	a, b := s.project(x0, y0)
	c, d := s.project(x1, y1)
	s.canvas.DrawLine(a, b, c, d)
}

// Draw renders the envelope frame, the origin marker and the rocket body.
// The flame follows the nozzle angle while the engine is lit.
func (s *Scene) Draw(snap rocket.Snapshot) {
	s.canvas.Clear()

	x0, y0 := s.project(-s.area, s.area)
	x1, y1 := s.project(s.area, -s.area)
	s.canvas.DrawRect(x0, y0, x1, y1)

	const mark = 0.15
	s.line(-mark, 0, mark, 0)
	s.line(0, -mark, 0, mark)

	x, y, phi := snap[rocket.IdxX], snap[rocket.IdxY], snap[rocket.IdxPhi]
	dx, dy := -math.Sin(phi), math.Cos(phi)
	tailX, tailY := x-s.armB*dx, y-s.armB*dy
	s.line(tailX, tailY, x+s.armA*dx, y+s.armA*dy)

	if snap[rocket.IdxIgnition] != 0 {
		a := phi + snap[rocket.IdxTheta]
		s.line(tailX, tailY, tailX+flameLength*math.Sin(a), tailY-flameLength*math.Cos(a))
	}
}
