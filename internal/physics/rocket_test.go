package physics

import (
	"math"
	"testing"

	"github.com/san-kum/rocketrl/internal/dynamo"
)

func TestRocketEngineOff(t *testing.T) {
	r := NewRocket()
	x := dynamo.State{1, 2, 0.3, 0.5, -0.5, 0.2}
	u := dynamo.Control{0, 0.1, 1, 0}

	dx := r.Derive(x, u, 0.01)

	want := dynamo.State{0.5, -0.5, 0.2, 0, -DefaultGravity, 0}
	for i := range want {
		if math.Abs(dx[i]-want[i]) > 1e-12 {
			t.Errorf("dx[%d] = %f, want %f", i, dx[i], want[i])
		}
	}
}

func TestRocketHoverThrust(t *testing.T) {
	r := NewRocket()
	r.Thrust = r.Mass * r.Gravity
	x := dynamo.State{0, 0, 0, 0, 0, 0}
	u := dynamo.Control{1, 0, 0, 0}

	dx := r.Derive(x, u, 0)
	for i, v := range dx {
		if math.Abs(v) > 1e-12 {
			t.Errorf("dx[%d] = %g, expected equilibrium", i, v)
		}
	}
}

func TestRocketNozzleSweep(t *testing.T) {
	r := NewRocket()
	u := dynamo.Control{1, 0.1, -1, 2.0}

	if got := r.Nozzle(u, 2.0); got != 0.1 {
		t.Errorf("nozzle at epoch = %f, want 0.1", got)
	}
	want := 0.1 - DefaultTrimRate*0.0005
	if got := r.Nozzle(u, 2.0005); math.Abs(got-want) > 1e-12 {
		t.Errorf("nozzle at half step = %f, want %f", got, want)
	}

	dx := r.Derive(dynamo.State{0, 0, 0, 0, 0, 0}, dynamo.Control{1, 0.2, 0, 0}, 0)
	wantW := 6.0 * DefaultThrust * DefaultArmB * math.Sin(0.2) / (DefaultMass * 2)
	if math.Abs(dx[W]-wantW) > 1e-12 {
		t.Errorf("angular acceleration = %f, want %f", dx[W], wantW)
	}
	if dx[U] >= 0 {
		t.Errorf("positive nozzle angle should push left, got u' = %f", dx[U])
	}
}

func TestRocketParams(t *testing.T) {
	r := NewRocket()

	if err := r.SetParam("gravity", 1.62); err != nil {
		t.Fatalf("SetParam failed: %v", err)
	}
	if r.GetParams()["gravity"] != 1.62 {
		t.Error("gravity not updated")
	}
	if err := r.SetParam("mass", 0); err == nil {
		t.Error("expected error for zero mass")
	}
	if err := r.SetParam("warp", 9); err == nil {
		t.Error("expected error for unknown param")
	}
}
