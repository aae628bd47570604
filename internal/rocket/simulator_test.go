package rocket_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/rocket"
)

func mustStep(sim *rocket.Simulator, a rocket.Action) rocket.StepResult {
	GinkgoHelper()
	res, err := sim.Step(a)
	Expect(err).NotTo(HaveOccurred())
	return res
}

var _ = Describe("Simulator", func() {
	var (
		sim    *rocket.Simulator
		params rocket.Params
	)

	BeforeEach(func() {
		params = rocket.DefaultParams()
		var err error
		sim, err = rocket.New(rocket.WithSeed(7))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Reset", func() {
		It("draws the initial condition inside the configured ranges", func() {
			for i := 0; i < 500; i++ {
				s := sim.Reset()
				Expect(math.Abs(s[rocket.IdxX])).To(BeNumerically("<=", params.XRange/2))
				Expect(math.Abs(s[rocket.IdxY])).To(BeNumerically("<=", params.YRange/2))
				Expect(math.Abs(s[rocket.IdxPhi])).To(BeNumerically("<=", params.TiltRange/2))
				Expect(math.Abs(s[rocket.IdxU])).To(BeNumerically("<=", params.URange/2))
				Expect(math.Abs(s[rocket.IdxV])).To(BeNumerically("<=", params.VRange/2))
				Expect(math.Abs(s[rocket.IdxTheta])).To(BeNumerically("<=", params.TrimRange/2))
				Expect(s[rocket.IdxW]).To(BeZero())
				Expect(sim.WithinBounds()).To(BeTrue())
				Expect(sim.Elapsed()).To(BeZero())
			}
		})

		It("clears ignition and rotation", func() {
			mustStep(sim, rocket.ToggleIgnition)
			mustStep(sim, rocket.RotateLeft)

			s := sim.Reset()
			Expect(s[rocket.IdxIgnition]).To(BeZero())
			Expect(s[rocket.IdxRotation]).To(BeZero())
		})

		It("is reproducible for a fixed seed", func() {
			other, err := rocket.New(rocket.WithSeed(7))
			Expect(err).NotTo(HaveOccurred())

			Expect(other.State()).To(Equal(sim.State()))
			for i := 0; i < 20; i++ {
				a := sim.Sample()
				Expect(other.Sample()).To(Equal(a))
				Expect(mustStep(other, a)).To(Equal(mustStep(sim, a)))
			}
		})
	})

	Describe("Sample", func() {
		It("covers every valid action and nothing else", func() {
			seen := map[rocket.Action]int{}
			for i := 0; i < 2000; i++ {
				a := sim.Sample()
				Expect(a.Valid()).To(BeTrue())
				seen[a]++
			}
			Expect(seen).To(HaveLen(int(rocket.NumActions)))
			for _, n := range seen {
				Expect(n).To(BeNumerically(">", 350))
			}
		})

		It("does not touch the physical state", func() {
			before := sim.State()
			sim.Sample()
			Expect(sim.State()).To(Equal(before))
		})
	})

	Describe("control toggles", func() {
		It("flips ignition on each toggle", func() {
			Expect(mustStep(sim, rocket.ToggleIgnition)[rocket.IdxIgnition]).To(Equal(1.0))
			Expect(mustStep(sim, rocket.NoOp)[rocket.IdxIgnition]).To(Equal(1.0))
			Expect(mustStep(sim, rocket.ToggleIgnition)[rocket.IdxIgnition]).To(Equal(0.0))
		})

		It("returns rotation to neutral on a repeated command", func() {
			Expect(mustStep(sim, rocket.RotateRight)[rocket.IdxRotation]).To(Equal(1.0))
			Expect(mustStep(sim, rocket.RotateRight)[rocket.IdxRotation]).To(Equal(0.0))
			Expect(mustStep(sim, rocket.RotateLeft)[rocket.IdxRotation]).To(Equal(-1.0))
			Expect(mustStep(sim, rocket.RotateLeft)[rocket.IdxRotation]).To(Equal(0.0))
		})

		It("stops rotating when the opposite command arrives", func() {
			mustStep(sim, rocket.RotateRight)
			Expect(mustStep(sim, rocket.RotateLeft)[rocket.IdxRotation]).To(Equal(0.0))
		})

		It("rejects unknown actions without mutating state", func() {
			before := sim.State()
			for _, a := range []rocket.Action{-1, rocket.NumActions, 42} {
				_, err := sim.Step(a)
				Expect(err).To(MatchError(dynamo.ErrInvalidArgument))
			}
			Expect(sim.State()).To(Equal(before))
			Expect(sim.Elapsed()).To(BeZero())
		})
	})

	Describe("integration", func() {
		It("reduces to free fall with the engine off", func() {
			dt := params.MacroStep()
			prev := sim.State()
			for i := 0; i < 5; i++ {
				res := mustStep(sim, rocket.NoOp)
				Expect(res.WithinBounds()).To(BeTrue())

				Expect(res[rocket.IdxV]).To(BeNumerically("~", prev[rocket.IdxV]-params.Gravity*dt, 1e-9))
				Expect(res[rocket.IdxU]).To(BeNumerically("~", prev[rocket.IdxU], 1e-12))
				Expect(res[rocket.IdxX]).To(BeNumerically("~", prev[rocket.IdxX]+prev[rocket.IdxU]*dt, 1e-9))
				wantY := prev[rocket.IdxY] + prev[rocket.IdxV]*dt - params.Gravity*dt*dt/2
				Expect(res[rocket.IdxY]).To(BeNumerically("~", wantY, 1e-9))
				Expect(res[rocket.IdxPhi]).To(Equal(prev[rocket.IdxPhi]))

				prev = res.Snapshot()
			}
			Expect(sim.Elapsed()).To(BeNumerically("~", 5*dt, 1e-9))
		})

		It("scores in-bounds steps by distance, time alive and tilt", func() {
			res := mustStep(sim, rocket.NoOp)
			x, y, phi := res[rocket.IdxX], res[rocket.IdxY], res[rocket.IdxPhi]
			r2 := x*x + y*y
			want := 30 * (1 + sim.Elapsed()) / (1 + r2*r2) * math.Abs(math.Cos(phi))
			Expect(res.Reward()).To(BeNumerically("~", want, 1e-12))
		})

		It("clamps the trim angle at its bound", func() {
			p := rocket.DefaultParams()
			p.TrimRate = 100
			fast, err := rocket.New(rocket.WithParams(p), rocket.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())

			Expect(mustStep(fast, rocket.RotateRight)[rocket.IdxTheta]).To(Equal(p.TrimMax))
			Expect(mustStep(fast, rocket.NoOp)[rocket.IdxTheta]).To(Equal(p.TrimMax))
			mustStep(fast, rocket.RotateRight)
			Expect(mustStep(fast, rocket.RotateLeft)[rocket.IdxTheta]).To(Equal(-p.TrimMax))
		})
	})

	Describe("termination", func() {
		var small *rocket.Simulator

		BeforeEach(func() {
			p := rocket.DefaultParams()
			p.Area = 1
			p.XRange, p.YRange, p.URange, p.VRange = 0, 0, 0, 0
			var err error
			small, err = rocket.New(rocket.WithParams(p), rocket.WithSeed(11))
			Expect(err).NotTo(HaveOccurred())
		})

		It("stops mid macro-step and freezes physics afterwards", func() {
			var last rocket.StepResult
			steps := 0
			for ; steps < 100; steps++ {
				last = mustStep(small, rocket.NoOp)
				if !last.WithinBounds() {
					break
				}
			}
			Expect(last.WithinBounds()).To(BeFalse())
			Expect(last.Reward()).To(Equal(-700.0))
			Expect(math.Abs(last[rocket.IdxY])).To(BeNumerically(">=", 1))
			Expect(small.Elapsed()).To(BeNumerically("<", float64(steps+1)*0.05))

			frozen := last.Snapshot()
			elapsed := small.Elapsed()
			for _, a := range []rocket.Action{rocket.NoOp, rocket.ToggleIgnition, rocket.RotateRight, rocket.RotateLeft} {
				res := mustStep(small, a)
				Expect(res.WithinBounds()).To(BeFalse())
				Expect(res.Reward()).To(Equal(-700.0))
				Expect(res[:rocket.IdxIgnition]).To(Equal(frozen[:rocket.IdxIgnition]))
			}
			Expect(small.Elapsed()).To(Equal(elapsed))

			small.Reset()
			Expect(small.WithinBounds()).To(BeTrue())
		})
	})

	It("hands out independent copies", func() {
		res := mustStep(sim, rocket.NoOp)
		res[rocket.IdxX] = 1e9
		Expect(sim.State()[rocket.IdxX]).NotTo(Equal(1e9))
	})

	Describe("tuning", func() {
		It("applies a change from the next step", func() {
			Expect(sim.SetParam("gravity", 0)).To(Succeed())
			Expect(sim.Params().Gravity).To(BeZero())
			Expect(sim.GetParams()).To(HaveKeyWithValue("gravity", 0.0))

			v0 := sim.State()[rocket.IdxV]
			res := mustStep(sim, rocket.NoOp)
			Expect(res[rocket.IdxV]).To(Equal(v0))
		})

		It("rejects invalid values without side effects", func() {
			Expect(sim.SetParam("mass", 0)).To(MatchError(dynamo.ErrInvalidArgument))
			Expect(sim.SetParam("warp", 1)).To(MatchError(dynamo.ErrInvalidArgument))
			Expect(sim.SetParam("arm_a", 0)).To(Succeed())
			Expect(sim.SetParam("arm_b", 0)).To(MatchError(dynamo.ErrInvalidArgument))
			Expect(sim.Params().Mass).To(Equal(10.0))
			Expect(sim.Params().ArmB).To(Equal(1.0))
			Expect(sim.GetParams()["arm_b"]).To(Equal(1.0))
		})
	})
})

var _ = Describe("Params", func() {
	DescribeTable("Validate rejects",
		func(mutate func(*rocket.Params)) {
			p := rocket.DefaultParams()
			mutate(&p)
			_, err := rocket.New(rocket.WithParams(p))
			Expect(err).To(MatchError(dynamo.ErrInvalidArgument))
		},
		Entry("zero mass", func(p *rocket.Params) { p.Mass = 0 }),
		Entry("zero micro-step", func(p *rocket.Params) { p.MicroStep = 0 }),
		Entry("zero sub-steps", func(p *rocket.Params) { p.SubSteps = 0 }),
		Entry("negative range", func(p *rocket.Params) { p.XRange = -1 }),
		Entry("zero area", func(p *rocket.Params) { p.Area = 0 }),
	)

	It("covers 0.05s per macro-step by default", func() {
		Expect(rocket.DefaultParams().MacroStep()).To(BeNumerically("~", 0.05, 1e-15))
	})
})

var _ = Describe("Action", func() {
	It("parses names and ids", func() {
		for _, tc := range []struct {
			in   string
			want rocket.Action
		}{{"noop", rocket.NoOp}, {"IGNITE", rocket.ToggleIgnition}, {"2", rocket.RotateRight}, {" left ", rocket.RotateLeft}} {
			a, err := rocket.ParseAction(tc.in)
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(tc.want))
		}
		_, err := rocket.ParseAction("7")
		Expect(err).To(MatchError(dynamo.ErrInvalidArgument))
		Expect(rocket.Action(9).String()).To(Equal("action(9)"))
	})
})
