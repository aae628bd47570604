package experiment

import (
	"context"
	"errors"
	"io"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/rocketrl/internal/config"
	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/rocket"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Seed = 7
	cfg.Replay.Capacity = 100
	cfg.Replay.BatchSize = 4
	cfg.Replay.Warmup = 5
	cfg.Rollout.Episodes = 3
	cfg.Rollout.MaxSteps = 20
	return cfg
}

type counter struct {
	steps int
	done  int
}

func (c *counter) OnStep(_ int, t Transition) {
	c.steps++
	if t.Done {
		c.done++
	}
}

func TestRun(t *testing.T) {
	g := NewWithT(t)

	exp, err := New(smallConfig(), "random", quietLogger())
	g.Expect(err).NotTo(HaveOccurred())
	obs := &counter{}
	exp.AddObserver(obs)

	res, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Episodes).To(HaveLen(3))

	total, terminated := 0, 0
	for i, ep := range res.Episodes {
		g.Expect(ep.Index).To(Equal(i))
		g.Expect(ep.Steps).To(BeNumerically(">", 0))
		g.Expect(ep.Steps).To(BeNumerically("<=", 20))
		g.Expect(ep.Metrics).To(HaveKey("return"))
		g.Expect(ep.Metrics).To(HaveKey("energy"))
		g.Expect(ep.Return).To(Equal(ep.Metrics["return"]))
		if ep.Terminated {
			terminated++
		} else {
			g.Expect(ep.Steps).To(Equal(20))
		}
		total += ep.Steps
	}

	g.Expect(res.Transitions).To(Equal(total))
	g.Expect(obs.steps).To(Equal(total))
	g.Expect(obs.done).To(Equal(terminated))
	g.Expect(exp.buf.Len()).To(Equal(total))
	g.Expect(res.Batches).To(Equal(total - 4))
	g.Expect(res.RowsDrawn).To(BeNumerically("<=", 4*res.Batches))
	g.Expect(res.RowsDrawn).To(BeNumerically(">=", res.Batches))
	g.Expect(res.Summary).To(HaveKey("steps"))
	g.Expect(res.Summary["steps"].Count).To(Equal(3))
	g.Expect(res.Returns()).To(HaveLen(3))
}

func TestRunDeterministic(t *testing.T) {
	g := NewWithT(t)

	run := func() *Result {
		exp, err := New(smallConfig(), "random", quietLogger())
		g.Expect(err).NotTo(HaveOccurred())
		res, err := exp.Run(context.Background())
		g.Expect(err).NotTo(HaveOccurred())
		return res
	}

	a, b := run(), run()
	g.Expect(a.Returns()).To(Equal(b.Returns()))
	g.Expect(a.BatchReward).To(Equal(b.BatchReward))
}

func TestRunCancelled(t *testing.T) {
	g := NewWithT(t)

	exp, err := New(smallConfig(), "idle", quietLogger())
	g.Expect(err).NotTo(HaveOccurred())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := exp.Run(ctx)
	g.Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	g.Expect(res.Transitions).To(BeZero())
}

func TestNewRejectsBadInput(t *testing.T) {
	g := NewWithT(t)

	_, err := New(smallConfig(), "nope", quietLogger())
	g.Expect(err).To(MatchError(ContainSubstring("unknown policy")))

	cfg := smallConfig()
	cfg.Replay.BatchSize = 0
	_, err = New(cfg, "random", quietLogger())
	g.Expect(err).To(HaveOccurred())
}

func TestTransitionEncodeDecode(t *testing.T) {
	g := NewWithT(t)

	tr := Transition{
		Action: rocket.RotateLeft,
		Reward: -700,
		Done:   true,
	}
	for i := range tr.State {
		tr.State[i] = float64(i)
		tr.Next[i] = float64(i) + 0.5
	}

	row := make([]float64, RecordSize)
	tr.Encode(row)
	g.Expect(row[RewardCol]).To(Equal(-700.0))
	g.Expect(row[RecordSize-1]).To(Equal(1.0))

	got, err := Decode(row)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(Equal(tr))

	_, err = Decode(row[:RecordSize-1])
	g.Expect(errors.Is(err, dynamo.ErrShapeMismatch)).To(BeTrue())
}

func TestSteer(t *testing.T) {
	tests := []struct {
		current, desired int
		want             rocket.Action
	}{
		{0, 0, rocket.NoOp},
		{1, 1, rocket.NoOp},
		{0, 1, rocket.RotateRight},
		{0, -1, rocket.RotateLeft},
		{1, 0, rocket.RotateRight},
		{-1, 0, rocket.RotateRight},
		{1, -1, rocket.RotateRight},
	}
	for _, tt := range tests {
		if got := steer(tt.current, tt.desired); got != tt.want {
			t.Errorf("steer(%d, %d) = %v, want %v", tt.current, tt.desired, got, tt.want)
		}
	}
}

func TestHoverPolicy(t *testing.T) {
	g := NewWithT(t)
	p := NewHoverPolicy(rocket.DefaultParams())

	var s rocket.Snapshot
	s[rocket.IdxV] = -1
	g.Expect(p.Act(s)).To(Equal(rocket.ToggleIgnition))

	s[rocket.IdxIgnition] = 1
	g.Expect(p.Act(s)).To(Equal(rocket.NoOp))

	s[rocket.IdxPhi] = 0.2
	g.Expect(p.Act(s)).To(Equal(rocket.RotateLeft))

	s[rocket.IdxV] = 1
	s[rocket.IdxY] = 1
	g.Expect(p.Act(s)).To(Equal(rocket.ToggleIgnition))
}

func TestRegistry(t *testing.T) {
	g := NewWithT(t)
	g.Expect(NewRegistry().ListPolicies()).To(Equal([]string{"hover", "idle", "random"}))
}

func TestEnsemble(t *testing.T) {
	g := NewWithT(t)

	cfg := smallConfig()
	res, cfgs, err := NewEnsemble(cfg, "random", 3, 0, quietLogger()).Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res).To(HaveLen(3))
	g.Expect(cfgs).To(HaveLen(3))
	for i, c := range cfgs {
		g.Expect(c.Seed).To(Equal(cfg.Seed + uint64(i)))
	}
	g.Expect(cfg.Seed).To(Equal(uint64(7)))

	single := smallConfig()
	single.Seed = 8
	exp, err := New(single, "random", quietLogger())
	g.Expect(err).NotTo(HaveOccurred())
	want, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res[1].Returns()).To(Equal(want.Returns()))

	_, _, err = NewEnsemble(cfg, "random", 0, 1, quietLogger()).Run(context.Background())
	g.Expect(err).To(HaveOccurred())
}

func TestRunSamplesWhenWarmupEqualsCapacity(t *testing.T) {
	g := NewWithT(t)

	cfg := smallConfig()
	cfg.Replay.Capacity = 10
	cfg.Replay.Warmup = 10

	exp, err := New(cfg, "random", quietLogger())
	g.Expect(err).NotTo(HaveOccurred())
	res, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(exp.buf.Len()).To(Equal(10))
	g.Expect(res.Batches).To(BeNumerically(">", 0))
	g.Expect(res.Batches).To(Equal(res.Transitions - 9))
}

func TestNewRejectsWarmupAboveCapacity(t *testing.T) {
	g := NewWithT(t)

	cfg := smallConfig()
	cfg.Replay.Capacity = 10
	cfg.Replay.Warmup = 11

	_, err := New(cfg, "random", quietLogger())
	g.Expect(err).To(MatchError(ContainSubstring("warmup")))
}

func TestEnsembleBuildFailureStartsNothing(t *testing.T) {
	g := NewWithT(t)

	res, cfgs, err := NewEnsemble(smallConfig(), "nope", 3, 1, quietLogger()).Run(context.Background())
	g.Expect(err).To(MatchError(ContainSubstring("unknown policy")))
	g.Expect(res).To(BeNil())
	g.Expect(cfgs).To(BeNil())
}

func TestEnsembleUnseededStartsAtOne(t *testing.T) {
	g := NewWithT(t)

	cfg := smallConfig()
	cfg.Seed = 0
	cfg.Rollout.Episodes = 1
	_, cfgs, err := NewEnsemble(cfg, "random", 3, 0, quietLogger()).Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfgs).To(HaveLen(3))
	for i, c := range cfgs {
		g.Expect(c.Seed).To(Equal(uint64(i + 1)))
	}
}
