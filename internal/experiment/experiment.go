package experiment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rocketrl/internal/config"
	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/metrics"
	"github.com/san-kum/rocketrl/internal/replay"
	"github.com/san-kum/rocketrl/internal/rocket"
)

// Observer is notified after every simulator step.
type Observer interface {
	OnStep(episode int, t Transition)
}

type EpisodeStats struct {
	Index      int                `json:"index"`
	Steps      int                `json:"steps"`
	Return     float64            `json:"return"`
	Terminated bool               `json:"terminated"`
	Metrics    map[string]float64 `json:"metrics"`
}

type Result struct {
	Episodes    []EpisodeStats             `json:"episodes"`
	Transitions int                        `json:"transitions"`
	Batches     int                        `json:"batches"`
	RowsDrawn   int                        `json:"rows_drawn"`
	BatchReward float64                    `json:"batch_reward"`
	Summary     map[string]metrics.Summary `json:"summary"`
}

// Returns lists the episode returns in order.
func (r *Result) Returns() []float64 {
	out := make([]float64, len(r.Episodes))
	for i, ep := range r.Episodes {
		out[i] = ep.Return
	}
	return out
}

// Experiment plays the part of a training loop: it rolls out a policy in the
// simulator, stores every transition in a replay buffer and draws one batch
// per step once the buffer holds Warmup records.
type Experiment struct {
	cfg       *config.Config
	policy    string
	sim       *rocket.Simulator
	buf       *replay.Buffer
	actor     Policy
	metrics   []dynamo.Metric
	observers []Observer
	log       *logrus.Logger
}

func New(cfg *config.Config, policy string, log *logrus.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	sim, err := rocket.New(rocket.WithParams(cfg.Rocket), rocket.WithSeed(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("create simulator: %w", err)
	}

	bufSeed := cfg.Seed
	if bufSeed != 0 {
		bufSeed++
	}
	buf, err := replay.New(cfg.Replay.Capacity, RecordSize, replay.WithSeed(bufSeed))
	if err != nil {
		return nil, fmt.Errorf("create replay buffer: %w", err)
	}

	actor, err := NewRegistry().GetPolicy(policy, sim)
	if err != nil {
		return nil, err
	}

	return &Experiment{
		cfg:     cfg,
		policy:  policy,
		sim:     sim,
		buf:     buf,
		actor:   actor,
		metrics: append(metrics.Default(), metrics.NewEnergy(cfg.Rocket.Body())),
		log:     log,
	}, nil
}

func (e *Experiment) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	rc := e.cfg.Rollout
	result := &Result{
		Episodes: make([]EpisodeStats, 0, rc.Episodes),
		Summary:  make(map[string]metrics.Summary),
	}
	record := make([]float64, RecordSize)
	step := make(dynamo.State, rocket.StepSize)
	rewardSum := 0.0

	for ep := 0; ep < rc.Episodes; ep++ {
		for _, m := range e.metrics {
			m.Reset()
		}

		s := e.sim.Reset()
		stats := EpisodeStats{Index: ep}

		for stats.Steps < rc.MaxSteps {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
			}

			a := e.actor.Act(s)
			res, err := e.sim.Step(a)
			if err != nil {
				return result, fmt.Errorf("episode %d step %d: %w", ep, stats.Steps, err)
			}
			stats.Steps++

			tr := newTransition(s, a, res)
			tr.Encode(record)
			if err := e.buf.Append(record); err != nil {
				return result, err
			}
			result.Transitions++

			copy(step, res[:])
			for _, m := range e.metrics {
				m.Observe(step)
			}
			for _, o := range e.observers {
				o.OnStep(ep, tr)
			}

			if e.buf.Len() >= max(e.cfg.Replay.Warmup, 1) {
				batch, err := e.buf.Batch(e.cfg.Replay.BatchSize)
				if err != nil {
					return result, err
				}
				rows, _ := batch.Dims()
				result.Batches++
				result.RowsDrawn += rows
				rewardSum += floats.Sum(mat.Col(nil, RewardCol, batch))
			}

			s = res.Snapshot()
			if tr.Done {
				stats.Terminated = true
				break
			}
		}

		stats.Metrics = make(map[string]float64, len(e.metrics))
		for _, m := range e.metrics {
			stats.Metrics[m.Name()] = m.Value()
		}
		stats.Return = stats.Metrics["return"]
		result.Episodes = append(result.Episodes, stats)

		e.log.WithFields(logrus.Fields{
			"episode":    ep,
			"return":     stats.Return,
			"steps":      stats.Steps,
			"terminated": stats.Terminated,
		}).Debug("episode finished")
	}

	if result.RowsDrawn > 0 {
		result.BatchReward = rewardSum / float64(result.RowsDrawn)
	}
	e.summarize(result)

	e.log.WithFields(logrus.Fields{
		"policy":      e.policy,
		"episodes":    len(result.Episodes),
		"transitions": result.Transitions,
		"batches":     result.Batches,
		"mean_return": result.Summary["return"].Mean,
	}).Info("rollout complete")

	return result, nil
}

func (e *Experiment) summarize(result *Result) {
	values := make(map[string][]float64)
	for _, ep := range result.Episodes {
		for name, v := range ep.Metrics {
			values[name] = append(values[name], v)
		}
	}
	lengths := make([]float64, len(result.Episodes))
	for i, ep := range result.Episodes {
		lengths[i] = float64(ep.Steps)
	}
	values["steps"] = lengths

	for name, vs := range values {
		result.Summary[name] = metrics.Summarize(vs)
	}
}
