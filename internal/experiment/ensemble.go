package experiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/rocketrl/internal/config"
)

// Ensemble repeats one rollout configuration over consecutive seeds.
type Ensemble struct {
	cfg       *config.Config
	policy    string
	numRuns   int
	seedStart uint64
	log       *logrus.Logger
}

// NewEnsemble prepares numRuns rollouts seeded seedStart, seedStart+1, ...
// A zero seedStart is replaced by cfg.Seed, or 1 when that is also zero, so
// that the runs stay distinct.
func NewEnsemble(cfg *config.Config, policy string, numRuns int, seedStart uint64, log *logrus.Logger) *Ensemble {
	if seedStart == 0 {
		seedStart = max(cfg.Seed, 1)
	}
	return &Ensemble{cfg: cfg, policy: policy, numRuns: numRuns, seedStart: seedStart, log: log}
}

// Run builds every rollout, then executes each in its own goroutine, and
// returns the results in seed order together with the config each one used.
// Nothing is started when any rollout fails to build.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, []*config.Config, error) {
	if e.numRuns <= 0 {
		return nil, nil, fmt.Errorf("ensemble needs at least one run, got %d", e.numRuns)
	}

	configs := make([]*config.Config, e.numRuns)
	exps := make([]*Experiment, e.numRuns)
	for i := range exps {
		cfgCopy := *e.cfg
		cfgCopy.Seed = e.seedStart + uint64(i)
		configs[i] = &cfgCopy

		exp, err := New(configs[i], e.policy, e.log)
		if err != nil {
			return nil, nil, fmt.Errorf("seed %d: %w", cfgCopy.Seed, err)
		}
		exps[i] = exp
	}

	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i, exp := range exps {
		wg.Add(1)
		go func(idx int, exp *Experiment) {
			defer wg.Done()
			results[idx], errs[idx] = exp.Run(ctx)
		}(i, exp)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("seed %d: %w", configs[i].Seed, err)
		}
	}
	return results, configs, nil
}
