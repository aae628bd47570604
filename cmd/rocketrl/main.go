package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/rocketrl/internal/config"
	"github.com/san-kum/rocketrl/internal/experiment"
	"github.com/san-kum/rocketrl/internal/export"
	"github.com/san-kum/rocketrl/internal/replay"
	"github.com/san-kum/rocketrl/internal/rocket"
	"github.com/san-kum/rocketrl/internal/storage"
	"github.com/san-kum/rocketrl/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	preset     string
	configFile string
	seed       uint64
	policy     string
	episodes   int
	maxSteps   int
	batchSize  int
	capacity   int
	warmup     int
	saveConfig string
	pngOut     string
	jsonOut    string
	livePolicy string
	smooth     int
	benchSteps int
	numSeeds   int
)

var log = logrus.New()

func main() {
	rootCmd := &cobra.Command{
		Use:   "rocketrl",
		Short: "rocket control environment with a replay buffer",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rocketrl", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "roll out a policy and fill the replay buffer",
		Args:  cobra.NoArgs,
		RunE:  runRollout,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&policy, "policy", "random", "policy (random, hover, idle)")
	runCmd.Flags().IntVar(&episodes, "episodes", config.DefaultEpisodes, "number of episodes")
	runCmd.Flags().IntVar(&maxSteps, "steps", config.DefaultMaxSteps, "max steps per episode")
	runCmd.Flags().IntVar(&batchSize, "batch", config.DefaultBatchSize, "replay batch size")
	runCmd.Flags().IntVar(&capacity, "capacity", config.DefaultCapacity, "replay capacity")
	runCmd.Flags().IntVar(&warmup, "warmup", config.DefaultWarmup, "records stored before batches are drawn (at most --capacity)")
	runCmd.Flags().IntVar(&numSeeds, "seeds", 1, "run this many consecutive seeds in parallel; with --seed 0 the seeds are 1..N, not time-based")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the effective config to this yaml file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot episode returns in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]...",
		Short: "plot episode returns of one or more runs to an image",
		Args:  cobra.MinimumNArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVarP(&pngOut, "out", "o", "returns.png", "output image (.png, .svg, .pdf)")
	exportPNGCmd.Flags().IntVar(&smooth, "smooth", 1, "moving average window")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], jsonOut, os.Stdout)
		},
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "out", "o", "-", "output file, - for stdout")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure simulator and replay throughput",
		RunE:  bench,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchSteps, "n", 20000, "steps per measurement")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "fly the rocket in the terminal",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&livePolicy, "policy", "hover", "autopilot policy, or manual")
	liveCmd.Flags().IntVar(&maxSteps, "steps", config.DefaultMaxSteps, "max steps per episode")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportPNGCmd, exportJSONCmd, presetsCmd, benchCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "default", "configuration preset")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 for time-based")
}

// loadConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("episodes") {
		cfg.Rollout.Episodes = episodes
	}
	if flags.Changed("steps") {
		cfg.Rollout.MaxSteps = maxSteps
	}
	if flags.Changed("batch") {
		cfg.Replay.BatchSize = batchSize
	}
	if flags.Changed("capacity") {
		cfg.Replay.Capacity = capacity
	}
	if flags.Changed("warmup") {
		cfg.Replay.Warmup = warmup
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runRollout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		log.WithField("path", saveConfig).Info("config written")
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.WithFields(logrus.Fields{
		"preset":   preset,
		"policy":   policy,
		"episodes": cfg.Rollout.Episodes,
		"seeds":    numSeeds,
	}).Info("starting rollout")
	start := time.Now()

	var results []*experiment.Result
	var configs []*config.Config
	if numSeeds > 1 {
		results, configs, err = experiment.NewEnsemble(cfg, policy, numSeeds, cfg.Seed, log).Run(ctx)
		if err != nil {
			return err
		}
	} else {
		exp, err := experiment.New(cfg, policy, log)
		if err != nil {
			return err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return err
		}
		results, configs = []*experiment.Result{result}, []*config.Config{cfg}
	}

	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	for i, result := range results {
		runID, err := st.Save(preset, policy, configs[i], result)
		if err != nil {
			return err
		}
		if err := printResult(runID, result); err != nil {
			return err
		}
	}
	return nil
}

func printResult(runID string, result *experiment.Result) error {
	fmt.Printf("\nrun id: %s\n", runID)
	fmt.Printf("transitions: %d  batches: %d  mean batch reward: %.3f\n",
		result.Transitions, result.Batches, result.BatchReward)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, name := range []string{"return", "steps", "survival", "ignition_duty", "energy"} {
		s, ok := result.Summary[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\n", name, s.Mean, s.Std, s.Min, s.Max)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tPOLICY\tTIME\tEPISODES\tMEAN RETURN")
	for _, run := range runs {
		ret := run.Summary["return"]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\n",
			run.ID,
			run.Preset,
			run.Policy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			ret.Count,
			ret.Mean,
		)
	}
	return w.Flush()
}

func loadReturns(st *storage.Store, runID string) ([]float64, error) {
	episodes, err := st.LoadEpisodes(runID)
	if err != nil {
		return nil, err
	}
	returns := make([]float64, len(episodes))
	for i, ep := range episodes {
		returns[i] = ep.Return
	}
	return returns, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	returns, err := loadReturns(st, runID)
	if err != nil {
		return err
	}
	if len(returns) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("policy: %s\n", meta.Policy)
	fmt.Printf("episodes: %d\n\n", len(returns))

	graph := asciigraph.Plot(returns,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("episode return"),
	)
	fmt.Println(graph)
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	series := make([]export.Series, 0, len(args))
	for _, runID := range args {
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		returns, err := loadReturns(st, runID)
		if err != nil {
			return err
		}
		series = append(series, export.Series{
			Label:  fmt.Sprintf("%s/%s", meta.Policy, meta.Preset),
			Values: export.MovingAverage(returns, smooth),
		})
	}

	if dir := filepath.Dir(pngOut); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := export.Returns(pngOut, series); err != nil {
		return err
	}
	log.WithField("path", pngOut).Info("plot written")
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sim, err := rocket.New(rocket.WithParams(cfg.Rocket), rocket.WithSeed(cfg.Seed))
	if err != nil {
		return err
	}
	buf, err := replay.New(cfg.Replay.Capacity, experiment.RecordSize, replay.WithSeed(cfg.Seed))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tCOUNT\tTIME\tOPS/SEC")
	report := func(name string, n int, elapsed time.Duration) {
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\n", name, n, elapsed.Round(time.Microsecond), float64(n)/elapsed.Seconds())
	}

	record := make([]float64, buf.Width())
	s := sim.Reset()
	start := time.Now()
	for i := 0; i < benchSteps; i++ {
		a := sim.Sample()
		res, err := sim.Step(a)
		if err != nil {
			return err
		}
		tr := experiment.Transition{State: s, Action: a, Reward: res.Reward(), Next: res.Snapshot(), Done: !res.WithinBounds()}
		tr.Encode(record)
		if err := buf.Append(record); err != nil {
			return err
		}
		s = tr.Next
		if tr.Done {
			s = sim.Reset()
		}
	}
	report("step+append", benchSteps, time.Since(start))

	start = time.Now()
	rows := 0
	for i := 0; i < benchSteps; i++ {
		batch, err := buf.Batch(cfg.Replay.BatchSize)
		if err != nil {
			return err
		}
		r, _ := batch.Dims()
		rows += r
	}
	report("batch", benchSteps, time.Since(start))
	report("batch rows", rows, time.Since(start))

	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sim, err := rocket.New(rocket.WithParams(cfg.Rocket), rocket.WithSeed(cfg.Seed))
	if err != nil {
		return err
	}

	var actor experiment.Policy
	if livePolicy != "manual" {
		actor, err = experiment.NewRegistry().GetPolicy(livePolicy, sim)
		if err != nil {
			return err
		}
	}

	m := viz.NewModel(sim, actor, cfg.Rollout.MaxSteps)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}

	if returns := final.(viz.Model).Returns(); len(returns) > 0 {
		fmt.Printf("episodes flown: %d, last return: %.2f\n", len(returns), returns[len(returns)-1])
	}
	return nil
}
