package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/rocketrl/internal/config"
	"github.com/san-kum/rocketrl/internal/experiment"
	"github.com/san-kum/rocketrl/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	episodesFile = "episodes.csv"
)

var episodeHeader = []string{"episode", "steps", "return", "terminated", "survival", "ignition_duty", "energy"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string                     `json:"id"`
	Preset      string                     `json:"preset"`
	Policy      string                     `json:"policy"`
	Timestamp   time.Time                  `json:"timestamp"`
	Seed        uint64                     `json:"seed"`
	Config      *config.Config             `json:"config"`
	Transitions int                        `json:"transitions"`
	Batches     int                        `json:"batches"`
	BatchReward float64                    `json:"batch_reward"`
	Summary     map[string]metrics.Summary `json:"summary"`
}

// Save writes one run directory holding metadata.json and episodes.csv.
func (s *Store) Save(preset, policy string, cfg *config.Config, result *experiment.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", preset, policy, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Preset:      preset,
		Policy:      policy,
		Timestamp:   now,
		Seed:        cfg.Seed,
		Config:      cfg,
		Transitions: result.Transitions,
		Batches:     result.Batches,
		BatchReward: result.BatchReward,
		Summary:     result.Summary,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, episodesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(episodeHeader); err != nil {
		return "", err
	}
	for _, ep := range result.Episodes {
		row := []string{
			strconv.Itoa(ep.Index),
			strconv.Itoa(ep.Steps),
			formatFloat(ep.Return),
			strconv.FormatBool(ep.Terminated),
		}
		for _, name := range episodeHeader[4:] {
			row = append(row, formatFloat(ep.Metrics[name]))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s metadata: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadEpisodes(runID string) ([]experiment.EpisodeStats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, episodesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(episodeHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []experiment.EpisodeStats{}, nil
	}

	episodes := make([]experiment.EpisodeStats, 0, len(records)-1)
	for line, record := range records[1:] {
		ep, err := parseEpisode(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", episodesFile, line+2, err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

func parseEpisode(record []string) (experiment.EpisodeStats, error) {
	var ep experiment.EpisodeStats
	var err error

	if ep.Index, err = strconv.Atoi(record[0]); err != nil {
		return ep, err
	}
	if ep.Steps, err = strconv.Atoi(record[1]); err != nil {
		return ep, err
	}
	if ep.Return, err = strconv.ParseFloat(record[2], 64); err != nil {
		return ep, err
	}
	if ep.Terminated, err = strconv.ParseBool(record[3]); err != nil {
		return ep, err
	}

	ep.Metrics = map[string]float64{"return": ep.Return}
	for i, name := range episodeHeader[4:] {
		v, err := strconv.ParseFloat(record[4+i], 64)
		if err != nil {
			return ep, err
		}
		ep.Metrics[name] = v
	}
	return ep, nil
}
