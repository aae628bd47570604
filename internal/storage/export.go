package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rocketrl/internal/experiment"
)

type ExportData struct {
	Run      *RunMetadata              `json:"run"`
	Episodes []experiment.EpisodeStats `json:"episodes"`
}

// ExportJSON writes a stored run as a single JSON document. An empty path or
// "-" writes to w.
func (s *Store) ExportJSON(runID, path string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	episodes, err := s.LoadEpisodes(runID)
	if err != nil {
		return err
	}

	if path != "" && path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Episodes: episodes})
}
