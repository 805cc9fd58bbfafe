package polaram

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest records a finished (or stopped) conversion next to its output.
type Manifest struct {
	RunID        string              `yaml:"run_id"`
	Source       string              `yaml:"source"`
	Output       string              `yaml:"output"`
	Tensors      string              `yaml:"tensors"`
	Status       Status              `yaml:"status"`
	BatchSamples int64               `yaml:"batch_samples"`
	TotalSamples int64               `yaml:"total_samples"`
	Batches      int                 `yaml:"batches"`
	Workers      int                 `yaml:"workers"`
	ChunkSize    int                 `yaml:"chunk_size"`
	Precision    int                 `yaml:"precision"`
	Seed         int64               `yaml:"seed"`
	Comment      string              `yaml:"comment,omitempty"`
	Written      time.Time           `yaml:"written"`
	Modes        []ConvergenceReport `yaml:"modes"`
	Summary      []HistoryStats      `yaml:"summary,omitempty"`
}

func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
