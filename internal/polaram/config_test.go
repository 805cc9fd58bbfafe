package polaram

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfigDefaults(t *testing.T) {
	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultSamples), cfg.Convert.Samples)
	assert.Equal(t, DefaultWorkers, cfg.Convert.Workers)
	assert.Equal(t, DefaultChunkSize, cfg.Convert.ChunkSize)
	assert.Equal(t, DefaultPrecision, cfg.Convert.Precision)
	assert.Equal(t, DefaultOutput, cfg.Convert.Output)
	assert.Equal(t, DefaultStore, cfg.Store)
	assert.Equal(t, [][]float64{{1, 1, 0, 0}}, cfg.Simulate.Lasers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polaram.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
convert:
  samples: 5000
  workers: 8
simulate:
  lasers:
    - [1, 0, 1, 0]
    - [1, -1, 0, 0]
`), 0o644))
	t.Setenv("POLARAM_CONVERT_PRECISION", "3")

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cfg.Convert.Samples)
	assert.Equal(t, 8, cfg.Convert.Workers)
	assert.Equal(t, 3, cfg.Convert.Precision)
	assert.Equal(t, DefaultChunkSize, cfg.Convert.ChunkSize)
	assert.Equal(t, [][]float64{{1, 0, 1, 0}, {1, -1, 0, 0}}, cfg.Simulate.Lasers)
}

func TestConfigValidate(t *testing.T) {
	v, err := NewViper("")
	require.NoError(t, err)
	v.Set("convert.workers", 0)
	v.Set("convert.precision", -1)
	_, err = LoadConfig(v)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "precision")

	v, err = NewViper("")
	require.NoError(t, err)
	v.Set("simulate.lasers", [][]float64{{1, 2, 0, 0}})
	_, err = LoadConfig(v)
	require.ErrorIs(t, err, ErrInstructionArguments)
}

func TestDumpConfig(t *testing.T) {
	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := LoadConfig(v)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DumpConfig(&buf, cfg))
	var back Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, cfg.Convert, back.Convert)
	assert.Contains(t, buf.String(), "chunk_size: 500")
}

func TestNewViperMissingFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
}
