package polaram

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type ConvertConfig struct {
	Samples       int64  `mapstructure:"samples" yaml:"samples"`
	Workers       int    `mapstructure:"workers" yaml:"workers"`
	ChunkSize     int    `mapstructure:"chunk_size" yaml:"chunk_size"`
	Precision     int    `mapstructure:"precision" yaml:"precision"`
	Seed          int64  `mapstructure:"seed" yaml:"seed"`
	MaxExtensions int    `mapstructure:"max_extensions" yaml:"max_extensions"`
	Yes           bool   `mapstructure:"yes" yaml:"yes"`
	Output        string `mapstructure:"output" yaml:"output"`
	Comment       string `mapstructure:"comment" yaml:"comment,omitempty"`
	Plot          string `mapstructure:"plot" yaml:"plot,omitempty"`
	Chart         string `mapstructure:"chart" yaml:"chart,omitempty"`
	Resume        string `mapstructure:"resume" yaml:"resume,omitempty"`
}

type SimulateConfig struct {
	Mueller               string      `mapstructure:"mueller" yaml:"mueller,omitempty"`
	Lasers                [][]float64 `mapstructure:"lasers" yaml:"lasers"`
	Output                string      `mapstructure:"output" yaml:"output"`
	Append                bool        `mapstructure:"append" yaml:"append"`
	Raw                   bool        `mapstructure:"raw" yaml:"raw"`
	Silent                bool        `mapstructure:"silent" yaml:"silent"`
	UnpolarizedScattering bool        `mapstructure:"unpolarized_scattering" yaml:"unpolarized_scattering"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

// Config is the effective configuration: defaults, then config file, then
// POLARAM_* environment, then flags.
type Config struct {
	Store    string         `mapstructure:"store" yaml:"store"`
	Convert  ConvertConfig  `mapstructure:"convert" yaml:"convert"`
	Simulate SimulateConfig `mapstructure:"simulate" yaml:"simulate"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store", DefaultStore)

	v.SetDefault("convert.samples", DefaultSamples)
	v.SetDefault("convert.workers", DefaultWorkers)
	v.SetDefault("convert.chunk_size", DefaultChunkSize)
	v.SetDefault("convert.precision", DefaultPrecision)
	v.SetDefault("convert.seed", 0)
	v.SetDefault("convert.max_extensions", 0)
	v.SetDefault("convert.yes", false)
	v.SetDefault("convert.output", DefaultOutput)

	v.SetDefault("simulate.lasers", [][]float64{{Horizontal[0], Horizontal[1], Horizontal[2], Horizontal[3]}})
	v.SetDefault("simulate.output", DefaultSimOutput)

	v.SetDefault("log.level", DefaultLogLevel)
}

// NewViper returns a viper instance with defaults and POLARAM_ env binding.
// A non-empty cfgFile is read; its type follows the extension.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("POLARAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return v, nil
}

// LoadConfig unmarshals and validates the configuration held by v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return errors.Join(c.Convert.Validate(), c.Simulate.Validate())
}

func (c ConvertConfig) Validate() error {
	var errs []error
	positive := func(name string, x int64) {
		if x <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be a positive integer, got %d", ErrInvalidParameter, name, x))
		}
	}
	positive("samples", c.Samples)
	positive("workers", int64(c.Workers))
	positive("chunk-size", int64(c.ChunkSize))
	positive("precision", int64(c.Precision))
	if c.MaxExtensions < 0 {
		errs = append(errs, fmt.Errorf("%w: max-extensions must not be negative, got %d", ErrInvalidParameter, c.MaxExtensions))
	}
	if c.Output == "" {
		errs = append(errs, fmt.Errorf("%w: empty output path", ErrInvalidParameter))
	}
	return errors.Join(errs...)
}

func (c SimulateConfig) Validate() error {
	var errs []error
	for i, l := range c.Lasers {
		if _, err := StokesFromSlice(l); err != nil {
			errs = append(errs, fmt.Errorf("laser %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

// DumpConfig writes the effective configuration as YAML.
func DumpConfig(w io.Writer, c *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
