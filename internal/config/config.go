// Package config loads the stlview command configuration.
//
// Values are resolved in order: defaults, YAML file, STLVIEW_* environment
// variables. Command line flags are applied last by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/soypat/stlview/render"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "STLVIEW_"

// Config is the complete command configuration.
type Config struct {
	Render render.Config `yaml:"render"`
	// Camera holds initial parameter edits. Unset fields keep the defaults.
	Camera Camera `yaml:"camera"`
	// MaxFileSize in bytes, zero for no limit.
	MaxFileSize int64 `yaml:"max_file_size"`
	// Output is the path the rendered JPEG is written to.
	Output string `yaml:"output"`
	// DataURL prints the image as a data URL instead of a blob handle.
	DataURL bool `yaml:"data_url"`
	Log     Log  `yaml:"log"`
}

// Camera edits expressed as text, exactly as a user would type them.
type Camera struct {
	From   []string `yaml:"from"` // x, y, z
	To     []string `yaml:"to"`
	Width  string   `yaml:"width"`
	Height string   `yaml:"height"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Render:      render.DefaultConfig(),
		MaxFileSize: 64 << 20,
		Output:      "render.jpg",
		Log:         Log{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := decode(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func decode(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	if errors.Is(err, io.EOF) {
		return nil // Empty file.
	}
	return err
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = i
		return nil
	}
	str("OUTPUT", &cfg.Output)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("BACKGROUND", &cfg.Render.Background)
	str("OBJECT_COLOR", &cfg.Render.Object)
	if err := integer("QUALITY", &cfg.Render.Quality); err != nil {
		return err
	}
	if err := integer("SUPERSAMPLE", &cfg.Render.Supersample); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "MAX_FILE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_FILE_SIZE: %w", EnvPrefix, err)
		}
		cfg.MaxFileSize = n
	}
	return nil
}

// Validate checks values that cannot be corrected by defaults.
func (c Config) Validate() error {
	if len(c.Camera.From) != 0 && len(c.Camera.From) != 3 {
		return fmt.Errorf("camera.from needs 3 components, got %d", len(c.Camera.From))
	}
	if len(c.Camera.To) != 0 && len(c.Camera.To) != 3 {
		return fmt.Errorf("camera.to needs 3 components, got %d", len(c.Camera.To))
	}
	if c.MaxFileSize < 0 {
		return errors.New("max_file_size must not be negative")
	}
	if c.Output == "" {
		return errors.New("empty output path")
	}
	_, err := zap.ParseAtomicLevel(c.Log.Level)
	return err
}

// Logger builds the zap logger described by l.
func (l Log) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if l.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
