// Package config loads tabdiff settings from flags, environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/TFMV/tabdiff/pkg/readers"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable, e.g. TABDIFF_COMPARE_WORKERS.
const EnvPrefix = "TABDIFF"

// Configuration keys.
const (
	KeyStrictColumnOrder = "compare.strict_column_order"
	KeyNumberOfColumns   = "compare.number_of_columns"
	KeySeparator         = "compare.separator"
	KeyEngine            = "compare.engine"
	KeyWorkers           = "compare.workers"
	KeyRequireUniqueKey  = "compare.require_unique_key"
	KeyChunkSize         = "compare.chunk_size"
	KeyLogLevel          = "log.level"
)

// --- Configuration Structs ---

type CompareConfig struct {
	StrictColumnOrder bool   `mapstructure:"strict_column_order" yaml:"strict_column_order"`
	NumberOfColumns   int    `mapstructure:"number_of_columns" yaml:"number_of_columns"`
	Separator         string `mapstructure:"separator" yaml:"separator"`
	Engine            string `mapstructure:"engine" yaml:"engine"`
	Workers           int    `mapstructure:"workers" yaml:"workers"`
	RequireUniqueKey  bool   `mapstructure:"require_unique_key" yaml:"require_unique_key"`
	ChunkSize         int    `mapstructure:"chunk_size" yaml:"chunk_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type Config struct {
	Compare CompareConfig `mapstructure:"compare" yaml:"compare"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// --- Load Configuration ---

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStrictColumnOrder, false)
	v.SetDefault(KeyNumberOfColumns, 1)
	v.SetDefault(KeySeparator, ",")
	v.SetDefault(KeyEngine, readers.EngineArrow)
	v.SetDefault(KeyWorkers, 1)
	v.SetDefault(KeyRequireUniqueKey, false)
	v.SetDefault(KeyChunkSize, readers.DefaultChunkSize)
	v.SetDefault(KeyLogLevel, "warn")
}

// ReadConfigFile reads configPath, or looks for an optional .tabdiff.yaml in
// the given directories when configPath is empty.
func ReadConfigFile(v *viper.Viper, configPath string, searchDirs ...string) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
		return nil
	}

	v.SetConfigName(".tabdiff")
	v.SetConfigType("yaml")
	for _, dir := range searchDirs {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load unmarshals the merged settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

// Validate checks the configuration. When engines is not empty the engine
// must be one of them.
func (c *Config) Validate(engines ...string) error {
	if err := c.Compare.Validate(engines...); err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (cc *CompareConfig) Validate(engines ...string) error {
	if err := validate(cc.NumberOfColumns >= 1, "%w: number of columns is %d", core.ErrInvalidBatchSize, cc.NumberOfColumns); err != nil {
		return err
	}
	if _, err := cc.SeparatorRune(); err != nil {
		return err
	}
	if err := validate(cc.Workers >= 1, "workers must be at least 1, got %d", cc.Workers); err != nil {
		return err
	}
	if err := validate(cc.ChunkSize >= 1, "chunk size must be at least 1, got %d", cc.ChunkSize); err != nil {
		return err
	}
	if len(engines) > 0 {
		return validate(slices.Contains(engines, cc.Engine), "%w: %q (available: %s)",
			core.ErrUnknownEngine, cc.Engine, strings.Join(engines, ", "))
	}
	return nil
}

func (lc *LogConfig) Validate() error {
	_, err := lc.ZapLevel()
	return err
}

// ZapLevel parses the configured log level.
func (lc *LogConfig) ZapLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	return level, nil
}

// SeparatorRune returns the field delimiter. A literal `\t` means tab.
func (cc *CompareConfig) SeparatorRune() (rune, error) {
	sep := cc.Separator
	if sep == `\t` {
		sep = "\t"
	}
	if utf8.RuneCountInString(sep) != 1 {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidSeparator, cc.Separator)
	}
	r, _ := utf8.DecodeRuneInString(sep)
	if err := validate(readers.ValidSeparator(r), "%w: %q", core.ErrInvalidSeparator, cc.Separator); err != nil {
		return 0, err
	}
	return r, nil
}

// CompareOptions converts the comparison settings into core options.
func (cc *CompareConfig) CompareOptions() core.CompareOptions {
	return core.CompareOptions{
		StrictColumnOrder: cc.StrictColumnOrder,
		BatchSize:         cc.NumberOfColumns,
		Workers:           cc.Workers,
		RequireUniqueKey:  cc.RequireUniqueKey,
	}
}
