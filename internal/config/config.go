package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level projhist configuration.
type Config struct {
	Years           int           `mapstructure:"years"`
	OutputDir       string        `mapstructure:"output_dir"`
	RecognizedTypes []string      `mapstructure:"recognized_types"`
	ProjectTypes    []string      `mapstructure:"project_types"`
	Ignore          []string      `mapstructure:"ignore"`
	IgnoreMode      string        `mapstructure:"ignore_mode"`
	RowMode         string        `mapstructure:"row_mode"`
	Incremental     bool          `mapstructure:"incremental"`
	Workers         int           `mapstructure:"workers"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	WatchInterval   time.Duration `mapstructure:"watch_interval"`
	LogFile         string        `mapstructure:"log_file"`
	HistoryDB       string        `mapstructure:"history_db"`
	Output          Output        `mapstructure:"output"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Top   int  `mapstructure:"top"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. A .env file in the working
// directory is loaded into the environment first; variables already set
// take precedence over it.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("years", DefaultYears)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("recognized_types", DefaultRecognizedTypes)
	v.SetDefault("project_types", []string{})
	v.SetDefault("ignore", []string{})
	v.SetDefault("ignore_mode", DefaultIgnoreMode)
	v.SetDefault("row_mode", DefaultRowMode)
	v.SetDefault("incremental", false)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("query_timeout", DefaultQueryTimeout)
	v.SetDefault("watch_interval", DefaultWatchInterval)
	v.SetDefault("log_file", "")
	v.SetDefault("history_db", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.top", DefaultOutput.Top)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Environment values arrive as one string; accept comma-separated lists.
	cfg.RecognizedTypes = splitList(cfg.RecognizedTypes)
	cfg.ProjectTypes = splitList(cfg.ProjectTypes)
	cfg.Ignore = splitList(cfg.Ignore)

	cfg.OutputDir = expandPath(cfg.OutputDir)
	cfg.LogFile = expandPath(cfg.LogFile)
	cfg.HistoryDB = expandPath(cfg.HistoryDB)

	return &cfg, nil
}

// Validate checks values that no later stage would reject on its own.
func (c *Config) Validate() error {
	if c.Years < 1 {
		return fmt.Errorf("years must be at least 1, got %d", c.Years)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout must not be negative, got %s", c.QueryTimeout)
	}
	if len(c.RecognizedTypes) == 0 {
		return errors.New("recognized_types must list at least one extension")
	}
	return nil
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
