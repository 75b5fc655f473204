// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads rootcause settings from defaults, an optional
// .rootcause.yaml, a .env file and ROOTCAUSE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// ROOTCAUSE_PATCH_FUZZY_THRESHOLD.
const EnvPrefix = "ROOTCAUSE"

// FileName is the config file searched for in the project root and home.
const FileName = ".rootcause"

// Config is the complete runtime configuration.
type Config struct {
	Project    ProjectConfig    `mapstructure:"project" yaml:"project"`
	Patch      PatchConfig      `mapstructure:"patch" yaml:"patch"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Validator  ValidatorConfig  `mapstructure:"validator" yaml:"validator"`
	Backup     BackupConfig     `mapstructure:"backup" yaml:"backup"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
}

// ProjectConfig locates the project. An empty Root means the enclosing git
// worktree, or the working directory outside of git.
type ProjectConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

// PatchConfig controls the patch engine.
type PatchConfig struct {
	BackupDir      string  `mapstructure:"backup_dir" yaml:"backup_dir"`
	HistoryFile    string  `mapstructure:"history_file" yaml:"history_file"`
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	Concurrency    int     `mapstructure:"concurrency" yaml:"concurrency"`
}

// ClassifierConfig controls parser selection.
type ClassifierConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	RawErrorLimit int     `mapstructure:"raw_error_limit" yaml:"raw_error_limit"`
}

// ValidatorConfig controls syntax checking of proposed content.
type ValidatorConfig struct {
	ExternalTools bool          `mapstructure:"external_tools" yaml:"external_tools"`
	FailClosed    bool          `mapstructure:"fail_closed" yaml:"fail_closed"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheSize     int           `mapstructure:"cache_size" yaml:"cache_size"`
}

// BackupConfig controls backup retention.
type BackupConfig struct {
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`
}

// WatchConfig controls log following.
type WatchConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`
	FromStart     bool          `mapstructure:"from_start" yaml:"from_start"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project.root", "")

	v.SetDefault("patch.backup_dir", ".fix-error-backup")
	v.SetDefault("patch.history_file", ".fix-error-history.json")
	v.SetDefault("patch.fuzzy_threshold", 0.8)
	v.SetDefault("patch.concurrency", 4)

	v.SetDefault("classifier.min_confidence", 0.3)
	v.SetDefault("classifier.raw_error_limit", 500)

	v.SetDefault("validator.external_tools", true)
	v.SetDefault("validator.fail_closed", false)
	v.SetDefault("validator.timeout", 5*time.Second)
	v.SetDefault("validator.cache_size", 128)

	v.SetDefault("backup.retention_days", 7)

	v.SetDefault("watch.flush_interval", 500*time.Millisecond)
	v.SetDefault("watch.from_start", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rootcause")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Setup prepares v for Load: defaults, env binding and the config search
// path. The .env file in the first search directory (the process working
// directory when none is given) is loaded into the environment first; a
// missing one is not an error. Variables already set are kept.
func Setup(v *viper.Viper, searchDirs ...string) error {
	envFile := ".env"
	if len(searchDirs) > 0 {
		envFile = filepath.Join(searchDirs[0], ".env")
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	for _, dir := range searchDirs {
		v.AddConfigPath(dir)
	}
	return nil
}

// Load reads the config file if one is found and returns the validated
// configuration. v must already carry defaults (see Setup).
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Patch.FuzzyThreshold <= 0 || c.Patch.FuzzyThreshold > 1 {
		return fmt.Errorf("patch.fuzzy_threshold must be in (0, 1]")
	}
	if c.Patch.Concurrency <= 0 {
		return fmt.Errorf("patch.concurrency must be a positive integer")
	}
	if c.Patch.BackupDir == "" {
		return fmt.Errorf("patch.backup_dir is required")
	}
	if c.Patch.HistoryFile == "" {
		return fmt.Errorf("patch.history_file is required")
	}
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("classifier.min_confidence must be between 0.0 and 1.0")
	}
	if c.Classifier.RawErrorLimit <= 0 {
		return fmt.Errorf("classifier.raw_error_limit must be a positive integer")
	}
	if c.Validator.Timeout <= 0 {
		return fmt.Errorf("validator.timeout must be a positive duration")
	}
	if c.Validator.CacheSize < 0 {
		return fmt.Errorf("validator.cache_size must not be negative")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup.retention_days must not be negative")
	}
	return nil
}
