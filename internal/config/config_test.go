// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".fix-error-backup", cfg.Patch.BackupDir)
	assert.Equal(t, ".fix-error-history.json", cfg.Patch.HistoryFile)
	assert.Equal(t, 0.8, cfg.Patch.FuzzyThreshold)
	assert.Equal(t, 0.3, cfg.Classifier.MinConfidence)
	assert.Equal(t, 500, cfg.Classifier.RawErrorLimit)
	assert.Equal(t, 5*time.Second, cfg.Validator.Timeout)
	assert.True(t, cfg.Validator.ExternalTools)
	assert.False(t, cfg.Validator.FailClosed)
	assert.Equal(t, 7, cfg.Backup.RetentionDays)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
patch:
  fuzzy_threshold: 0.9
  backup_dir: .backups
validator:
  timeout: 2s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName+".yaml"), []byte(yaml), 0o644))
	t.Setenv("ROOTCAUSE_CLASSIFIER_MIN_CONFIDENCE", "0.5")

	v := viper.New()
	require.NoError(t, Setup(v, dir))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Patch.FuzzyThreshold)
	assert.Equal(t, ".backups", cfg.Patch.BackupDir)
	assert.Equal(t, 2*time.Second, cfg.Validator.Timeout)
	assert.Equal(t, 0.5, cfg.Classifier.MinConfidence)
	assert.Equal(t, ".fix-error-history.json", cfg.Patch.HistoryFile)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, Setup(v, t.TempDir()))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Patch.Concurrency)
}

func TestSetup_DotEnvFromSearchDir(t *testing.T) {
	tests := []struct {
		name   string
		preset string
		want   int
	}{
		{name: "loaded from project dir", want: 123},
		{name: "existing variable wins", preset: "77", want: 77},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "ROOTCAUSE_CLASSIFIER_RAW_ERROR_LIMIT"
			t.Setenv(key, tt.preset)
			if tt.preset == "" {
				require.NoError(t, os.Unsetenv(key))
			}

			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=123\n"), 0o644))

			v := viper.New()
			require.NoError(t, Setup(v, dir, t.TempDir()))
			cfg, err := Load(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Classifier.RawErrorLimit)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero threshold", func(c *Config) { c.Patch.FuzzyThreshold = 0 }, "patch.fuzzy_threshold"},
		{"threshold above one", func(c *Config) { c.Patch.FuzzyThreshold = 1.5 }, "patch.fuzzy_threshold"},
		{"no concurrency", func(c *Config) { c.Patch.Concurrency = 0 }, "patch.concurrency"},
		{"empty backup dir", func(c *Config) { c.Patch.BackupDir = "" }, "patch.backup_dir"},
		{"bad confidence", func(c *Config) { c.Classifier.MinConfidence = -0.1 }, "classifier.min_confidence"},
		{"no timeout", func(c *Config) { c.Validator.Timeout = 0 }, "validator.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
