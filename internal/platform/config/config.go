// Package config assembles runtime configuration from an optional YAML file
// and environment variables so main stays lean. Environment variables always
// win over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults applied before the config file and environment are consulted.
const (
	DefaultAddr          = ":8080"
	DefaultModelDir      = "models"
	DefaultModelFile     = "credit_default_v1.json"
	DefaultSignatureFile = "credit_default_v1_input_signature.json"
	DefaultMetadataFile  = "credit_default_v1_metadata.json"
	DefaultLogLevel      = "info"
	DefaultMaxBatchRows  = 60000
)

// Config captures everything the server needs to start: listen address,
// artifact locations, logging, and request limits.
type Config struct {
	Addr          string
	ModelDir      string
	ModelFile     string
	SignatureFile string
	MetadataFile  string
	LogLevel      string
	MaxBatchRows  int
}

// fileConfig mirrors the optional YAML config file layout.
type fileConfig struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Model struct {
		Dir           string `yaml:"dir"`
		ModelFile     string `yaml:"model_file"`
		SignatureFile string `yaml:"signature_file"`
		MetadataFile  string `yaml:"metadata_file"`
	} `yaml:"model"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Limits struct {
		MaxBatchRows int `yaml:"max_batch_rows"`
	} `yaml:"limits"`
}

// Load builds the effective configuration. Precedence, lowest to highest:
// defaults, YAML file named by RISK_API_CONFIG, environment variables.
func Load() (Config, error) {
	cfg := Config{
		Addr:          DefaultAddr,
		ModelDir:      DefaultModelDir,
		ModelFile:     DefaultModelFile,
		SignatureFile: DefaultSignatureFile,
		MetadataFile:  DefaultMetadataFile,
		LogLevel:      DefaultLogLevel,
		MaxBatchRows:  DefaultMaxBatchRows,
	}

	if path := os.Getenv("RISK_API_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIfNotEmpty(&c.Addr, fc.Server.Addr)
	setIfNotEmpty(&c.ModelDir, fc.Model.Dir)
	setIfNotEmpty(&c.ModelFile, fc.Model.ModelFile)
	setIfNotEmpty(&c.SignatureFile, fc.Model.SignatureFile)
	setIfNotEmpty(&c.MetadataFile, fc.Model.MetadataFile)
	setIfNotEmpty(&c.LogLevel, fc.Log.Level)
	if fc.Limits.MaxBatchRows > 0 {
		c.MaxBatchRows = fc.Limits.MaxBatchRows
	}
	return nil
}

func (c *Config) applyEnv() error {
	setIfNotEmpty(&c.Addr, os.Getenv("RISK_API_ADDR"))
	setIfNotEmpty(&c.ModelDir, os.Getenv("MODEL_DIR"))
	setIfNotEmpty(&c.ModelFile, os.Getenv("MODEL_FILENAME"))
	setIfNotEmpty(&c.SignatureFile, os.Getenv("MODEL_SIGNATURE"))
	setIfNotEmpty(&c.MetadataFile, os.Getenv("MODEL_METADATA"))
	setIfNotEmpty(&c.LogLevel, os.Getenv("LOG_LEVEL"))

	if v := os.Getenv("MAX_BATCH_ROWS"); v != "" {
		rows, err := strconv.Atoi(v)
		if err != nil || rows <= 0 {
			return fmt.Errorf("MAX_BATCH_ROWS must be a positive integer, got %q", v)
		}
		c.MaxBatchRows = rows
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ModelPath returns the fully qualified path to the serialized model.
func (c Config) ModelPath() string {
	return filepath.Join(c.ModelDir, c.ModelFile)
}

// SignaturePath returns the path to the input signature JSON.
func (c Config) SignaturePath() string {
	return filepath.Join(c.ModelDir, c.SignatureFile)
}

// MetadataPath returns the path to the metadata JSON.
func (c Config) MetadataPath() string {
	return filepath.Join(c.ModelDir, c.MetadataFile)
}
