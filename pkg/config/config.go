// Package config provides configuration management for the tiersolve service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Solve     SolveConfig     `mapstructure:"solve"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Blobstore BlobstoreConfig `mapstructure:"blobstore"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Log       LogConfig       `mapstructure:"log"`
}

// SolveConfig holds solver-wide configuration.
type SolveConfig struct {
	DataPath      string `mapstructure:"data_path"`
	Threads       int    `mapstructure:"threads"` // 0 = runtime.NumCPU()
	DBChunkSize   int    `mapstructure:"db_chunk_size"`
	RMax          int    `mapstructure:"r_max"`
	Force         bool   `mapstructure:"force"`
	ConsistencyPR int    `mapstructure:"consistency_sample_pct"` // 0-100, consistency-check sample rate
}

// CatalogConfig holds the run/tier metadata catalog's connection configuration.
// The catalog stores one row per tier (status, size, timestamps), never one
// row per position — the hot (tier,position)->(value,remoteness) path lives
// in the chunked tier record files, not here.
type CatalogConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // sqlite, postgres, or mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// BlobstoreConfig holds optional archival-backend configuration for solved
// tier files.
type BlobstoreConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // local or cos
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`
	Scheme    string `mapstructure:"scheme"`
	LocalPath string `mapstructure:"local_path"`
}

// TelemetryConfig holds distributed-tracing configuration.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Protocol string `mapstructure:"protocol"` // grpc or http/protobuf
}

// DispatchConfig holds dispatcher configuration.
type DispatchConfig struct {
	Mode           string `mapstructure:"mode"` // inprocess or distributed
	SmallTierBound int    `mapstructure:"small_tier_bound"`
	SleepInterval  int    `mapstructure:"sleep_interval_ms"`
	ListenAddr     string `mapstructure:"listen_addr"` // distributed mode, rank-0 only
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("tiersolve")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tiersolve")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The only environment input the core reads is the thread-count override.
	v.BindEnv("solve.threads", "TIERSOLVE_THREADS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("solve.data_path", "./data")
	v.SetDefault("solve.threads", 0)
	v.SetDefault("solve.db_chunk_size", 4096)
	v.SetDefault("solve.r_max", 1023)
	v.SetDefault("solve.force", false)
	v.SetDefault("solve.consistency_sample_pct", 1)

	v.SetDefault("catalog.enabled", true)
	v.SetDefault("catalog.type", "sqlite")
	v.SetDefault("catalog.database", "tiersolve.db")
	v.SetDefault("catalog.max_conns", 10)

	v.SetDefault("blobstore.enabled", false)
	v.SetDefault("blobstore.type", "local")
	v.SetDefault("blobstore.local_path", "./archive")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.protocol", "grpc")

	v.SetDefault("dispatch.mode", "inprocess")
	v.SetDefault("dispatch.small_tier_bound", 0)
	v.SetDefault("dispatch.sleep_interval_ms", 250)
	v.SetDefault("dispatch.listen_addr", "127.0.0.1:9411")

	v.SetDefault("log.level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Solve.DataPath == "" {
		return fmt.Errorf("solve.data_path is required")
	}
	if c.Solve.RMax <= 0 {
		return fmt.Errorf("solve.r_max must be positive")
	}
	if c.Solve.DBChunkSize <= 0 {
		return fmt.Errorf("solve.db_chunk_size must be positive")
	}
	switch c.Catalog.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported catalog type: %s", c.Catalog.Type)
	}
	switch c.Dispatch.Mode {
	case "inprocess", "distributed":
	default:
		return fmt.Errorf("unsupported dispatch mode: %s", c.Dispatch.Mode)
	}
	return nil
}

// GameDir returns the data directory for a given game name.
func (c *Config) GameDir(game string) string {
	return filepath.Join(c.Solve.DataPath, game)
}

// VariantDir returns the data directory for a given game/variant pair —
// tier record files for canonical tiers live directly under this path.
func (c *Config) VariantDir(game, variant string) string {
	return filepath.Join(c.GameDir(game), variant)
}
