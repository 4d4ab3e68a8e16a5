package config

import (
	"path/filepath"
	"strings"

	"github.com/marmos91/dfsclient/pkg/dfs"
	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/provider/storage"
)

const (
	ProviderEmbedded = "embedded"
	ProviderHDFS     = "hdfs"
)

// ApplyDefaults fills zero values with defaults. Explicit values are
// preserved; store-specific options are defaulted by the stores.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)

	if cfg.Provider == "" {
		cfg.Provider = ProviderEmbedded
	}
	cfg.Provider = strings.ToLower(cfg.Provider)

	applyConnectionDefaults(&cfg.Connection)
	applyStorageDefaults(&cfg.Storage)
	applyClientDefaults(&cfg.Client)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		// stdout carries command output.
		cfg.Output = "stderr"
	}
}

func applyConnectionDefaults(cfg *ConnectionConfig) {
	if cfg.Service == "" {
		cfg.Service = provider.DefaultService
	}
	if cfg.UseHadoopEnv == nil {
		enabled := true
		cfg.UseHadoopEnv = &enabled
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Metadata.Type == "" {
		cfg.Metadata.Type = "memory"
	}
	if cfg.Metadata.Badger == nil {
		cfg.Metadata.Badger = make(map[string]any)
	}
	if _, ok := cfg.Metadata.Badger["db_path"]; !ok {
		cfg.Metadata.Badger["db_path"] = filepath.Join(getConfigDir(), "metadata")
	}

	if cfg.Content.Type == "" {
		cfg.Content.Type = "memory"
	}
	if cfg.Content.Filesystem == nil {
		cfg.Content.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Content.Filesystem["path"]; !ok {
		cfg.Content.Filesystem["path"] = filepath.Join(getConfigDir(), "content")
	}
	if cfg.Content.Compression.Algorithm == "" {
		cfg.Content.Compression.Algorithm = "none"
	}

	if cfg.DefaultBlockSize == 0 {
		cfg.DefaultBlockSize = ByteSize(storage.DefaultBlockSize)
	}
	if cfg.DefaultReplication == 0 {
		cfg.DefaultReplication = storage.DefaultReplication
	}
	if cfg.DeleteConcurrency == 0 {
		cfg.DeleteConcurrency = 8
	}
}

func applyClientDefaults(cfg *ClientConfig) {
	if cfg.MaxPathLength == 0 {
		cfg.MaxPathLength = dfs.DefaultMaxPathLength
	}
	if cfg.ReadChunkSize == 0 {
		cfg.ReadChunkSize = ByteSize(dfs.DefaultChunkSize)
	}
	if cfg.RateLimit.OpsPerSecond > 0 && cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = cfg.RateLimit.OpsPerSecond
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config with every default applied, used to
// generate sample files and in tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
