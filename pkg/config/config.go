package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// DFSCLIENT_CONNECTION_SERVICE=prod.
const EnvPrefix = "DFSCLIENT"

// Config is the complete dfsclient configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DFSCLIENT_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store sections follow one pattern: Type selects the implementation and
// only the map matching Type is decoded, by the store's own factory.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Provider selects the filesystem backend: embedded or hdfs.
	Provider string `mapstructure:"provider" yaml:"provider" validate:"required,oneof=embedded hdfs"`

	// Connection describes how to reach the filesystem.
	Connection ConnectionConfig `mapstructure:"connection" yaml:"connection"`

	// Storage configures the embedded provider. Ignored for hdfs.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	Client ClientConfig `mapstructure:"client" yaml:"client"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (normalized to uppercase).
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output is stdout, stderr or a file path.
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ConnectionConfig holds the connection parameters and the inputs of Hadoop
// configuration resolution.
type ConnectionConfig struct {
	// Service is a namenode host, an HA nameservice, or "default".
	Service string `mapstructure:"service" yaml:"service" validate:"required"`

	// Port of the namenode; 0 resolves it from the Hadoop configuration.
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`

	User string `mapstructure:"user" yaml:"user"`

	KerbTicketCachePath string `mapstructure:"kerb_ticket_cache_path" yaml:"kerb_ticket_cache_path"`

	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`

	// HadoopConfPath is an explicit hdfs-site.xml path.
	HadoopConfPath string `mapstructure:"hadoop_conf_path" yaml:"hadoop_conf_path"`

	// UseHadoopEnv consults HADOOP_CONF_DIR and HADOOP_INSTALL when no
	// explicit or LIBHDFS3_CONF path applies. Default: true.
	UseHadoopEnv *bool `mapstructure:"use_hadoop_env" yaml:"use_hadoop_env"`
}

// HadoopEnvEnabled reports UseHadoopEnv, treating unset as true.
func (c ConnectionConfig) HadoopEnvEnabled() bool {
	return c.UseHadoopEnv == nil || *c.UseHadoopEnv
}

// StorageConfig configures the embedded provider's stores.
type StorageConfig struct {
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`
	Content  ContentConfig  `mapstructure:"content" yaml:"content"`

	// DefaultBlockSize accepts Hadoop sizes such as "128m".
	DefaultBlockSize ByteSize `mapstructure:"default_block_size" yaml:"default_block_size" validate:"gte=0"`

	DefaultReplication int16 `mapstructure:"default_replication" yaml:"default_replication" validate:"gte=0,lte=512"`

	// DeleteConcurrency bounds parallel blob deletions of a recursive delete.
	DeleteConcurrency int `mapstructure:"delete_concurrency" yaml:"delete_concurrency" validate:"gte=0"`
}

// MetadataConfig selects the namespace store.
type MetadataConfig struct {
	// Type is memory or badger.
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Badger is decoded into badger.BadgerMetadataStoreConfig.
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
}

// ContentConfig selects the blob store.
type ContentConfig struct {
	// Type is memory, filesystem, s3 or minio.
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory filesystem s3 minio"`

	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`
	S3         map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
	Minio      map[string]any `mapstructure:"minio" yaml:"minio,omitempty"`

	Compression CompressionConfig `mapstructure:"compression" yaml:"compression"`
}

// CompressionConfig wraps the content store in a stream codec.
type CompressionConfig struct {
	// Algorithm is none, zstd or lz4.
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm" validate:"omitempty,oneof=none zstd lz4"`

	// Level is codec specific; 0 selects the codec default.
	Level int `mapstructure:"level" yaml:"level" validate:"gte=0,lte=22"`
}

// ClientConfig tunes the facade.
type ClientConfig struct {
	// MaxPathLength bounds the working directory.
	MaxPathLength int `mapstructure:"max_path_length" yaml:"max_path_length" validate:"gte=0"`

	// ReadChunkSize is the default ReadChunk size.
	ReadChunkSize ByteSize `mapstructure:"read_chunk_size" yaml:"read_chunk_size" validate:"gte=0"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig throttles one-shot operations. Zero disables throttling.
type RateLimitConfig struct {
	OpsPerSecond uint `mapstructure:"ops_per_second" yaml:"ops_per_second"`
	Burst        uint `mapstructure:"burst" yaml:"burst"`
}

// MetricsConfig controls Prometheus collection and its HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath uses the default location; a missing file is not an
// error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg, err := decode(v.AllSettings())
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setupViper configures environment overrides and the config file location.
func setupViper(v *viper.Viper, configPath string) {
	// DFSCLIENT_LOGGING_LEVEL=DEBUG overrides logging.level.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, reflect.TypeOf(Config{}), "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// bindEnvs registers every leaf key so AutomaticEnv applies even when the
// key is absent from the file.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		switch f.Type.Kind() {
		case reflect.Struct:
			bindEnvs(v, f.Type, key)
		case reflect.Map:
		default:
			_ = v.BindEnv(key)
		}
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// decode maps viper settings onto Config, converting durations and Hadoop
// size strings.
func decode(settings map[string]any) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			byteSizeHook(),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// getConfigDir returns $XDG_CONFIG_HOME/dfsclient, ~/.config/dfsclient, or
// "." when no home directory is known.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dfsclient")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dfsclient")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
