package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Defaults", func(*Config) {}, ""},
		{"InvalidLogLevel", func(c *Config) { c.Logging.Level = "TRACE" }, "Level"},
		{"LowercaseLogLevel", func(c *Config) { c.Logging.Level = "debug" }, ""},
		{"InvalidLogFormat", func(c *Config) { c.Logging.Format = "xml" }, "Format"},
		{"InvalidProvider", func(c *Config) { c.Provider = "webhdfs" }, "Provider"},
		{"EmptyService", func(c *Config) { c.Connection.Service = "" }, "Service"},
		{"PortTooLarge", func(c *Config) { c.Connection.Port = 70000 }, "Port"},
		{"NegativePort", func(c *Config) { c.Connection.Port = -1 }, "Port"},
		{"InvalidMetadataType", func(c *Config) { c.Storage.Metadata.Type = "postgres" }, "Metadata.Type"},
		{"InvalidContentType", func(c *Config) { c.Storage.Content.Type = "gcs" }, "Content.Type"},
		{"InvalidCompression", func(c *Config) { c.Storage.Content.Compression.Algorithm = "brotli" }, "Algorithm"},
		{"CompressionLevelTooHigh", func(c *Config) { c.Storage.Content.Compression.Level = 23 }, "Level"},
		{"ReplicationTooHigh", func(c *Config) { c.Storage.DefaultReplication = 513 }, "DefaultReplication"},
		{"NegativeBlockSize", func(c *Config) { c.Storage.DefaultBlockSize = -1 }, "DefaultBlockSize"},
		{"S3WithoutSection", func(c *Config) { c.Storage.Content.Type = "s3" }, "s3 section is empty"},
		{"MinioWithoutSection", func(c *Config) { c.Storage.Content.Type = "minio" }, "minio section is empty"},
		{"S3IgnoredForHDFS", func(c *Config) {
			c.Provider = ProviderHDFS
			c.Storage.Content.Type = "s3"
		}, ""},
		{"BurstWithoutRate", func(c *Config) { c.Client.RateLimit.Burst = 10 }, "burst set without ops_per_second"},
		{"TokenAndKerberos", func(c *Config) {
			c.Connection.AuthToken = "token"
			c.Connection.KerbTicketCachePath = "/tmp/krb5cc_1000"
		}, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
