package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/internal/ratelimiter"
	"github.com/marmos91/dfsclient/pkg/dfs"
	"github.com/marmos91/dfsclient/pkg/gc"
	"github.com/marmos91/dfsclient/pkg/metrics"
	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/provider/hdfs"
	"github.com/marmos91/dfsclient/pkg/provider/storage"
)

// Client is a connected facade together with the stores behind it.
type Client struct {
	*dfs.FileSystem

	release func() error
}

// Close closes the connection, then the provider's stores.
func (c *Client) Close() error {
	err := c.FileSystem.Close()
	if c.release != nil {
		err = errors.Join(err, c.release())
	}
	return err
}

// CreateDialer builds the provider selected by cfg.Provider. The returned
// release func frees what the dialer owns and is never nil.
func CreateDialer(ctx context.Context, cfg *Config) (provider.Dialer, func() error, error) {
	switch cfg.Provider {
	case ProviderHDFS:
		return hdfs.NewDialer(), func() error { return nil }, nil
	case ProviderEmbedded:
		fs, err := createEmbedded(ctx, &cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		return fs, fs.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider: %q (supported: embedded, hdfs)", cfg.Provider)
	}
}

func createEmbedded(ctx context.Context, cfg *StorageConfig) (*storage.Filesystem, error) {
	meta, err := CreateMetadataStore(ctx, &cfg.Metadata)
	if err != nil {
		return nil, err
	}

	blobs, err := CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		_ = meta.Close()
		return nil, err
	}

	fs, err := storage.New(storage.Config{
		Metadata:           meta,
		Content:            blobs,
		DefaultBlockSize:   int64(cfg.DefaultBlockSize),
		DefaultReplication: cfg.DefaultReplication,
		DeleteConcurrency:  cfg.DeleteConcurrency,
	})
	if err != nil {
		// Blobs written by an earlier run stay in the content store until gc.
		logger.Debug("embedded provider setup failed, releasing metadata store",
			"metadata", cfg.Metadata.Type, "content", cfg.Content.Type, logger.KeyError, err)
		_ = meta.Close()
		return nil, err
	}

	logger.Debug("embedded provider ready",
		"metadata", cfg.Metadata.Type, "content", cfg.Content.Type,
		"compression", cfg.Content.Compression.Algorithm)
	return fs, nil
}

// FacadeOptions translates the client section into facade options.
// Metrics are attached when the global registry is initialized.
func FacadeOptions(cfg *Config) []dfs.Option {
	opts := []dfs.Option{
		dfs.WithMaxPathLength(cfg.Client.MaxPathLength),
		dfs.WithReadChunkSize(int(cfg.Client.ReadChunkSize)),
		dfs.WithMetrics(metrics.NewDFSMetrics()),
	}
	if rl := cfg.Client.RateLimit; rl.OpsPerSecond > 0 {
		opts = append(opts, dfs.WithRateLimiter(ratelimiter.New(rl.OpsPerSecond, rl.Burst)))
	}
	return opts
}

// Connect builds the provider and dials it with the connection section.
func Connect(ctx context.Context, cfg *Config) (*Client, error) {
	dialer, release, err := CreateDialer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	params := cfg.Connection.Params()
	logger.Debug("connecting", logger.KeyBackend, cfg.Provider, logger.KeyService, params.Service,
		"config_path", params.ConfigPath)

	fs, err := dfs.Connect(ctx, dialer, params, FacadeOptions(cfg)...)
	if err != nil {
		_ = release()
		return nil, err
	}
	return &Client{FileSystem: fs, release: release}, nil
}

// CollectGarbage deletes the blobs of the configured content store that no
// namespace entry references. Only the embedded provider owns its stores.
// A zero gcCfg.Concurrency uses storage.delete_concurrency.
func CollectGarbage(ctx context.Context, cfg *Config, gcCfg gc.Config) (*gc.Stats, error) {
	if cfg.Provider != ProviderEmbedded {
		return nil, fmt.Errorf("garbage collection with provider %q: %w", cfg.Provider, provider.ErrNotSupported)
	}
	if gcCfg.Concurrency == 0 {
		gcCfg.Concurrency = cfg.Storage.DeleteConcurrency
	}

	meta, err := CreateMetadataStore(ctx, &cfg.Storage.Metadata)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := meta.Close(); err != nil {
			logger.Warn("failed to close metadata store", logger.KeyError, err)
		}
	}()

	blobs, err := CreateContentStore(ctx, &cfg.Storage.Content)
	if err != nil {
		return nil, err
	}

	collector, err := gc.NewCollector(meta, blobs, gcCfg)
	if err != nil {
		return nil, fmt.Errorf("garbage collection: %w", errors.Join(err, provider.ErrNotSupported))
	}
	return collector.Collect(ctx)
}
