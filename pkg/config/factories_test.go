package config

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/gc"
	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/provider/hdfs"
	"github.com/marmos91/dfsclient/pkg/provider/storage"
	"github.com/marmos91/dfsclient/pkg/store/content"
	"github.com/marmos91/dfsclient/pkg/store/content/compress"
	contentfs "github.com/marmos91/dfsclient/pkg/store/content/fs"
	contentmemory "github.com/marmos91/dfsclient/pkg/store/content/memory"
	"github.com/marmos91/dfsclient/pkg/store/metadata/badger"
	metadatamemory "github.com/marmos91/dfsclient/pkg/store/metadata/memory"
)

func TestCreateMetadataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		store, err := CreateMetadataStore(ctx, &MetadataConfig{Type: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &metadatamemory.MemoryMetadataStore{}, store)
		require.NoError(t, store.Close())
	})

	t.Run("Badger", func(t *testing.T) {
		store, err := CreateMetadataStore(ctx, &MetadataConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": t.TempDir(), "block_cache_size_mb": "16"},
		})
		require.NoError(t, err)
		assert.IsType(t, &badger.BadgerMetadataStore{}, store)
		require.NoError(t, store.Close())
	})

	t.Run("BadgerInMemory", func(t *testing.T) {
		store, err := CreateMetadataStore(ctx, &MetadataConfig{
			Type:   "badger",
			Badger: map[string]any{"in_memory": "true"},
		})
		require.NoError(t, err)
		require.NoError(t, store.Close())
	})

	t.Run("BadgerMissingPath", func(t *testing.T) {
		_, err := CreateMetadataStore(ctx, &MetadataConfig{Type: "badger"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_path is required")
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := CreateMetadataStore(ctx, &MetadataConfig{Type: "postgres"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown metadata store type")
	})

	t.Run("ContextCanceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := CreateMetadataStore(canceled, &MetadataConfig{Type: "memory"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCreateContentStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		store, err := CreateContentStore(ctx, &ContentConfig{Type: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &contentmemory.MemoryContentStore{}, store)
	})

	t.Run("Filesystem", func(t *testing.T) {
		store, err := CreateContentStore(ctx, &ContentConfig{
			Type:       "filesystem",
			Filesystem: map[string]any{"path": t.TempDir()},
		})
		require.NoError(t, err)
		assert.IsType(t, &contentfs.FSContentStore{}, store)
	})

	t.Run("FilesystemMissingPath", func(t *testing.T) {
		_, err := CreateContentStore(ctx, &ContentConfig{Type: "filesystem"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path is required")
	})

	t.Run("Compressed", func(t *testing.T) {
		store, err := CreateContentStore(ctx, &ContentConfig{
			Type:        "memory",
			Compression: CompressionConfig{Algorithm: "lz4", Level: 4},
		})
		require.NoError(t, err)
		require.IsType(t, &compress.Store{}, store)
		assert.Equal(t, compress.LZ4, store.(*compress.Store).Algorithm())
	})

	t.Run("UnknownCompression", func(t *testing.T) {
		_, err := CreateContentStore(ctx, &ContentConfig{
			Type:        "memory",
			Compression: CompressionConfig{Algorithm: "brotli"},
		})
		assert.Error(t, err)
	})

	t.Run("S3MissingBucket", func(t *testing.T) {
		_, err := CreateContentStore(ctx, &ContentConfig{
			Type: "s3",
			S3:   map[string]any{"region": "us-east-1"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("S3MissingRegion", func(t *testing.T) {
		_, err := CreateContentStore(ctx, &ContentConfig{
			Type: "s3",
			S3:   map[string]any{"bucket": "blobs"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "region is required")
	})

	t.Run("MinioMissingEndpoint", func(t *testing.T) {
		_, err := CreateContentStore(ctx, &ContentConfig{
			Type:  "minio",
			Minio: map[string]any{"bucket": "blobs"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "endpoint is required")
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := CreateContentStore(ctx, &ContentConfig{Type: "gcs"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown content store type")
	})
}

func TestNewS3Client(t *testing.T) {
	client, err := newS3Client(context.Background(), s3YAMLConfig{
		Endpoint:        "http://localhost:4566",
		Region:          "us-east-1",
		Bucket:          "blobs",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.True(t, opts.UsePathStyle)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:4566", *opts.BaseEndpoint)
	assert.Equal(t, "us-east-1", opts.Region)
}

func TestNewMinioClient(t *testing.T) {
	client, err := newMinioClient(minioYAMLConfig{
		Endpoint:        "localhost:9000",
		Bucket:          "blobs",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", client.EndpointURL().Host)
	assert.Equal(t, "http", client.EndpointURL().Scheme)
}

func TestCreateDialer(t *testing.T) {
	ctx := context.Background()

	cfg := GetDefaultConfig()
	cfg.Provider = ProviderHDFS
	d, release, err := CreateDialer(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &hdfs.Dialer{}, d)
	assert.NoError(t, release())

	cfg = GetDefaultConfig()
	d, release, err = CreateDialer(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.Filesystem{}, d)
	assert.NoError(t, release())

	cfg.Provider = "webhdfs"
	_, _, err = CreateDialer(ctx, cfg)
	assert.Error(t, err)
}

func TestFacadeOptions(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.Len(t, FacadeOptions(cfg), 3)

	cfg.Client.RateLimit = RateLimitConfig{OpsPerSecond: 100, Burst: 10}
	assert.Len(t, FacadeOptions(cfg), 4)
}

func TestConnect_Embedded(t *testing.T) {
	ctx := context.Background()

	cfg := GetDefaultConfig()
	cfg.Connection.User = "alice"
	cfg.Storage.Metadata = MetadataConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": t.TempDir()},
	}
	cfg.Storage.Content = ContentConfig{
		Type:        "filesystem",
		Filesystem:  map[string]any{"path": t.TempDir()},
		Compression: CompressionConfig{Algorithm: "zstd"},
	}
	cfg.Storage.DefaultReplication = 2

	client, err := Connect(ctx, cfg)
	require.NoError(t, err)

	payload := []byte("hello from the embedded provider\n")
	require.NoError(t, client.WriteFile(ctx, "/data/hello.txt", payload, provider.WriteOptions{}))

	got, err := client.ReadFile(ctx, "/data/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	info, err := client.Stats(ctx, "/data/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), info.Size)
	assert.Equal(t, int16(2), info.Replication)
	assert.Equal(t, "alice", info.Owner)

	require.NoError(t, client.Close())
}

func TestCollectGarbage(t *testing.T) {
	ctx := context.Background()

	blobDir := t.TempDir()
	cfg := GetDefaultConfig()
	cfg.Storage.Metadata = MetadataConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": t.TempDir()},
	}
	cfg.Storage.Content = ContentConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"path": blobDir},
	}

	client, err := Connect(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, client.WriteFile(ctx, "/kept", []byte("kept"), provider.WriteOptions{}))
	require.NoError(t, client.Close())

	blobs, err := contentfs.NewFSContentStore(ctx, blobDir)
	require.NoError(t, err)
	w, err := blobs.OpenWriter(ctx, content.NewID())
	require.NoError(t, err)
	_, err = w.Write([]byte("orphan"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	stats, err := CollectGarbage(ctx, cfg, gc.Config{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.OrphanedCount)
	assert.Zero(t, stats.DeletedCount)

	stats, err = CollectGarbage(ctx, cfg, gc.Config{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.DeletedCount)

	ids, err := blobs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	client, err = Connect(ctx, cfg)
	require.NoError(t, err)
	got, err := client.ReadFile(ctx, "/kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got)
	require.NoError(t, client.Close())
}

func TestCollectGarbage_HDFS(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Provider = ProviderHDFS

	_, err := CollectGarbage(context.Background(), cfg, gc.Config{})
	assert.ErrorIs(t, err, provider.ErrNotSupported)
}

func TestCreateEmbedded_ProviderFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "DEBUG", "text")
	t.Cleanup(func() { logger.InitWithWriter(os.Stderr, "INFO", "text") })

	cfg := &StorageConfig{
		Metadata:           MetadataConfig{Type: "memory"},
		Content:            ContentConfig{Type: "memory"},
		DefaultReplication: storage.MaxReplication + 1,
	}

	fs, err := createEmbedded(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, fs)
	assert.Contains(t, buf.String(), "embedded provider setup failed")
	assert.Contains(t, buf.String(), "content=memory")
}
