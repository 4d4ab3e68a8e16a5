package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/metrics"
	"github.com/marmos91/dfsclient/pkg/store/content"
	"github.com/marmos91/dfsclient/pkg/store/content/compress"
	contentfs "github.com/marmos91/dfsclient/pkg/store/content/fs"
	contentmemory "github.com/marmos91/dfsclient/pkg/store/content/memory"
	contentminio "github.com/marmos91/dfsclient/pkg/store/content/minio"
	"github.com/marmos91/dfsclient/pkg/store/content/s3"
	"github.com/marmos91/dfsclient/pkg/store/metadata"
	"github.com/marmos91/dfsclient/pkg/store/metadata/badger"
	metadatamemory "github.com/marmos91/dfsclient/pkg/store/metadata/memory"
)

// s3YAMLConfig is the storage.content.s3 section.
type s3YAMLConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	PartSize        int64  `mapstructure:"part_size"`
	Concurrency     int    `mapstructure:"concurrency"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// minioYAMLConfig is the storage.content.minio section.
type minioYAMLConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// decodeOptions decodes a store section with weak typing so values coming
// from environment strings still land in numeric fields.
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			byteSizeHook(),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// CreateMetadataStore creates the namespace store selected by cfg.Type.
func CreateMetadataStore(ctx context.Context, cfg *MetadataConfig) (metadata.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		return metadatamemory.NewMemoryMetadataStore(), nil
	case "badger":
		var badgerCfg badger.BadgerMetadataStoreConfig
		if err := decodeOptions(cfg.Badger, &badgerCfg); err != nil {
			return nil, fmt.Errorf("invalid badger config: %w", err)
		}
		if badgerCfg.DBPath == "" && !badgerCfg.InMemory {
			return nil, fmt.Errorf("badger metadata store: db_path is required")
		}
		store, err := badger.NewBadgerMetadataStore(ctx, badgerCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// CreateContentStore creates the blob store selected by cfg.Type and wraps
// it in the configured compression.
func CreateContentStore(ctx context.Context, cfg *ContentConfig) (content.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		store content.Store
		err   error
	)
	switch cfg.Type {
	case "memory":
		store, err = contentmemory.NewMemoryContentStore(ctx)
	case "filesystem":
		store, err = createFilesystemContentStore(ctx, cfg.Filesystem)
	case "s3":
		store, err = createS3ContentStore(ctx, cfg.S3)
	case "minio":
		store, err = createMinioContentStore(ctx, cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	algo, err := compress.ParseAlgorithm(cfg.Compression.Algorithm)
	if err != nil {
		return nil, err
	}
	return compress.Wrap(store, algo, cfg.Compression.Level)
}

func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	var fsCfg struct {
		Path string `mapstructure:"path"`
	}
	if err := decodeOptions(options, &fsCfg); err != nil {
		return nil, fmt.Errorf("invalid filesystem config: %w", err)
	}
	if fsCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentfs.NewFSContentStore(ctx, fsCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filesystem store: %w", err)
	}
	return store, nil
}

func createS3ContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	var yamlCfg s3YAMLConfig
	if err := decodeOptions(options, &yamlCfg); err != nil {
		return nil, fmt.Errorf("invalid S3 config: %w", err)
	}

	client, err := newS3Client(ctx, yamlCfg)
	if err != nil {
		return nil, err
	}

	store, err := s3.NewS3ContentStore(ctx, s3.S3ContentStoreConfig{
		Client:      client,
		Bucket:      yamlCfg.Bucket,
		KeyPrefix:   yamlCfg.KeyPrefix,
		PartSize:    yamlCfg.PartSize,
		Concurrency: yamlCfg.Concurrency,
		Metrics:     metrics.NewS3Metrics(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 store: %w", err)
	}

	logger.Debug("S3 content store initialized",
		"bucket", yamlCfg.Bucket, "region", yamlCfg.Region, "prefix", yamlCfg.KeyPrefix)
	return store, nil
}

// newS3Client builds an S3 client. A custom endpoint (MinIO, Localstack)
// implies path-style addressing.
func newS3Client(ctx context.Context, cfg s3YAMLConfig) (*awss3.Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}

	// Without static keys the default credential chain applies.
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle || cfg.Endpoint != ""
	}), nil
}

func createMinioContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	var yamlCfg minioYAMLConfig
	if err := decodeOptions(options, &yamlCfg); err != nil {
		return nil, fmt.Errorf("invalid minio config: %w", err)
	}

	client, err := newMinioClient(yamlCfg)
	if err != nil {
		return nil, err
	}

	store, err := contentminio.NewMinioContentStore(ctx, client, yamlCfg.Bucket, yamlCfg.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio store: %w", err)
	}
	return store, nil
}

// newMinioClient builds a MinIO client with static credentials.
func newMinioClient(cfg minioYAMLConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio content store: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio content store: bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}
