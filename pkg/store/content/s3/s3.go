// Package s3 implements content storage on Amazon S3 or any S3-compatible
// service.
//
// Each blob is one object under an optional key prefix. Writes stream
// through the SDK upload manager, which switches to multipart uploads for
// large blobs.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

const (
	minPartSize     = 5 * 1024 * 1024
	maxPartSize     = 5 * 1024 * 1024 * 1024
	defaultPartSize = 10 * 1024 * 1024
)

// S3ContentStore implements content.Store on S3.
//
// Thread Safety:
// Safe for concurrent use. Concurrent writers to the same ID are
// last-write-wins, which the embedded provider never does.
type S3ContentStore struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	keyPrefix string
	metrics   S3Metrics
}

// S3ContentStoreConfig contains configuration for S3 content store.
type S3ContentStoreConfig struct {
	Client *s3.Client

	// Bucket must already exist.
	Bucket string

	// KeyPrefix is prepended to every object key, e.g. "dfsclient/blobs/".
	KeyPrefix string

	// PartSize of multipart uploads. Between 5MB and 5GB, default 10MB.
	PartSize int64

	// Concurrency of part uploads, default 5.
	Concurrency int

	// Metrics is optional.
	Metrics S3Metrics
}

// NewS3ContentStore validates cfg and verifies bucket access.
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	// ========================================================================
	// Step 1: Validate configuration
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	partSize := cfg.PartSize
	if partSize == 0 {
		partSize = defaultPartSize
	}
	if partSize < minPartSize || partSize > maxPartSize {
		return nil, fmt.Errorf("part size must be between 5MB and 5GB, got %d bytes", partSize)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = manager.DefaultUploadConcurrency
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	// ========================================================================
	// Step 2: Verify bucket access
	// ========================================================================

	if _, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ContentStore{
		client: cfg.Client,
		uploader: manager.NewUploader(cfg.Client, func(u *manager.Uploader) {
			u.PartSize = partSize
			u.Concurrency = concurrency
		}),
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		metrics:   metrics,
	}, nil
}

func (s *S3ContentStore) key(id content.ID) string {
	return s.keyPrefix + string(id)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

func (s *S3ContentStore) wrap(id content.ID, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return fmt.Errorf("content %s: %w", id, err)
}

func (s *S3ContentStore) OpenReader(ctx context.Context, id content.ID) (io.ReadCloser, error) {
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	s.metrics.ObserveOperation("GetObject", time.Since(start), err)
	if err != nil {
		return nil, s.wrap(id, err)
	}
	return &countingReader{ReadCloser: out.Body, metrics: s.metrics}, nil
}

func (s *S3ContentStore) OpenWriter(ctx context.Context, id content.ID) (content.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newStreamingWriter(ctx, s, s.key(id)), nil
}

func (s *S3ContentStore) Size(ctx context.Context, id content.ID) (int64, error) {
	start := time.Now()
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	s.metrics.ObserveOperation("HeadObject", time.Since(start), err)
	if err != nil {
		return 0, s.wrap(id, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// Truncate rewrites the object: objects are immutable, so shrinking keeps a
// ranged download of the prefix and growing appends zeros.
func (s *S3ContentStore) Truncate(ctx context.Context, id content.ID, size int64) error {
	if size < 0 {
		return fmt.Errorf("truncate %s to %d: %w", id, size, content.ErrInvalidSize)
	}

	current, err := s.Size(ctx, id)
	if err != nil {
		return err
	}
	if current == size {
		return nil
	}

	var data []byte
	if size > 0 {
		in := &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(id)),
		}
		if size < current {
			in.Range = aws.String(fmt.Sprintf("bytes=0-%d", size-1))
		}
		out, err := s.client.GetObject(ctx, in)
		if err != nil {
			return s.wrap(id, err)
		}
		data, err = io.ReadAll(out.Body)
		_ = out.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read object for truncate: %w", err)
		}
	}

	if int64(len(data)) < size {
		grown := make([]byte, size)
		copy(grown, data)
		data = grown
	}

	start := time.Now()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(id)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	s.metrics.ObserveOperation("PutObject", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to write truncated object: %w", err)
	}
	return nil
}

func (s *S3ContentStore) Delete(ctx context.Context, id content.ID) error {
	start := time.Now()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	s.metrics.ObserveOperation("DeleteObject", time.Since(start), err)
	if err != nil && !isNotFound(err) {
		return s.wrap(id, err)
	}
	return nil
}

// Stats lists every object under the prefix. Capacity is unlimited.
func (s *S3ContentStore) Stats(ctx context.Context) (*content.StorageStats, error) {
	var used, count uint64

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			used += uint64(aws.ToInt64(obj.Size))
			count++
		}
	}

	return content.NewStats(content.Unlimited, used, content.Unlimited, count), nil
}

// List pages through the objects under the key prefix.
func (s *S3ContentStore) List(ctx context.Context) ([]content.ID, error) {
	var ids []content.ID

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})
	for paginator.HasMorePages() {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		s.metrics.ObserveOperation("ListObjectsV2", time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			ids = append(ids, content.ID(strings.TrimPrefix(aws.ToString(obj.Key), s.keyPrefix)))
		}
	}
	return ids, nil
}
