// Package minio implements content storage on MinIO and other
// S3-compatible services through the MinIO client.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// MinioContentStore implements content.Store on a MinIO bucket.
type MinioContentStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioContentStore verifies that bucket exists.
func NewMinioContentStore(ctx context.Context, client *minio.Client, bucket, prefix string) (*MinioContentStore, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	ok, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", bucket, err)
	}
	if !ok {
		return nil, fmt.Errorf("bucket %q does not exist", bucket)
	}

	return &MinioContentStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *MinioContentStore) key(id content.ID) string {
	return s.prefix + string(id)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func wrap(id content.ID, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return fmt.Errorf("content %s: %w", id, err)
}

func (s *MinioContentStore) OpenReader(ctx context.Context, id content.ID) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, wrap(id, err)
	}
	// GetObject is lazy; Stat surfaces a missing key now.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, wrap(id, err)
	}
	return obj, nil
}

func (s *MinioContentStore) OpenWriter(ctx context.Context, id content.ID) (content.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	w := &pipeWriter{pw: pw, done: make(chan error, 1)}
	key := s.key(id)

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()

	return w, nil
}

func (s *MinioContentStore) Size(ctx context.Context, id content.ID) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.key(id), minio.StatObjectOptions{})
	if err != nil {
		return 0, wrap(id, err)
	}
	return info.Size, nil
}

// Truncate rewrites the object with its first size bytes, zero-padded when
// growing.
func (s *MinioContentStore) Truncate(ctx context.Context, id content.ID, size int64) error {
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
		opts := minio.GetObjectOptions{}
		if size < current {
			if err := opts.SetRange(0, size-1); err != nil {
				return err
			}
		}
		obj, err := s.client.GetObject(ctx, s.bucket, s.key(id), opts)
		if err != nil {
			return wrap(id, err)
		}
		data, err = io.ReadAll(obj)
		_ = obj.Close()
		if err != nil {
			return wrap(id, err)
		}
	}
	if int64(len(data)) < size {
		grown := make([]byte, size)
		copy(grown, data)
		data = grown
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.key(id), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to write truncated object: %w", err)
	}
	return nil
}

func (s *MinioContentStore) Delete(ctx context.Context, id content.ID) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(id), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return wrap(id, err)
	}
	return nil
}

func (s *MinioContentStore) Stats(ctx context.Context) (*content.StorageStats, error) {
	var used, count uint64
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		used += uint64(obj.Size)
		count++
	}
	return content.NewStats(content.Unlimited, used, content.Unlimited, count), nil
}

func (s *MinioContentStore) List(ctx context.Context) ([]content.ID, error) {
	var ids []content.ID
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		ids = append(ids, content.ID(strings.TrimPrefix(obj.Key, s.prefix)))
	}
	return ids, nil
}

type pipeWriter struct {
	pw   *io.PipeWriter
	done chan error

	mu     sync.Mutex
	closed bool
}

func (w *pipeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, content.ErrWriterClosed
	}
	return w.pw.Write(p)
}

func (w *pipeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return content.ErrWriterClosed
	}
	w.closed = true
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
