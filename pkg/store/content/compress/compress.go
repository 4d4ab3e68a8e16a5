// Package compress wraps a content store so blobs are stored compressed.
//
// Sizes and offsets seen by callers are always uncompressed. Stats pass
// through unchanged and therefore report compressed usage.
package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// Algorithm selects the stream codec.
type Algorithm string

const (
	None Algorithm = "none"
	Zstd Algorithm = "zstd"
	LZ4  Algorithm = "lz4"
)

// ParseAlgorithm accepts "", "none", "zstd" and "lz4".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", None:
		return None, nil
	case Zstd, LZ4:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown compression algorithm %q", s)
	}
}

// Store compresses blobs written to the inner store.
type Store struct {
	inner content.Store
	algo  Algorithm
	level int
}

// Wrap returns inner unchanged for None, otherwise a compressing Store.
// level is codec specific; 0 selects the codec default.
func Wrap(inner content.Store, algo Algorithm, level int) (content.Store, error) {
	switch algo {
	case "", None:
		return inner, nil
	case Zstd, LZ4:
		return &Store{inner: inner, algo: algo, level: level}, nil
	default:
		return nil, fmt.Errorf("unknown compression algorithm %q", algo)
	}
}

// Algorithm reports the codec in use.
func (s *Store) Algorithm() Algorithm {
	return s.algo
}

func (s *Store) OpenReader(ctx context.Context, id content.ID) (io.ReadCloser, error) {
	rc, err := s.inner.OpenReader(ctx, id)
	if err != nil {
		return nil, err
	}

	switch s.algo {
	case Zstd:
		dec, err := zstd.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("content %s: zstd reader: %w", id, err)
		}
		return &zstdReadCloser{dec: dec, src: rc}, nil
	default:
		return &lz4ReadCloser{Reader: lz4.NewReader(rc), src: rc}, nil
	}
}

func (s *Store) OpenWriter(ctx context.Context, id content.ID) (content.Writer, error) {
	w, err := s.inner.OpenWriter(ctx, id)
	if err != nil {
		return nil, err
	}

	switch s.algo {
	case Zstd:
		opts := []zstd.EOption{}
		if s.level > 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(s.level)))
		}
		enc, err := zstd.NewWriter(w, opts...)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("content %s: zstd writer: %w", id, err)
		}
		return &compressWriter{enc: enc, dst: w}, nil
	default:
		zw := lz4.NewWriter(w)
		if s.level > 0 {
			if err := zw.Apply(lz4.CompressionLevelOption(lz4Level(s.level))); err != nil {
				_ = w.Close()
				return nil, fmt.Errorf("content %s: lz4 writer: %w", id, err)
			}
		}
		return &compressWriter{enc: zw, dst: w}, nil
	}
}

// Size decodes the whole blob.
func (s *Store) Size(ctx context.Context, id content.ID) (int64, error) {
	rc, err := s.OpenReader(ctx, id)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return 0, fmt.Errorf("content %s: %w", id, err)
	}
	return n, nil
}

// Truncate decodes the blob, resizes it and writes it back compressed.
func (s *Store) Truncate(ctx context.Context, id content.ID, size int64) error {
	if size < 0 {
		return fmt.Errorf("truncate %s to %d: %w", id, size, content.ErrInvalidSize)
	}

	rc, err := s.OpenReader(ctx, id)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	_, err = io.Copy(&buf, io.LimitReader(rc, size))
	_ = rc.Close()
	if err != nil {
		return fmt.Errorf("content %s: %w", id, err)
	}

	data := buf.Bytes()
	if int64(len(data)) < size {
		data = append(data, make([]byte, size-int64(len(data)))...)
	}

	w, err := s.OpenWriter(ctx, id)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("content %s: %w", id, err)
	}
	return w.Close()
}

func (s *Store) Delete(ctx context.Context, id content.ID) error {
	return s.inner.Delete(ctx, id)
}

func (s *Store) Stats(ctx context.Context) (*content.StorageStats, error) {
	return s.inner.Stats(ctx)
}

// List delegates to the inner store; blob IDs are not changed by
// compression.
func (s *Store) List(ctx context.Context) ([]content.ID, error) {
	l, ok := s.inner.(content.Lister)
	if !ok {
		return nil, fmt.Errorf("list content: %w", errors.ErrUnsupported)
	}
	return l.List(ctx)
}

// lz4Level maps 1..9 onto the lz4 level constants.
func lz4Level(level int) lz4.CompressionLevel {
	switch {
	case level <= 1:
		return lz4.Level1
	case level == 2:
		return lz4.Level2
	case level == 3:
		return lz4.Level3
	case level == 4:
		return lz4.Level4
	case level == 5:
		return lz4.Level5
	case level == 6:
		return lz4.Level6
	case level == 7:
		return lz4.Level7
	case level == 8:
		return lz4.Level8
	default:
		return lz4.Level9
	}
}

type encoder interface {
	io.Writer
	Flush() error
	Close() error
}

type compressWriter struct {
	enc    encoder
	dst    content.Writer
	closed bool
}

func (w *compressWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, content.ErrWriterClosed
	}
	return w.enc.Write(p)
}

// Sync flushes the encoder and syncs the inner writer when it supports it.
func (w *compressWriter) Sync() error {
	if w.closed {
		return content.ErrWriterClosed
	}
	if err := w.enc.Flush(); err != nil {
		return err
	}
	if s, ok := w.dst.(content.Syncer); ok {
		return s.Sync()
	}
	return nil
}

func (w *compressWriter) Close() error {
	if w.closed {
		return content.ErrWriterClosed
	}
	w.closed = true

	encErr := w.enc.Close()
	dstErr := w.dst.Close()
	if encErr != nil {
		return encErr
	}
	return dstErr
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	src io.ReadCloser
}

func (r *zstdReadCloser) Read(p []byte) (int, error) {
	return r.dec.Read(p)
}

func (r *zstdReadCloser) Close() error {
	r.dec.Close()
	return r.src.Close()
}

type lz4ReadCloser struct {
	*lz4.Reader
	src io.ReadCloser
}

func (r *lz4ReadCloser) Close() error {
	return r.src.Close()
}
