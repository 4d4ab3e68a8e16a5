package commands

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/internal/cli/output"
	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/config"
	"github.com/marmos91/dfsclient/pkg/dfs"
	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/provider/hdfs"
)

type benchOptions struct {
	path      string
	size      string
	chunk     string
	keep      bool
	metrics   bool
	linger    time.Duration
	chunkSize int
}

// benchResult is one write/read round trip.
type benchResult struct {
	Path         string  `json:"path" yaml:"path"`
	Bytes        int64   `json:"bytes" yaml:"bytes"`
	WriteSeconds float64 `json:"write_seconds" yaml:"write_seconds"`
	ReadSeconds  float64 `json:"read_seconds" yaml:"read_seconds"`
	Verified     bool    `json:"verified" yaml:"verified"`
}

func (r benchResult) Headers() []string {
	return []string{"PATH", "SIZE", "WRITE", "READ", "WRITE MIB/S", "READ MIB/S", "VERIFIED"}
}

func (r benchResult) Rows() [][]string {
	return [][]string{{
		r.Path,
		output.HumanSize(r.Bytes),
		time.Duration(r.WriteSeconds * float64(time.Second)).Round(time.Millisecond).String(),
		time.Duration(r.ReadSeconds * float64(time.Second)).Round(time.Millisecond).String(),
		throughput(r.Bytes, r.WriteSeconds),
		throughput(r.Bytes, r.ReadSeconds),
		strconv.FormatBool(r.Verified),
	}}
}

func throughput(n int64, seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", float64(n)/(1<<20)/seconds)
}

func newBenchCmd(flags *globalFlags) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure a write/read round trip",
		Long: `Write a file of random bytes through the streaming writer, read it back
chunk by chunk, verify the content and delete it.

With --metrics the Prometheus endpoint configured in the metrics section is
served during the run, and for --linger afterwards so it can be scraped.

Examples:
  dfsclient bench --size 256m
  dfsclient bench --metrics --linger 30s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := hdfs.ParseSize(opts.size, 0)
			if err != nil || size <= 0 {
				return fmt.Errorf("%w: size %q", provider.ErrInvalidInput, opts.size)
			}
			chunk, err := hdfs.ParseSize(opts.chunk, 0)
			if err != nil || chunk <= 0 {
				return fmt.Errorf("%w: chunk %q", provider.ErrInvalidInput, opts.chunk)
			}
			opts.chunkSize = int(chunk)
			if opts.path == "" {
				opts.path = "/tmp/dfsclient-bench-" + uuid.NewString()
			}

			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if opts.metrics {
				cfg.Metrics.Enabled = true
			}

			// Collectors must exist before the stores and the facade are built.
			srv := config.InitializeMetrics(cfg)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var served chan error
			if srv != nil {
				served = make(chan error, 1)
				go func() { served <- srv.Start(ctx) }()
			}

			err = flags.runWith(cmd, cfg, func(ctx context.Context, s *session) error {
				result, err := roundTrip(ctx, s.client.FileSystem, opts, size)
				if err != nil {
					return err
				}
				return s.out.Print(result)
			})

			if srv != nil {
				if opts.linger > 0 && err == nil {
					logger.Info("serving metrics", "addr", srv.Addr(), logger.KeyDuration, opts.linger)
					select {
					case <-time.After(opts.linger):
					case <-ctx.Done():
					}
				}
				cancel()
				if serr := <-served; serr != nil {
					logger.Warn("metrics server stopped with error", logger.KeyError, serr)
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "Remote file to write (default: /tmp/dfsclient-bench-<uuid>)")
	f.StringVar(&opts.size, "size", "64m", "Bytes to write")
	f.StringVar(&opts.chunk, "chunk", "1m", "Bytes per write and read call")
	f.BoolVar(&opts.keep, "keep", false, "Keep the file afterwards")
	f.BoolVar(&opts.metrics, "metrics", false, "Serve Prometheus metrics during the run")
	f.DurationVar(&opts.linger, "linger", 0, "Keep serving metrics for this long after the run")
	return cmd
}

// roundTrip writes size random bytes to opts.path, reads them back and
// compares.
func roundTrip(ctx context.Context, fs *dfs.FileSystem, opts *benchOptions, size int64) (*benchResult, error) {
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		return nil, err
	}

	start := time.Now()
	w := fs.Create(ctx, opts.path, provider.WriteOptions{})
	for off := 0; off < len(data); off += opts.chunkSize {
		end := min(off+opts.chunkSize, len(data))
		if _, err := w.WriteContext(ctx, data[off:end]); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	result := &benchResult{Path: opts.path, Bytes: size, WriteSeconds: time.Since(start).Seconds()}

	if !opts.keep {
		defer func() {
			if err := fs.Delete(context.WithoutCancel(ctx), opts.path, false); err != nil {
				logger.Warn("failed to remove benchmark file", logger.KeyPath, opts.path, logger.KeyError, err)
			}
		}()
	}

	start = time.Now()
	r := fs.Open(ctx, opts.path)
	verified, err := verify(ctx, r, data, opts.chunkSize)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	result.ReadSeconds = time.Since(start).Seconds()
	result.Verified = verified

	logger.Debug("benchmark complete", logger.KeyPath, opts.path, logger.KeyBytes, size,
		"write_seconds", result.WriteSeconds, "read_seconds", result.ReadSeconds)
	return result, nil
}

// verify reads r to the end and reports whether it matched want.
func verify(ctx context.Context, r *dfs.Reader, want []byte, chunkSize int) (bool, error) {
	var off int
	for {
		chunk, err := r.ReadChunk(ctx, chunkSize)
		if errors.Is(err, io.EOF) {
			return off == len(want), nil
		}
		if err != nil {
			return false, err
		}
		if off+len(chunk) > len(want) || !bytes.Equal(chunk, want[off:off+len(chunk)]) {
			return false, nil
		}
		off += len(chunk)
	}
}
