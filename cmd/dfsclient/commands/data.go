package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/internal/cli/output"
	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/config"
	"github.com/marmos91/dfsclient/pkg/dfs"
	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/provider/hdfs"
)

// transfer is the result of put and get.
type transfer struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
	Bytes       int64  `json:"bytes" yaml:"bytes"`
}

func newCatCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Write a file to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				r := s.client.Open(ctx, args[0])
				err := copyChunks(ctx, cmd.OutOrStdout(), r)
				if cerr := r.Close(); err == nil {
					err = cerr
				}
				return err
			})
		},
	}
}

// copyChunks streams r to w one chunk at a time.
func copyChunks(ctx context.Context, w io.Writer, r *dfs.Reader) error {
	for {
		chunk, err := r.ReadChunk(ctx, 0)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
}

func newPutCmd(flags *globalFlags) *cobra.Command {
	var (
		replication int16
		blockSize   string
		mode        string
	)

	cmd := &cobra.Command{
		Use:   "put <local> <remote>",
		Short: "Upload a local file, replacing the remote one",
		Long: `Upload a local file. An existing remote file is replaced and missing
parent directories are created. Use "-" to read standard input.

Examples:
  dfsclient put report.csv /data/report.csv
  dfsclient put --replication 2 --block-size 64m big.bin /data/big.bin
  tar c dir | dfsclient put - /backups/dir.tar`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := writeOptions(replication, blockSize, mode)
			if err != nil {
				return err
			}

			var src io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			return flags.run(cmd, func(ctx context.Context, s *session) error {
				w := s.client.Create(ctx, args[1], opts)
				n, err := io.Copy(w, src)
				if cerr := w.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return err
				}
				logger.Debug("upload complete", logger.KeyPath, args[1], logger.KeyBytes, n)
				if s.out.Format() == output.FormatTable {
					s.out.Message("Wrote %d bytes to %s", n, args[1])
					return nil
				}
				return s.out.Print(transfer{Source: args[0], Destination: args[1], Bytes: n})
			})
		},
	}

	cmd.Flags().Int16Var(&replication, "replication", 0, "Replication factor (default: provider default)")
	cmd.Flags().StringVar(&blockSize, "block-size", "", "Block size, e.g. 128m (default: provider default)")
	cmd.Flags().StringVar(&mode, "mode", "", "Octal permission of the new file (default: 0644)")
	return cmd
}

func writeOptions(replication int16, blockSize, mode string) (provider.WriteOptions, error) {
	if replication < 0 {
		return provider.WriteOptions{}, fmt.Errorf("%w: replication must not be negative", provider.ErrInvalidInput)
	}
	opts := provider.WriteOptions{Replication: replication}

	if blockSize != "" {
		size, err := hdfs.ParseSize(blockSize, 0)
		if err != nil {
			return provider.WriteOptions{}, fmt.Errorf("block size: %w", err)
		}
		opts.BlockSize = size
	}
	if mode != "" {
		perm, err := parseMode(mode)
		if err != nil {
			return provider.WriteOptions{}, err
		}
		opts.Permission = perm
	}
	return opts, nil
}

func newGetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote> <local>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				n, err := download(ctx, s.client, args[0], args[1])
				if err != nil {
					return err
				}
				if s.out.Format() == output.FormatTable {
					s.out.Message("Read %d bytes into %s", n, args[1])
					return nil
				}
				return s.out.Print(transfer{Source: args[0], Destination: args[1], Bytes: n})
			})
		},
	}
}

// download copies remote into a new local file. The local file is removed
// when the copy fails.
func download(ctx context.Context, client *config.Client, remote, local string) (int64, error) {
	f, err := os.Create(local)
	if err != nil {
		return 0, err
	}

	r := client.Open(ctx, remote)
	n, err := io.Copy(f, r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(local)
		return 0, err
	}
	return n, nil
}
