package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/internal/cli/output"
	"github.com/marmos91/dfsclient/pkg/provider"
)

// parseMode parses an octal permission such as 755 or 0640.
func parseMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil || v > 0o777 {
		return 0, fmt.Errorf("%w: mode %q is not an octal permission", provider.ErrInvalidInput, s)
	}
	return os.FileMode(v), nil
}

// parseOwner splits owner[:group]. Either part may be empty.
func parseOwner(s string) (owner, group string) {
	owner, group, _ = strings.Cut(s, ":")
	return owner, group
}

func newChmodCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chmod <mode> <path>",
		Short: "Change permission bits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseMode(args[0])
			if err != nil {
				return err
			}
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.client.Chmod(ctx, args[1], mode); err != nil {
					return err
				}
				s.out.Message("Changed mode of %s to %04o", args[1], uint32(mode))
				return nil
			})
		},
	}
}

func newChownCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chown <owner[:group]> <path>",
		Short: "Change owner and group",
		Long: `Change the owner and/or the group of an entry. An empty part is left
unchanged.

Examples:
  dfsclient chown alice /data/report.csv
  dfsclient chown alice:analysts /data/report.csv
  dfsclient chown :analysts /data/report.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, group := parseOwner(args[0])
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.client.Chown(ctx, args[1], owner, group); err != nil {
					return err
				}
				s.out.Message("Changed owner of %s", args[1])
				return nil
			})
		},
	}
}

func newTouchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <path>",
		Short: "Set access and modification times to now",
		Long:  `Set access and modification times to now, creating an empty file when the path does not exist.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				if !s.client.Exists(ctx, args[0]) {
					return s.client.WriteFile(ctx, args[0], nil, provider.WriteOptions{})
				}
				now := time.Now()
				return s.client.Utime(ctx, args[0], now, now)
			})
		},
	}
}

func newSetrepCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "setrep <replication> <path>",
		Short: "Change the replication factor of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 10, 16)
			if err != nil || n < 1 {
				return fmt.Errorf("%w: replication %q", provider.ErrInvalidInput, args[0])
			}
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.client.SetReplication(ctx, args[1], int16(n)); err != nil {
					return err
				}
				s.out.Message("Replication of %s set to %d", args[1], n)
				return nil
			})
		},
	}
}

// truncateResult reports whether the new length is already visible.
type truncateResult struct {
	Path     string `json:"path" yaml:"path"`
	Length   int64  `json:"length" yaml:"length"`
	Complete bool   `json:"complete" yaml:"complete"`
}

func newTruncateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "truncate <length> <path>",
		Short: "Shrink a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			length, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || length < 0 {
				return fmt.Errorf("%w: length %q", provider.ErrInvalidInput, args[0])
			}
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				done, err := s.client.Truncate(ctx, args[1], length)
				if err != nil {
					return err
				}
				if s.out.Format() != output.FormatTable {
					return s.out.Print(truncateResult{Path: args[1], Length: length, Complete: done})
				}
				if done {
					s.out.Message("Truncated %s to %d bytes", args[1], length)
				} else {
					s.out.Message("Truncating %s to %d bytes, pending block recovery", args[1], length)
				}
				return nil
			})
		},
	}
}
