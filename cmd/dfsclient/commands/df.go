package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/internal/cli/output"
)

// usage is the filesystem-wide space report.
type usage struct {
	Capacity         int64 `json:"capacity" yaml:"capacity"`
	Used             int64 `json:"used" yaml:"used"`
	Remaining        int64 `json:"remaining" yaml:"remaining"`
	DefaultBlockSize int64 `json:"default_block_size" yaml:"default_block_size"`
}

func (u usage) Headers() []string {
	return []string{"SIZE", "USED", "AVAILABLE", "USE%", "BLOCK SIZE"}
}

func (u usage) Rows() [][]string {
	pct := "-"
	if u.Capacity > 0 {
		pct = output.Percent(u.Used, u.Capacity)
	}
	return [][]string{{
		output.HumanSize(u.Capacity),
		output.HumanSize(u.Used),
		output.HumanSize(u.Remaining),
		pct,
		output.HumanSize(u.DefaultBlockSize),
	}}
}

func newDfCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "df",
		Short: "Show capacity and usage of the filesystem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				var (
					u   usage
					err error
				)
				if u.Capacity, err = s.client.GetCapacity(ctx); err != nil {
					return err
				}
				if u.Used, err = s.client.GetUsed(ctx); err != nil {
					return err
				}
				if u.DefaultBlockSize, err = s.client.GetDefaultBlockSize(ctx); err != nil {
					return err
				}
				u.Remaining = max(u.Capacity-u.Used, 0)
				return s.out.Print(u)
			})
		},
	}
}
