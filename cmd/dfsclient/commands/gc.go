package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/internal/cli/output"
	"github.com/marmos91/dfsclient/pkg/config"
	"github.com/marmos91/dfsclient/pkg/gc"
)

// gcReport renders collection statistics.
type gcReport gc.Stats

func (r gcReport) Headers() []string {
	return []string{"REFERENCED", "STORED", "ORPHANED", "DELETED", "FAILED", "DURATION"}
}

func (r gcReport) Rows() [][]string {
	stats := gc.Stats(r)
	return [][]string{{
		strconv.FormatUint(r.ReferencedCount, 10),
		strconv.FormatUint(r.ExistingCount, 10),
		strconv.FormatUint(r.OrphanedCount, 10),
		strconv.FormatUint(r.DeletedCount, 10),
		strconv.FormatUint(r.FailedCount, 10),
		stats.Duration().Round(time.Millisecond).String(),
	}}
}

func newGCCmd(flags *globalFlags) *cobra.Command {
	var cfg gc.Config

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete content no file references (embedded provider)",
		Long: `Scan the embedded provider's namespace and content stores and delete
blobs that no file references. Such blobs are left behind by failed
deletes or interrupted writes.

Do not run while other clients write to the same stores.

Examples:
  dfsclient gc --dry-run
  dfsclient gc --concurrency 32`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := flags.loadConfig()
			if err != nil {
				return err
			}

			stats, err := config.CollectGarbage(cmd.Context(), conf, cfg)
			if err != nil {
				return err
			}

			out := flags.printer(cmd)
			if err := out.Print(gcReport(*stats)); err != nil {
				return err
			}
			if cfg.DryRun && out.Format() == output.FormatTable {
				for _, id := range stats.Orphaned {
					out.Message("would delete %s", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Report orphaned content without deleting it")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 0, "Parallel deletes (default: storage.delete_concurrency)")
	return cmd
}
