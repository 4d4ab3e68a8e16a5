package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/internal/cli/output"
	"github.com/marmos91/dfsclient/pkg/clusterinfo"
)

// namenodeList flattens nameservices into one row per namenode.
type namenodeList map[string][]clusterinfo.Namenode

func (l namenodeList) Headers() []string {
	return []string{"NAMESERVICE", "ID", "RPC ADDRESS", "HTTP ADDRESS"}
}

func (l namenodeList) Rows() [][]string {
	services := make([]string, 0, len(l))
	for svc := range l {
		services = append(services, svc)
	}
	sort.Strings(services)

	var rows [][]string
	for _, svc := range services {
		for _, nn := range l[svc] {
			rows = append(rows, []string{svc, nn.ID, nn.RPCAddress, nn.HTTPAddress})
		}
	}
	return rows
}

func newNamenodesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "namenodes [nameservice]",
		Short: "Show the HA namenodes declared in the Hadoop configuration",
		Long: `Show the namenodes of a nameservice, or of every nameservice declared in
dfs.nameservices, as resolved from the Hadoop configuration in effect.
No connection is made.

Examples:
  dfsclient namenodes
  dfsclient namenodes prod-cluster`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			conf, err := clusterinfo.Load(cfg.Connection.Params().ConfigPath)
			if err != nil {
				return err
			}

			list := namenodeList{}
			if len(args) == 1 {
				nns, err := clusterinfo.Namenodes(conf, args[0])
				if err != nil {
					return err
				}
				list[args[0]] = nns
			} else if list, err = clusterinfo.All(conf); err != nil {
				return err
			}

			out := flags.printer(cmd)
			if len(list.Rows()) == 0 {
				out.Message("No HA namenodes configured.")
				if out.Format() == output.FormatTable {
					return nil
				}
			}
			return out.Print(list)
		},
	}
}
