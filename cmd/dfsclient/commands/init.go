package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/pkg/config"
)

func newInitCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Long: `Write a configuration file with default values to --config, or to
$XDG_CONFIG_HOME/dfsclient/config.yaml when no path is given.

Examples:
  dfsclient init
  dfsclient init --config ./dfsclient.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configFile
			var err error
			if path != "" {
				err = config.InitConfigToPath(path, force)
			} else {
				path, err = config.InitConfig(force)
			}
			if err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", path)
			_, _ = fmt.Fprintln(out, "\nNext steps:")
			_, _ = fmt.Fprintln(out, "  1. Choose a provider (embedded or hdfs) and its connection settings")
			_, _ = fmt.Fprintln(out, "  2. Try it with: dfsclient ls /")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
