// Package commands implements the dfsclient command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/internal/cli/output"
	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/config"
	"github.com/marmos91/dfsclient/pkg/provider"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Exit codes by error category. Anything unclassified exits with 1.
const (
	ExitFailure          = 1
	ExitInvalidInput     = 2
	ExitNotFound         = 3
	ExitPermissionDenied = 4
	ExitAlreadyExists    = 5
	ExitNotEmpty         = 6
	ExitWrongType        = 7
	ExitNotSupported     = 8
	ExitCanceled         = 130
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	logLevel   string
	output     string
	provider   string
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "dfsclient",
		Short: "Client for HDFS and the embedded distributed filesystem",
		Long: `dfsclient manipulates a distributed filesystem: either a Hadoop cluster
reached through its namenodes, or the embedded filesystem backed by the
configured metadata and content stores.

Configuration is read from $XDG_CONFIG_HOME/dfsclient/config.yaml and
DFSCLIENT_* environment variables. Global flags override both.

Use "dfsclient [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := output.ParseFormat(flags.output)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/dfsclient/config.yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level override (DEBUG, INFO, WARN, ERROR)")
	pf.StringVarP(&flags.output, "output", "o", "table", "output format (table, json, yaml)")
	pf.StringVar(&flags.provider, "provider", "", "provider override (embedded, hdfs)")

	root.AddCommand(
		newLsCmd(flags),
		newStatCmd(flags),
		newMkdirCmd(flags),
		newRmCmd(flags),
		newMvCmd(flags),
		newPwdCmd(flags),
		newCatCmd(flags),
		newPutCmd(flags),
		newGetCmd(flags),
		newChmodCmd(flags),
		newChownCmd(flags),
		newTouchCmd(flags),
		newSetrepCmd(flags),
		newTruncateCmd(flags),
		newDfCmd(flags),
		newNamenodesCmd(flags),
		newBenchCmd(flags),
		newGCCmd(flags),
		newInitCmd(flags),
		newVersionCmd(),
	)
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// ExitCode maps err onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch provider.CodeOf(err) {
	case provider.CodeInvalidInput:
		return ExitInvalidInput
	case provider.CodeNotFound:
		return ExitNotFound
	case provider.CodePermissionDenied:
		return ExitPermissionDenied
	case provider.CodeAlreadyExists:
		return ExitAlreadyExists
	case provider.CodeNotEmpty:
		return ExitNotEmpty
	case provider.CodeNotDirectory, provider.CodeIsDirectory:
		return ExitWrongType
	case provider.CodeNotSupported:
		return ExitNotSupported
	case provider.CodeCanceled:
		return ExitCanceled
	default:
		return ExitFailure
	}
}

// loadConfig loads the configuration, applies flag overrides and
// initializes the logger.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if f.logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(f.logLevel)
	}
	if f.provider != "" {
		cfg.Provider = strings.ToLower(f.provider)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *globalFlags) printer(cmd *cobra.Command) *output.Printer {
	// Already validated by PersistentPreRunE.
	format, _ := output.ParseFormat(f.output)
	return output.NewPrinter(cmd.OutOrStdout(), format)
}

// session is what a filesystem command runs against.
type session struct {
	client *config.Client
	out    *output.Printer
}

// run loads the configuration and hands a connected session to fn.
func (f *globalFlags) run(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	return f.runWith(cmd, cfg, fn)
}

// runWith connects with cfg, calls fn and closes the client. A close
// failure is reported only when fn succeeded.
func (f *globalFlags) runWith(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, s *session) error) (err error) {
	ctx := cmd.Context()
	client, err := config.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("failed to close client", logger.KeyError, cerr)
			if err == nil && !errors.Is(cerr, provider.ErrClosed) {
				err = cerr
			}
		}
	}()

	return fn(ctx, &session{client: client, out: f.printer(cmd)})
}
