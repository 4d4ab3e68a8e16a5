package commands

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/dfsclient/internal/cli/output"
	"github.com/marmos91/dfsclient/pkg/provider"
)

const timeLayout = "2006-01-02 15:04"

// entryList renders directory entries like ls -l.
type entryList []provider.FileInfo

func (l entryList) Headers() []string {
	return []string{"MODE", "REPL", "OWNER", "GROUP", "SIZE", "MODIFIED", "PATH"}
}

func (l entryList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for i := range l {
		fi := &l[i]
		repl := "-"
		if !fi.IsDir() {
			repl = strconv.Itoa(int(fi.Replication))
		}
		rows = append(rows, []string{
			modeString(fi),
			repl,
			fi.Owner,
			fi.Group,
			strconv.FormatInt(fi.Size, 10),
			fi.LastMod.Local().Format(timeLayout),
			fi.Path,
		})
	}
	return rows
}

func modeString(fi *provider.FileInfo) string {
	mode := fi.Permissions.Perm()
	if fi.IsDir() {
		mode |= os.ModeDir
	}
	return mode.String()
}

// entryDetail renders one entry as field/value pairs.
type entryDetail provider.FileInfo

func (d entryDetail) Headers() []string {
	return output.KeyValues{}.Headers()
}

func (d entryDetail) Rows() [][]string {
	fi := provider.FileInfo(d)
	return output.KeyValues{
		{"path", fi.Path},
		{"type", string(fi.Type)},
		{"mode", modeString(&fi)},
		{"size", strconv.FormatInt(fi.Size, 10)},
		{"replication", strconv.Itoa(int(fi.Replication))},
		{"block size", output.HumanSize(fi.BlockSize)},
		{"owner", fi.Owner},
		{"group", fi.Group},
		{"modified", fi.LastMod.Local().Format(timeLayout)},
		{"accessed", fi.LastAccess.Local().Format(timeLayout)},
	}.Rows()
}

func newLsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory",
		Long: `List the entries of a directory. Without a path the working directory is
listed. Listing a file shows the file itself.

Examples:
  dfsclient ls /user/alice
  dfsclient ls -o json /data`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				entries, err := s.client.List(ctx, path)
				if err != nil {
					return err
				}
				if len(entries) == 0 && s.out.Format() == output.FormatTable {
					s.out.Message("No entries found.")
					return nil
				}
				return s.out.Print(entryList(entries))
			})
		},
	}
}

func newStatCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show the details of one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				fi, err := s.client.Stats(ctx, args[0])
				if err != nil {
					return err
				}
				return s.out.Print(entryDetail(*fi))
			})
		},
	}
}

func newMkdirCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory and any missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.client.Mkdir(ctx, args[0]); err != nil {
					return err
				}
				s.out.Message("Created %s", args[0])
				return nil
			})
		},
	}
}

func newRmCmd(flags *globalFlags) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or directory",
		Long: `Delete a file or an empty directory. Non-empty directories require -r.

Examples:
  dfsclient rm /data/old.csv
  dfsclient rm -r /data/archive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.client.Delete(ctx, args[0], recursive); err != nil {
					return err
				}
				s.out.Message("Deleted %s", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Delete directories and their contents")
	return cmd
}

func newMvCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <old> <new>",
		Short: "Rename or move an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.client.Rename(ctx, args[0], args[1]); err != nil {
					return err
				}
				s.out.Message("Renamed %s to %s", args[0], args[1])
				return nil
			})
		},
	}
}

func newPwdCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.run(cmd, func(ctx context.Context, s *session) error {
				wd, err := s.client.GetWorkingDirectory(ctx)
				if err != nil {
					return err
				}
				if s.out.Format() == output.FormatTable {
					s.out.Message("%s", wd)
					return nil
				}
				return s.out.Print(map[string]string{"working_directory": wd})
			})
		},
	}
}
