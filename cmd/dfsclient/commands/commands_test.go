package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/provider"
)

// newTestConfig writes an embedded-provider config whose stores live in a
// temporary directory, so state survives between command invocations.
func newTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	meta := filepath.Join(dir, "meta")
	blobs := filepath.Join(dir, "content")
	require.NoError(t, os.MkdirAll(meta, 0755))
	require.NoError(t, os.MkdirAll(blobs, 0755))

	path := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`provider: embedded
logging:
  level: ERROR
connection:
  user: alice
storage:
  metadata:
    type: badger
    badger:
      db_path: %s
  content:
    type: filesystem
    filesystem:
      path: %s
`, meta, blobs)
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

// run executes one command line and returns what it printed.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, configPath, nil, args...)
}

func runWithInput(t *testing.T, configPath string, stdin []byte, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if stdin != nil {
		root.SetIn(bytes.NewReader(stdin))
	}
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, err := run(t, configPath, args...)
	require.NoError(t, err, "dfsclient %s", strings.Join(args, " "))
	return out
}

func statJSON(t *testing.T, configPath, path string) provider.FileInfo {
	t.Helper()
	var fi provider.FileInfo
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, configPath, "-o", "json", "stat", path)), &fi))
	return fi
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"not found", provider.NewPathError("stat", "/x", provider.ErrNotFound), ExitNotFound},
		{"invalid", fmt.Errorf("%w: mode", provider.ErrInvalidInput), ExitInvalidInput},
		{"permission", provider.ErrPermissionDenied, ExitPermissionDenied},
		{"exists", provider.ErrAlreadyExists, ExitAlreadyExists},
		{"not empty", provider.ErrNotEmpty, ExitNotEmpty},
		{"not directory", provider.ErrNotDirectory, ExitWrongType},
		{"is directory", provider.ErrIsDirectory, ExitWrongType},
		{"not supported", provider.ErrNotSupported, ExitNotSupported},
		{"canceled", fmt.Errorf("connect: %w", context.Canceled), ExitCanceled},
		{"other", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode("755")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), mode)

	mode, err = parseMode("0640")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), mode)

	for _, bad := range []string{"", "rwx", "888", "1777", "-1"} {
		_, err := parseMode(bad)
		assert.ErrorIs(t, err, provider.ErrInvalidInput, "mode %q", bad)
	}
}

func TestParseOwner(t *testing.T) {
	tests := []struct {
		in, owner, group string
	}{
		{"alice", "alice", ""},
		{"alice:staff", "alice", "staff"},
		{":staff", "", "staff"},
		{"alice:", "alice", ""},
	}
	for _, tt := range tests {
		owner, group := parseOwner(tt.in)
		assert.Equal(t, tt.owner, owner, tt.in)
		assert.Equal(t, tt.group, group, tt.in)
	}
}

func TestWriteOptions(t *testing.T) {
	opts, err := writeOptions(2, "64m", "600")
	require.NoError(t, err)
	assert.Equal(t, int16(2), opts.Replication)
	assert.Equal(t, int64(64<<20), opts.BlockSize)
	assert.Equal(t, os.FileMode(0o600), opts.Permission)

	opts, err = writeOptions(0, "", "")
	require.NoError(t, err)
	assert.Equal(t, provider.WriteOptions{}, opts)

	_, err = writeOptions(-1, "", "")
	assert.ErrorIs(t, err, provider.ErrInvalidInput)

	_, err = writeOptions(0, "lots", "")
	assert.ErrorIs(t, err, provider.ErrInvalidInput)
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "", "version")
	assert.Contains(t, out, "dfsclient dev (commit: none")
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := run(t, "", "-o", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestInvalidProviderOverride(t *testing.T) {
	cfg := newTestConfig(t)
	_, err := run(t, cfg, "--provider", "ftp", "pwd")
	require.Error(t, err)
}

func TestFilesystemCommands(t *testing.T) {
	cfg := newTestConfig(t)

	local := filepath.Join(t.TempDir(), "report.csv")
	payload := []byte("id,value\n1,hello\n2,world\n")
	require.NoError(t, os.WriteFile(local, payload, 0644))

	t.Run("mkdir and put", func(t *testing.T) {
		assert.Contains(t, mustRun(t, cfg, "mkdir", "/data/in"), "Created /data/in")

		out := mustRun(t, cfg, "put", "--replication", "2", local, "/data/in/report.csv")
		assert.Contains(t, out, fmt.Sprintf("Wrote %d bytes", len(payload)))
	})

	t.Run("ls", func(t *testing.T) {
		var entries []provider.FileInfo
		require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfg, "-o", "json", "ls", "/data/in")), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "/data/in/report.csv", entries[0].Path)
		assert.Equal(t, int64(len(payload)), entries[0].Size)

		out := mustRun(t, cfg, "ls", "/data")
		assert.Contains(t, out, "drwxr-xr-x")
		assert.Contains(t, out, "/data/in")
	})

	t.Run("stat and cat", func(t *testing.T) {
		fi := statJSON(t, cfg, "/data/in/report.csv")
		assert.Equal(t, provider.TypeFile, fi.Type)
		assert.Equal(t, int16(2), fi.Replication)
		assert.Equal(t, "alice", fi.Owner)

		assert.Equal(t, string(payload), mustRun(t, cfg, "cat", "/data/in/report.csv"))

		out := mustRun(t, cfg, "-o", "yaml", "stat", "/data/in/report.csv")
		assert.Contains(t, out, "owner: alice")
	})

	t.Run("attributes", func(t *testing.T) {
		mustRun(t, cfg, "chmod", "600", "/data/in/report.csv")
		mustRun(t, cfg, "chown", "bob:staff", "/data/in/report.csv")
		mustRun(t, cfg, "setrep", "3", "/data/in/report.csv")

		fi := statJSON(t, cfg, "/data/in/report.csv")
		assert.Equal(t, os.FileMode(0o600), fi.Permissions)
		assert.Equal(t, "bob", fi.Owner)
		assert.Equal(t, "staff", fi.Group)
		assert.Equal(t, int16(3), fi.Replication)

		_, err := run(t, cfg, "chmod", "999", "/data/in/report.csv")
		assert.Equal(t, ExitInvalidInput, ExitCode(err))
	})

	t.Run("mv and get", func(t *testing.T) {
		mustRun(t, cfg, "mv", "/data/in/report.csv", "/data/report.csv")
		assert.False(t, strings.Contains(mustRun(t, cfg, "ls", "/data/in"), "report.csv"))

		dst := filepath.Join(t.TempDir(), "copy.csv")
		mustRun(t, cfg, "get", "/data/report.csv", dst)
		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("truncate", func(t *testing.T) {
		var res truncateResult
		out := mustRun(t, cfg, "-o", "json", "truncate", "8", "/data/report.csv")
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.True(t, res.Complete)
		assert.Equal(t, "id,value", mustRun(t, cfg, "cat", "/data/report.csv"))
	})

	t.Run("touch", func(t *testing.T) {
		mustRun(t, cfg, "touch", "/data/empty")
		fi := statJSON(t, cfg, "/data/empty")
		assert.Equal(t, int64(0), fi.Size)

		mustRun(t, cfg, "touch", "/data/report.csv")
		fi = statJSON(t, cfg, "/data/report.csv")
		assert.Equal(t, int64(8), fi.Size)
	})

	t.Run("put from stdin", func(t *testing.T) {
		_, err := runWithInput(t, cfg, []byte("piped"), "put", "-", "/data/piped")
		require.NoError(t, err)
		assert.Equal(t, "piped", mustRun(t, cfg, "cat", "/data/piped"))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := run(t, cfg, "stat", "/missing")
		assert.Equal(t, ExitNotFound, ExitCode(err))

		_, err = run(t, cfg, "cat", "/missing")
		assert.Equal(t, ExitNotFound, ExitCode(err))

		_, err = run(t, cfg, "cat", "/data")
		assert.Equal(t, ExitWrongType, ExitCode(err))

		_, err = run(t, cfg, "rm", "/data")
		assert.Equal(t, ExitNotEmpty, ExitCode(err))

		dst := filepath.Join(t.TempDir(), "missing")
		_, err = run(t, cfg, "get", "/missing", dst)
		assert.Equal(t, ExitNotFound, ExitCode(err))
		_, statErr := os.Stat(dst)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("rm", func(t *testing.T) {
		mustRun(t, cfg, "rm", "-r", "/data")
		_, err := run(t, cfg, "stat", "/data")
		assert.Equal(t, ExitNotFound, ExitCode(err))
	})
}

func TestPwd(t *testing.T) {
	cfg := newTestConfig(t)
	assert.Equal(t, "/\n", mustRun(t, cfg, "pwd"))

	var res map[string]string
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfg, "-o", "json", "pwd")), &res))
	assert.Equal(t, "/", res["working_directory"])
}

func TestDf(t *testing.T) {
	cfg := newTestConfig(t)
	_, err := runWithInput(t, cfg, []byte("some bytes"), "put", "-", "/f")
	require.NoError(t, err)

	var u usage
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfg, "-o", "json", "df")), &u))
	assert.Equal(t, int64(128<<20), u.DefaultBlockSize)
	assert.GreaterOrEqual(t, u.Remaining, int64(0))

	assert.Contains(t, mustRun(t, cfg, "df"), "128.0 MiB")
}

func TestBench(t *testing.T) {
	cfg := newTestConfig(t)

	var res benchResult
	out := mustRun(t, cfg, "-o", "json", "bench", "--size", "300k", "--chunk", "64k", "--path", "/bench/file")
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Verified)
	assert.Equal(t, int64(300<<10), res.Bytes)
	assert.Equal(t, "/bench/file", res.Path)

	_, err := run(t, cfg, "stat", "/bench/file")
	assert.Equal(t, ExitNotFound, ExitCode(err))

	_, err = run(t, cfg, "bench", "--size", "0")
	assert.Equal(t, ExitInvalidInput, ExitCode(err))
}

func TestNamenodes(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "hdfs-site.xml")
	require.NoError(t, os.WriteFile(site, []byte(`<?xml version="1.0"?>
<configuration>
  <property><name>dfs.nameservices</name><value>prod</value></property>
  <property><name>dfs.ha.namenodes.prod</name><value>nn1,nn2</value></property>
  <property><name>dfs.namenode.rpc-address.prod.nn1</name><value>nn1.example.com:8020</value></property>
  <property><name>dfs.namenode.rpc-address.prod.nn2</name><value>nn2.example.com:8020</value></property>
</configuration>`), 0644))

	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(fmt.Sprintf(`provider: hdfs
logging:
  level: ERROR
connection:
  service: prod
  hadoop_conf_path: %s
`, site)), 0644))

	out := mustRun(t, cfg, "namenodes")
	assert.Contains(t, out, "nn1.example.com:8020")
	assert.Contains(t, out, "nn2.example.com:8020")

	var list map[string][]map[string]string
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfg, "-o", "json", "namenodes", "prod")), &list))
	require.Len(t, list["prod"], 2)
	assert.Equal(t, "nn1", list["prod"][0]["id"])

	assert.Contains(t, mustRun(t, cfg, "namenodes", "other"), "No HA namenodes configured.")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dfsclient.yaml")

	out := mustRun(t, path, "init")
	assert.Contains(t, out, path)
	_, err := os.Stat(path)
	require.NoError(t, err)

	_, err = run(t, path, "init")
	require.Error(t, err)

	mustRun(t, path, "init", "--force")
}

func TestGC(t *testing.T) {
	cfg := newTestConfig(t)
	_, err := runWithInput(t, cfg, []byte("data"), "put", "-", "/f")
	require.NoError(t, err)

	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, cfg, "-o", "json", "gc", "--dry-run")), &stats))
	assert.EqualValues(t, 1, stats["referenced"])
	assert.EqualValues(t, 0, stats["orphaned"])

	assert.Contains(t, mustRun(t, cfg, "gc"), "REFERENCED")

	_, err = run(t, cfg, "--provider", "hdfs", "gc")
	assert.Equal(t, ExitNotSupported, ExitCode(err))
}
