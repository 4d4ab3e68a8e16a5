package dfs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/internal/ratelimiter"
	"github.com/marmos91/dfsclient/pkg/provider"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/", "/"},
		{"//", "/"},
		{"//user/x", "/user/x"},
		{"///user/x", "/user/x"},
		{"/user/x/", "/user/x"},
		{"//user/x/", "/user/x"},
		{"/user/x//", "/user/x"},
		{"relative/", "relative"},
		{"/plain", "/plain"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizePath(tt.in)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.HasPrefix(got, "//"))
			if got != "/" {
				assert.False(t, strings.HasSuffix(got, "/"))
			}
		})
	}
}

func TestListNormalizesEntries(t *testing.T) {
	conn := &fakeConn{entries: []provider.FileInfo{
		{Path: "//tmp/a", Type: provider.TypeFile},
		{Path: "/tmp/dir/", Type: provider.TypeDirectory},
		{Path: "/", Type: provider.TypeDirectory},
	}}
	fs := New(conn)

	entries, err := fs.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "/tmp/a", entries[0].Path)
	assert.Equal(t, "/tmp/dir", entries[1].Path)
	assert.Equal(t, "/", entries[2].Path)
}

func TestListPropagatesNotFound(t *testing.T) {
	fs := New(&fakeConn{err: provider.NewPathError("list", "/nope", provider.ErrNotFound)})

	_, err := fs.List(context.Background(), "/nope")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestExistsNeverFails(t *testing.T) {
	tests := []error{
		nil,
		provider.ErrNotFound,
		provider.ErrPermissionDenied,
		errors.New("rpc timeout"),
	}
	for _, connErr := range tests {
		fs := New(&fakeConn{err: connErr})
		assert.Equal(t, connErr == nil, fs.Exists(context.Background(), "/x"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, New(&fakeConn{}).Exists(ctx, "/x"))
}

func TestIsDirectoryIsFileDerivedFromStats(t *testing.T) {
	ctx := context.Background()

	dir := New(&fakeConn{info: &provider.FileInfo{Path: "/d", Type: provider.TypeDirectory}})
	isDir, err := dir.IsDirectory(ctx, "/d")
	require.NoError(t, err)
	isFile, err := dir.IsFile(ctx, "/d")
	require.NoError(t, err)
	assert.True(t, isDir)
	assert.False(t, isFile)

	missing := New(&fakeConn{err: provider.ErrNotFound})
	_, err = missing.IsDirectory(ctx, "/m")
	assert.ErrorIs(t, err, provider.ErrNotFound)
	_, err = missing.IsFile(ctx, "/m")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestWorkingDirectoryLimit(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{wd: "/user/someone"}

	fs := New(conn, WithMaxPathLength(8))
	_, err := fs.GetWorkingDirectory(ctx)
	assert.ErrorIs(t, err, provider.ErrInvalidInput)

	fs = New(conn)
	wd, err := fs.GetWorkingDirectory(ctx)
	require.NoError(t, err)
	require.NoError(t, fs.SetWorkingDirectory(ctx, wd))
	again, err := fs.GetWorkingDirectory(ctx)
	require.NoError(t, err)
	assert.Equal(t, wd, again)
}

func TestOneShotOperationsReachConnection(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{truncated: true}
	fs := New(conn)

	require.NoError(t, fs.Mkdir(ctx, "/a"))
	require.NoError(t, fs.Delete(ctx, "/a", true))
	require.NoError(t, fs.Rename(ctx, "/a", "/b"))
	require.NoError(t, fs.SetReplication(ctx, "/b", 2))
	require.NoError(t, fs.Chown(ctx, "/b", "hdfs", ""))
	require.NoError(t, fs.Chmod(ctx, "/b", 0700))
	require.NoError(t, fs.Utime(ctx, "/b", time.Now(), time.Time{}))
	ok, err := fs.Truncate(ctx, "/b", 10)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"mkdir", "delete", "rename", "setrep", "chown", "chmod", "utime", "truncate"}, conn.calls)

	bs, err := fs.GetDefaultBlockSize(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 128<<20, bs)
	capacity, err := fs.GetCapacity(ctx)
	require.NoError(t, err)
	used, err := fs.GetUsed(ctx)
	require.NoError(t, err)
	assert.Greater(t, capacity, used)
}

func TestRateLimiterCancellation(t *testing.T) {
	limiter := ratelimiter.New(1, 1)
	require.True(t, limiter.Allow())
	fs := New(&fakeConn{}, WithRateLimiter(limiter))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.Error(t, fs.Mkdir(ctx, "/x"))
}

type recordingMetrics struct {
	ops   []string
	errs  int
	bytes map[string]int
	open  map[string]int
}

func (m *recordingMetrics) ObserveOperation(op string, _ time.Duration, err error) {
	m.ops = append(m.ops, op)
	if err != nil {
		m.errs++
	}
}
func (m *recordingMetrics) RecordBytes(direction string, n int) { m.bytes[direction] += n }
func (m *recordingMetrics) StreamOpened(direction string)       { m.open[direction]++ }
func (m *recordingMetrics) StreamClosed(direction string)       { m.open[direction]-- }

func TestMetricsObserved(t *testing.T) {
	m := &recordingMetrics{bytes: map[string]int{}, open: map[string]int{}}
	wh := &fakeWriteHandle{}
	fs := New(&fakeConn{err: nil, writeH: wh}, WithMetrics(m))
	ctx := context.Background()

	require.NoError(t, fs.Mkdir(ctx, "/m"))
	require.NoError(t, fs.WriteFile(ctx, "/m/f", []byte("12345"), WriteOptions{}))

	assert.Equal(t, []string{"mkdir"}, m.ops)
	assert.Equal(t, 5, m.bytes[directionWrite])
	assert.Zero(t, m.open[directionWrite], "every opened stream was closed")
}

func TestReadFileAndWriteFileThroughFakes(t *testing.T) {
	ctx := context.Background()
	rh := &fakeReadHandle{script: []readStep{{data: []byte("ab")}, {data: []byte("cd")}}}
	wh := &fakeWriteHandle{maxPerWrite: 1}
	fs := New(&fakeConn{readH: rh, writeH: wh})

	data, err := fs.ReadFile(ctx, "/r")
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))

	require.NoError(t, fs.WriteFile(ctx, "/w", nil, WriteOptions{}))
	assert.Empty(t, wh.buf.String())
}

func TestConnectAppliesDefaults(t *testing.T) {
	var got provider.Params
	d := provider.DialerFunc(func(_ context.Context, p provider.Params) (provider.Connection, error) {
		got = p
		return &fakeConn{}, nil
	})

	fs, err := Connect(context.Background(), d, provider.Params{User: "alice"})
	require.NoError(t, err)
	defer fs.Close()

	assert.Equal(t, provider.DefaultService, got.Service)
	assert.Zero(t, got.Port)
	assert.Equal(t, "alice", got.User)

	failing := provider.DialerFunc(func(context.Context, provider.Params) (provider.Connection, error) {
		return nil, errors.New("no route to host")
	})
	_, err = Connect(context.Background(), failing, provider.Params{Service: "nn", Port: 8020})
	assert.ErrorContains(t, err, "nn:8020")
}
