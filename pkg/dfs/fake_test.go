package dfs

import (
	"bytes"
	"context"
	"os"
	"sync"
	"time"

	"github.com/marmos91/dfsclient/pkg/provider"
)

type readStep struct {
	data []byte
	err  error
}

// fakeReadHandle replays a script of read results.
type fakeReadHandle struct {
	mu       sync.Mutex
	gate     chan struct{}
	openErr  error
	closeErr error
	script   []readStep
	sizes    []int

	opens, reads, closes int
}

func (h *fakeReadHandle) Open(ctx context.Context) error {
	if h.gate != nil {
		<-h.gate
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opens++
	return h.openErr
}

func (h *fakeReadHandle) Read(_ context.Context, p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reads++
	h.sizes = append(h.sizes, len(p))
	if len(h.script) == 0 {
		return 0, nil
	}
	step := h.script[0]
	h.script = h.script[1:]
	if step.err != nil {
		return 0, step.err
	}
	return copy(p, step.data), nil
}

func (h *fakeReadHandle) Close(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return h.closeErr
}

func (h *fakeReadHandle) counts() (opens, reads, closes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opens, h.reads, h.closes
}

// fakeWriteHandle accepts at most maxPerWrite bytes per call and fails the
// failAt-th write (1-based) when failAt > 0.
type fakeWriteHandle struct {
	mu          sync.Mutex
	gate        chan struct{}
	openErr     error
	closeErr    error
	maxPerWrite int
	failAt      int
	failErr     error
	zeroWrites  bool
	syncs       int

	opts   provider.WriteOptions
	buf    bytes.Buffer
	opens  int
	writes int
	closes int
}

func (h *fakeWriteHandle) Open(_ context.Context, opts provider.WriteOptions) error {
	if h.gate != nil {
		<-h.gate
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opens++
	h.opts = opts
	return h.openErr
}

func (h *fakeWriteHandle) Write(_ context.Context, p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes++
	if h.failAt > 0 && h.writes == h.failAt {
		return 0, h.failErr
	}
	if h.zeroWrites {
		return 0, nil
	}
	n := len(p)
	if h.maxPerWrite > 0 && n > h.maxPerWrite {
		n = h.maxPerWrite
	}
	h.buf.Write(p[:n])
	return n, nil
}

func (h *fakeWriteHandle) Close(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return h.closeErr
}

func (h *fakeWriteHandle) counts() (opens, writes, closes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opens, h.writes, h.closes
}

type syncingWriteHandle struct {
	*fakeWriteHandle
}

func (h syncingWriteHandle) Flush(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.syncs++
	return nil
}

func (h syncingWriteHandle) Sync(ctx context.Context) error {
	return h.Flush(ctx)
}

// fakeConn is a Connection whose behaviour is set per test.
type fakeConn struct {
	entries   []provider.FileInfo
	info      *provider.FileInfo
	err       error
	wd        string
	readH     provider.ReadHandle
	writeH    provider.WriteHandle
	truncated bool
	calls     []string
	mu        sync.Mutex
}

func (c *fakeConn) record(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op)
}

func (c *fakeConn) List(context.Context, string) ([]provider.FileInfo, error) {
	c.record("list")
	return c.entries, c.err
}

func (c *fakeConn) GetPathInfo(context.Context, string) (*provider.FileInfo, error) {
	c.record("stat")
	if c.err != nil {
		return nil, c.err
	}
	return c.info, nil
}

func (c *fakeConn) Delete(context.Context, string, bool) error { c.record("delete"); return c.err }
func (c *fakeConn) CreateDirectory(context.Context, string) error {
	c.record("mkdir")
	return c.err
}
func (c *fakeConn) Exists(context.Context, string) error          { c.record("exists"); return c.err }
func (c *fakeConn) Rename(context.Context, string, string) error  { c.record("rename"); return c.err }
func (c *fakeConn) SetWorkingDirectory(_ context.Context, p string) error {
	c.record("setwd")
	if c.err == nil {
		c.wd = p
	}
	return c.err
}
func (c *fakeConn) GetWorkingDirectory(context.Context) (string, error) {
	c.record("getwd")
	return c.wd, c.err
}
func (c *fakeConn) SetReplication(context.Context, string, int16) error {
	c.record("setrep")
	return c.err
}
func (c *fakeConn) GetDefaultBlockSize(context.Context) (int64, error) { return 128 << 20, c.err }
func (c *fakeConn) GetCapacity(context.Context) (int64, error)         { return 1 << 40, c.err }
func (c *fakeConn) GetUsed(context.Context) (int64, error)             { return 1 << 20, c.err }
func (c *fakeConn) Chown(context.Context, string, string, string) error {
	c.record("chown")
	return c.err
}
func (c *fakeConn) Chmod(context.Context, string, os.FileMode) error {
	c.record("chmod")
	return c.err
}
func (c *fakeConn) Utime(context.Context, string, time.Time, time.Time) error {
	c.record("utime")
	return c.err
}
func (c *fakeConn) Truncate(context.Context, string, int64) (bool, error) {
	c.record("truncate")
	return c.truncated, c.err
}
func (c *fakeConn) NewReadHandle(string) provider.ReadHandle   { return c.readH }
func (c *fakeConn) NewWriteHandle(string) provider.WriteHandle { return c.writeH }
func (c *fakeConn) Close() error                               { return nil }
