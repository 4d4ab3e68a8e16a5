package dfs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/provider"
)

func newTestReader(h provider.ReadHandle) *Reader {
	return newReader(context.Background(), "/f", h, 0, noopMetrics{})
}

func TestReaderReadsUntilEOFAndCloses(t *testing.T) {
	h := &fakeReadHandle{script: []readStep{{data: []byte("hello ")}, {data: []byte("world")}}}
	r := newTestReader(h)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	opens, reads, closes := h.counts()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 3, reads)
	assert.Equal(t, 1, closes, "end of file must close the handle")
	assert.Equal(t, StateClosed, r.State())
	assert.EqualValues(t, 11, r.BytesRead())

	n, err := r.Read(make([]byte, 4))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, r.Close())
	_, _, closes = h.counts()
	assert.Equal(t, 1, closes)
}

func TestReaderReadChunkAllocatesRequestedSize(t *testing.T) {
	h := &fakeReadHandle{script: []readStep{{data: []byte("abc")}}}
	r := newTestReader(h)

	chunk, err := r.ReadChunk(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), chunk, "only the bytes read are returned")

	chunk, err = r.ReadChunk(context.Background(), 0)
	assert.Nil(t, chunk)
	assert.ErrorIs(t, err, io.EOF)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []int{10, DefaultChunkSize}, h.sizes)
}

func TestReaderWaitsForDeferredOpen(t *testing.T) {
	gate := make(chan struct{})
	h := &fakeReadHandle{gate: gate, script: []readStep{{data: []byte("x")}}}
	r := newTestReader(h)
	assert.Equal(t, StateOpening, r.State())

	got := make(chan []byte)
	go func() {
		chunk, _ := r.ReadChunk(context.Background(), 8)
		got <- chunk
	}()

	select {
	case <-got:
		t.Fatal("read completed before open")
	case <-time.After(20 * time.Millisecond):
	}

	_, reads, _ := h.counts()
	assert.Zero(t, reads, "no read primitive before open completes")

	close(gate)
	assert.Equal(t, []byte("x"), <-got)
	require.NoError(t, r.Close())
}

func TestReaderOpenFailure(t *testing.T) {
	openErr := provider.NewPathError("open", "/f", provider.ErrNotFound)
	h := &fakeReadHandle{openErr: openErr}
	r := newTestReader(h)

	_, err := r.ReadChunk(context.Background(), 8)
	assert.ErrorIs(t, err, provider.ErrNotFound)
	assert.Equal(t, StateErrored, r.State())

	_, err = r.Read(make([]byte, 8))
	assert.ErrorIs(t, err, provider.ErrNotFound)

	assert.ErrorIs(t, r.Close(), provider.ErrNotFound)
	_, reads, closes := h.counts()
	assert.Zero(t, reads)
	assert.Zero(t, closes, "a handle that never opened is not closed")
}

func TestReaderErrorStopsFurtherReads(t *testing.T) {
	readErr := errors.New("datanode unreachable")
	h := &fakeReadHandle{
		closeErr: errors.New("close failed too"),
		script: []readStep{
			{data: []byte("ok")},
			{err: readErr},
			{data: []byte("never")},
		},
	}
	r := newTestReader(h)

	_, err := r.ReadChunk(context.Background(), 4)
	require.NoError(t, err)

	_, err = r.ReadChunk(context.Background(), 4)
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, StateErrored, r.State())

	for i := 0; i < 3; i++ {
		_, err = r.ReadChunk(context.Background(), 4)
		assert.ErrorIs(t, err, readErr)
	}

	_, reads, closes := h.counts()
	assert.Equal(t, 2, reads, "no read primitive after an error")
	assert.Equal(t, 1, closes, "error triggers a best-effort close")

	assert.ErrorIs(t, r.Close(), readErr, "original error wins over close error")
	_, _, closes = h.counts()
	assert.Equal(t, 1, closes)
}

func TestReaderCloseTwiceSameResult(t *testing.T) {
	closeErr := errors.New("close failed")
	h := &fakeReadHandle{closeErr: closeErr, script: []readStep{{data: []byte("abc")}}}
	r := newTestReader(h)

	_, err := r.ReadChunk(context.Background(), 2)
	require.NoError(t, err)

	first := r.Close()
	second := r.Close()
	assert.ErrorIs(t, first, closeErr)
	assert.Equal(t, first, second)

	_, _, closes := h.counts()
	assert.Equal(t, 1, closes)

	_, err = r.ReadChunk(context.Background(), 2)
	assert.ErrorIs(t, err, provider.ErrClosed)
}

func TestReaderConcurrentCloseInvokesPrimitiveOnce(t *testing.T) {
	gate := make(chan struct{})
	h := &fakeReadHandle{gate: gate}
	r := newTestReader(h)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Close()
		}(i)
	}
	close(gate)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	_, _, closes := h.counts()
	assert.Equal(t, 1, closes)
	assert.Equal(t, StateClosed, r.State())
}

func TestReaderCancelledWaitKeepsState(t *testing.T) {
	gate := make(chan struct{})
	h := &fakeReadHandle{gate: gate, script: []readStep{{data: []byte("late")}}}
	r := newTestReader(h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ReadChunk(ctx, 4)
	assert.ErrorIs(t, err, context.Canceled)

	close(gate)
	chunk, err := r.ReadChunk(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "late", string(chunk))
	require.NoError(t, r.Close())
}

func TestReaderZeroLengthReadIssuesNoPrimitive(t *testing.T) {
	h := &fakeReadHandle{script: []readStep{{data: []byte("a")}}}
	r := newTestReader(h)

	n, err := r.Read(nil)
	assert.Zero(t, n)
	assert.NoError(t, err)

	_, reads, _ := h.counts()
	assert.Zero(t, reads)
	require.NoError(t, r.Close())
}
