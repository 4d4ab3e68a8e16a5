package dfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUnopened, "unopened"},
		{StateOpening, "opening"},
		{StateOpen, "open"},
		{StateClosing, "closing"},
		{StateClosed, "closed"},
		{StateErrored, "errored"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestStreamsStartOpening(t *testing.T) {
	var zero State
	assert.Equal(t, StateUnopened, zero)

	rgate := make(chan struct{})
	r := newTestReader(&fakeReadHandle{gate: rgate})
	assert.Equal(t, StateOpening, r.State())

	wgate := make(chan struct{})
	w := newTestWriter(&fakeWriteHandle{gate: wgate}, WriteOptions{})
	assert.Equal(t, StateOpening, w.State())

	close(rgate)
	close(wgate)
	require.NoError(t, r.Close())
	require.NoError(t, w.Close())
}
