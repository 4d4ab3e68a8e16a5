package dfs

import (
	"sync"
)

// State is the lifecycle position of a Reader or Writer.
type State int32

// Constructors start the open immediately, so a Reader or Writer is
// observed in StateOpening first. StateUnopened is only the zero State.
const (
	StateUnopened State = iota
	StateOpening
	StateOpen
	StateClosing
	StateClosed

	// StateErrored is absorbing: once a stream fails it issues no further
	// primitives and reports the same error until discarded.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

const (
	directionRead  = "read"
	directionWrite = "write"
)

// releaser runs a handle's close primitive at most once. Every caller,
// including concurrent ones, observes the result of the first run.
type releaser struct {
	once sync.Once
	err  error
}

func (r *releaser) release(fn func() error) error {
	r.once.Do(func() {
		r.err = fn()
	})
	return r.err
}
