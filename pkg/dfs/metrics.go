package dfs

import "time"

// Metrics receives facade and stream observations. The Prometheus
// implementation lives in pkg/metrics; a nil Metrics disables collection.
type Metrics interface {
	// ObserveOperation records one completed one-shot operation.
	ObserveOperation(op string, duration time.Duration, err error)

	// RecordBytes records n bytes moved by a stream in direction
	// ("read" or "write").
	RecordBytes(direction string, n int)

	StreamOpened(direction string)
	StreamClosed(direction string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, time.Duration, error) {}
func (noopMetrics) RecordBytes(string, int)                        {}
func (noopMetrics) StreamOpened(string)                            {}
func (noopMetrics) StreamClosed(string)                            {}
