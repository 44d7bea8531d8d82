// Package sink consumes drained frames. Sinks are ordinary consumers of the
// decoder's output and never feed anything back into the pipeline.
package sink

import (
	"f1decode/pkg/frame"

	"github.com/cockroachdb/errors"
)

// Sink receives frames in ascending frame id order, as produced by the
// aggregator. A frame handed to Write is owned by the sink chain; the
// aggregator has already discarded its copy.
type Sink interface {
	Write(f *frame.Frame) error
	Close() error
}

// Multi fans a frame out to several sinks in order. The first write error
// aborts the fan-out; Close closes every sink and reports the first error.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Write(f *frame.Frame) error {
	for _, s := range m.sinks {
		if err := s.Write(f); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "close sink")
		}
	}
	return firstErr
}
