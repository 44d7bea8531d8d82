// Package transport delivers raw telemetry datagrams to the ingestion loop,
// either live from a UDP socket or replayed from a packet capture.
package transport

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Transport yields one datagram per Receive call.
//
// The returned slice may alias an internal buffer that is reused by the next
// Receive; the single-threaded ingestion loop fully decodes a datagram before
// receiving the next one, so no copy is made.
type Transport interface {
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

var (
	// ErrTimeout signals "no data currently", not a failure. The caller
	// retries or exits depending on configuration.
	ErrTimeout = errors.New("receive timed out")

	// ErrClosed signals the transport is exhausted or shut down; the
	// ingestion loop terminates cleanly.
	ErrClosed = errors.New("transport closed")
)
