package transport

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultPort is the port the game emits telemetry on.
	DefaultPort = 20777

	// maxDatagram bounds the read buffer. The largest spec'd packet is well
	// under 2 KiB, but the decoder never assumes an exact size.
	maxDatagram = 2048
)

// UDP receives telemetry datagrams from a bound local socket, accepting from
// any source address.
type UDP struct {
	conn    *net.UDPConn
	timeout time.Duration
	buf     []byte
}

// ListenUDP binds addr (e.g. "0.0.0.0:20777"). timeout bounds each Receive;
// expiry yields ErrTimeout, not a failure. timeout <= 0 means block forever.
func ListenUDP(addr string, timeout time.Duration) (*UDP, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	return &UDP{
		conn:    conn,
		timeout: timeout,
		buf:     make([]byte, maxDatagram),
	}, nil
}

// Receive blocks for one datagram or until the configured timeout.
func (u *UDP) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrClosed
	}
	if u.timeout > 0 {
		if err := u.conn.SetReadDeadline(time.Now().Add(u.timeout)); err != nil {
			return nil, errors.Wrap(err, "set read deadline")
		}
	}
	n, _, err := u.conn.ReadFromUDP(u.buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, errors.Wrap(err, "read udp")
	}
	return u.buf[:n], nil
}

func (u *UDP) Close() error {
	return u.conn.Close()
}

// LocalAddr reports the bound address, mainly for startup logging.
func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}
