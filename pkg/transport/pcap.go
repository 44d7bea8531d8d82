package transport

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PcapReplay replays telemetry datagrams from a pcapng capture, yielding the
// UDP payload of every packet addressed to the telemetry port. Non-UDP
// packets and other ports are skipped silently.
type PcapReplay struct {
	reader      *pcapgo.NgReader
	linkType    layers.LinkType
	port        layers.UDPPort
	packetCount uint64
}

// NewPcapReplay wraps an opened pcapng stream. port selects which destination
// UDP port counts as telemetry traffic.
func NewPcapReplay(r io.Reader, port int) (*PcapReplay, error) {
	ngReader, err := pcapgo.NewNgReader(r, pcapgo.DefaultNgReaderOptions)
	if err != nil {
		return nil, errors.Wrap(err, "create pcapng reader")
	}

	return &PcapReplay{
		reader:   ngReader,
		linkType: ngReader.LinkType(),
		port:     layers.UDPPort(port),
	}, nil
}

// Receive returns the next matching UDP payload, or ErrClosed at end of
// capture. Replay never times out: either a datagram is available now or the
// capture is done.
func (p *PcapReplay) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, ErrClosed
		}

		data, _, err := p.reader.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrClosed
			}
			return nil, errors.Wrap(err, "read packet data")
		}
		p.packetCount++

		packet := gopacket.NewPacket(data, p.linkType, gopacket.Default)
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp := udpLayer.(*layers.UDP)
		if udp.DstPort != p.port {
			continue
		}
		return udp.Payload, nil
	}
}

// Close is a no-op; the caller owns the underlying file.
func (p *PcapReplay) Close() error {
	return nil
}

// PacketCount reports the number of capture packets read, matching or not.
func (p *PcapReplay) PacketCount() uint64 {
	return p.packetCount
}
