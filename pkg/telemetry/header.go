package telemetry

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

const (
	// HeaderSize is the fixed length of the prefix every datagram carries.
	HeaderSize = 29

	// MaxCars is the number of slots in array-shaped payloads.
	MaxCars = 22
)

// Header is the common prefix of every datagram. It is constructed fresh per
// datagram and never retains a reference into the input buffer.
type Header struct {
	PacketFormat            uint16 // format-year tag, e.g. 2025
	GameYear                uint8
	GameMajorVersion        uint8
	GameMinorVersion        uint8
	PacketVersion           uint8
	Kind                    PacketKind
	SessionID               uint64
	SessionTime             float32 // seconds since session start
	FrameID                 uint32  // monotonically non-decreasing within a session
	OverallFrameID          uint32
	PlayerCarIndex          uint8 // controlling car slot in per-car arrays
	SecondaryPlayerCarIndex uint8
}

// DecodeHeader parses the fixed-size header prefix. All multi-byte fields are
// little-endian. Returns ErrTooShort when fewer than HeaderSize bytes are
// available; it never indexes past the buffer.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, errors.Wrapf(ErrTooShort, "header needs %d bytes, have %d", HeaderSize, len(b))
	}
	return Header{
		PacketFormat:            binary.LittleEndian.Uint16(b[0:2]),
		GameYear:                b[2],
		GameMajorVersion:        b[3],
		GameMinorVersion:        b[4],
		PacketVersion:           b[5],
		Kind:                    PacketKind(b[kindOffset]),
		SessionID:               binary.LittleEndian.Uint64(b[7:15]),
		SessionTime:             math.Float32frombits(binary.LittleEndian.Uint32(b[15:19])),
		FrameID:                 binary.LittleEndian.Uint32(b[19:23]),
		OverallFrameID:          binary.LittleEndian.Uint32(b[23:27]),
		PlayerCarIndex:          b[27],
		SecondaryPlayerCarIndex: b[28],
	}, nil
}

// ValidateCarIndex checks a caller-supplied car slot once, up front. Spec'd
// kinds carry exactly MaxCars records, so anything outside [0, MaxCars) can
// never address a record.
func ValidateCarIndex(carIndex int) error {
	if carIndex < 0 || carIndex >= MaxCars {
		return errors.Wrapf(ErrInvalidCarIndex, "index %d, max %d", carIndex, MaxCars-1)
	}
	return nil
}
