package sink

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"

	"f1decode/pkg/frame"
)

// CAN IDs the bridge emits on. Speed, RPM and throttle use their OBD-II PIDs
// with the documented encodings; the custom ID carries the full 16-bit speed
// since OBD-II speed saturates at 255 km/h.
const (
	canIDSpeedOBD2   = 0x0D
	canIDSpeedCustom = 0xD0
	canIDRPM         = 0x0C
	canIDThrottle    = 0x11
)

// Transmitter sends one CAN frame. *socketcan.Transmitter satisfies it; tests
// substitute a recorder.
type Transmitter interface {
	TransmitFrame(ctx context.Context, f can.Frame) error
}

// CANBridge re-emits the controlling car's telemetry onto a CAN bus so OBD-II
// dashboards and loggers can consume the sim as if it were a real vehicle.
// Frames without a telemetry side are skipped.
type CANBridge struct {
	ctx context.Context
	tx  Transmitter
}

func NewCANBridge(ctx context.Context, tx Transmitter) *CANBridge {
	return &CANBridge{ctx: ctx, tx: tx}
}

func (c *CANBridge) Write(f *frame.Frame) error {
	t := f.CarTelemetry
	if t == nil {
		return nil
	}

	speedOBD2 := t.SpeedKPH
	if speedOBD2 > 255 {
		speedOBD2 = 255
	}

	frames := []can.Frame{
		unsignedBigEndianFrame(canIDSpeedOBD2, 1, uint64(speedOBD2)),
		unsignedBigEndianFrame(canIDSpeedCustom, 2, uint64(t.SpeedKPH)),
		// OBD-II PID 0x0C encodes rpm = (A*256 + B) / 4.
		unsignedBigEndianFrame(canIDRPM, 2, uint64(t.EngineRPM)*4),
		// OBD-II PID 0x11 encodes throttle = (100/255) * A.
		unsignedBigEndianFrame(canIDThrottle, 1, uint64(t.Throttle*255)),
	}
	for _, fr := range frames {
		if err := c.tx.TransmitFrame(c.ctx, fr); err != nil {
			return errors.Wrapf(err, "transmit can frame 0x%X", fr.ID)
		}
	}
	return nil
}

// Close is a no-op; the caller owns the socketcan connection.
func (c *CANBridge) Close() error {
	return nil
}

func unsignedBigEndianFrame(id uint32, length uint8, value uint64) can.Frame {
	f := can.Frame{ID: id, Length: length}
	buf := make([]byte, length)
	switch length {
	case 1:
		buf[0] = uint8(value)
	case 2:
		binary.BigEndian.PutUint16(buf, uint16(value))
	case 4:
		binary.BigEndian.PutUint32(buf, uint32(value))
	case 8:
		binary.BigEndian.PutUint64(buf, value)
	}
	copy(f.Data[:length], buf)
	return f
}
