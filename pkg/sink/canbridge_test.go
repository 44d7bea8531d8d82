package sink_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"f1decode/pkg/frame"
	"f1decode/pkg/sink"
	"f1decode/pkg/telemetry"
)

type recordingTransmitter struct {
	frames []can.Frame
}

func (r *recordingTransmitter) TransmitFrame(_ context.Context, f can.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func TestCANBridgeEmitsTelemetryFrames(t *testing.T) {
	tx := &recordingTransmitter{}
	bridge := sink.NewCANBridge(context.Background(), tx)

	err := bridge.Write(&frame.Frame{
		FrameID: 1,
		CarTelemetry: &telemetry.CarTelemetry{
			SpeedKPH:  310,
			EngineRPM: 11500,
			Throttle:  0.5,
		},
	})
	require.NoError(t, err)
	require.Len(t, tx.frames, 4)

	// OBD-II speed saturates at 255.
	assert.Equal(t, uint32(0x0D), tx.frames[0].ID)
	assert.Equal(t, uint8(1), tx.frames[0].Length)
	assert.Equal(t, byte(255), tx.frames[0].Data[0])

	// Custom channel carries the full 16-bit value, big-endian.
	assert.Equal(t, uint32(0xD0), tx.frames[1].ID)
	assert.Equal(t, uint8(2), tx.frames[1].Length)
	assert.Equal(t, byte(310>>8), tx.frames[1].Data[0])
	assert.Equal(t, byte(310&0xFF), tx.frames[1].Data[1])

	// rpm = (A*256 + B) / 4, so the wire value is rpm*4.
	assert.Equal(t, uint32(0x0C), tx.frames[2].ID)
	wireRPM := uint16(tx.frames[2].Data[0])<<8 | uint16(tx.frames[2].Data[1])
	assert.Equal(t, uint16(11500*4), wireRPM)

	// throttle = (100/255) * A, so 0.5 encodes as 127.
	assert.Equal(t, uint32(0x11), tx.frames[3].ID)
	assert.Equal(t, byte(127), tx.frames[3].Data[0])
}

func TestCANBridgeSkipsFramesWithoutTelemetry(t *testing.T) {
	tx := &recordingTransmitter{}
	bridge := sink.NewCANBridge(context.Background(), tx)

	err := bridge.Write(&frame.Frame{
		FrameID: 2,
		LapData: &telemetry.LapData{CurrentLapNum: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, tx.frames)
}
