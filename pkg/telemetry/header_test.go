package telemetry_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1decode/pkg/telemetry"
)

// buildHeader assembles a valid 29-byte header with recognizable values.
func buildHeader(kind telemetry.PacketKind, frameID uint32, playerIdx uint8) []byte {
	b := make([]byte, telemetry.HeaderSize)
	binary.LittleEndian.PutUint16(b[0:], 2025)
	b[2] = 25 // game year
	b[3] = 1  // major
	b[4] = 3  // minor
	b[5] = 7  // packet version
	b[6] = byte(kind)
	binary.LittleEndian.PutUint64(b[7:], 0xDEADBEEFCAFEF00D)
	binary.LittleEndian.PutUint32(b[15:], math.Float32bits(123.5))
	binary.LittleEndian.PutUint32(b[19:], frameID)
	binary.LittleEndian.PutUint32(b[23:], frameID+10)
	b[27] = playerIdx
	b[28] = 1
	return b
}

func TestDecodeHeader(t *testing.T) {
	b := buildHeader(telemetry.KindCarTelemetry, 100, 4)

	h, err := telemetry.DecodeHeader(b)
	require.NoError(t, err)

	assert.Equal(t, uint16(2025), h.PacketFormat)
	assert.Equal(t, uint8(25), h.GameYear)
	assert.Equal(t, uint8(1), h.GameMajorVersion)
	assert.Equal(t, uint8(3), h.GameMinorVersion)
	assert.Equal(t, uint8(7), h.PacketVersion)
	assert.Equal(t, telemetry.KindCarTelemetry, h.Kind)
	assert.Equal(t, uint64(0xDEADBEEFCAFEF00D), h.SessionID)
	assert.Equal(t, float32(123.5), h.SessionTime)
	assert.Equal(t, uint32(100), h.FrameID)
	assert.Equal(t, uint32(110), h.OverallFrameID)
	assert.Equal(t, uint8(4), h.PlayerCarIndex)
	assert.Equal(t, uint8(1), h.SecondaryPlayerCarIndex)
}

func TestDecodeHeaderTooShort(t *testing.T) {
	// Every length below the header size must fail cleanly, no panic, no
	// garbage header.
	full := buildHeader(telemetry.KindLapData, 1, 0)
	for n := 0; n < telemetry.HeaderSize; n++ {
		_, err := telemetry.DecodeHeader(full[:n])
		assert.ErrorIs(t, err, telemetry.ErrTooShort, "length %d", n)
	}
}

func TestDecodeHeaderTenByteBuffer(t *testing.T) {
	_, err := telemetry.DecodeHeader(make([]byte, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, telemetry.ErrTooShort))
}

func TestValidateCarIndex(t *testing.T) {
	assert.NoError(t, telemetry.ValidateCarIndex(0))
	assert.NoError(t, telemetry.ValidateCarIndex(telemetry.MaxCars-1))
	assert.ErrorIs(t, telemetry.ValidateCarIndex(-1), telemetry.ErrInvalidCarIndex)
	assert.ErrorIs(t, telemetry.ValidateCarIndex(telemetry.MaxCars), telemetry.ErrInvalidCarIndex)
}
