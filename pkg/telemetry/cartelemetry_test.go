package telemetry_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1decode/pkg/telemetry"
)

// buildTelemetryDatagram returns a kind-6 datagram with all per-car records
// zeroed; tests poke individual fields through the returned slice.
func buildTelemetryDatagram(frameID uint32, playerIdx uint8) []byte {
	header := buildHeader(telemetry.KindCarTelemetry, frameID, playerIdx)
	return append(header, make([]byte, telemetry.MaxCars*telemetry.CarTelemetryStride)...)
}

func telemetryFieldOffset(carIndex, fieldOff int) int {
	return telemetry.HeaderSize + carIndex*telemetry.CarTelemetryStride + fieldOff
}

func TestDecodeCarTelemetryZeroedRecordWithSpeedAndThrottle(t *testing.T) {
	// Synthetic header (format 2025, kind 6, frame 100, controlling car 0),
	// zeroed array except car 0's speed = 250 and throttle = 1.0.
	b := buildTelemetryDatagram(100, 0)
	binary.LittleEndian.PutUint16(b[telemetryFieldOffset(0, 0):], 250)
	binary.LittleEndian.PutUint32(b[telemetryFieldOffset(0, 2):], math.Float32bits(1.0))

	d, err := telemetry.DecodeCarTelemetry(b, 0)
	require.NoError(t, err)

	assert.Equal(t, uint16(250), d.SpeedKPH)
	assert.Equal(t, float32(1.0), d.Throttle)

	// Everything else stays zero.
	assert.Zero(t, d.Steer)
	assert.Zero(t, d.Brake)
	assert.Zero(t, d.Clutch)
	assert.Zero(t, d.Gear)
	assert.Zero(t, d.EngineRPM)
	assert.False(t, d.DRSOpen)
	assert.Zero(t, d.RevLightsPercent)
	assert.Equal(t, [4]uint16{}, d.BrakesTemp)
	assert.Equal(t, [4]uint8{}, d.TyresSurfaceTemp)
	assert.Equal(t, [4]uint8{}, d.TyresInnerTemp)
	assert.Equal(t, [4]float32{}, d.TyresPressure)
}

func TestDecodeCarTelemetryAllFields(t *testing.T) {
	const car = 3
	b := buildTelemetryDatagram(7, car)
	rec := b[telemetryFieldOffset(car, 0):]

	binary.LittleEndian.PutUint16(rec[0:], 312)                        // speed
	binary.LittleEndian.PutUint32(rec[2:], math.Float32bits(0.75))    // throttle
	binary.LittleEndian.PutUint32(rec[6:], math.Float32bits(-0.25))   // steer
	binary.LittleEndian.PutUint32(rec[10:], math.Float32bits(0.1))    // brake
	rec[14] = 42                                                      // clutch
	rec[15] = byte(int8(-1))                                          // gear: reverse
	binary.LittleEndian.PutUint16(rec[16:], 11200)                    // rpm
	rec[18] = 1                                                       // drs
	rec[19] = 88                                                      // rev lights %
	binary.LittleEndian.PutUint16(rec[20:], 0x7FFF)                   // rev lights bits
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint16(rec[22+2*i:], uint16(400+i)) // brakes temp
		rec[30+i] = uint8(90 + i)                                  // surface temp
		rec[34+i] = uint8(100 + i)                                 // inner temp
		binary.LittleEndian.PutUint32(rec[40+4*i:], math.Float32bits(float32(21)+float32(i)/10))
	}
	binary.LittleEndian.PutUint16(rec[38:], 105) // engine temp

	d, err := telemetry.DecodeCarTelemetry(b, car)
	require.NoError(t, err)

	assert.Equal(t, uint16(312), d.SpeedKPH)
	assert.Equal(t, float32(0.75), d.Throttle)
	assert.Equal(t, float32(-0.25), d.Steer)
	assert.Equal(t, float32(0.1), d.Brake)
	assert.Equal(t, uint8(42), d.Clutch)
	assert.Equal(t, int8(-1), d.Gear)
	assert.Equal(t, uint16(11200), d.EngineRPM)
	assert.True(t, d.DRSOpen)
	assert.Equal(t, uint8(88), d.RevLightsPercent)
	assert.Equal(t, uint16(0x7FFF), d.RevLightsBitValue)
	assert.Equal(t, [4]uint16{400, 401, 402, 403}, d.BrakesTemp)
	assert.Equal(t, [4]uint8{90, 91, 92, 93}, d.TyresSurfaceTemp)
	assert.Equal(t, [4]uint8{100, 101, 102, 103}, d.TyresInnerTemp)
	assert.Equal(t, uint16(105), d.EngineTemp)
	assert.InDelta(t, 21.0, float64(d.TyresPressure[telemetry.TyreRearLeft]), 1e-5)
	assert.InDelta(t, 21.3, float64(d.TyresPressure[telemetry.TyreFrontRight]), 1e-5)
}

func TestDecodeCarTelemetryTruncated(t *testing.T) {
	// Buffer covers cars 0..k only: indices above k fail with ErrTooShort,
	// indices at or below k decode.
	const k = 4
	full := buildTelemetryDatagram(9, 0)
	b := full[:telemetry.HeaderSize+(k+1)*telemetry.CarTelemetryStride]

	for car := 0; car <= k; car++ {
		_, err := telemetry.DecodeCarTelemetry(b, car)
		assert.NoError(t, err, "car %d", car)
	}
	for car := k + 1; car < telemetry.MaxCars; car++ {
		_, err := telemetry.DecodeCarTelemetry(b, car)
		assert.ErrorIs(t, err, telemetry.ErrTooShort, "car %d", car)
	}
}

func TestDecodeCarTelemetryInvalidCarIndex(t *testing.T) {
	b := buildTelemetryDatagram(1, 0)
	_, err := telemetry.DecodeCarTelemetry(b, -1)
	assert.ErrorIs(t, err, telemetry.ErrInvalidCarIndex)
	_, err = telemetry.DecodeCarTelemetry(b, telemetry.MaxCars)
	assert.ErrorIs(t, err, telemetry.ErrInvalidCarIndex)
}

func TestDecodeCarTelemetryNormalizedRange(t *testing.T) {
	cases := []struct {
		name string
		off  int
		val  float32
	}{
		{"throttle above one", 2, 1.5},
		{"throttle negative", 2, -0.1},
		{"steer below minus one", 6, -1.5},
		{"brake nan", 10, float32(math.NaN())},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := buildTelemetryDatagram(1, 0)
			binary.LittleEndian.PutUint32(b[telemetryFieldOffset(0, tc.off):], math.Float32bits(tc.val))
			_, err := telemetry.DecodeCarTelemetry(b, 0)
			assert.ErrorIs(t, err, telemetry.ErrFieldRange)
		})
	}
}

func TestDecodeCarTelemetryPassesThroughImplausibleIntegers(t *testing.T) {
	// Integer wire fields are never filtered; a physically implausible speed
	// is a consumer concern.
	b := buildTelemetryDatagram(1, 0)
	binary.LittleEndian.PutUint16(b[telemetryFieldOffset(0, 0):], 9000)

	d, err := telemetry.DecodeCarTelemetry(b, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(9000), d.SpeedKPH)
}
