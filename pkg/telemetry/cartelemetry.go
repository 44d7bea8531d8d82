package telemetry

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// CarTelemetryStride is the fixed byte length of one per-car telemetry record.
const CarTelemetryStride = 60

// Tyre array index convention shared by all four-element telemetry arrays.
const (
	TyreRearLeft   = 0
	TyreRearRight  = 1
	TyreFrontLeft  = 2
	TyreFrontRight = 3
)

// CarTelemetry is one car's control inputs and physical state, decoded from a
// kind-6 datagram. Integer fields are raw wire values with no plausibility
// filtering; a 500 km/h speed is the consumer's problem, not the decoder's.
type CarTelemetry struct {
	SpeedKPH          uint16
	Throttle          float32 // 0.0 .. 1.0
	Steer             float32 // -1.0 (full left) .. 1.0 (full right)
	Brake             float32 // 0.0 .. 1.0
	Clutch            uint8   // 0 .. 100
	Gear              int8    // -1 reverse, 0 neutral, 1..8 forward
	EngineRPM         uint16
	DRSOpen           bool
	RevLightsPercent  uint8
	RevLightsBitValue uint16
	BrakesTemp        [4]uint16  // celsius
	TyresSurfaceTemp  [4]uint8   // celsius
	TyresInnerTemp    [4]uint8   // celsius
	EngineTemp        uint16     // celsius
	TyresPressure     [4]float32 // PSI
}

// Telemetry record field offsets within one stride. The trailing surface-type
// bytes are carried by the stride but not decoded.
const (
	telOffSpeed            = 0
	telOffThrottle         = 2
	telOffSteer            = 6
	telOffBrake            = 10
	telOffClutch           = 14
	telOffGear             = 15
	telOffEngineRPM        = 16
	telOffDRS              = 18
	telOffRevLightsPercent = 19
	telOffRevLightsBits    = 20
	telOffBrakesTemp       = 22
	telOffSurfaceTemp      = 30
	telOffInnerTemp        = 34
	telOffEngineTemp       = 38
	telOffTyresPressure    = 40
)

// DecodeCarTelemetry slices one telemetry record out of a kind-6 datagram and
// decodes it field by field. Same array convention as DecodeLapData, with
// stride CarTelemetryStride.
//
// Normalized float fields (throttle, brake, steer) are the only values
// validated here, because an out-of-range normalized float can only be a
// layout or corruption problem. No rescaling of any kind is applied: a raw
// value that merely "looks wrong" is forwarded untouched.
func DecodeCarTelemetry(b []byte, carIndex int) (CarTelemetry, error) {
	if err := ValidateCarIndex(carIndex); err != nil {
		return CarTelemetry{}, err
	}
	offset := HeaderSize + carIndex*CarTelemetryStride
	if len(b) < offset+CarTelemetryStride {
		return CarTelemetry{}, errors.Wrapf(ErrTooShort,
			"telemetry record for car %d needs %d bytes, have %d", carIndex, offset+CarTelemetryStride, len(b))
	}
	rec := b[offset : offset+CarTelemetryStride]

	d := CarTelemetry{
		SpeedKPH:          binary.LittleEndian.Uint16(rec[telOffSpeed:]),
		Throttle:          float32At(rec, telOffThrottle),
		Steer:             float32At(rec, telOffSteer),
		Brake:             float32At(rec, telOffBrake),
		Clutch:            rec[telOffClutch],
		Gear:              int8(rec[telOffGear]),
		EngineRPM:         binary.LittleEndian.Uint16(rec[telOffEngineRPM:]),
		DRSOpen:           rec[telOffDRS] != 0,
		RevLightsPercent:  rec[telOffRevLightsPercent],
		RevLightsBitValue: binary.LittleEndian.Uint16(rec[telOffRevLightsBits:]),
		EngineTemp:        binary.LittleEndian.Uint16(rec[telOffEngineTemp:]),
	}
	for i := 0; i < 4; i++ {
		d.BrakesTemp[i] = binary.LittleEndian.Uint16(rec[telOffBrakesTemp+2*i:])
		d.TyresSurfaceTemp[i] = rec[telOffSurfaceTemp+i]
		d.TyresInnerTemp[i] = rec[telOffInnerTemp+i]
		d.TyresPressure[i] = float32At(rec, telOffTyresPressure+4*i)
	}

	if err := checkNormalized("throttle", d.Throttle, 0, 1); err != nil {
		return CarTelemetry{}, err
	}
	if err := checkNormalized("brake", d.Brake, 0, 1); err != nil {
		return CarTelemetry{}, err
	}
	if err := checkNormalized("steer", d.Steer, -1, 1); err != nil {
		return CarTelemetry{}, err
	}

	return d, nil
}

func float32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func checkNormalized(name string, v, lo, hi float32) error {
	f := float64(v)
	if math.IsNaN(f) || f < float64(lo) || f > float64(hi) {
		return errors.Wrapf(ErrFieldRange, "%s=%v outside [%v, %v]", name, v, lo, hi)
	}
	return nil
}
