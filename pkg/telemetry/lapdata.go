package telemetry

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// LapDataStride is the fixed byte length of one per-car lap record.
const LapDataStride = 57

// LapData is one car's lap progress, decoded from a kind-2 datagram.
//
// TotalDistance is monotonically non-decreasing within a lap attempt only;
// LapDistance resets per lap and may be negative before the start line, so
// no ordering between the two is assumed anywhere downstream.
type LapData struct {
	LastLapTimeMS        uint32
	CurrentLapTimeMS     uint32
	Sector1TimeMS        uint16 // sub-minute component
	Sector1TimeMinutes   uint8
	Sector2TimeMS        uint16
	Sector2TimeMinutes   uint8
	DeltaToCarInFrontMS  uint16
	DeltaToCarInFrontMin uint8
	DeltaToRaceLeaderMS  uint16
	DeltaToRaceLeaderMin uint8
	LapDistance          float32 // metres, may be negative before the line
	TotalDistance        float32 // metres
	SafetyCarDelta       float32
	CarPosition          uint8 // 1-based running order
	CurrentLapNum        uint8 // starts at 1
	PitStatus            uint8
	NumPitStops          uint8
	Sector               uint8
	CurrentLapInvalid    uint8
	DriverStatus         uint8
	ResultStatus         uint8
	Finished             bool
}

// Lap record field offsets within one stride. Bytes not listed are carried by
// the stride but not decoded (penalty counters, pit lane timers, speed trap).
const (
	lapOffLastLapTime    = 0
	lapOffCurrentLapTime = 4
	lapOffSector1MS      = 8
	lapOffSector1Min     = 10
	lapOffSector2MS      = 11
	lapOffSector2Min     = 13
	lapOffDeltaFrontMS   = 14
	lapOffDeltaFrontMin  = 16
	lapOffDeltaLeaderMS  = 17
	lapOffDeltaLeaderMin = 19
	lapOffLapDistance    = 20
	lapOffTotalDistance  = 24
	lapOffSafetyCarDelta = 28
	lapOffCarPosition    = 32
	lapOffCurrentLapNum  = 33
	lapOffPitStatus      = 34
	lapOffNumPitStops    = 35
	lapOffSector         = 36
	lapOffLapInvalid     = 37
	lapOffDriverStatus   = 44
	lapOffResultStatus   = 45
)

// resultStatusFinished is the wire value marking a classified finisher.
const resultStatusFinished = 3

// DecodeLapData slices one lap record out of a kind-2 datagram and decodes it
// field by field. The per-car array begins immediately after the header; the
// record for carIndex occupies
// [HeaderSize+carIndex*LapDataStride, +LapDataStride).
// Raw wire values are passed through without unit conversion.
func DecodeLapData(b []byte, carIndex int) (LapData, error) {
	if err := ValidateCarIndex(carIndex); err != nil {
		return LapData{}, err
	}
	offset := HeaderSize + carIndex*LapDataStride
	if len(b) < offset+LapDataStride {
		return LapData{}, errors.Wrapf(ErrTooShort,
			"lap record for car %d needs %d bytes, have %d", carIndex, offset+LapDataStride, len(b))
	}
	rec := b[offset : offset+LapDataStride]

	d := LapData{
		LastLapTimeMS:        binary.LittleEndian.Uint32(rec[lapOffLastLapTime:]),
		CurrentLapTimeMS:     binary.LittleEndian.Uint32(rec[lapOffCurrentLapTime:]),
		Sector1TimeMS:        binary.LittleEndian.Uint16(rec[lapOffSector1MS:]),
		Sector1TimeMinutes:   rec[lapOffSector1Min],
		Sector2TimeMS:        binary.LittleEndian.Uint16(rec[lapOffSector2MS:]),
		Sector2TimeMinutes:   rec[lapOffSector2Min],
		DeltaToCarInFrontMS:  binary.LittleEndian.Uint16(rec[lapOffDeltaFrontMS:]),
		DeltaToCarInFrontMin: rec[lapOffDeltaFrontMin],
		DeltaToRaceLeaderMS:  binary.LittleEndian.Uint16(rec[lapOffDeltaLeaderMS:]),
		DeltaToRaceLeaderMin: rec[lapOffDeltaLeaderMin],
		LapDistance:          math.Float32frombits(binary.LittleEndian.Uint32(rec[lapOffLapDistance:])),
		TotalDistance:        math.Float32frombits(binary.LittleEndian.Uint32(rec[lapOffTotalDistance:])),
		SafetyCarDelta:       math.Float32frombits(binary.LittleEndian.Uint32(rec[lapOffSafetyCarDelta:])),
		CarPosition:          rec[lapOffCarPosition],
		CurrentLapNum:        rec[lapOffCurrentLapNum],
		PitStatus:            rec[lapOffPitStatus],
		NumPitStops:          rec[lapOffNumPitStops],
		Sector:               rec[lapOffSector],
		CurrentLapInvalid:    rec[lapOffLapInvalid],
		DriverStatus:         rec[lapOffDriverStatus],
		ResultStatus:         rec[lapOffResultStatus],
	}
	d.Finished = d.ResultStatus == resultStatusFinished

	return d, nil
}
