// Package frame correlates lap and telemetry records that arrive in separate
// datagrams but belong to the same simulation tick. Lap and telemetry packets
// are emitted independently and possibly at different rates, so matching by
// frame id instead of arrival order keeps a car's lap context aligned with
// its control inputs.
package frame

import (
	"sort"

	"f1decode/pkg/telemetry"
)

// Frame is one simulation tick's merged view for the controlling car. A side
// stays nil until (unless) the matching datagram arrives; a drained frame may
// therefore carry only one side.
type Frame struct {
	FrameID      uint32
	SessionTime  float32
	LapData      *telemetry.LapData
	CarTelemetry *telemetry.CarTelemetry

	// Expired marks a frame that was flushed before completing because the
	// retention window ran out.
	Expired bool
}

// Complete reports whether both sides arrived.
func (f *Frame) Complete() bool {
	return f.LapData != nil && f.CarTelemetry != nil
}

type pending struct {
	frame *Frame
	// bornSeq is the distinct-frame-id sequence number at creation time.
	// Expiry counts subsequently seen distinct frame ids, not wall-clock,
	// so behavior is identical under live capture and replay.
	bornSeq uint64
}

// Aggregator buffers partial frames keyed by frame id until they complete or
// expire. It is not safe for concurrent use; the ingestion loop owns it from
// a single goroutine.
type Aggregator struct {
	window  uint64
	seq     uint64
	pending map[uint32]*pending
}

// DefaultWindow is the retention window in distinct frame ids.
const DefaultWindow = 64

// NewAggregator creates an aggregator that abandons a partial frame once
// window further distinct frame ids have been seen. window <= 0 selects
// DefaultWindow.
func NewAggregator(window int) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{
		window:  uint64(window),
		pending: make(map[uint32]*pending),
	}
}

// IngestLapData merges a lap record into the frame for frameID, creating the
// frame on first sighting. A duplicate for the same frame id overwrites; the
// game re-sends identical content on retransmit.
func (a *Aggregator) IngestLapData(frameID uint32, sessionTime float32, d telemetry.LapData) {
	p := a.get(frameID, sessionTime)
	p.frame.LapData = &d
}

// IngestCarTelemetry merges a telemetry record into the frame for frameID.
func (a *Aggregator) IngestCarTelemetry(frameID uint32, sessionTime float32, d telemetry.CarTelemetry) {
	p := a.get(frameID, sessionTime)
	p.frame.CarTelemetry = &d
}

func (a *Aggregator) get(frameID uint32, sessionTime float32) *pending {
	if p, ok := a.pending[frameID]; ok {
		return p
	}
	a.seq++
	p := &pending{
		frame:   &Frame{FrameID: frameID, SessionTime: sessionTime},
		bornSeq: a.seq,
	}
	a.pending[frameID] = p
	return p
}

// DrainReady removes and returns every frame that is complete, plus every
// partial frame that outlived the retention window (marked Expired), in
// ascending frame id order. It never blocks.
func (a *Aggregator) DrainReady() []*Frame {
	var out []*Frame
	for id, p := range a.pending {
		switch {
		case p.frame.Complete():
			out = append(out, p.frame)
			delete(a.pending, id)
		case a.seq-p.bornSeq > a.window:
			p.frame.Expired = true
			out = append(out, p.frame)
			delete(a.pending, id)
		}
	}
	sortByFrameID(out)
	return out
}

// Flush removes and returns everything still resident, complete or not, in
// ascending frame id order. Used at shutdown so no received data is dropped.
func (a *Aggregator) Flush() []*Frame {
	out := make([]*Frame, 0, len(a.pending))
	for id, p := range a.pending {
		if !p.frame.Complete() {
			p.frame.Expired = true
		}
		out = append(out, p.frame)
		delete(a.pending, id)
	}
	sortByFrameID(out)
	return out
}

// Resident returns the number of buffered partial frames.
func (a *Aggregator) Resident() int {
	return len(a.pending)
}

func sortByFrameID(frames []*Frame) {
	sort.Slice(frames, func(i, j int) bool {
		return frames[i].FrameID < frames[j].FrameID
	})
}
