// Package ingest runs the blocking receive-decode-dispatch loop. Exactly one
// datagram is in flight through the pipeline at a time, so none of the
// decoding components need synchronization.
package ingest

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"f1decode/pkg/frame"
	"f1decode/pkg/sink"
	"f1decode/pkg/stats"
	"f1decode/pkg/telemetry"
	"f1decode/pkg/transport"
)

// Counters is the loop's running tally, reported once at termination. Decode
// failures are counted here instead of logged because malformed or truncated
// datagrams are routine at tens of packets per second.
type Counters struct {
	Received         uint64
	HeaderTooShort   uint64
	UnknownKind      uint64
	PerKind          map[telemetry.PacketKind]uint64
	LapDecoded       uint64
	TelemetryDecoded uint64
	RecordTooShort   uint64
	FieldRange       uint64
	FramesComplete   uint64
	FramesExpired    uint64
	Timeouts         uint64
}

// Options configures a Loop.
type Options struct {
	// CarIndex selects the per-car slot to decode. A negative value follows
	// each header's controlling (player) car index; a non-negative value
	// overrides it and is validated once at construction.
	CarIndex int

	// RetentionWindow is the aggregator expiry window in distinct frame ids.
	// Zero selects frame.DefaultWindow.
	RetentionWindow int

	// ExitOnIdle terminates the loop on the first receive timeout instead of
	// retrying. Replay transports never time out, so this only matters live.
	ExitOnIdle bool

	// SampleWindow bounds the summary statistics windows. Zero selects a
	// default sized for roughly a stint of laps at game tick rate.
	SampleWindow int
}

const defaultSampleWindow = 36000 // ~30 min at 20 Hz

// Loop owns the aggregator and counters between Run invocations of a single
// command; it is not safe for concurrent use.
type Loop struct {
	log        *zap.SugaredLogger
	opts       Options
	agg        *frame.Aggregator
	counters   Counters
	speedStats *stats.Window[uint16]
	lapStats   *stats.Window[uint32]
}

func NewLoop(log *zap.SugaredLogger, opts Options) (*Loop, error) {
	if opts.CarIndex >= 0 {
		if err := telemetry.ValidateCarIndex(opts.CarIndex); err != nil {
			return nil, err
		}
	}
	if opts.SampleWindow <= 0 {
		opts.SampleWindow = defaultSampleWindow
	}
	return &Loop{
		log:        log,
		opts:       opts,
		agg:        frame.NewAggregator(opts.RetentionWindow),
		counters:   Counters{PerKind: make(map[telemetry.PacketKind]uint64)},
		speedStats: stats.New[uint16](opts.SampleWindow),
		lapStats:   stats.New[uint32](opts.SampleWindow),
	}, nil
}

// Run blocks until ctx is cancelled, the transport reports a fatal error, or
// (with ExitOnIdle) a receive timeout. Decode failures never terminate the
// loop. The final counters are returned alongside any fatal error; everything
// still resident in the aggregator is flushed to the sink before returning.
func (l *Loop) Run(ctx context.Context, tr transport.Transport, out sink.Sink) (Counters, error) {
	var fatal error

recv:
	for {
		select {
		case <-ctx.Done():
			break recv
		default:
		}

		datagram, err := tr.Receive(ctx)
		switch {
		case err == nil:
		case errors.Is(err, transport.ErrTimeout):
			l.counters.Timeouts++
			if l.opts.ExitOnIdle {
				l.log.Infow("no data within receive timeout, exiting")
				break recv
			}
			continue
		case errors.Is(err, transport.ErrClosed):
			break recv
		default:
			fatal = errors.Wrap(err, "transport failure")
			break recv
		}

		l.ingest(datagram)

		if err := l.drainTo(out, l.agg.DrainReady()); err != nil {
			fatal = err
			break recv
		}
	}

	// Drain partial frames so a truncated session still exports everything
	// that was received.
	if err := l.drainTo(out, l.agg.Flush()); err != nil && fatal == nil {
		fatal = err
	}

	l.logSummary()
	return l.counters, fatal
}

// ingest decodes a single datagram and merges any record for the controlling
// car into the aggregator. All decode failures recover locally.
func (l *Loop) ingest(datagram []byte) {
	l.counters.Received++

	header, err := telemetry.DecodeHeader(datagram)
	if err != nil {
		l.counters.HeaderTooShort++
		return
	}

	kind, _, known := telemetry.Classify(datagram)
	if !known {
		l.counters.UnknownKind++
		return
	}
	l.counters.PerKind[kind]++

	carIndex := l.opts.CarIndex
	if carIndex < 0 {
		carIndex = int(header.PlayerCarIndex)
	}

	switch kind {
	case telemetry.KindLapData:
		lap, err := telemetry.DecodeLapData(datagram, carIndex)
		if err != nil {
			l.countDecodeError(err)
			return
		}
		l.counters.LapDecoded++
		l.lapStats.Sample(lap.CurrentLapTimeMS)
		l.agg.IngestLapData(header.FrameID, header.SessionTime, lap)

	case telemetry.KindCarTelemetry:
		tel, err := telemetry.DecodeCarTelemetry(datagram, carIndex)
		if err != nil {
			l.countDecodeError(err)
			return
		}
		l.counters.TelemetryDecoded++
		l.speedStats.Sample(tel.SpeedKPH)
		l.agg.IngestCarTelemetry(header.FrameID, header.SessionTime, tel)

	default:
		// Counted above; only lap data and car telemetry are decoded.
	}
}

func (l *Loop) countDecodeError(err error) {
	switch {
	case errors.Is(err, telemetry.ErrTooShort):
		l.counters.RecordTooShort++
	case errors.Is(err, telemetry.ErrFieldRange):
		l.counters.FieldRange++
	default:
		// InvalidCarIndex with a header-supplied index means a hostile or
		// corrupt header; treat like any other malformed record.
		l.counters.RecordTooShort++
	}
}

func (l *Loop) drainTo(out sink.Sink, frames []*frame.Frame) error {
	for _, f := range frames {
		if f.Expired {
			l.counters.FramesExpired++
		} else {
			l.counters.FramesComplete++
		}
		l.log.Debugw("frame drained",
			"frame_id", f.FrameID,
			"complete", f.Complete(),
			"expired", f.Expired,
		)
		if err := out.Write(f); err != nil {
			return errors.Wrapf(err, "sink write (frame %d)", f.FrameID)
		}
	}
	return nil
}

func (l *Loop) logSummary() {
	kindCounts := make(map[string]uint64, len(l.counters.PerKind))
	for kind, n := range l.counters.PerKind {
		kindCounts[kind.String()] = n
	}
	l.log.Infow("ingestion finished",
		"received", l.counters.Received,
		"header_too_short", l.counters.HeaderTooShort,
		"unknown_kind", l.counters.UnknownKind,
		"per_kind", kindCounts,
		"lap_decoded", l.counters.LapDecoded,
		"telemetry_decoded", l.counters.TelemetryDecoded,
		"record_too_short", l.counters.RecordTooShort,
		"field_range", l.counters.FieldRange,
		"frames_complete", l.counters.FramesComplete,
		"frames_expired", l.counters.FramesExpired,
		"timeouts", l.counters.Timeouts,
	)
	if l.speedStats.Count() > 0 {
		l.log.Infow("telemetry summary",
			"speed_mean_kph", l.speedStats.Mean(),
			"speed_stddev_kph", l.speedStats.StdDev(),
			"samples", l.speedStats.Count(),
		)
	}
	if l.lapStats.Count() > 0 {
		l.log.Infow("lap time summary",
			"lap_time_mean_ms", l.lapStats.Mean(),
			"lap_time_stddev_ms", l.lapStats.StdDev(),
			"samples", l.lapStats.Count(),
		)
	}
}
