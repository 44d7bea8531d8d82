package sink

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/foxglove/mcap/go/mcap"
	"github.com/ohler55/ojg/oj"

	"f1decode/pkg/frame"
)

// frameTopic is the single channel all frames are published on.
const frameTopic = "/f1/frame"

// frameJSONSchema describes the message payload for MCAP readers (Foxglove
// and friends resolve it from the schema record).
var frameJSONSchema = []byte(`{
  "type": "object",
  "properties": {
    "frame_id": {"type": "integer"},
    "session_time": {"type": "number"},
    "expired": {"type": "boolean"},
    "lap_data": {"type": ["object", "null"]},
    "car_telemetry": {"type": ["object", "null"]}
  },
  "required": ["frame_id", "session_time", "expired"]
}`)

type frameMessage struct {
	FrameID      uint32            `json:"frame_id"`
	SessionTime  float32           `json:"session_time"`
	Expired      bool              `json:"expired"`
	LapData      *lapMessage       `json:"lap_data"`
	CarTelemetry *telemetryMessage `json:"car_telemetry"`
}

type lapMessage struct {
	LastLapTimeMS    uint32  `json:"last_lap_time_ms"`
	CurrentLapTimeMS uint32  `json:"current_lap_time_ms"`
	Sector1TimeMS    uint16  `json:"sector1_time_ms"`
	Sector1Minutes   uint8   `json:"sector1_time_minutes"`
	Sector2TimeMS    uint16  `json:"sector2_time_ms"`
	Sector2Minutes   uint8   `json:"sector2_time_minutes"`
	LapDistanceM     float32 `json:"lap_distance_m"`
	TotalDistanceM   float32 `json:"total_distance_m"`
	CurrentLapNum    uint8   `json:"current_lap_number"`
	CarPosition      uint8   `json:"car_position"`
	PitStatus        uint8   `json:"pit_status"`
	NumPitStops      uint8   `json:"pit_stop_count"`
	Finished         bool    `json:"finished"`
}

type telemetryMessage struct {
	SpeedKPH         uint16     `json:"speed_kph"`
	Throttle         float32    `json:"throttle"`
	Steer            float32    `json:"steering"`
	Brake            float32    `json:"brake"`
	Clutch           uint8      `json:"clutch"`
	Gear             int8       `json:"gear"`
	EngineRPM        uint16     `json:"engine_rpm"`
	DRSOpen          bool       `json:"drs_open"`
	RevLightsPercent uint8      `json:"rev_lights_percent"`
	BrakesTemp       [4]uint16  `json:"brake_temperatures"`
	TyresSurfaceTemp [4]uint8   `json:"tyre_surface_temperatures"`
	TyresInnerTemp   [4]uint8   `json:"tyre_inner_temperatures"`
	TyresPressure    [4]float32 `json:"tyre_pressures"`
}

// MCAP writes frames as JSON messages into an MCAP container.
//
//   - Single JSON schema reused by the single channel.
//   - LogTime/PublishTime derive from the in-game session time, keeping
//     message ordering identical between live capture and replay.
type MCAP struct {
	writer    *mcap.Writer
	channelID uint16
	sequence  uint32
}

// NewMCAP initializes the container on out. The caller owns out and closes it
// after Close.
func NewMCAP(out io.Writer) (*MCAP, error) {
	w, err := mcap.NewWriter(out, &mcap.WriterOptions{
		Chunked:     true,
		ChunkSize:   2 * 1024 * 1024,
		Compression: mcap.CompressionZSTD,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create mcap writer")
	}

	if err := w.WriteHeader(&mcap.Header{
		Profile: "",
		Library: "f1decode",
	}); err != nil {
		return nil, errors.Wrap(err, "write mcap header")
	}

	const schemaID = 1
	if err := w.WriteSchema(&mcap.Schema{
		ID:       schemaID,
		Name:     "f1decode.Frame",
		Encoding: "jsonschema",
		Data:     frameJSONSchema,
	}); err != nil {
		return nil, errors.Wrap(err, "write mcap schema")
	}

	const channelID = 1
	if err := w.WriteChannel(&mcap.Channel{
		ID:              channelID,
		SchemaID:        schemaID,
		Topic:           frameTopic,
		MessageEncoding: "json",
	}); err != nil {
		return nil, errors.Wrapf(err, "write mcap channel (topic=%s)", frameTopic)
	}

	return &MCAP{writer: w, channelID: channelID}, nil
}

func (m *MCAP) Write(f *frame.Frame) error {
	msg := frameMessage{
		FrameID:     f.FrameID,
		SessionTime: f.SessionTime,
		Expired:     f.Expired,
	}
	if l := f.LapData; l != nil {
		msg.LapData = &lapMessage{
			LastLapTimeMS:    l.LastLapTimeMS,
			CurrentLapTimeMS: l.CurrentLapTimeMS,
			Sector1TimeMS:    l.Sector1TimeMS,
			Sector1Minutes:   l.Sector1TimeMinutes,
			Sector2TimeMS:    l.Sector2TimeMS,
			Sector2Minutes:   l.Sector2TimeMinutes,
			LapDistanceM:     l.LapDistance,
			TotalDistanceM:   l.TotalDistance,
			CurrentLapNum:    l.CurrentLapNum,
			CarPosition:      l.CarPosition,
			PitStatus:        l.PitStatus,
			NumPitStops:      l.NumPitStops,
			Finished:         l.Finished,
		}
	}
	if t := f.CarTelemetry; t != nil {
		msg.CarTelemetry = &telemetryMessage{
			SpeedKPH:         t.SpeedKPH,
			Throttle:         t.Throttle,
			Steer:            t.Steer,
			Brake:            t.Brake,
			Clutch:           t.Clutch,
			Gear:             t.Gear,
			EngineRPM:        t.EngineRPM,
			DRSOpen:          t.DRSOpen,
			RevLightsPercent: t.RevLightsPercent,
			BrakesTemp:       t.BrakesTemp,
			TyresSurfaceTemp: t.TyresSurfaceTemp,
			TyresInnerTemp:   t.TyresInnerTemp,
			TyresPressure:    t.TyresPressure,
		}
	}

	data, err := oj.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal frame")
	}

	// Session time in nanoseconds keeps replay timestamps deterministic.
	logTime := uint64(float64(f.SessionTime) * 1e9)
	m.sequence++
	if err := m.writer.WriteMessage(&mcap.Message{
		ChannelID:   m.channelID,
		Sequence:    m.sequence,
		LogTime:     logTime,
		PublishTime: logTime,
		Data:        data,
	}); err != nil {
		return errors.Wrap(err, "write mcap message")
	}
	return nil
}

// Close finalizes the MCAP container.
func (m *MCAP) Close() error {
	return errors.Wrap(m.writer.Close(), "close mcap writer")
}
