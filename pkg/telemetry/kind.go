package telemetry

import "fmt"

// PacketKind identifies what per-tick data a datagram carries. The set is
// closed per protocol revision; byte values this build does not know map to
// KindUnknown so newer game revisions never break classification.
type PacketKind uint8

const (
	KindMotion              PacketKind = 0
	KindSession             PacketKind = 1
	KindLapData             PacketKind = 2
	KindEvent               PacketKind = 3
	KindParticipants        PacketKind = 4
	KindCarSetups           PacketKind = 5
	KindCarTelemetry        PacketKind = 6
	KindCarStatus           PacketKind = 7
	KindFinalClassification PacketKind = 8
	KindLobbyInfo           PacketKind = 9
	KindCarDamage           PacketKind = 10
	KindSessionHistory      PacketKind = 11

	// KindUnknown is a synthetic value for unrecognized kind bytes. The raw
	// byte is reported separately by Classify.
	KindUnknown PacketKind = 255
)

// kindOffset is the fixed position of the kind byte inside the header.
const kindOffset = 6

var kindNames = map[PacketKind]string{
	KindMotion:              "motion",
	KindSession:             "session",
	KindLapData:             "lap_data",
	KindEvent:               "event",
	KindParticipants:        "participants",
	KindCarSetups:           "car_setups",
	KindCarTelemetry:        "car_telemetry",
	KindCarStatus:           "car_status",
	KindFinalClassification: "final_classification",
	KindLobbyInfo:           "lobby_info",
	KindCarDamage:           "car_damage",
	KindSessionHistory:      "session_history",
}

func (k PacketKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Classify reads only the kind byte and maps it through the closed
// enumeration. It is total: any input yields a result without error. The
// second return value is false when the buffer is too short to even carry a
// kind byte, or when the byte value is not a known kind; in the latter case
// the returned PacketKind is KindUnknown and the raw byte is preserved in raw.
func Classify(b []byte) (kind PacketKind, raw uint8, ok bool) {
	if len(b) <= kindOffset {
		return KindUnknown, 0, false
	}
	raw = b[kindOffset]
	k := PacketKind(raw)
	if _, known := kindNames[k]; !known {
		return KindUnknown, raw, false
	}
	return k, raw, true
}
