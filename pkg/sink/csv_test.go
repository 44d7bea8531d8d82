package sink_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1decode/pkg/frame"
	"f1decode/pkg/sink"
	"f1decode/pkg/telemetry"
)

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVCompleteFrame(t *testing.T) {
	var buf bytes.Buffer
	c, err := sink.NewCSV(&buf)
	require.NoError(t, err)

	f := &frame.Frame{
		FrameID:     100,
		SessionTime: 12.345,
		LapData: &telemetry.LapData{
			CurrentLapNum:    2,
			CurrentLapTimeMS: 45000,
			LapDistance:      1234.5,
			CarPosition:      3,
		},
		CarTelemetry: &telemetry.CarTelemetry{
			SpeedKPH:  250,
			Throttle:  1.0,
			Gear:      7,
			EngineRPM: 11000,
			DRSOpen:   true,
		},
	}
	require.NoError(t, c.Write(f))
	require.NoError(t, c.Close())
	assert.Equal(t, uint64(1), c.Rows())

	rows := readAll(t, &buf)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "100", row[0])
	assert.Equal(t, "12.345", row[1])
	assert.Equal(t, "false", row[2])
	assert.Equal(t, "250", row[3])  // speed
	assert.Equal(t, "1.000", row[4]) // throttle
	assert.Equal(t, "7", row[7])    // gear
	assert.Equal(t, "11000", row[8])
	assert.Equal(t, "1", row[9]) // drs
	assert.Equal(t, "2", row[13])
	assert.Equal(t, "45000", row[14])
	assert.Equal(t, "1234.5", row[18])
	assert.Equal(t, "3", row[20])
}

func TestCSVPartialFramesLeaveBlanks(t *testing.T) {
	var buf bytes.Buffer
	c, err := sink.NewCSV(&buf)
	require.NoError(t, err)

	lapOnly := &frame.Frame{
		FrameID: 1,
		Expired: true,
		LapData: &telemetry.LapData{CurrentLapNum: 1},
	}
	telemetryOnly := &frame.Frame{
		FrameID:      2,
		Expired:      true,
		CarTelemetry: &telemetry.CarTelemetry{SpeedKPH: 90},
	}
	require.NoError(t, c.Write(lapOnly))
	require.NoError(t, c.Write(telemetryOnly))
	require.NoError(t, c.Close())

	rows := readAll(t, &buf)
	require.Len(t, rows, 3)

	// Lap-only: telemetry columns (3..12) blank, not zero.
	for i := 3; i <= 12; i++ {
		assert.Empty(t, rows[1][i], "column %d", i)
	}
	assert.Equal(t, "1", rows[1][13])
	assert.Equal(t, "true", rows[1][2])

	// Telemetry-only: lap columns (13..21) blank.
	assert.Equal(t, "90", rows[2][3])
	for i := 13; i <= 21; i++ {
		assert.Empty(t, rows[2][i], "column %d", i)
	}
}
