package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"

	"f1decode/pkg/frame"
)

var csvHeader = []string{
	"Frame", "Time(s)", "Expired",
	"Speed(km/h)", "Throttle", "Brake", "Steer", "Gear", "RPM", "DRS",
	"BrakesTemp(C)", "TyresSurfaceTemp(C)", "TyresPressure(PSI)",
	"LapNum", "LapTime(ms)", "LastLapTime(ms)", "Sector1(ms)", "Sector2(ms)",
	"LapDistance(m)", "TotalDistance(m)", "CarPosition", "PitStatus",
}

// CSV writes one row per frame. Columns for a side that never arrived are
// left blank, never zero-filled, so a missing datagram is distinguishable
// from a genuine zero reading.
type CSV struct {
	w    *csv.Writer
	rows uint64
}

// NewCSV writes the header row immediately so even an empty session produces
// a well-formed file.
func NewCSV(out io.Writer) (*CSV, error) {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return nil, errors.Wrap(err, "write csv header")
	}
	return &CSV{w: w}, nil
}

func (c *CSV) Write(f *frame.Frame) error {
	row := make([]string, 0, len(csvHeader))
	row = append(row,
		strconv.FormatUint(uint64(f.FrameID), 10),
		fmt.Sprintf("%.3f", f.SessionTime),
		strconv.FormatBool(f.Expired),
	)

	if t := f.CarTelemetry; t != nil {
		row = append(row,
			strconv.FormatUint(uint64(t.SpeedKPH), 10),
			fmt.Sprintf("%.3f", t.Throttle),
			fmt.Sprintf("%.3f", t.Brake),
			fmt.Sprintf("%.3f", t.Steer),
			strconv.Itoa(int(t.Gear)),
			strconv.FormatUint(uint64(t.EngineRPM), 10),
			boolTo01(t.DRSOpen),
			strconv.FormatUint(uint64(t.BrakesTemp[0]), 10),
			fmt.Sprintf("%.1f", avgU8(t.TyresSurfaceTemp)),
			fmt.Sprintf("%.1f", avgF32(t.TyresPressure)),
		)
	} else {
		row = append(row, "", "", "", "", "", "", "", "", "", "")
	}

	if l := f.LapData; l != nil {
		row = append(row,
			strconv.FormatUint(uint64(l.CurrentLapNum), 10),
			strconv.FormatUint(uint64(l.CurrentLapTimeMS), 10),
			strconv.FormatUint(uint64(l.LastLapTimeMS), 10),
			strconv.FormatUint(uint64(l.Sector1TimeMS), 10),
			strconv.FormatUint(uint64(l.Sector2TimeMS), 10),
			fmt.Sprintf("%.1f", l.LapDistance),
			fmt.Sprintf("%.1f", l.TotalDistance),
			strconv.FormatUint(uint64(l.CarPosition), 10),
			strconv.FormatUint(uint64(l.PitStatus), 10),
		)
	} else {
		row = append(row, "", "", "", "", "", "", "", "", "")
	}

	if err := c.w.Write(row); err != nil {
		return errors.Wrap(err, "write csv row")
	}
	c.rows++
	return nil
}

// Rows reports the number of data rows written, for the shutdown summary.
func (c *CSV) Rows() uint64 {
	return c.rows
}

func (c *CSV) Close() error {
	c.w.Flush()
	return errors.Wrap(c.w.Error(), "flush csv")
}

func boolTo01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func avgU8(vals [4]uint8) float64 {
	sum := 0
	for _, v := range vals {
		sum += int(v)
	}
	return float64(sum) / 4
}

func avgF32(vals [4]float32) float64 {
	var sum float64
	for _, v := range vals {
		sum += float64(v)
	}
	return sum / 4
}
