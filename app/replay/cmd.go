package replay

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"f1decode/pkg/cli"
	"f1decode/pkg/ingest"
	"f1decode/pkg/sink"
	"f1decode/pkg/transport"
)

type replayer struct {
	pcapngFile      string
	port            int
	carIndex        int
	retentionWindow int
	csvFile         string
	mcapFile        string
}

func NewCommand() *cobra.Command {
	s := &replayer{
		port:     transport.DefaultPort,
		carIndex: -1,
	}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay telemetry from a pcapng capture and export correlated frames.",
		Long: `Read a pcapng capture of the game's UDP stream, decode lap data and car
telemetry for the controlling car, correlate them by frame id, and export the
merged frames. Replay is deterministic: frame expiry counts frame ids, not
wall-clock time, so a capture always produces the same output.`,
		Example: `  # Convert a capture to CSV
  f1decode replay --pcapng-file session.pcapng --csv-file session.csv`,
		RunE: cli.WithContext(s.run),
	}

	cmd.Flags().StringVar(&s.pcapngFile, "pcapng-file", s.pcapngFile, "pcapng capture file")
	cmd.Flags().IntVar(&s.port, "port", s.port, "UDP destination port carrying telemetry")
	cmd.Flags().IntVar(&s.carIndex, "car-index", s.carIndex, "car slot to decode (-1 follows the header's player index)")
	cmd.Flags().IntVar(&s.retentionWindow, "retention-window", s.retentionWindow, "frames to wait before abandoning a partial frame (0 = default)")
	cmd.Flags().StringVar(&s.csvFile, "csv-file", s.csvFile, "CSV output file")
	cmd.Flags().StringVar(&s.mcapFile, "mcap-file", s.mcapFile, "MCAP output file (optional)")

	if err := cmd.MarkFlagRequired("pcapng-file"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("csv-file"); err != nil {
		panic(err)
	}

	return cmd
}

func (s *replayer) run(ctx context.Context, input cli.Input) error {
	loop, err := ingest.NewLoop(input.Logger, ingest.Options{
		CarIndex:        s.carIndex,
		RetentionWindow: s.retentionWindow,
	})
	if err != nil {
		return err
	}

	capFile, err := os.Open(s.pcapngFile)
	if err != nil {
		return errors.Wrapf(err, "open pcapng file %s", s.pcapngFile)
	}
	defer capFile.Close()

	replay, err := transport.NewPcapReplay(capFile, s.port)
	if err != nil {
		return err
	}

	csvOut, err := os.Create(s.csvFile)
	if err != nil {
		return errors.Wrapf(err, "create csv file %s", s.csvFile)
	}
	defer csvOut.Close()

	csvSink, err := sink.NewCSV(csvOut)
	if err != nil {
		return err
	}
	sinks := []sink.Sink{csvSink}

	if s.mcapFile != "" {
		mcapOut, err := os.Create(s.mcapFile)
		if err != nil {
			return errors.Wrapf(err, "create mcap file %s", s.mcapFile)
		}
		defer mcapOut.Close()

		mcapSink, err := sink.NewMCAP(mcapOut)
		if err != nil {
			return err
		}
		sinks = append(sinks, mcapSink)
	}

	out := sink.NewMulti(sinks...)

	input.Logger.Infow("replaying capture",
		"pcapng_file", s.pcapngFile,
		"port", s.port,
		"csv_file", s.csvFile,
	)

	_, runErr := loop.Run(ctx, replay, out)
	if err := out.Close(); err != nil && runErr == nil {
		runErr = err
	}

	input.Logger.Infow("replay finished",
		"capture_packets", replay.PacketCount(),
		"csv_rows", csvSink.Rows(),
	)
	return runErr
}
