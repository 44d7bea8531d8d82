package listen

import (
	"context"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.einride.tech/can/pkg/socketcan"

	"f1decode/pkg/cli"
	"f1decode/pkg/ingest"
	"f1decode/pkg/sink"
	"f1decode/pkg/transport"
)

type listener struct {
	bind            string
	recvTimeout     time.Duration
	exitOnIdle      bool
	carIndex        int
	retentionWindow int
	csvFile         string
	mcapFile        string
	canInterface    string
}

func NewCommand() *cobra.Command {
	s := &listener{
		bind:        "0.0.0.0:20777",
		recvTimeout: 30 * time.Second,
		carIndex:    -1,
	}

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive live UDP telemetry and export correlated frames.",
		Long: `Listen on a UDP port for the game's telemetry stream, decode lap data and
car telemetry for the controlling car, correlate them by frame id, and export
the merged frames to the configured sinks.`,
		Example: `  # Record a session to CSV and MCAP
  f1decode listen --csv-file session.csv --mcap-file session.mcap

  # Bridge the player's car onto a virtual CAN bus
  f1decode listen --can-interface vcan0`,
		RunE: cli.WithContext(s.run),
	}

	cmd.Flags().StringVar(&s.bind, "bind", s.bind, "UDP listen address")
	cmd.Flags().DurationVar(&s.recvTimeout, "recv-timeout", s.recvTimeout, "receive timeout per datagram")
	cmd.Flags().BoolVar(&s.exitOnIdle, "exit-on-idle", s.exitOnIdle, "exit on the first receive timeout instead of retrying")
	cmd.Flags().IntVar(&s.carIndex, "car-index", s.carIndex, "car slot to decode (-1 follows the header's player index)")
	cmd.Flags().IntVar(&s.retentionWindow, "retention-window", s.retentionWindow, "frames to wait before abandoning a partial frame (0 = default)")
	cmd.Flags().StringVar(&s.csvFile, "csv-file", s.csvFile, "CSV output file (empty generates a timestamped name)")
	cmd.Flags().StringVar(&s.mcapFile, "mcap-file", s.mcapFile, "MCAP output file (optional)")
	cmd.Flags().StringVar(&s.canInterface, "can-interface", s.canInterface, "CAN interface to bridge telemetry onto (optional)")

	return cmd
}

func (s *listener) run(ctx context.Context, input cli.Input) error {
	loop, err := ingest.NewLoop(input.Logger, ingest.Options{
		CarIndex:        s.carIndex,
		RetentionWindow: s.retentionWindow,
		ExitOnIdle:      s.exitOnIdle,
	})
	if err != nil {
		return err
	}

	csvPath := s.csvFile
	if csvPath == "" {
		csvPath = "f1_telemetry_" + time.Now().Format("20060102_150405") + ".csv"
	}
	csvOut, err := os.Create(csvPath)
	if err != nil {
		return errors.Wrapf(err, "create csv file %s", csvPath)
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

	if s.canInterface != "" {
		conn, err := socketcan.DialContext(ctx, "can", s.canInterface)
		if err != nil {
			return errors.Wrapf(err, "dial can interface %s", s.canInterface)
		}
		defer conn.Close()

		sinks = append(sinks, sink.NewCANBridge(ctx, socketcan.NewTransmitter(conn)))
	}

	out := sink.NewMulti(sinks...)

	udp, err := transport.ListenUDP(s.bind, s.recvTimeout)
	if err != nil {
		return err
	}
	defer udp.Close()

	input.Logger.Infow("listening for telemetry",
		"addr", udp.LocalAddr().String(),
		"csv_file", csvPath,
		"mcap_file", s.mcapFile,
		"can_interface", s.canInterface,
	)

	_, runErr := loop.Run(ctx, udp, out)
	if err := out.Close(); err != nil && runErr == nil {
		runErr = err
	}

	input.Logger.Infow("csv export finished", "file", csvPath, "rows", csvSink.Rows())
	return runErr
}
