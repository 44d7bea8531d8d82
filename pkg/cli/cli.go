// Package cli wraps cobra with the pieces every command needs: a
// signal-cancelled context, a zap logger configured from a persistent flag,
// and viper-backed environment binding for every flag.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// envPrefix maps flag --log-level to F1DECODE_LOG_LEVEL and so on.
const envPrefix = "F1DECODE"

// Input carries per-invocation dependencies into command run functions.
type Input struct {
	Logger *zap.SugaredLogger
}

// CLI is the root command plus shared persistent flags.
type CLI struct {
	root     *cobra.Command
	logLevel string
}

func NewCLI(name, short string) *CLI {
	c := &CLI{
		logLevel: "info",
	}
	c.root = &cobra.Command{
		Use:           name,
		Short:         short,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.root.PersistentFlags().StringVar(&c.logLevel, "log-level", c.logLevel,
		"log level (debug, info, warn, error)")
	return c
}

func (c *CLI) AddCommands(cmds ...*cobra.Command) {
	c.root.AddCommand(cmds...)
}

// Run executes the command tree with env-bound flags.
func (c *CLI) Run() error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	bindFlags(c.root, viper.GetViper())
	for _, cmd := range c.root.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
	return c.root.Execute()
}

// WithContext adapts a run function to cobra's RunE, wiring in the
// signal-cancelled context and the shared Input. Decoding of a datagram is
// never interrupted mid-way: cancellation is observed at loop-iteration
// granularity by the commands themselves.
func WithContext(run func(ctx context.Context, input Input) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		level, err := cmd.Flags().GetString("log-level")
		if err != nil {
			level = "info"
		}
		logger, err := newLogger(level)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck // stderr sync failure is unactionable

		return run(ctx, Input{Logger: logger.Sugar()})
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// bindFlags binds each cobra flag to its environment variable equivalent,
// e.g. --mcap-file to F1DECODE_MCAP_FILE.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "could not bind env var %s: %v\n", f.Name, err)
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = cmd.Flags().Set(f.Name, v.GetString(f.Name))
		}
	})
}
