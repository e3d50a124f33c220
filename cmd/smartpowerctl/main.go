package main

import (
	"fmt"
	"os"

	"codeberg.org/mutker/smartpowerctl/internal/config"
	"codeberg.org/mutker/smartpowerctl/internal/errors"
	"codeberg.org/mutker/smartpowerctl/internal/journal"
	"codeberg.org/mutker/smartpowerctl/internal/lock"
	"codeberg.org/mutker/smartpowerctl/internal/logger"
	"codeberg.org/mutker/smartpowerctl/internal/meter"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=1.2.3"
var version = "dev"

type app struct {
	cfg *config.Config
	log logger.Logger
}

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}

	// No measurement flow can continue without the device
	if appErr, ok := openFailure(err); ok {
		logger.FatalWithCode(appErr).Msg("Cannot open meter device")
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// openFailure returns the coded error when err means the meter device
// could not be opened
func openFailure(err error) (errors.Error, bool) {
	var appErr errors.Error
	if !errors.HasCode(err, meter.ErrOpenFailed) || !errors.As(err, &appErr) {
		return nil, false
	}

	return appErr, true
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "smartpowerctl <command>",
		Short:         "Control a SmartPower2 power meter over its USB serial port",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.New().WithMessage(errors.ErrUnknownCommand,
					fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath()))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return errors.New().WithMessage(errors.ErrMissingCommand,
				"missing command, expected one of enable, disable, start, stop, sample, history")
		},
	}

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		a.newMeterCommand("enable", "Enable the meter monitor", (*meter.Meter).EnableMonitor),
		a.newMeterCommand("disable", "Disable the meter monitor and release the device", (*meter.Meter).DisableMonitor),
		a.newMeterCommand("start", "Start measurement, enabling the monitor if needed", (*meter.Meter).StartMeasurement),
		a.newMeterCommand("stop", "Stop measurement; the meter reports zero until the next start", (*meter.Meter).StopMeasurement),
		a.newSampleCommand(),
		a.newHistoryCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.Init(level, logger.IsService())

	a.cfg = cfg
	a.log = logger.Default()
	a.log.Debug().
		Str("device", cfg.Device).
		Bool("journal", cfg.Journal).
		Bool("lock", cfg.Lock).
		Msg("Config loaded")

	return nil
}

// withMeter opens the configured device for the duration of fn
func (a *app) withMeter(fn func(*meter.Meter) error) error {
	if a.cfg.Lock {
		l, err := lock.Acquire(a.cfg.LockDir, a.cfg.Device)
		if err != nil {
			return err
		}
		defer func() {
			if err := l.Release(); err != nil {
				a.log.Warn().Err(err).Str("path", l.Path()).Msg("Failed to release device lock")
			}
		}()
	}

	rec, err := journal.NewService(journal.Config{
		DBPath:  a.cfg.JournalDB,
		Enabled: a.cfg.Journal,
	}, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close journal")
		}
	}()

	m, err := meter.Open(a.cfg.Device, meter.WithObserver(meter.Observers{
		meter.NewLogObserver(a.log),
		journal.Observer(rec, a.log),
	}))
	if err != nil {
		return err
	}

	return fn(m)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smartpowerctl %s\n", version)
		},
	}
}
