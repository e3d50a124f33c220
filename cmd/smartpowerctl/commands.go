package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/smartpowerctl/internal/journal"
	"codeberg.org/mutker/smartpowerctl/internal/meter"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 20

func (a *app) newMeterCommand(name, short string, op func(*meter.Meter) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.withMeter(func(m *meter.Meter) error {
				if err := op(m); err != nil {
					return err
				}
				a.log.Info().Str("device", m.Device()).Str("command", name).Msg("Command sent")
				return nil
			})
		},
	}
}

func (a *app) newSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Measure for --duration: enable, start, wait, stop, disable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.withMeter(func(m *meter.Meter) error {
				a.log.Info().
					Str("device", m.Device()).
					Dur("duration", a.cfg.Duration).
					Msg("Sampling started")

				if err := meter.Sample(ctx, m, a.cfg.Duration); err != nil {
					return err
				}

				if ctx.Err() != nil {
					a.log.Info().Msg("Received termination signal, sample cut short")
				}
				a.log.Info().Str("device", m.Device()).Msg("Sampling finished")
				return nil
			})
		},
	}
}

func (a *app) newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent journal entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := journal.NewService(journal.Config{
				DBPath:  a.cfg.JournalDB,
				Enabled: true,
			}, a.log)
			if err != nil {
				return err
			}
			defer rec.Close()

			entries, err := rec.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return printEntries(cmd, entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of entries to show")

	return cmd
}

func printEntries(cmd *cobra.Command, entries []journal.Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		event := e.Kind
		if e.Command != "" {
			event = fmt.Sprintf("%s %s", e.Kind, e.Command)
		}
		result := "ok"
		if !e.Success {
			result = e.Error
		}
		rows = append(rows, []string{e.Timestamp.Format(time.RFC3339), e.Device, event, result})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Formatting.Alignment = tw.AlignLeft
	})
	table.Header([]string{"Time", "Device", "Event", "Result"})
	if err := table.Bulk(rows); err != nil {
		return err
	}

	return table.Render()
}
