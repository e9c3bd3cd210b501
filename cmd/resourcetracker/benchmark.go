//go:build linux

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/taskmetrics/resourcetracker/pkg/counter"
)

// newBenchmarkCommand compares the procfs and gopsutil Counter Source
// implementations against the same target pid: an optional benchmarking
// utility, not required for correctness. Rendered with go-pretty since
// this tool is comparative (two providers side by side) rather than a
// time series.
func newBenchmarkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark PID",
		Short: "compare procfs and gopsutil Counter Source latency for PID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("benchmark: invalid pid %q: %w", args[0], err)
			}
			return runBenchmark(cmd.Context(), pid)
		},
	}
	return cmd
}

func runBenchmark(ctx context.Context, pid int) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"provider", "samples", "mean latency", "error"})

	for _, impl := range []struct {
		name string
		src  func() (counter.Source, error)
	}{
		{"procfs", func() (counter.Source, error) { return counter.NewProcfsSource(".") }},
		{"gopsutil", func() (counter.Source, error) { return counter.NewGopsutilSource(), nil }},
	} {
		src, err := impl.src()
		if err != nil {
			tw.AppendRow(table.Row{impl.name, 0, "-", err.Error()})
			continue
		}

		const samples = 5
		var total time.Duration
		var lastErr error
		for i := 0; i < samples; i++ {
			t0 := time.Now()
			if _, err := src.PidSnapshot(ctx, pid, true); err != nil {
				lastErr = err
			}
			total += time.Since(t0)
		}

		errStr := "-"
		if lastErr != nil {
			errStr = lastErr.Error()
		}
		tw.AppendRow(table.Row{impl.name, samples, (total / samples).String(), errStr})
	}

	tw.Render()
	return nil
}
