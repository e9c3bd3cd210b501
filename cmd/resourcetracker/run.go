//go:build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/taskmetrics/resourcetracker/pkg/artifact"
	"github.com/taskmetrics/resourcetracker/pkg/report"
	"github.com/taskmetrics/resourcetracker/pkg/stats"
	"github.com/taskmetrics/resourcetracker/pkg/supervisor"
)

func newRunCommand() *cobra.Command {
	var interval float64
	var artifactName string
	var createCard bool
	var reportPath string

	cmd := &cobra.Command{
		Use:   "run -- COMMAND [ARGS...]",
		Short: "run COMMAND to completion while sampling its resource usage",
		Long: `run launches COMMAND as a child process, supervises it with one pid-tree
sampler and one host sampler (each its own OS process), and on completion
prints the resulting artifact summary and, unless --create-card=false,
writes an HTML report.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := supervisor.NewConfig(
				supervisor.WithInterval(interval),
				supervisor.WithArtifactName(artifactName),
				supervisor.WithCreateCard(createCard),
			)
			if err != nil {
				return err
			}
			return runSupervised(cmd.Context(), args, cfg, reportPath)
		},
	}

	cmd.Flags().Float64Var(&interval, "interval", 1.0, "seconds between samples")
	cmd.Flags().StringVar(&artifactName, "artifact-name", "resource_tracker_data", "label for the aggregate artifact")
	cmd.Flags().BoolVar(&createCard, "create-card", true, "render an HTML report")
	cmd.Flags().StringVar(&reportPath, "report", "report.html", "HTML report output path")

	return cmd
}

func runSupervised(ctx context.Context, args []string, cfg supervisor.Config, reportPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	task := exec.CommandContext(ctx, args[0], args[1:]...)
	task.Stdout = os.Stdout
	task.Stderr = os.Stderr

	if err := task.Start(); err != nil {
		return fmt.Errorf("resourcetracker: start task: %w", err)
	}

	run, err := supervisor.Start(ctx, task.Process.Pid, cfg, stats.NopHistorical{})
	if err != nil {
		_ = task.Process.Kill()
		return fmt.Errorf("resourcetracker: start supervisor: %w", err)
	}

	taskErr := task.Wait()
	if taskErr != nil {
		slog.Warn("monitored task exited with error", "err", taskErr)
	}

	art, err := run.Finish(ctx)
	if err != nil {
		return fmt.Errorf("resourcetracker: finish: %w", err)
	}

	if art.Error != nil {
		slog.Error("sampler worker crashed", "type", art.Error.Type, "message", art.Error.Message)
	} else {
		printSummary(art)
	}

	if cfg.CreateCard {
		f, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("resourcetracker: create report: %w", err)
		}
		defer f.Close()
		if err := report.Render(f, art); err != nil {
			return fmt.Errorf("resourcetracker: render report: %w", err)
		}
	}

	if taskErr != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(taskErr, &exitErr); ok {
			os.Exit(exitErr.ExitCode())
		}
		return taskErr
	}
	return nil
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

// printSummary renders a's Stats as a post-run table on stdout: one row per
// metric, mean/max columns where both apply, byte-denominated fields run
// through go-humanize so they read in SI units (kB/MB/GB) rather than raw
// counts.
func printSummary(a *artifact.Artifact) {
	s := a.Stats

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"metric", "mean", "max"})

	tw.AppendRow(table.Row{"duration", fmt.Sprintf("%.2fs", s.DurationSeconds), ""})
	tw.AppendRow(table.Row{"cpu usage", fmt.Sprintf("%.1f%%", s.CPUUsage.Mean*100), fmt.Sprintf("%.1f%%", s.CPUUsage.Max*100)})
	tw.AppendRow(table.Row{"memory", humanize.Bytes(uint64(s.Memory.Mean * 1024)), humanize.Bytes(uint64(s.Memory.Max * 1024))})
	tw.AppendRow(table.Row{"gpu usage", fmt.Sprintf("%.1f%%", s.GPUUsage.Mean*100), fmt.Sprintf("%.1f%%", s.GPUUsage.Max*100)})
	tw.AppendRow(table.Row{"gpu vram", humanize.Bytes(uint64(s.GPUVRAM.Mean * 1024 * 1024)), humanize.Bytes(uint64(s.GPUVRAM.Max * 1024 * 1024))})
	tw.AppendRow(table.Row{"disk space used", "-", fmt.Sprintf("%.2f GiB", s.DiskSpaceUsedGB)})
	tw.AppendRow(table.Row{"network in / out", humanize.Bytes(s.Traffic.InboundBytes) + " / " + humanize.Bytes(s.Traffic.OutboundBytes), ""})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"server allocation", a.Allocation, ""})

	tw.Render()
}
