//go:build linux

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmetrics/resourcetracker/pkg/counter"
	"github.com/taskmetrics/resourcetracker/pkg/gpuprobe"
	"github.com/taskmetrics/resourcetracker/pkg/sampler"
)

// newSamplerWorkerCommand builds the hidden subcommand pkg/supervisor
// re-execs itself into: one OS process running one
// sampler.Loop, writing CSV rows to --out until its subject's natural
// termination condition fires (pid tree) or it receives SIGTERM/SIGKILL
// from the supervisor (host).
func newSamplerWorkerCommand() *cobra.Command {
	var subject, outPath string
	var pid int
	var interval float64

	cmd := &cobra.Command{
		Use:    "sampler-worker",
		Short:  "internal: runs one Sampler Loop in its own process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSamplerWorker(cmd.Context(), subject, pid, outPath, interval)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", `"pid" or "host"`)
	cmd.Flags().IntVar(&pid, "pid", 0, "target pid (subject=pid only)")
	cmd.Flags().StringVar(&outPath, "out", "", "CSV output path")
	cmd.Flags().Float64Var(&interval, "interval", 1.0, "seconds between samples")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runSamplerWorker(ctx context.Context, subject string, pid int, outPath string, intervalSecs float64) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("sampler-worker: create output: %w", err)
	}
	defer f.Close()

	src, err := counter.NewSource(".")
	if err != nil {
		return fmt.Errorf("sampler-worker: %w", err)
	}

	var subj sampler.Subject
	switch subject {
	case "pid":
		subj = sampler.SubjectPid
	case "host":
		subj = sampler.SubjectHost
	default:
		return fmt.Errorf("sampler-worker: unknown subject %q", subject)
	}

	loop := sampler.NewLoop(subj, pid, time.Duration(intervalSecs*float64(time.Second)), f, src)
	if subj == sampler.SubjectPid {
		loop.GPUPid = &gpuprobe.PmonProber{}
	} else {
		loop.GPUHost = &gpuprobe.QueryGPUProber{}
	}

	return loop.Run(ctx)
}
