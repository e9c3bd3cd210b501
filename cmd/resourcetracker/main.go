// Command resourcetracker is the CLI entrypoint: a `run` command that
// supervises a target pid for its lifetime and writes the resulting
// artifact/report, a hidden `sampler-worker` subcommand the supervisor
// re-execs itself into for process isolation, and an optional `benchmark`
// subcommand comparing the two Counter Source implementations. A cobra
// root command, slog for top-level error reporting, os.Exit(1) on failure.
//
//go:build linux

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "resourcetracker",
		Short: "Resource-usage sampler and report generator for compute tasks",
		Long: `resourcetracker periodically samples CPU time, resident memory, disk I/O,
and GPU usage for a process tree and the host it runs on, then assembles
an aggregate artifact (with derived stats and an optional HTML report).

* GitHub: https://github.com/taskmetrics/resourcetracker`,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newSamplerWorkerCommand())
	root.AddCommand(newBenchmarkCommand())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
