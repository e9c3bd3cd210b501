package stats

// allocationCheck is one tolerance pair: a host mean exceeding a task
// mean by either the absolute or the multiplicative tolerance marks the
// server "Shared".
type allocationCheck struct {
	percent  float64 // multiplicative tolerance, e.g. 1.25 == +25%
	absolute float64 // absolute tolerance in the column's native unit
}

// allocationChecks: cpu_usage (0.25 core / x1.25), memory (512 MiB, i.e.
// 512*1024 KiB since the memory
// columns are KiB-denominated / x1.5), gpu_usage (0.2 GPU / x1.25),
// gpu_vram (512 MiB / x1.25). The task-side and host-side columns differ
// only for memory (process "memory" vs the host's memory_active_anon +
// memory_inactive_anon, see Compute); callers supply both means keyed by
// the task-side name in taskMeans and hostMeans so a single map lookup
// covers both cases.
var allocationChecks = map[string]allocationCheck{
	"cpu_usage": {percent: 1.25, absolute: 0.25},
	"memory":    {percent: 1.5, absolute: 512 * 1024},
	"gpu_usage": {percent: 1.25, absolute: 0.2},
	"gpu_vram":  {percent: 1.25, absolute: 512},
}

// ColumnMeans is the subset of a Stats the allocation check needs from
// both the task's and the host's means, keyed by column name.
type ColumnMeans map[string]float64

// ServerAllocation returns "Shared" if the host consumes meaningfully more
// of any checked resource than the task does, else "Dedicated". A zero
// task mean with a zero host mean never trips the percent check (0 > 0 is
// false), so an idle run is never misreported as Shared.
func ServerAllocation(taskMeans, hostMeans ColumnMeans) string {
	for col, chk := range allocationChecks {
		task := taskMeans[col]
		host := hostMeans[col]
		if host > task+chk.absolute || host > task*chk.percent {
			return "Shared"
		}
	}
	return "Dedicated"
}
