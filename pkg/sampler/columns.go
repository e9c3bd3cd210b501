package sampler

// PidColumns is the fixed CSV column order for the pid-tree stream.
// Generated once as a package-level slice rather than derived from a
// struct's reflected field order, since the column order is a wire
// contract independent of any particular Go type.
var PidColumns = []string{
	"timestamp", "pid", "children", "utime", "stime", "cpu_usage", "memory",
	"read_bytes", "write_bytes", "gpu_usage", "gpu_vram", "gpu_utilized",
}

// HostColumns is the fixed CSV column order for the host stream.
var HostColumns = []string{
	"timestamp", "processes", "utime", "stime", "cpu_usage", "memory_free",
	"memory_used", "memory_buffers", "memory_cached", "memory_active_anon",
	"memory_inactive_anon", "disk_read_bytes", "disk_write_bytes",
	"disk_space_total_gb", "disk_space_used_gb", "disk_space_free_gb",
	"net_recv_bytes", "net_sent_bytes", "gpu_usage", "gpu_vram", "gpu_utilized",
}
