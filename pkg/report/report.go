// Package report renders an artifact.Artifact to an HTML "card", on by
// default (create_card: true). Orthogonal to the sampling engine proper:
// a package-level template.Must(...Parse(...)) executed straight into the
// caller's writer, driven off artifact.Artifact rather than a per-tick row
// slice.
package report

import (
	"fmt"
	"html/template"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/taskmetrics/resourcetracker/pkg/artifact"
)

var funcs = template.FuncMap{
	"bytes": func(n uint64) string { return humanize.Bytes(n) },
	"kib":   func(n float64) string { return humanize.Bytes(uint64(n * 1024)) },
	"mib":   func(n float64) string { return humanize.Bytes(uint64(n * 1024 * 1024)) },
	"gib":   func(n float64) string { return fmt.Sprintf("%.2f GiB", n) },
	"pct":   func(n float64) string { return fmt.Sprintf("%.1f%%", n*100) },
	"round": func(n float64) string { return humanize.FormatFloat("#,###.##", n) },
}

var tpl = template.Must(template.New("card").Funcs(funcs).Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>Resource Tracker Report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px;margin-bottom:16px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
.small{color:#555}
</style>

{{if .Error}}
<h1>Resource Tracker Report</h1>
<p><strong>run failed:</strong> {{.Error.Type}} &mdash; {{.Error.Message}}</p>
{{else}}
<h1>Resource Tracker Report</h1>
<p class="small">implementation: {{.ResourceTracker.Implementation}} &middot; version {{.ResourceTracker.Version}} &middot; allocation: {{.Allocation}}</p>

<h2>Summary</h2>
<table>
<tr><th>metric</th><th>value</th></tr>
<tr><td>duration</td><td>{{.Stats.DurationSeconds}} s</td></tr>
<tr><td>cpu usage (mean / max)</td><td>{{pct .Stats.CPUUsage.Mean}} / {{pct .Stats.CPUUsage.Max}}</td></tr>
<tr><td>memory (mean / max)</td><td>{{kib .Stats.Memory.Mean}} / {{kib .Stats.Memory.Max}}</td></tr>
<tr><td>gpu usage (mean / max)</td><td>{{pct .Stats.GPUUsage.Mean}} / {{pct .Stats.GPUUsage.Max}}</td></tr>
<tr><td>gpu vram (mean / max)</td><td>{{mib .Stats.GPUVRAM.Mean}} / {{mib .Stats.GPUVRAM.Max}}</td></tr>
<tr><td>disk space used (max)</td><td>{{gib .Stats.DiskSpaceUsedGB}}</td></tr>
<tr><td>network in / out</td><td>{{bytes .Stats.Traffic.InboundBytes}} / {{bytes .Stats.Traffic.OutboundBytes}}</td></tr>
</table>

<h2>Server</h2>
<table>
<tr><th>vcpus</th><td>{{.ServerInfo.VCPUs}}</td></tr>
<tr><th>memory</th><td>{{round .ServerInfo.MemoryMB}} MB</td></tr>
<tr><th>gpu count</th><td>{{.ServerInfo.GPUCount}}</td></tr>
<tr><th>cloud</th><td>{{.CloudInfo.Vendor}} / {{.CloudInfo.InstanceType}} / {{.CloudInfo.Region}}</td></tr>
</table>

{{if .HistoricalStats.Available}}
<h2>Historical (previous runs)</h2>
<table>
<tr><td>cpu usage mean</td><td>{{pct .HistoricalStats.CPUUsageMean}}</td></tr>
<tr><td>memory max</td><td>{{kib .HistoricalStats.MemoryMax}}</td></tr>
<tr><td>duration mean</td><td>{{.HistoricalStats.DurationSeconds}} s</td></tr>
</table>
{{end}}
{{end}}
</html>
`))

// Render writes a's run as a self-contained HTML document, including the
// short-circuit error view when a.Error is set.
func Render(w io.Writer, a *artifact.Artifact) error {
	return tpl.Execute(w, a)
}
