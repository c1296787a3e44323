package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/geiger-rng/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.2f%%", f*100)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Geiger RNG</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ready { color: green; font-weight: bold; }
.waiting { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Geiger RNG</h1>

<h2>Extractor</h2>
<table>
<tr><th>State</th><td class="{{if .Ready}}ready{{else}}waiting{{end}}">{{if .Ready}}ready{{else}}waiting for pulses{{end}}</td></tr>
<tr><th>Width</th><td>{{.Config.Width}} bits</td></tr>
<tr><th>Current value</th><td>{{.BitCount}}/{{.Config.Width}} bits</td></tr>
{{if .HasLast}}<tr><th>Last value</th><td>{{.Last.Number}} ({{.Last.Bits}})</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Pulses</th><td>{{.Counts.Pulses}}</td></tr>
<tr><th>Bits</th><td>{{.Counts.Bits}}</td></tr>
<tr><th>Ones</th><td>{{.Counts.Ones}} ({{percent .OnesRatio}})</td></tr>
<tr><th>Values</th><td>{{.Counts.Values}}</td></tr>
<tr><th>Pulse rate</th><td>{{printf "%.2f" .PulseRate}}/s</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
{{if .Config.RecordDir}}<tr><th>Recording to</th><td>{{.Config.RecordDir}}</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot exposes derived values as methods; the template needs fields.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Ready     bool
		PulseRate float64
		OnesRatio float64
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Ready:     snap.Ready(),
		PulseRate: snap.PulseRate(),
		OnesRatio: snap.OnesRatio(),
	}
	return indexTmpl.Execute(w, data)
}
