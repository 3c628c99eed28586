package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/computeforhumanity/compute-agent/internal/achieve"
	"github.com/computeforhumanity/compute-agent/internal/status"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Compute for Humanity</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.active { color: green; font-weight: bold; }
.idle { color: #888; }
.blocked { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.locked { color: #bbb; }
form { display: inline; }
</style>
</head>
<body>
<h1>Compute for Humanity</h1>

<h2>State</h2>
<table>
<tr><th>Scheduler</th><td class="{{if eq (printf "%s" .State) "ACTIVE"}}active{{else if eq (printf "%s" .State) "IDLE"}}idle{{else}}blocked{{end}}">{{.State}}{{if .BlockReason}} ({{.BlockReason}}){{end}}</td></tr>
<tr><th>Thermal</th><td>{{if .ThermalSafe}}safe{{else}}too hot{{end}}</td></tr>
<tr><th>Paused</th><td>{{if .UserPaused}}yes{{else}}no{{end}}</td></tr>
<tr><th>High CPU</th><td>{{if .HighCPU}}on{{else}}off{{end}}</td></tr>
</table>

<h2>Progress</h2>
<table>
<tr><th>Hearts</th><td>{{.Progress.Points}}</td></tr>
<tr><th>Donated</th><td>{{.Progress.DonatedTotal}}</td></tr>
<tr><th>Recruits</th><td>{{.Progress.RecruitCount}}</td></tr>
{{if .GlobalDonated}}<tr><th>Donated by everyone</th><td>{{.GlobalDonated}}</td></tr>{{end}}
</table>

<h2>Achievements</h2>
<table>
{{range .Achievements}}<tr{{if not .Unlocked}} class="locked"{{end}}><th>{{if .Unlocked}}{{.Emoji}}{{else}}🔒{{end}}</th><td>{{.Text}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
<tr><th>Aggregator</th><td>{{.Config.BaseURL}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Resume interval</th><td>{{.Config.ResumeSec}}s</td></tr>
<tr><th>Window</th><td>{{.Config.WindowSec}}s / {{.Config.WindowHighSec}}s</td></tr>
<tr><th>Thermal poll</th><td>{{.Config.ThermalPollMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p>
{{if .UserPaused}}<form method="post" action="/resume"><button>Resume</button></form>{{else}}<form method="post" action="/pause"><button>Pause</button></form>{{end}}
{{if .HighCPU}}<form method="post" action="/highcpu"><input type="hidden" name="on" value="false"><button>Normal CPU</button></form>{{else}}<form method="post" action="/highcpu"><input type="hidden" name="on" value="true"><button>More CPU</button></form>{{end}}
</p>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

// achievementRow is one line of the achievements table: unlocked rows
// show their emoji, locked-but-visible rows show a padlock.
type achievementRow struct {
	Emoji    string
	Text     string
	Unlocked bool
}

func achievementRows(unlocked []achieve.ID) []achievementRow {
	set := make(map[achieve.ID]bool, len(unlocked))
	for _, id := range unlocked {
		set[id] = true
	}

	visible := achieve.Visible(set)
	rows := make([]achievementRow, 0, len(visible))
	for _, id := range visible {
		rows = append(rows, achievementRow{
			Emoji:    string(id),
			Text:     achieve.Rules[id].Text,
			Unlocked: set[id],
		})
	}
	return rows
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime       time.Duration
		Achievements []achievementRow
	}{
		Snapshot:     snap,
		Uptime:       snap.Uptime(),
		Achievements: achievementRows(snap.Progress.Achievements),
	}
	indexTmpl.Execute(w, data)
}
