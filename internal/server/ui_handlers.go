package server

import (
	"html/template"
	"net/http"
	"sort"
	"time"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>evosolve</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
th { background: #f0f0f0; }
.state-running { color: #0066cc; }
.state-completed { color: #007700; }
.state-failed, .state-cancelled { color: #cc0000; }
</style>
</head>
<body>
<h1>evosolve runs</h1>
{{if .}}
<table>
<tr><th>Job</th><th>Run</th><th>State</th><th>Objective</th><th>Generation</th><th>Best Fitness</th><th>Started</th><th>Error</th></tr>
{{range .}}
<tr>
<td>{{.ShortID}}</td>
<td>{{.ShortRunID}}</td>
<td class="state-{{.State}}">{{.State}}</td>
<td>{{.Objective}}</td>
<td>{{.Generations}}</td>
<td>{{printf "%.6g" .BestFitness}}</td>
<td>{{.Started}}</td>
<td>{{.Error}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No jobs yet. POST to /api/v1/jobs to start one.</p>
{{end}}
</body>
</html>
`))

type jobRow struct {
	ShortID     string
	ShortRunID  string
	State       JobState
	Objective   string
	Generations int
	BestFitness float64
	Started     string
	Error       string
}

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	jobs := s.jobManager.ListJobs()
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.After(jobs[j].StartTime)
	})

	rows := make([]jobRow, len(jobs))
	for i, job := range jobs {
		rows[i] = jobRow{
			ShortID:     shorten(job.ID),
			ShortRunID:  shorten(job.RunID),
			State:       job.State,
			Objective:   job.Config.Objective,
			Generations: job.Generations,
			BestFitness: job.BestFitness,
			Started:     job.StartTime.Format(time.RFC3339),
			Error:       job.Error,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, rows); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
