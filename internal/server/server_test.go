package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/evosolve/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dataDir := t.TempDir()
	st, err := store.NewFSStore(dataDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	return NewServer(":0", dataDir, st)
}

// waitForTerminal blocks until the job leaves the pending/running states, so
// its background worker is done touching the test's temp directory.
func waitForTerminal(t *testing.T, s *Server, jobID string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, exists := s.jobManager.GetJob(jobID)
		if exists && job.State != StatePending && job.State != StateRunning {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Job %s did not finish in time", jobID)
}

func postJob(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handleJobs(w, req)
	return w
}

func TestHandleCreateJob_Valid(t *testing.T) {
	s := newTestServer(t)

	w := postJob(t, s, `{
		"objective": "sphere",
		"generations": 1,
		"solutions": 4,
		"parents": 2,
		"ranges": [{"low": -1, "high": 1}],
		"seed": 3
	}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if job.ID == "" {
		t.Error("Expected job ID in response")
	}
	if job.RunID != job.ID {
		t.Errorf("RunID = %q, want job ID default", job.RunID)
	}
	waitForTerminal(t, s, job.ID)
}

func TestHandleCreateJob_Defaults(t *testing.T) {
	s := newTestServer(t)

	w := postJob(t, s, `{"objective": "sphere", "ranges": [{"low": 0, "high": 1}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var job Job
	json.NewDecoder(w.Body).Decode(&job)
	if job.Config.Generations != 10 || job.Config.Solutions != 16 || job.Config.Parents != 4 {
		t.Errorf("Defaults not applied: %+v", job.Config)
	}
	waitForTerminal(t, s, job.ID)
}

func TestHandleCreateJob_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "invalid json",
			body: `{not json`,
		},
		{
			name: "missing objective",
			body: `{"ranges": [{"low": 0, "high": 1}]}`,
		},
		{
			name: "unknown objective",
			body: `{"objective": "nope", "ranges": [{"low": 0, "high": 1}]}`,
		},
		{
			name: "missing ranges",
			body: `{"objective": "sphere"}`,
		},
		{
			name: "parents not less than solutions",
			body: `{"objective": "sphere", "solutions": 4, "parents": 4, "ranges": [{"low": 0, "high": 1}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			if w := postJob(t, s, tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleListJobs(t *testing.T) {
	s := newTestServer(t)

	s.jobManager.CreateJob(testRequest())
	s.jobManager.CreateJob(testRequest())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	s.handleJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	var jobs []Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestHandleJobs_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	s.handleJobs(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", w.Code)
	}
}

func TestHandleGetJobStatus(t *testing.T) {
	s := newTestServer(t)
	job := s.jobManager.CreateJob(testRequest())
	s.jobManager.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.BestFitness = 7.5
		j.Generations = 2
		j.Evaluations = 12
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/status", nil)
	w := httptest.NewRecorder()
	s.handleJobsWithID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["state"] != string(StateRunning) {
		t.Errorf("state = %v, want running", resp["state"])
	}
	if resp["bestFitness"] != 7.5 {
		t.Errorf("bestFitness = %v, want 7.5", resp["bestFitness"])
	}
	if resp["generations"] != float64(2) {
		t.Errorf("generations = %v, want 2", resp["generations"])
	}
	if _, ok := resp["eps"]; !ok {
		t.Error("Expected eps field in status response")
	}
}

func TestHandleGetJobStatus_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope/status", nil)
	w := httptest.NewRecorder()
	s.handleJobsWithID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", w.Code)
	}
}

func TestHandleJobsWithID_MissingID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/", nil)
	w := httptest.NewRecorder()
	s.handleJobsWithID(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
}

func TestHandleGetJobRecord(t *testing.T) {
	s := newTestServer(t)

	req := testRequest()
	req.RunID = "rec-run"
	job := s.jobManager.CreateJob(req)

	state := &store.RunState{
		RunID: "rec-run",
		Config: store.RunConfig{
			NumSolutions: 4,
			NumParams:    2,
			NumParents:   2,
			Ranges:       []store.ParamRange{{Low: 0, High: 10}, {Low: 0, High: 10}},
		},
		Population: [][]float64{{1, 1}, {9, 9}, {0, 0}, {10, 10}},
		Fitness:    []float64{32, 32, 50, 50},
		Record: []store.RecordEntry{
			{Generation: 1, Params: []float64{1, 1}, Fitness: 32},
			{Generation: 2, Params: []float64{4, 5}, Fitness: 18},
		},
		SavedAt: time.Now(),
	}
	if err := s.store.SaveRun("rec-run", state); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	httpReq := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/record", nil)
	w := httptest.NewRecorder()
	s.handleJobsWithID(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var record []store.RecordEntry
	if err := json.NewDecoder(w.Body).Decode(&record); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(record) != 2 {
		t.Fatalf("Record length = %d, want 2", len(record))
	}
	if record[1].Generation != 2 || record[1].Fitness != 18 {
		t.Errorf("Unexpected last entry: %+v", record[1])
	}
}

func TestHandleGetJobRecord_NoCheckpoint(t *testing.T) {
	s := newTestServer(t)
	job := s.jobManager.CreateJob(testRequest())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/record", nil)
	w := httptest.NewRecorder()
	s.handleJobsWithID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404 before first checkpoint", w.Code)
	}
}

func TestHandleObjectives(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/objectives", nil)
	w := httptest.NewRecorder()
	s.handleObjectives(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	var names []string
	if err := json.NewDecoder(w.Body).Decode(&names); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	found := false
	for _, name := range names {
		if name == "sphere" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected sphere in objectives, got %v", names)
	}

	post := httptest.NewRequest(http.MethodPost, "/api/v1/objectives", nil)
	w = httptest.NewRecorder()
	s.handleObjectives(w, post)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405 for POST", w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer(t)

	handler := s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Preflight status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTeapot {
		t.Errorf("GET should pass through, got %d", w.Code)
	}
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t)
	s.jobManager.CreateJob(testRequest())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.handleIndex(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(w.Body.String(), "pending") {
		t.Error("Dashboard should list the pending job")
	}
}
