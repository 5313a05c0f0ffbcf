package suite

import (
	"sync"
	"time"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the outcome of one job.
type Result struct {
	Page       string        `json:"page"`
	Viewport   string        `json:"viewport"`
	Dimensions string        `json:"dimensions"`
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Screenshot string        `json:"screenshot,omitempty"`
	Started    time.Time     `json:"started"`
}

// Run is one execution of a suite. Results are appended as jobs finish;
// readers going through the accessors get consistent copies.
type Run struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SuiteName string    `json:"suite"`
	BaseURL   string    `json:"baseUrl"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Total     int       `json:"total"`

	mu      sync.Mutex
	results []Result
}

// Add appends a finished result.
func (r *Run) Add(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

// Results returns a copy of what has landed so far.
func (r *Run) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Counts tallies results by status.
func (r *Run) Counts() (ok, skipped, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		switch res.Status {
		case StatusOK:
			ok++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return ok, skipped, failed
}

// Failed reports whether any job failed.
func (r *Run) Failed() bool {
	_, _, failed := r.Counts()
	return failed > 0
}

type EventKind string

const (
	EventRunStarted  EventKind = "run_started"
	EventJobFinished EventKind = "job_finished"
	EventRunFinished EventKind = "run_finished"
)

// Event is emitted at run milestones for anything watching the run, like
// the dashboard.
type Event struct {
	Kind   EventKind
	Run    *Run
	Result *Result
}

// Observer receives run events. Observers must not block; they are called
// inline from job goroutines.
type Observer func(evt Event)
