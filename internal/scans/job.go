package scans

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/internal/broadcast"
	"github.com/praxis-health/praxis/sdk/core"
)

// State represents where a Job is within its lifecycle.
type State string

const (
	// StateIdle represents a Job that has not yet been started.
	StateIdle State = "Idle"
	// StateSubmitting represents a Job whose ScanRequest is being sent to the
	// API server.
	StateSubmitting State = "Submitting"
	// StatePolling represents a Job waiting for its Scan to complete.
	StatePolling State = "Polling"
	// StateDownloading represents a Job retrieving its Scan's report.
	StateDownloading State = "Downloading"
	// StateDone represents a Job whose report was retrieved.
	StateDone State = "Done"
	// StateFailed represents a Job that ended in error.
	StateFailed State = "Failed"
	// StateTimedOut represents a Job whose Scan did not complete within the
	// permitted number of status queries. The Scan itself may still complete
	// on the server.
	StateTimedOut State = "TimedOut"
)

// IsTerminal returns true if no further transitions are possible from the
// State.
func (s State) IsTerminal() bool {
	switch s {
	case StateDone, StateFailed, StateTimedOut:
		return true
	}
	return false
}

// ErrJobRunning is returned by Job.Result while the Job is still running.
var ErrJobRunning = errors.New("scan job is still running")

// Job tracks a single launched Scan from submission to report download.
type Job struct {
	clientID int64
	reason   string
	cancel   context.CancelFunc
	done     chan struct{}
	states   *broadcast.Cell[State]

	mu       sync.Mutex
	state    State
	attempts int
	scanID   int64
	report   core.Report
	err      error
}

func newJob(clientID int64, reason string) *Job {
	return &Job{
		clientID: clientID,
		reason:   reason,
		done:     make(chan struct{}),
		states:   broadcast.NewCellWithValue(StateIdle),
		state:    StateIdle,
	}
}

// ClientID returns the identifier of the Client being scanned.
func (j *Job) ClientID() int64 {
	return j.clientID
}

// State returns the Job's current State.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// States returns a subscription that immediately receives the Job's current
// State and then every subsequent transition. Its channel is closed once the
// Job ends.
func (j *Job) States() *broadcast.Subscription[State] {
	return j.states.Subscribe()
}

// Attempts returns the number of status queries made so far.
func (j *Job) Attempts() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempts
}

// ScanID returns the identifier of the launched Scan, or zero if the API
// server has not yet revealed it.
func (j *Job) ScanID() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.scanID
}

// Done returns a channel that is closed when the Job ends.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result returns the downloaded report or the error that ended the Job. It
// returns ErrJobRunning if the Job has not ended.
func (j *Job) Result() (core.Report, error) {
	select {
	case <-j.done:
	default:
		return core.Report{}, ErrJobRunning
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report, j.err
}

// Wait blocks until the Job ends or ctx is canceled, then returns as Result
// does. Canceling ctx does not cancel the Job.
func (j *Job) Wait(ctx context.Context) (core.Report, error) {
	select {
	case <-j.done:
		return j.Result()
	case <-ctx.Done():
		return core.Report{}, ctx.Err()
	}
}

// Cancel stops the Job. A canceled Job ends in StateFailed. The Scan itself is
// not canceled on the server.
func (j *Job) Cancel() {
	if j.cancel != nil {
		j.cancel()
	}
}

func (j *Job) setState(state State) {
	j.mu.Lock()
	j.state = state
	j.mu.Unlock()
	j.states.Publish(state)
}

func (j *Job) setAttempts(attempts int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = attempts
}

func (j *Job) setScanID(scanID int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.scanID = scanID
}

// finish records the outcome of the Job and releases anyone waiting on it.
func (j *Job) finish(state State, report core.Report, err error) {
	j.mu.Lock()
	j.report = report
	j.err = err
	j.mu.Unlock()
	j.setState(state)
	j.states.Close()
	close(j.done)
}
