package scans

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/praxis-health/praxis/sdk/core"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = int64(7)
	testScanID   = int64(42)
	testReason   = "annual checkup"
	waitFor      = time.Second
	tick         = 5 * time.Millisecond
)

var (
	pending  = pollResponse{status: core.ScanStatus{Phase: core.ScanPhasePending}}
	complete = pollResponse{
		status: core.ScanStatus{Phase: core.ScanPhaseComplete, ScanID: testScanID},
	}
	transient = pollResponse{
		err: &meta.ErrNetwork{Err: context.DeadlineExceeded},
	}
)

type pollResponse struct {
	status core.ScanStatus
	err    error
}

// fakeScansClient answers status queries from a script and records every
// call made to it.
type fakeScansClient struct {
	core.ScansClient

	mu            sync.Mutex
	launchFn      func(core.ScanRequest) (core.ScanLaunch, error)
	script        []pollResponse
	downloadFn    func(scanID int64) (core.Report, error)
	launches      []core.ScanRequest
	polledClients []int64
	downloads     []int64
}

func newFakeScansClient(script ...pollResponse) *fakeScansClient {
	return &fakeScansClient{
		script: script,
		launchFn: func(core.ScanRequest) (core.ScanLaunch, error) {
			return core.ScanLaunch{Message: "Scan started"}, nil
		},
		downloadFn: func(scanID int64) (core.Report, error) {
			return core.Report{
				ScanID:      scanID,
				Filename:    "report.pdf",
				ContentType: core.ReportContentType,
				Content:     []byte("%PDF-1.4"),
			}, nil
		},
	}
}

func (f *fakeScansClient) Launch(
	_ context.Context,
	req core.ScanRequest,
) (core.ScanLaunch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches = append(f.launches, req)
	return f.launchFn(req)
}

func (f *fakeScansClient) LatestStatus(
	_ context.Context,
	clientID int64,
) (core.ScanStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polledClients = append(f.polledClients, clientID)
	i := len(f.polledClients) - 1
	if i >= len(f.script) {
		return pending.status, pending.err
	}
	return f.script[i].status, f.script[i].err
}

func (f *fakeScansClient) DownloadReport(
	_ context.Context,
	scanID int64,
) (core.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, scanID)
	return f.downloadFn(scanID)
}

func (f *fakeScansClient) counts() (launches, polls, downloads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launches), len(f.polledClients), len(f.downloads)
}

func (f *fakeScansClient) downloadedScans() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64{}, f.downloads...)
}

type testHarness struct {
	controller  *Controller
	scansClient *fakeScansClient
	clock       clockwork.FakeClock
}

func newTestHarness(script ...pollResponse) *testHarness {
	h := &testHarness{
		scansClient: newFakeScansClient(script...),
		clock:       clockwork.NewFakeClock(),
	}
	h.controller = NewController(h.scansClient, WithClock(h.clock))
	return h
}

// awaitTimer waits for the Job to start waiting on the clock.
func (h *testHarness) awaitTimer(t *testing.T) {
	t.Helper()
	blocked := make(chan struct{})
	go func() {
		h.clock.BlockUntil(1)
		close(blocked)
	}()
	select {
	case <-blocked:
	case <-time.After(waitFor):
		require.FailNow(t, "timed out waiting for the job to wait on the clock")
	}
}

// poll lets one polling interval elapse and waits for the resulting status
// query.
func (h *testHarness) poll(t *testing.T, job *Job) {
	t.Helper()
	h.awaitTimer(t)
	_, before, _ := h.scansClient.counts()
	h.clock.Advance(DefaultPollInterval)
	require.Eventually(
		t,
		func() bool {
			_, polls, _ := h.scansClient.counts()
			return polls == before+1
		},
		waitFor,
		tick,
	)
}

// requireNoTimers asserts that nothing is left waiting on the clock.
func (h *testHarness) requireNoTimers(t *testing.T) {
	t.Helper()
	blocked := make(chan struct{})
	go func() {
		h.clock.BlockUntil(1)
		close(blocked)
	}()
	require.Never(
		t,
		func() bool {
			select {
			case <-blocked:
				return true
			default:
				return false
			}
		},
		50*time.Millisecond,
		tick,
	)
}

func awaitDone(t *testing.T, job *Job) {
	t.Helper()
	select {
	case <-job.Done():
	case <-time.After(waitFor):
		require.FailNow(t, "timed out waiting for the job to end")
	}
}

func TestLaunchValidation(t *testing.T) {
	testCases := []struct {
		name     string
		clientID int64
		reason   string
	}{
		{
			name:   "missing client",
			reason: testReason,
		},
		{
			name:     "missing reason",
			clientID: testClientID,
		},
		{
			name:     "blank reason",
			clientID: testClientID,
			reason:   " \t",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			h := newTestHarness()
			job, err := h.controller.Launch(
				context.Background(),
				testCase.clientID,
				testCase.reason,
			)
			require.Nil(t, job)
			require.IsType(t, &meta.ErrValidation{}, err)
			launches, polls, downloads := h.scansClient.counts()
			require.Zero(t, launches)
			require.Zero(t, polls)
			require.Zero(t, downloads)
		})
	}
}

func TestPendingThenComplete(t *testing.T) {
	const k = 3
	script := []pollResponse{}
	for i := 0; i < k; i++ {
		script = append(script, pending)
	}
	script = append(script, complete)
	h := newTestHarness(script...)

	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	for i := 0; i < k+1; i++ {
		h.poll(t, job)
		require.Equal(t, i+1, job.Attempts())
	}

	// Nothing is downloaded until the post-completion delay has elapsed
	h.awaitTimer(t)
	h.clock.Advance(DefaultReportDelay - time.Millisecond)
	require.Never(
		t,
		func() bool {
			_, _, downloads := h.scansClient.counts()
			return downloads > 0
		},
		50*time.Millisecond,
		tick,
	)
	require.Equal(t, StatePolling, job.State())
	h.clock.Advance(time.Millisecond)

	awaitDone(t, job)
	require.Equal(t, StateDone, job.State())
	report, err := job.Result()
	require.NoError(t, err)
	require.Equal(t, testScanID, report.ScanID)
	require.Equal(t, []byte("%PDF-1.4"), report.Content)
	require.Equal(t, testScanID, job.ScanID())

	launches, polls, downloads := h.scansClient.counts()
	require.Equal(t, 1, launches)
	require.Equal(t, k+1, polls)
	require.Equal(t, 1, downloads)
}

func TestAnnualCheckupScenario(t *testing.T) {
	h := newTestHarness(pending, complete)
	job, err := h.controller.Launch(context.Background(), 7, "annual checkup")
	require.NoError(t, err)

	h.poll(t, job)
	h.poll(t, job)
	h.awaitTimer(t)
	h.clock.Advance(DefaultReportDelay)
	awaitDone(t, job)

	require.Equal(t, StateDone, job.State())
	require.Equal(t, []int64{42}, h.scansClient.downloadedScans())
	h.scansClient.mu.Lock()
	require.Equal(
		t,
		[]core.ScanRequest{{ClientID: 7, Reason: "annual checkup"}},
		h.scansClient.launches,
	)
	require.Equal(t, []int64{7, 7}, h.scansClient.polledClients)
	h.scansClient.mu.Unlock()
}

func TestPollingTimesOut(t *testing.T) {
	h := newTestHarness()
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	for i := 0; i < DefaultMaxAttempts; i++ {
		h.poll(t, job)
	}
	awaitDone(t, job)

	require.Equal(t, StateTimedOut, job.State())
	_, err = job.Result()
	require.IsType(t, &meta.ErrTimeoutExhausted{}, err)
	timeoutErr := err.(*meta.ErrTimeoutExhausted)
	require.Equal(t, DefaultMaxAttempts, timeoutErr.Attempts)
	require.Equal(
		t,
		time.Duration(DefaultMaxAttempts)*DefaultPollInterval,
		timeoutErr.Elapsed,
	)
	require.Equal(t, DefaultMaxAttempts, job.Attempts())

	// Polling has stopped for good
	h.clock.Advance(time.Hour)
	_, polls, downloads := h.scansClient.counts()
	require.Equal(t, DefaultMaxAttempts, polls)
	require.Zero(t, downloads)
}

func TestTransientPollFailureTolerated(t *testing.T) {
	h := newTestHarness(pending, transient, pending, complete)
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		h.poll(t, job)
		require.Equal(t, StatePolling, job.State())
	}
	h.awaitTimer(t)
	h.clock.Advance(DefaultReportDelay)
	awaitDone(t, job)
	require.Equal(t, StateDone, job.State())
	_, polls, downloads := h.scansClient.counts()
	require.Equal(t, 4, polls)
	require.Equal(t, 1, downloads)
}

func TestTransientFailuresCountTowardCeiling(t *testing.T) {
	h := newTestHarness(transient, transient, transient)
	h.controller = NewController(
		h.scansClient,
		WithClock(h.clock),
		WithMaxAttempts(3),
	)
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		h.poll(t, job)
	}
	awaitDone(t, job)
	require.Equal(t, StateTimedOut, job.State())
}

func TestAuthenticationFailureWhilePolling(t *testing.T) {
	h := newTestHarness(
		pending,
		pollResponse{err: &meta.ErrAuthentication{}},
		complete,
	)
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	h.poll(t, job)
	h.poll(t, job)
	awaitDone(t, job)
	require.Equal(t, StateFailed, job.State())
	_, err = job.Result()
	require.IsType(t, &meta.ErrAuthentication{}, err)
	_, polls, downloads := h.scansClient.counts()
	require.Equal(t, 2, polls)
	require.Zero(t, downloads)
}

func TestSubmissionFailure(t *testing.T) {
	h := newTestHarness(complete)
	h.scansClient.launchFn = func(core.ScanRequest) (core.ScanLaunch, error) {
		return core.ScanLaunch{}, &meta.ErrInternalServer{}
	}
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	awaitDone(t, job)
	require.Equal(t, StateFailed, job.State())
	_, err = job.Result()
	require.IsType(t, &meta.ErrInternalServer{}, err)
	_, polls, downloads := h.scansClient.counts()
	require.Zero(t, polls)
	require.Zero(t, downloads)
}

func TestDownloadRejectsUnexpectedContent(t *testing.T) {
	h := newTestHarness(complete)
	h.scansClient.downloadFn = func(int64) (core.Report, error) {
		return core.Report{}, &meta.ErrUnexpectedContent{
			Expected: core.ReportContentType,
			Actual:   "text/html",
		}
	}
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	h.poll(t, job)
	h.awaitTimer(t)
	h.clock.Advance(DefaultReportDelay)
	awaitDone(t, job)
	require.Equal(t, StateFailed, job.State())
	report, err := job.Result()
	require.IsType(t, &meta.ErrUnexpectedContent{}, err)
	require.Empty(t, report.Content)
	_, _, downloads := h.scansClient.counts()
	require.Equal(t, 1, downloads)
}

func TestCompletionOfAnotherScanIgnored(t *testing.T) {
	h := newTestHarness(
		pollResponse{
			status: core.ScanStatus{Phase: core.ScanPhaseComplete, ScanID: 41},
		},
		complete,
	)
	h.scansClient.launchFn = func(core.ScanRequest) (core.ScanLaunch, error) {
		return core.ScanLaunch{ScanID: testScanID}, nil
	}
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	h.poll(t, job)
	h.poll(t, job)
	h.awaitTimer(t)
	h.clock.Advance(DefaultReportDelay)
	awaitDone(t, job)
	require.Equal(t, StateDone, job.State())
	require.Equal(t, []int64{testScanID}, h.scansClient.downloadedScans())
}

func TestCompletionWithoutScanID(t *testing.T) {
	h := newTestHarness(
		pollResponse{status: core.ScanStatus{Phase: core.ScanPhaseComplete}},
	)
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	h.poll(t, job)
	awaitDone(t, job)
	require.Equal(t, StateFailed, job.State())
	_, err = job.Result()
	require.Error(t, err)
	require.Contains(t, err.Error(), "identifier is unknown")
}

func TestCancel(t *testing.T) {
	h := newTestHarness()
	job, err := h.controller.Launch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	h.poll(t, job)

	_, err = job.Result()
	require.Equal(t, ErrJobRunning, err)

	// Cancel while the job waits out the next interval
	h.awaitTimer(t)
	job.Cancel()
	awaitDone(t, job)
	require.Equal(t, StateFailed, job.State())
	_, err = job.Result()
	require.Equal(t, context.Canceled, err)
	h.requireNoTimers(t)
}

func TestCancelDuringReportDelay(t *testing.T) {
	h := newTestHarness(complete)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	job, err := h.controller.Launch(ctx, testClientID, testReason)
	require.NoError(t, err)
	h.poll(t, job)
	h.awaitTimer(t)

	cancel()
	awaitDone(t, job)
	require.Equal(t, StateFailed, job.State())
	_, err = job.Result()
	require.Equal(t, context.Canceled, err)
	_, _, downloads := h.scansClient.counts()
	require.Zero(t, downloads)
	h.requireNoTimers(t)
}

func TestJobStates(t *testing.T) {
	h := newTestHarness(complete)
	job, states, err :=
		h.controller.Watch(context.Background(), testClientID, testReason)
	require.NoError(t, err)
	defer states.Unsubscribe()

	h.poll(t, job)
	h.awaitTimer(t)
	h.clock.Advance(DefaultReportDelay)
	awaitDone(t, job)

	observed := []State{}
	for state := range states.C() {
		observed = append(observed, state)
	}
	require.Equal(
		t,
		[]State{
			StateIdle,
			StateSubmitting,
			StatePolling,
			StateDownloading,
			StateDone,
		},
		observed,
	)
	require.True(t, StateDone.IsTerminal())
	require.False(t, StatePolling.IsTerminal())

	// A late subscriber sees where the job ended up
	late := job.States()
	defer late.Unsubscribe()
	require.Equal(t, StateDone, <-late.C())

	_, _, err = h.controller.Watch(context.Background(), 0, testReason)
	require.IsType(t, &meta.ErrValidation{}, err)
}

func TestRun(t *testing.T) {
	h := newTestHarness()
	h.controller = NewController(
		newFakeScansClient(pending, complete),
		WithPollInterval(time.Millisecond),
		WithReportDelay(time.Millisecond),
	)
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	report, err := h.controller.Run(ctx, testClientID, testReason)
	require.NoError(t, err)
	require.Equal(t, testScanID, report.ScanID)

	_, err = h.controller.Run(ctx, 0, "")
	require.IsType(t, &meta.ErrValidation{}, err)
}
