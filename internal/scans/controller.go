// Package scans drives a Scan from submission through status polling to the
// download of its report.
package scans

import (
	"context"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/internal/broadcast"
	"github.com/praxis-health/praxis/sdk/core"
	"github.com/praxis-health/praxis/sdk/meta"
)

// Controller launches Scans and follows each to completion. Every launched
// Scan is tracked by its own Job; Jobs share nothing but the Controller's
// settings.
type Controller struct {
	scansClient  core.ScansClient
	clock        clockwork.Clock
	pollInterval time.Duration
	maxAttempts  int
	reportDelay  time.Duration
}

// NewController returns a Controller that launches and follows Scans using
// scansClient.
func NewController(scansClient core.ScansClient, opts ...Option) *Controller {
	c := &Controller{
		scansClient:  scansClient,
		clock:        clockwork.NewRealClock(),
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		reportDelay:  DefaultReportDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

// Launch validates the request and, if it is valid, starts a Job that submits
// it and follows the resulting Scan. An invalid request fails immediately with
// a *meta.ErrValidation and nothing is sent to the API server. All other
// outcomes are reported through the returned Job. Canceling ctx cancels the
// Job.
func (c *Controller) Launch(
	ctx context.Context,
	clientID int64,
	reason string,
) (*Job, error) {
	job, err := prepare(clientID, reason)
	if err != nil {
		return nil, err
	}
	c.start(ctx, job)
	return job, nil
}

// Watch is Launch, but also returns a subscription to the Job's States that is
// in place before the Job starts. Unlike one obtained from Job.States, it
// receives every transition. Callers must Unsubscribe when they are done.
func (c *Controller) Watch(
	ctx context.Context,
	clientID int64,
	reason string,
) (*Job, *broadcast.Subscription[State], error) {
	job, err := prepare(clientID, reason)
	if err != nil {
		return nil, nil, err
	}
	states := job.States()
	c.start(ctx, job)
	return job, states, nil
}

func prepare(clientID int64, reason string) (*Job, error) {
	verrs := []string{}
	if clientID <= 0 {
		verrs = append(verrs, "a client is required")
	}
	if strings.TrimSpace(reason) == "" {
		verrs = append(verrs, "a reason for the scan is required")
	}
	if len(verrs) > 0 {
		return nil, &meta.ErrValidation{
			Reason:  "scan request is incomplete",
			Details: verrs,
		}
	}
	return newJob(clientID, reason), nil
}

func (c *Controller) start(ctx context.Context, job *Job) {
	ctx, job.cancel = context.WithCancel(ctx)
	go c.run(ctx, job)
}

// Run launches a Scan and blocks until its report has been downloaded or the
// Job has otherwise ended.
func (c *Controller) Run(
	ctx context.Context,
	clientID int64,
	reason string,
) (core.Report, error) {
	job, err := c.Launch(ctx, clientID, reason)
	if err != nil {
		return core.Report{}, err
	}
	<-job.Done()
	return job.Result()
}

func (c *Controller) run(ctx context.Context, job *Job) {
	defer job.cancel()

	job.setState(StateSubmitting)
	launch, err := c.scansClient.Launch(
		ctx,
		core.ScanRequest{
			ClientID: job.clientID,
			Reason:   job.reason,
		},
	)
	if err != nil {
		job.finish(StateFailed, core.Report{}, err)
		return
	}
	if launch.ScanID != 0 {
		job.setScanID(launch.ScanID)
	}
	glog.V(1).Infof(
		"launched scan %d for client %d",
		launch.ScanID,
		job.clientID,
	)

	job.setState(StatePolling)
	scanID, err := c.poll(ctx, job)
	if err != nil {
		if _, ok := err.(*meta.ErrTimeoutExhausted); ok {
			job.finish(StateTimedOut, core.Report{}, err)
			return
		}
		job.finish(StateFailed, core.Report{}, err)
		return
	}
	job.setScanID(scanID)

	if err = c.sleep(ctx, c.reportDelay); err != nil {
		job.finish(StateFailed, core.Report{}, err)
		return
	}

	job.setState(StateDownloading)
	report, err := c.scansClient.DownloadReport(ctx, scanID)
	if err != nil {
		job.finish(StateFailed, core.Report{}, err)
		return
	}
	glog.V(1).Infof("downloaded report for scan %d", scanID)
	job.finish(StateDone, report, nil)
}

// poll queries the status of the Client's latest Scan at a fixed interval
// until it completes or the attempts are exhausted. It returns the identifier
// of the completed Scan. Failed queries count as attempts but are otherwise
// ignored, except for those that no amount of polling can fix.
func (c *Controller) poll(ctx context.Context, job *Job) (int64, error) {
	started := c.clock.Now()
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return 0, err
		}
		job.setAttempts(attempt)
		status, err := c.scansClient.LatestStatus(ctx, job.clientID)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			if isFatal(err) {
				return 0, err
			}
			glog.Warningf(
				"error polling status of client %d's latest scan (attempt %d of "+
					"%d); will retry: %s",
				job.clientID,
				attempt,
				c.maxAttempts,
				err,
			)
			continue
		}
		glog.V(2).Infof(
			"client %d's latest scan is %s (attempt %d of %d)",
			job.clientID,
			status.Phase,
			attempt,
			c.maxAttempts,
		)
		if status.Phase != core.ScanPhaseComplete {
			continue
		}
		// Statuses are looked up by client, so the latest scan may belong to
		// some other request. Only trust a completion for the scan that was
		// launched, when its identity is known.
		launchedID := job.ScanID()
		if launchedID != 0 && status.ScanID != 0 && status.ScanID != launchedID {
			glog.V(1).Infof(
				"ignoring completion of scan %d while waiting on scan %d",
				status.ScanID,
				launchedID,
			)
			continue
		}
		if status.ScanID != 0 {
			return status.ScanID, nil
		}
		if launchedID != 0 {
			return launchedID, nil
		}
		return 0, errors.Errorf(
			"client %d's latest scan is complete but its identifier is unknown",
			job.clientID,
		)
	}
	return 0, &meta.ErrTimeoutExhausted{
		Attempts: c.maxAttempts,
		Elapsed:  c.clock.Since(started),
	}
}

// sleep waits for d to elapse on the Controller's clock, or for ctx to be
// canceled, whichever comes first. The timer never outlives the call.
func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	timer := c.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isFatal returns true for errors that indicate the session, rather than the
// Scan, is the problem.
func isFatal(err error) bool {
	switch errors.Cause(err).(type) {
	case *meta.ErrAuthentication, *meta.ErrAuthorization:
		return true
	}
	return false
}
