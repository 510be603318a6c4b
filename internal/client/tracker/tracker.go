package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"thriftstore/internal/client/location"
	"thriftstore/internal/logger"
)

// DefaultInterval is also the shortest interval New accepts.
const DefaultInterval = 10 * time.Second

type Status int

const (
	Started Status = iota
	StartedForegroundOnly
	AlreadyRunning
	PermissionDenied
	Failed
)

func (s Status) String() string {
	switch s {
	case Started:
		return "started"
	case StartedForegroundOnly:
		return "started (foreground only)"
	case AlreadyRunning:
		return "already running"
	case PermissionDenied:
		return "permission denied"
	}
	return "failed"
}

// OK reports whether tracking is active after the Start call.
func (s Status) OK() bool {
	return s == Started || s == StartedForegroundOnly || s == AlreadyRunning
}

type Options struct {
	// Interval between samples. Values below DefaultInterval are raised to it.
	Interval time.Duration
	// PollInterval enables a second timer that samples independently of the
	// main tick. Zero disables it.
	PollInterval time.Duration
}

// Tracker samples the device position on a fixed interval until stopped.
// There is no distance filter; every tick produces a sample.
type Tracker struct {
	platform location.Platform
	sink     Sink
	opts     Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(platform location.Platform, sink Sink, opts Options) *Tracker {
	return newTracker(platform, sink, opts, DefaultInterval)
}

func newTracker(platform location.Platform, sink Sink, opts Options, minInterval time.Duration) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Interval < minInterval {
		logger.Log.WithFields(logrus.Fields{
			"requested": opts.Interval,
			"minimum":   minInterval,
		}).Warn("tracking interval below minimum, using minimum")
		opts.Interval = minInterval
	}
	if sink == nil {
		sink = NewLogSink()
	}
	return &Tracker{platform: platform, sink: sink, opts: opts}
}

// Start registers the periodic task. Foreground permission is required;
// without background permission tracking continues foreground only.
func (t *Tracker) Start(ctx context.Context) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		logger.Log.Info("location tracking already running")
		return AlreadyRunning
	}

	granted, err := t.platform.RequestForegroundPermission(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("failed to request location permission")
		return Failed
	}
	if !granted {
		logger.Log.Warn("permission to access location was denied")
		return PermissionDenied
	}

	status := Started
	background, err := t.platform.RequestBackgroundPermission(ctx)
	if err != nil || !background {
		logger.Log.WithError(err).Warn("background location denied, tracking in foreground only")
		status = StartedForegroundOnly
	}

	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(runCtx, t.done)

	logger.Log.WithFields(logrus.Fields{
		"interval": t.opts.Interval,
		"poll":     t.opts.PollInterval,
	}).Info("location tracking started")
	return status
}

// Stop unregisters the task and the poll timer. Stopping a tracker that
// was never started is a no-op.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logger.Log.Info("location tracking stopped")
}

func (t *Tracker) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Tracker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	var poll <-chan time.Time
	if t.opts.PollInterval > 0 {
		pt := time.NewTicker(t.opts.PollInterval)
		defer pt.Stop()
		poll = pt.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx, "task")
		case <-poll:
			t.tick(ctx, "timer")
		}
	}
}

// tick never returns an error; a failed sample is logged and the task
// keeps running.
func (t *Tracker) tick(ctx context.Context, source string) {
	pos, err := t.platform.CurrentPosition(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.WithError(err).WithField("source", source).Warn("location sample failed")
		}
		return
	}

	ts := pos.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	sample := Sample{
		Timestamp: ts,
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Accuracy:  pos.Accuracy,
		Source:    source,
	}
	if err := t.sink.Record(ctx, sample); err != nil && ctx.Err() == nil {
		logger.Log.WithError(err).WithField("source", source).Warn("failed to record location sample")
	}
}
