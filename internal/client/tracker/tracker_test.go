package tracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thriftstore/internal/client/location"
)

type chanSink struct {
	samples chan Sample
}

func (c *chanSink) Record(_ context.Context, s Sample) error {
	select {
	case c.samples <- s:
	default:
	}
	return nil
}

// flakyPlatform fails every other position request.
type flakyPlatform struct {
	location.StaticPlatform
	calls int32
}

func (f *flakyPlatform) CurrentPosition(ctx context.Context) (*location.Position, error) {
	if atomic.AddInt32(&f.calls, 1)%2 == 1 {
		return nil, errors.New("gps timeout")
	}
	return f.StaticPlatform.CurrentPosition(ctx)
}

func TestTracker_StopWithoutStart(t *testing.T) {
	tr := New(location.NewStaticPlatform(1, 2), nil, Options{})

	assert.NotPanics(t, tr.Stop)
	assert.False(t, tr.IsEnabled())
}

func TestNew_IntervalFloor(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		want     time.Duration
	}{
		{name: "unset", interval: 0, want: DefaultInterval},
		{name: "below minimum", interval: time.Second, want: DefaultInterval},
		{name: "above minimum", interval: time.Minute, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(location.NewStaticPlatform(1, 2), nil, Options{Interval: tt.interval})
			assert.Equal(t, tt.want, tr.opts.Interval)
		})
	}
}

func TestTracker_StartTwice(t *testing.T) {
	tr := New(location.NewStaticPlatform(1, 2), &chanSink{samples: make(chan Sample, 1)}, Options{Interval: time.Hour})
	defer tr.Stop()

	assert.Equal(t, Started, tr.Start(context.Background()))
	assert.Equal(t, AlreadyRunning, tr.Start(context.Background()))
	assert.True(t, AlreadyRunning.OK())
	assert.True(t, tr.IsEnabled())

	tr.Stop()
	assert.False(t, tr.IsEnabled())
}

func TestTracker_Permissions(t *testing.T) {
	denied := &location.StaticPlatform{DenyForeground: true}
	tr := New(denied, nil, Options{})
	status := tr.Start(context.Background())
	assert.Equal(t, PermissionDenied, status)
	assert.False(t, status.OK())
	assert.False(t, tr.IsEnabled())

	fgOnly := &location.StaticPlatform{DenyBackground: true}
	tr = New(fgOnly, nil, Options{Interval: time.Hour})
	defer tr.Stop()
	assert.Equal(t, StartedForegroundOnly, tr.Start(context.Background()))
	assert.True(t, tr.IsEnabled())
}

func TestTracker_EmitsSamples(t *testing.T) {
	sink := &chanSink{samples: make(chan Sample, 10)}
	tr := newTracker(location.NewStaticPlatform(31.5204, 74.3587), sink, Options{Interval: 5 * time.Millisecond}, 0)
	require.True(t, tr.Start(context.Background()).OK())
	defer tr.Stop()

	select {
	case s := <-sink.samples:
		assert.Equal(t, 31.5204, s.Latitude)
		assert.Equal(t, 74.3587, s.Longitude)
		assert.Equal(t, "task", s.Source)
		assert.False(t, s.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no sample emitted")
	}
}

func TestTracker_TickFailureKeepsRunning(t *testing.T) {
	sink := &chanSink{samples: make(chan Sample, 10)}
	platform := &flakyPlatform{StaticPlatform: *location.NewStaticPlatform(1, 2)}
	tr := newTracker(platform, sink, Options{Interval: 5 * time.Millisecond}, 0)
	require.True(t, tr.Start(context.Background()).OK())
	defer tr.Stop()

	select {
	case <-sink.samples:
	case <-time.After(time.Second):
		t.Fatal("tracker stopped after a failed tick")
	}
	assert.True(t, tr.IsEnabled())
	assert.GreaterOrEqual(t, atomic.LoadInt32(&platform.calls), int32(2))
}

func TestTracker_PollTimer(t *testing.T) {
	sink := &chanSink{samples: make(chan Sample, 10)}
	tr := New(location.NewStaticPlatform(1, 2), sink, Options{Interval: time.Hour, PollInterval: 5 * time.Millisecond})
	require.True(t, tr.Start(context.Background()).OK())
	defer tr.Stop()

	select {
	case s := <-sink.samples:
		assert.Equal(t, "timer", s.Source)
	case <-time.After(time.Second):
		t.Fatal("poll timer did not fire")
	}
}

func TestForwardingSink(t *testing.T) {
	var mu sync.Mutex
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewForwardingSink(srv.URL, srv.Client(), staticToken("tok"))
	err := sink.Record(context.Background(), Sample{Timestamp: time.Now(), Latitude: 1, Longitude: 2})

	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, "Bearer tok", auth)
	mu.Unlock()
}

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }
