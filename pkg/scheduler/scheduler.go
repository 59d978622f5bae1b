// Package scheduler runs the ingestion engine on a fixed interval in a
// single background goroutine. Cancellation is cooperative: Stop flips the
// stop channel and waits for the loop to drain.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ocean-watch/rfmo-ingestion/pkg/ingest"
)

// DefaultInterval is the default spacing between runs.
const DefaultInterval = 6 * time.Hour

// Status is a snapshot of the scheduler's state.
type Status struct {
	Running       bool       `json:"running"`
	Interval      string     `json:"interval"`
	Adapters      []string   `json:"adapters"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastRunError  *string    `json:"last_run_error,omitempty"`
	RunsCompleted int        `json:"runs_completed"`
}

// Scheduler drives periodic pipeline runs.
type Scheduler struct {
	engine   *ingest.Engine
	interval time.Duration
	log      hclog.Logger

	mu       sync.Mutex
	running  bool
	adapters []string
	stop     chan struct{}
	done     chan struct{}
	status   Status
}

// New creates a scheduler. A non-positive interval uses DefaultInterval.
func New(engine *ingest.Engine, interval time.Duration, log hclog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		log:      log.Named("scheduler"),
	}
}

// Start launches the run loop. The first run happens immediately, then
// every interval. Starting an already running scheduler is a no-op.
func (s *Scheduler) Start(adapterNames []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.adapters = adapterNames
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.status = Status{Running: true, Interval: s.interval.String(), Adapters: adapterNames}

	s.log.Info("starting scheduler", "interval", s.interval, "adapters", adapterNames)
	go s.loop(s.stop, s.done, adapterNames)
}

// Stop signals the loop and waits for the in-flight run to finish.
// Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.log.Info("stopping scheduler")
	close(stop)
	<-done

	s.mu.Lock()
	s.running = false
	s.status.Running = false
	s.mu.Unlock()
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) loop(stop, done chan struct{}, adapterNames []string) {
	defer close(done)

	for {
		s.runOnce(stop, adapterNames)

		select {
		case <-stop:
			return
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) runOnce(stop chan struct{}, adapterNames []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	_, err := s.engine.RunOnce(ctx, adapterNames)

	now := time.Now().UTC()
	s.mu.Lock()
	s.status.LastRunAt = &now
	s.status.RunsCompleted++
	if err != nil {
		msg := err.Error()
		s.status.LastRunError = &msg
		s.log.Error("scheduled run failed", "error", err)
	} else {
		s.status.LastRunError = nil
	}
	s.mu.Unlock()
}
