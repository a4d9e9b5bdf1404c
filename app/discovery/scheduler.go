package discovery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrScanInProgress = errors.New("scan already in progress")

// startupDelay gives the HTTP server a moment to come up before the first
// scheduled scan fires.
const startupDelay = 5 * time.Second

type SchedulerState string

const (
	StateIdle     SchedulerState = "idle"
	StateScanning SchedulerState = "scanning"
)

type SchedulerStatus struct {
	State      SchedulerState
	LastResult *ScanResult
	LastError  string
	NextRunAt  time.Time
}

// Scheduler invokes the discovery pipeline once shortly after startup and
// then on a fixed interval. Manual triggers share the same single-flight
// guard: a trigger while a scan is running is rejected, never queued. The
// schedule is process-local; a restart resets it.
type Scheduler struct {
	runner   ScanRunner
	interval time.Duration

	scanning atomic.Bool

	mu         sync.Mutex
	lastResult *ScanResult
	lastError  string
	nextRunAt  time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(runner ScanRunner, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:   runner,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	s.setNextRunAt(time.Now().Add(startupDelay))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		startup := time.NewTimer(startupDelay)
		defer startup.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-startup.C:
			s.runScheduled()
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runScheduled()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// TriggerScan runs a scan synchronously. It returns ErrScanInProgress when
// another scan (scheduled or manual) is already running.
func (s *Scheduler) TriggerScan() (*ScanResult, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	result, err := s.runner.RunScan(s.ctx)

	s.mu.Lock()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastResult = result
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := StateIdle
	if s.scanning.Load() {
		state = StateScanning
	}

	return SchedulerStatus{
		State:      state,
		LastResult: s.lastResult,
		LastError:  s.lastError,
		NextRunAt:  s.nextRunAt,
	}
}

func (s *Scheduler) runScheduled() {
	s.setNextRunAt(time.Now().Add(s.interval))

	_, err := s.TriggerScan()
	if errors.Is(err, ErrScanInProgress) {
		slog.Warn("Scheduled scan skipped, another scan is running")
		return
	}
	if err != nil {
		// A failed scan waits for the next tick or a manual trigger; there
		// is no in-cycle retry
		slog.Error("Scheduled scan failed", "error", err)
	}
}

func (s *Scheduler) setNextRunAt(at time.Time) {
	s.mu.Lock()
	s.nextRunAt = at
	s.mu.Unlock()
}
