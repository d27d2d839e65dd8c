package looper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Scheduler repeats suite runs at a fixed interval.
type Scheduler struct {
	interval time.Duration
	logger   log.Logger
	callback func(ctx context.Context) error

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler running its callback every interval.
func NewScheduler(interval time.Duration, logger log.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// RegisterCallback registers the run to repeat.
func (s *Scheduler) RegisterCallback(callback func(ctx context.Context) error) {
	s.callback = callback
}

// Start runs the callback once, then again after every interval until
// stopped or ctx is done. Only the first run's error is returned; later
// errors are logged.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.callback == nil {
		return errors.New("callback must be registered before starting scheduler")
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	s.done = make(chan struct{})
	s.running.Store(true)

	s.logger.Info("Starting scheduler", "interval", s.interval)
	if err := s.callback(ctx); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.interval)
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				if !s.running.Load() {
					s.logger.Debug("Scheduler stopped, exiting periodic runner")
					return
				}

				s.logger.Info("Running scheduled suite")
				if err := s.callback(ctx); err != nil {
					s.logger.Error("Error running scheduled suite", "error", err)
				}
				timer.Reset(s.interval)

			case <-s.done:
				s.logger.Debug("Done signal received, stopping periodic runner")
				return

			case <-ctx.Done():
				s.logger.Debug("Context canceled, stopping periodic runner")
				s.running.Store(false)
				return
			}
		}
	}()

	return nil
}

// Stop signals the periodic runner to exit. A run in progress completes.
func (s *Scheduler) Stop() error {
	if !s.running.Swap(false) {
		s.logger.Debug("Scheduler already stopped, nothing to do")
		return nil
	}
	close(s.done)
	return nil
}

// Stopped returns true if the scheduler is stopped.
func (s *Scheduler) Stopped() bool {
	return !s.running.Load()
}

// WaitForShutdown blocks until the periodic runner has exited or ctx is done.
func (s *Scheduler) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Debug("Scheduler goroutines terminated")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for scheduler to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}
