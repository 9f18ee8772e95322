package debounce

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UpdateFunc performs one write of the current state.
type UpdateFunc func(ctx context.Context) error

// Options configures a Scheduler.
type Options struct {
	// Interval is the quiet period before a scheduled write and the minimum
	// spacing between the starts of two writes.
	Interval time.Duration
	Clock    Clock
	Logger   *zap.Logger
	// OnWrite, when set, observes every completed write.
	OnWrite func(elapsed time.Duration, err error)
}

// Scheduler coalesces Schedule calls into spaced writes.
type Scheduler struct {
	update   UpdateFunc
	interval time.Duration
	clock    Clock
	logger   *zap.Logger
	onWrite  func(time.Duration, error)

	mu          sync.Mutex
	pending     bool
	silent      int
	timer       Timer
	lastStarted time.Time
	stopped     bool

	// writeMu serializes writes; it is never acquired while mu is held.
	writeMu sync.Mutex
}

// New creates a scheduler around update.
func New(update UpdateFunc, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Interval < 0 {
		opts.Interval = 0
	}

	return &Scheduler{
		update:   update,
		interval: opts.Interval,
		clock:    opts.Clock,
		logger:   opts.Logger,
		onWrite:  opts.OnWrite,
	}
}

// Interval returns the configured spacing.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Schedule marks a write as pending. Calls made inside RunSilently are dropped.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.silent > 0 {
		return
	}
	s.pending = true
	if s.timer == nil {
		s.arm(s.interval)
	}
}

// Pending reports whether a write is waiting to run.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// FlushNow runs the pending write, if any, and waits for it. A write already
// in flight is waited for first.
func (s *Scheduler) FlushNow(ctx context.Context) error {
	s.mu.Lock()
	s.disarm()
	s.mu.Unlock()

	return s.write(ctx)
}

// RunSilently runs fn with scheduling suppressed. Nested calls are allowed.
func (s *Scheduler) RunSilently(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.silent++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.silent--
		s.mu.Unlock()
	}()

	return fn(ctx)
}

// Stop cancels the armed timer and drops further Schedule calls. A pending
// write can still be flushed with FlushNow.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.disarm()
}

// arm must be called with s.mu held.
func (s *Scheduler) arm(d time.Duration) {
	s.timer = s.clock.AfterFunc(d, s.fire)
}

// disarm must be called with s.mu held.
func (s *Scheduler) disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	if !s.pending || s.stopped {
		s.mu.Unlock()
		return
	}
	if !s.lastStarted.IsZero() {
		if wait := s.lastStarted.Add(s.interval).Sub(s.clock.Now()); wait > 0 {
			s.arm(wait)
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()

	if err := s.write(context.Background()); err != nil {
		s.logger.Warn("Scheduled write failed", zap.Error(err))
	}
}

func (s *Scheduler) write(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return nil
	}
	s.pending = false
	started := s.clock.Now()
	s.lastStarted = started
	s.mu.Unlock()

	err := s.update(ctx)
	elapsed := s.clock.Now().Sub(started)
	if s.onWrite != nil {
		s.onWrite(elapsed, err)
	}
	if err == nil {
		s.logger.Debug("State written", zap.Duration("elapsed", elapsed))
	}
	return err
}
