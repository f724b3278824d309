// Package scheduler runs pipeline cycles periodically or on demand. Cycles and on-demand searches
// share one lock, so no two of them ever write to the store at the same time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/google/uuid"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 10 * time.Minute

var (
	ErrCycleInProgress  = errors.New("a scraping cycle is already running")
	ErrAlreadyScheduled = errors.New("scraper is already scheduled")
	ErrNotScheduled     = errors.New("scraper is not scheduled")
)

// State of the scheduler.
type State int

const (
	Idle State = iota
	Running
	Scheduled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Scheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// Runner executes pipeline work.
type Runner interface {
	RunCycle(ctx context.Context, batchSize int) models.CycleResult
	SearchAndStore(ctx context.Context, query string, maxResults int) models.CycleResult
}

// Locker guards against overlapping cycles. TryLock reports false when another holder owns the lock.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Cycle is the record of one finished run.
type Cycle struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Result     models.CycleResult
}

// Status is a snapshot of the scheduler.
type Status struct {
	State     State
	Interval  time.Duration
	BatchSize int
	LastCycle *Cycle
}

// Options configures a Scheduler.
type Options struct {
	Interval  time.Duration
	BatchSize int
	// OnCycle, if set, is called after every finished cycle.
	OnCycle func(ctx context.Context, cycle Cycle)
}

type Scheduler struct {
	log       *slog.Logger
	runner    Runner
	locker    Locker
	interval  time.Duration
	batchSize int
	onCycle   func(ctx context.Context, cycle Cycle)

	mu        sync.Mutex
	running   bool
	scheduled bool
	cancel    context.CancelFunc
	done      chan struct{}
	last      *Cycle
}

// New creates a new Scheduler. A nil locker falls back to an in-process lock.
func New(log *slog.Logger, runner Runner, locker Locker, opts Options) *Scheduler {
	if locker == nil {
		locker = &LocalLock{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Scheduler{
		log:       log,
		runner:    runner,
		locker:    locker,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		onCycle:   opts.OnCycle,
	}
}

// Start runs a cycle immediately and then once per interval until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	const opn = "scheduler.Start"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled {
		return fmt.Errorf("%s: %w", opn, ErrAlreadyScheduled)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.scheduled = true
	s.cancel = cancel
	s.done = done

	go s.loop(loopCtx, done)

	s.log.InfoContext(ctx, "Scraper scheduled", "op", opn, "interval", s.interval.String())
	return nil
}

// Stop cancels the schedule and waits for the loop, including an in-flight cycle, to return.
func (s *Scheduler) Stop() error {
	const opn = "scheduler.Stop"

	s.mu.Lock()
	if !s.scheduled {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", opn, ErrNotScheduled)
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.log.Info("Scraper stopped", "op", opn)
	return nil
}

// Status returns the current state and the last finished cycle.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := Idle
	switch {
	case s.running:
		state = Running
	case s.scheduled:
		state = Scheduled
	}

	var last *Cycle
	if s.last != nil {
		c := *s.last
		last = &c
	}

	return Status{State: state, Interval: s.interval, BatchSize: s.batchSize, LastCycle: last}
}

// RunOnce runs a single cycle now. It returns ErrCycleInProgress when another cycle holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) (Cycle, error) {
	return s.run(ctx)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	const opn = "scheduler.loop"
	log := s.log.With("op", opn)

	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.scheduled = false
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "Schedule loop exiting")
			return
		case <-ticker.C:
			s.tick(ctx, log)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, log *slog.Logger) {
	if _, err := s.run(ctx); err != nil {
		if errors.Is(err, ErrCycleInProgress) {
			log.InfoContext(ctx, "Previous cycle still running, skipping tick")
			return
		}
		log.ErrorContext(ctx, "Scheduled cycle failed to start", "error", err)
	}
}

// Track scrapes the marketplace search results for query and stores them. It holds the cycle
// lock while doing so and returns ErrCycleInProgress when a cycle or another search owns it.
func (s *Scheduler) Track(ctx context.Context, query string, maxResults int) (models.CycleResult, error) {
	const opn = "scheduler.Track"

	var result models.CycleResult
	err := s.exclusive(ctx, opn, func(log *slog.Logger) {
		log.InfoContext(ctx, "Search started", "query", query)
		result = s.runner.SearchAndStore(ctx, query, maxResults)
		log.InfoContext(ctx, "Search finished", "query", query, "success", result.Success, "count", result.Count)
	})
	if err != nil {
		return models.CycleResult{}, err
	}

	return result, nil
}

func (s *Scheduler) run(ctx context.Context) (Cycle, error) {
	const opn = "scheduler.run"

	var cycle Cycle
	err := s.exclusive(ctx, opn, func(log *slog.Logger) {
		cycle = Cycle{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
		log = log.With("cycle_id", cycle.ID)
		log.InfoContext(ctx, "Cycle started")

		cycle.Result = s.runner.RunCycle(ctx, s.batchSize)
		cycle.FinishedAt = time.Now().UTC()

		log.InfoContext(
			ctx,
			"Cycle finished",
			"success", cycle.Result.Success,
			"count", cycle.Result.Count,
			"duration", cycle.FinishedAt.Sub(cycle.StartedAt).String(),
		)

		s.mu.Lock()
		last := cycle
		s.last = &last
		s.mu.Unlock()

		if s.onCycle != nil {
			s.onCycle(ctx, cycle)
		}
	})
	if err != nil {
		return Cycle{}, err
	}

	return cycle, nil
}

// exclusive runs fn while holding the cycle lock, with the scheduler reported as running.
func (s *Scheduler) exclusive(ctx context.Context, opn string, fn func(log *slog.Logger)) error {
	log := s.log.With("op", opn)

	acquired, err := s.locker.TryLock(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to acquire cycle lock: %w", opn, err)
	}
	if !acquired {
		return ErrCycleInProgress
	}
	defer func() {
		if unlockErr := s.locker.Unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			log.WarnContext(ctx, "Failed to release cycle lock", "error", unlockErr)
		}
	}()

	s.setRunning(true)
	defer s.setRunning(false)

	fn(log)
	return nil
}

func (s *Scheduler) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// LocalLock is a Locker for a single process.
type LocalLock struct {
	mu sync.Mutex
}

func (l *LocalLock) TryLock(_ context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

func (l *LocalLock) Unlock(_ context.Context) error {
	l.mu.Unlock()
	return nil
}
