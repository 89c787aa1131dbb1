package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/sixerhq/chain-contests/internal/platform/logging"
)

// Job is one periodic reconciliation task. Jobs sharing a LockName are
// mutually exclusive; a tick arriving while the lock is held is skipped,
// never queued.
type Job struct {
	Name     string
	LockName string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs   []Job
	logger *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Scheduler) Register(job Job) {
	if strings.TrimSpace(job.Name) == "" || job.Run == nil || job.Interval <= 0 {
		return
	}
	if strings.TrimSpace(job.LockName) == "" {
		job.LockName = job.Name
	}
	s.jobs = append(s.jobs, job)
}

// Start runs every registered job on its own cadence until the context is
// cancelled. Each job fires once immediately, then on its interval.
func (s *Scheduler) Start(ctx context.Context) {
	var wg conc.WaitGroup
	for _, job := range s.jobs {
		job := job
		wg.Go(func() {
			s.runLoop(ctx, job)
		})
	}
	wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	lock := s.lockFor(job.LockName)
	if !lock.TryLock() {
		s.logger.WarnContext(ctx, "job still running, skipping tick",
			"job", job.Name, "lock", job.LockName)
		return
	}
	defer lock.Unlock()

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.ErrorContext(ctx, "job failed",
			"job", job.Name, "duration_ms", time.Since(started).Milliseconds(), "error", err)
		return
	}

	s.logger.DebugContext(ctx, "job finished",
		"job", job.Name, "duration_ms", time.Since(started).Milliseconds())
}

func (s *Scheduler) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}
