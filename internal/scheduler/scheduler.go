package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/cache"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job is one periodic sweep.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int64, error)
}

// Scheduler runs each job on its own ticker. When a Locker is set, a run
// only happens on the replica holding the job's lease.
type Scheduler struct {
	jobs    []Job
	locker  domain.Locker
	lockTTL time.Duration
}

func New(locker domain.Locker, lockTTL time.Duration, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, locker: locker, lockTTL: lockTTL}
}

// SweeperJobs maps the sweeper operations to jobs using the configured intervals.
// Jobs with a non-positive interval are left out.
func SweeperJobs(sweeper service.SweeperService, cfg config.SweeperConfig) []Job {
	count := func(fn func(context.Context) (int, error)) func(context.Context) (int64, error) {
		return func(ctx context.Context) (int64, error) {
			n, err := fn(ctx)
			return int64(n), err
		}
	}
	all := []Job{
		{Name: "expire_course_access", Interval: cfg.CourseExpiryInterval, Run: count(sweeper.ExpireCourseAccess)},
		{Name: "release_reservations", Interval: cfg.ReservationInterval, Run: count(sweeper.ReleaseExpiredReservations)},
		{Name: "expire_groups", Interval: cfg.GroupExpiryInterval, Run: count(sweeper.ExpireGroups)},
		{Name: "purge_canceled_transactions", Interval: cfg.PurgeInterval, Run: sweeper.PurgeCanceledTransactions},
	}
	jobs := make([]Job, 0, len(all))
	for _, j := range all {
		if j.Interval > 0 {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// Start blocks until ctx is cancelled or a job loop fails.
func (s *Scheduler) Start(ctx context.Context) error {
	logger.Get().Info("Starting scheduler", zap.Int("jobs", len(s.jobs)))
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		job := job
		g.Go(func() error {
			s.runLoop(ctx, job)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Get().Info("Scheduler loop stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			s.RunOnce(ctx, job)
		}
	}
}

// RunOnce runs job a single time if this replica obtains its lease.
// It reports whether the job ran.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) bool {
	log := logger.Get().With(zap.String("job", job.Name))

	if s.locker != nil {
		key := cache.JobLockKey(job.Name)
		token, err := s.locker.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			log.Warn("Failed to acquire job lease", zap.Error(err))
			return false
		}
		if token == "" {
			log.Debug("Job lease held elsewhere, skipping run")
			return false
		}
		defer func() {
			// Release with a fresh context so a cancelled run still frees the lease.
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.locker.Unlock(unlockCtx, key, token); err != nil {
				log.Warn("Failed to release job lease", zap.Error(err))
			}
		}()
	}

	started := time.Now()
	n, err := s.safeRun(ctx, job)
	if err != nil {
		log.Error("Job run failed", zap.Error(err), zap.Int64("affected", n))
		return true
	}
	log.Info("Job run finished", zap.Int64("affected", n), zap.Duration("took", time.Since(started)))
	return true
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (n int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}
