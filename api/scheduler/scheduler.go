package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cybercell/complaint-portal-api/models"
)

const (
	digestJob = "case_digest_job"
	// StaleAfter is how long a case may stay Registered before the digest flags it
	StaleAfter = 7 * 24 * time.Hour
)

// CaseCounter is the query the digest needs
type CaseCounter interface {
	CountByStatus(ctx context.Context, status models.CaseStatus, createdBefore time.Time) (int64, error)
}

// Locker keeps a job from running on more than one instance at a time
type Locker interface {
	TryLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name, owner string) error
}

// Digest is a snapshot of the case backlog
type Digest struct {
	Counts          map[models.CaseStatus]int64
	StaleRegistered int64
	GeneratedAt     time.Time
}

// Scheduler runs the periodic case digest
type Scheduler struct {
	cron       *cron.Cron
	cases      CaseCounter
	locker     Locker
	schedule   string
	instanceID string
	now        func() time.Time
}

// NewScheduler creates a scheduler running the digest on the cron schedule. locker may be nil.
func NewScheduler(cases CaseCounter, locker Locker, schedule string) *Scheduler {
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		cases:      cases,
		locker:     locker,
		schedule:   schedule,
		instanceID: instanceID,
		now:        time.Now,
	}
}

// Start registers the digest job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDigestJob); err != nil {
		return fmt.Errorf("register digest job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	zap.S().Infow("case digest scheduler started", "schedule", s.schedule)
	return nil
}

// Stop waits for a running job and stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("case digest scheduler stopped")
}

func (s *Scheduler) runDigestJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if s.locker != nil {
		acquired, err := s.locker.TryLock(ctx, digestJob, s.instanceID, 10*time.Minute)
		if err != nil {
			zap.S().Errorw("failed to acquire lock for digest job", "error", err)
			return
		}
		if !acquired {
			zap.S().Debug("Digest job already running on another instance, skipping")
			return
		}
		defer func() {
			if err := s.locker.Unlock(ctx, digestJob, s.instanceID); err != nil {
				zap.S().Warnw("failed to release digest lock", "error", err)
			}
		}()
	}

	d, err := s.RunDigest(ctx)
	if err != nil {
		zap.S().Errorw("case digest failed", "error", err)
		return
	}
	fields := []interface{}{"staleRegistered", d.StaleRegistered, "instance", s.instanceID}
	for _, status := range models.CaseStatuses() {
		fields = append(fields, string(status), d.Counts[status])
	}
	zap.S().Infow("case digest", fields...)
}

// RunDigest counts cases per status and the Registered cases older than StaleAfter
func (s *Scheduler) RunDigest(ctx context.Context) (*Digest, error) {
	now := s.now().UTC()
	d := &Digest{Counts: map[models.CaseStatus]int64{}, GeneratedAt: now}
	for _, status := range models.CaseStatuses() {
		n, err := s.cases.CountByStatus(ctx, status, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("count %s cases: %w", status, err)
		}
		d.Counts[status] = n
	}
	stale, err := s.cases.CountByStatus(ctx, models.CaseStatusRegistered, now.Add(-StaleAfter))
	if err != nil {
		return nil, fmt.Errorf("count stale cases: %w", err)
	}
	d.StaleRegistered = stale
	return d, nil
}

// RedisLocker implements Locker with SET NX keys that expire on their own
type RedisLocker struct {
	client redis.Cmdable
}

// NewRedisLocker returns a Locker backed by client
func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryLock takes name for owner unless someone else holds it
func (l *RedisLocker) TryLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockKey(name), owner, ttl).Result()
}

// Unlock releases name if owner still holds it
func (l *RedisLocker) Unlock(ctx context.Context, name, owner string) error {
	held, err := l.client.Get(ctx, lockKey(name)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if held != owner {
		return nil
	}
	return l.client.Del(ctx, lockKey(name)).Err()
}

func lockKey(name string) string {
	return "lock:" + name
}
