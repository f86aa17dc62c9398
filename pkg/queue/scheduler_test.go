package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// Mock repository for scheduler tests
type mockSchedulerRepo struct {
	mu       sync.Mutex
	jobs     []*queue.Job
	lastRuns map[string]time.Time
	created  chan *queue.Job
	initDone chan string
}

func newMockSchedulerRepo() *mockSchedulerRepo {
	return &mockSchedulerRepo{
		lastRuns: make(map[string]time.Time),
		created:  make(chan *queue.Job, 16),
		initDone: make(chan string, 16),
	}
}

func (m *mockSchedulerRepo) CreateJob(ctx context.Context, job *queue.Job) error {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()
	m.created <- job
	return nil
}

func (m *mockSchedulerRepo) LastRun(ctx context.Context, name string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRuns[name], nil
}

func (m *mockSchedulerRepo) SetLastRun(ctx context.Context, name string, t time.Time) error {
	m.mu.Lock()
	_, initialized := m.lastRuns[name]
	m.lastRuns[name] = t
	m.mu.Unlock()
	if !initialized {
		m.initDone <- name
	}
	return nil
}

func (m *mockSchedulerRepo) seedLastRun(name string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRuns[name] = t
}

func (m *mockSchedulerRepo) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// denyingLock never grants the leader lock
type denyingLock struct{}

func (denyingLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, nil
}

func TestScheduler_NewScheduler(t *testing.T) {
	t.Parallel()

	t.Run("successful creation", func(t *testing.T) {
		t.Parallel()

		scheduler, err := queue.NewScheduler(newMockSchedulerRepo())
		require.NoError(t, err)
		require.NotNil(t, scheduler)
	})

	t.Run("nil repository error", func(t *testing.T) {
		t.Parallel()

		scheduler, err := queue.NewScheduler(nil)
		assert.ErrorIs(t, err, queue.ErrRepositoryNil)
		assert.Nil(t, scheduler)
	})
}

func TestScheduler_AddJob(t *testing.T) {
	t.Parallel()

	t.Run("register and list", func(t *testing.T) {
		t.Parallel()

		scheduler, err := queue.NewScheduler(newMockSchedulerRepo(),
			queue.WithSchedulerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, scheduler.AddJob("cleanup", queue.EveryMinutes(5)))
		require.NoError(t, scheduler.AddJob("report", queue.DailyAt(2, 0)))

		assert.ElementsMatch(t, []string{"cleanup", "report"}, scheduler.ListJobs())
	})

	t.Run("duplicate name error", func(t *testing.T) {
		t.Parallel()

		scheduler, err := queue.NewScheduler(newMockSchedulerRepo(),
			queue.WithSchedulerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, scheduler.AddJob("cleanup", queue.EveryMinutes(5)))
		assert.ErrorIs(t, scheduler.AddJob("cleanup", queue.EveryMinutes(10)), queue.ErrJobAlreadyRegistered)
	})

	t.Run("remove job", func(t *testing.T) {
		t.Parallel()

		scheduler, err := queue.NewScheduler(newMockSchedulerRepo(),
			queue.WithSchedulerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, scheduler.AddJob("cleanup", queue.EveryMinutes(5)))
		scheduler.RemoveJob("cleanup")
		assert.Empty(t, scheduler.ListJobs())
	})
}

func TestScheduler_Start(t *testing.T) {
	t.Parallel()

	t.Run("no definitions error", func(t *testing.T) {
		t.Parallel()

		scheduler, err := queue.NewScheduler(newMockSchedulerRepo(),
			queue.WithSchedulerLogger(discardLogger()))
		require.NoError(t, err)

		assert.ErrorIs(t, scheduler.Start(context.Background()), queue.ErrSchedulerNotConfigured)
	})

	t.Run("first evaluation initializes without firing", func(t *testing.T) {
		t.Parallel()

		repo := newMockSchedulerRepo()
		scheduler, err := queue.NewScheduler(repo,
			queue.WithCheckInterval(10*time.Millisecond),
			queue.WithSchedulerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, scheduler.AddJob("hourly_report", queue.EveryHours(1)))

		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = scheduler.Start(ctx) }()

		select {
		case name := <-repo.initDone:
			assert.Equal(t, "hourly_report", name)
		case <-time.After(2 * time.Second):
			t.Fatal("last-run mark was never initialized")
		}
		cancel()

		// Initialization must not enqueue anything
		assert.Equal(t, 0, repo.createdCount())
	})

	t.Run("due definition fires a job", func(t *testing.T) {
		t.Parallel()

		repo := newMockSchedulerRepo()
		repo.seedLastRun("heartbeat_check", time.Now().Add(-time.Hour))

		scheduler, err := queue.NewScheduler(repo,
			queue.WithCheckInterval(10*time.Millisecond),
			queue.WithSchedulerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, scheduler.AddJob("heartbeat_check", queue.EveryMinutes(5),
			queue.WithRecurringJobType("system.heartbeat"),
			queue.WithRecurringPriority(queue.PriorityLow),
			queue.WithRecurringMaxRetries(1),
		))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = scheduler.Start(ctx) }()

		select {
		case job := <-repo.created:
			assert.Equal(t, "system.heartbeat", job.Type)
			assert.Equal(t, queue.PriorityLow, job.Priority)
			assert.Equal(t, queue.StatusPending, job.Status)
			assert.Equal(t, 1, job.MaxRetries)
		case <-time.After(2 * time.Second):
			t.Fatal("due definition never fired")
		}
	})

	t.Run("not-due definition stays quiet", func(t *testing.T) {
		t.Parallel()

		repo := newMockSchedulerRepo()
		repo.seedLastRun("weekly_digest", time.Now())

		scheduler, err := queue.NewScheduler(repo,
			queue.WithCheckInterval(10*time.Millisecond),
			queue.WithSchedulerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, scheduler.AddJob("weekly_digest", queue.EveryHours(24*7)))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_ = scheduler.Start(ctx)

		assert.Equal(t, 0, repo.createdCount())
	})

	t.Run("leader lock denial suppresses firing", func(t *testing.T) {
		t.Parallel()

		repo := newMockSchedulerRepo()
		repo.seedLastRun("cleanup", time.Now().Add(-time.Hour))

		scheduler, err := queue.NewScheduler(repo,
			queue.WithCheckInterval(10*time.Millisecond),
			queue.WithLeaderLock(denyingLock{}),
			queue.WithSchedulerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, scheduler.AddJob("cleanup", queue.EveryMinutes(1)))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_ = scheduler.Start(ctx)

		assert.Equal(t, 0, repo.createdCount())
	})
}
