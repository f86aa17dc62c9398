package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// MockWorkerRepository is a mock implementation of WorkerRepository
type MockWorkerRepository struct {
	mock.Mock
}

func (m *MockWorkerRepository) PromoteDue(ctx context.Context, now time.Time, limit int) (int, error) {
	args := m.Called(ctx, now, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockWorkerRepository) RequeueExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	args := m.Called(ctx, now, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockWorkerRepository) Dequeue(ctx context.Context, workerID uuid.UUID, visibility time.Duration) (*queue.Job, error) {
	args := m.Called(ctx, workerID, visibility)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Job), args.Error(1)
}

func (m *MockWorkerRepository) CompleteJob(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWorkerRepository) RetryJob(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error {
	args := m.Called(ctx, id, runAt, errMsg)
	return args.Error(0)
}

func (m *MockWorkerRepository) MoveToDLQ(ctx context.Context, id uuid.UUID, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *MockWorkerRepository) Heartbeat(ctx context.Context, hb queue.WorkerHeartbeat, ttl time.Duration) error {
	args := m.Called(ctx, hb, ttl)
	return args.Error(0)
}

// Test payload types
type testPayload struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// expectIdleLoop wires the per-iteration calls every loop pass makes
func expectIdleLoop(m *MockWorkerRepository) {
	m.On("PromoteDue", mock.Anything, mock.Anything, mock.Anything).Return(0, nil).Maybe()
	m.On("RequeueExpired", mock.Anything, mock.Anything, mock.Anything).Return(0, nil).Maybe()
	m.On("Heartbeat", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func newTestJob(jobType string, attempts, maxRetries int) *queue.Job {
	return &queue.Job{
		ID:          uuid.New(),
		Type:        jobType,
		Payload:     []byte(`{"message":"hello","value":1}`),
		Priority:    queue.PriorityNormal,
		Status:      queue.StatusProcessing,
		Attempts:    attempts,
		MaxRetries:  maxRetries,
		RetryDelays: []time.Duration{time.Second, 5 * time.Second, 15 * time.Second},
	}
}

func TestWorker_NewWorker(t *testing.T) {
	t.Parallel()

	t.Run("successful creation", func(t *testing.T) {
		t.Parallel()

		mockRepo := new(MockWorkerRepository)
		worker, err := queue.NewWorker(mockRepo)
		require.NoError(t, err)
		require.NotNil(t, worker)
	})

	t.Run("nil repository error", func(t *testing.T) {
		t.Parallel()

		worker, err := queue.NewWorker(nil)
		assert.ErrorIs(t, err, queue.ErrRepositoryNil)
		assert.Nil(t, worker)
	})

	t.Run("with options", func(t *testing.T) {
		t.Parallel()

		mockRepo := new(MockWorkerRepository)
		worker, err := queue.NewWorker(mockRepo,
			queue.WithPollInterval(100*time.Millisecond),
			queue.WithVisibilityTimeout(time.Minute),
			queue.WithPromoteBatchSize(5),
			queue.WithHeartbeatTTL(30*time.Second),
			queue.WithErrorBackoff(time.Second),
			queue.WithWorkerLogger(discardLogger()),
		)
		require.NoError(t, err)
		require.NotNil(t, worker)
	})
}

func TestWorker_Start(t *testing.T) {
	t.Parallel()

	t.Run("no handlers error", func(t *testing.T) {
		t.Parallel()

		mockRepo := new(MockWorkerRepository)
		worker, err := queue.NewWorker(mockRepo)
		require.NoError(t, err)

		err = worker.Start(context.Background())
		assert.ErrorIs(t, err, queue.ErrNoHandlers)
	})

	t.Run("stop before start error", func(t *testing.T) {
		t.Parallel()

		mockRepo := new(MockWorkerRepository)
		worker, err := queue.NewWorker(mockRepo)
		require.NoError(t, err)

		assert.Error(t, worker.Stop())
	})

	t.Run("double start error", func(t *testing.T) {
		t.Parallel()

		mockRepo := new(MockWorkerRepository)
		expectIdleLoop(mockRepo)
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, queue.ErrNoJobAvailable).Maybe()

		worker, err := queue.NewWorker(mockRepo,
			queue.WithPollInterval(10*time.Millisecond),
			queue.WithWorkerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, worker.RegisterHandler(queue.NewJobHandler(func(ctx context.Context, p testPayload) error {
			return nil
		})))

		require.NoError(t, worker.Start(context.Background()))
		assert.Error(t, worker.Start(context.Background()))
		require.NoError(t, worker.Stop())
	})
}

func TestWorker_ProcessJob(t *testing.T) {
	t.Parallel()

	t.Run("successful job completes", func(t *testing.T) {
		t.Parallel()

		job := newTestJob("queue_test.testPayload", 1, 3)
		done := make(chan struct{})

		mockRepo := new(MockWorkerRepository)
		expectIdleLoop(mockRepo)
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(job, nil).Once()
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, queue.ErrNoJobAvailable).Maybe()
		mockRepo.On("CompleteJob", mock.Anything, job.ID).
			Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

		worker, err := queue.NewWorker(mockRepo,
			queue.WithPollInterval(10*time.Millisecond),
			queue.WithWorkerLogger(discardLogger()))
		require.NoError(t, err)

		handled := make(chan testPayload, 1)
		require.NoError(t, worker.RegisterHandler(queue.NewJobHandler(func(ctx context.Context, p testPayload) error {
			handled <- p
			return nil
		})))

		require.NoError(t, worker.Start(context.Background()))
		defer worker.Stop()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not completed in time")
		}

		p := <-handled
		assert.Equal(t, "hello", p.Message)
		assert.Equal(t, 1, p.Value)
		mockRepo.AssertExpectations(t)
	})

	t.Run("failed job within budget is rescheduled", func(t *testing.T) {
		t.Parallel()

		job := newTestJob("queue_test.testPayload", 1, 3)
		done := make(chan struct{})

		mockRepo := new(MockWorkerRepository)
		expectIdleLoop(mockRepo)
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(job, nil).Once()
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, queue.ErrNoJobAvailable).Maybe()

		var gotRunAt time.Time
		before := time.Now()
		mockRepo.On("RetryJob", mock.Anything, job.ID, mock.Anything, "handler exploded").
			Run(func(args mock.Arguments) {
				gotRunAt = args.Get(2).(time.Time)
				close(done)
			}).Return(nil).Once()

		worker, err := queue.NewWorker(mockRepo,
			queue.WithPollInterval(10*time.Millisecond),
			queue.WithWorkerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, worker.RegisterHandler(queue.NewJobHandler(func(ctx context.Context, p testPayload) error {
			return errors.New("handler exploded")
		})))

		require.NoError(t, worker.Start(context.Background()))
		defer worker.Stop()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not rescheduled in time")
		}

		// First failure uses the first delay in the sequence
		assert.True(t, gotRunAt.After(before))
		assert.WithinDuration(t, before.Add(time.Second), gotRunAt, 500*time.Millisecond)
		mockRepo.AssertExpectations(t)
	})

	t.Run("exhausted budget moves to DLQ", func(t *testing.T) {
		t.Parallel()

		job := newTestJob("queue_test.testPayload", 3, 3)
		done := make(chan struct{})

		mockRepo := new(MockWorkerRepository)
		expectIdleLoop(mockRepo)
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(job, nil).Once()
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, queue.ErrNoJobAvailable).Maybe()
		mockRepo.On("MoveToDLQ", mock.Anything, job.ID, "handler exploded").
			Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

		worker, err := queue.NewWorker(mockRepo,
			queue.WithPollInterval(10*time.Millisecond),
			queue.WithWorkerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, worker.RegisterHandler(queue.NewJobHandler(func(ctx context.Context, p testPayload) error {
			return errors.New("handler exploded")
		})))

		require.NoError(t, worker.Start(context.Background()))
		defer worker.Stop()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not dead-lettered in time")
		}
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing handler dead-letters immediately", func(t *testing.T) {
		t.Parallel()

		job := newTestJob("unknown.type", 1, 3)
		done := make(chan struct{})

		mockRepo := new(MockWorkerRepository)
		expectIdleLoop(mockRepo)
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(job, nil).Once()
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, queue.ErrNoJobAvailable).Maybe()
		mockRepo.On("MoveToDLQ", mock.Anything, job.ID, mock.MatchedBy(func(msg string) bool {
			return msg == "no handler registered for job type: unknown.type"
		})).Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

		worker, err := queue.NewWorker(mockRepo,
			queue.WithPollInterval(10*time.Millisecond),
			queue.WithWorkerLogger(discardLogger()))
		require.NoError(t, err)

		// Register a handler for a different type so Start succeeds
		require.NoError(t, worker.RegisterHandler(queue.NewJobHandler(func(ctx context.Context, p testPayload) error {
			return nil
		})))

		require.NoError(t, worker.Start(context.Background()))
		defer worker.Stop()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not dead-lettered in time")
		}
		mockRepo.AssertExpectations(t)
	})

	t.Run("panicking handler counts as failure", func(t *testing.T) {
		t.Parallel()

		job := newTestJob("queue_test.testPayload", 3, 3)
		done := make(chan struct{})

		mockRepo := new(MockWorkerRepository)
		expectIdleLoop(mockRepo)
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(job, nil).Once()
		mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, queue.ErrNoJobAvailable).Maybe()
		mockRepo.On("MoveToDLQ", mock.Anything, job.ID, mock.MatchedBy(func(msg string) bool {
			return msg == "panic in handler: boom"
		})).Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

		worker, err := queue.NewWorker(mockRepo,
			queue.WithPollInterval(10*time.Millisecond),
			queue.WithWorkerLogger(discardLogger()))
		require.NoError(t, err)

		require.NoError(t, worker.RegisterHandler(queue.NewJobHandler(func(ctx context.Context, p testPayload) error {
			panic("boom")
		})))

		require.NoError(t, worker.Start(context.Background()))
		defer worker.Stop()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not survive the panic")
		}
		mockRepo.AssertExpectations(t)
	})
}

func TestWorker_GracefulShutdown(t *testing.T) {
	t.Parallel()

	job := newTestJob("queue_test.testPayload", 1, 3)
	started := make(chan struct{})
	completed := make(chan struct{})

	mockRepo := new(MockWorkerRepository)
	expectIdleLoop(mockRepo)
	mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
		Return(job, nil).Once()
	mockRepo.On("Dequeue", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, queue.ErrNoJobAvailable).Maybe()
	mockRepo.On("CompleteJob", mock.Anything, job.ID).
		Run(func(mock.Arguments) { close(completed) }).Return(nil).Once()

	worker, err := queue.NewWorker(mockRepo,
		queue.WithPollInterval(10*time.Millisecond),
		queue.WithWorkerLogger(discardLogger()))
	require.NoError(t, err)

	require.NoError(t, worker.RegisterHandler(queue.NewJobHandler(func(ctx context.Context, p testPayload) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		return nil
	})))

	require.NoError(t, worker.Start(context.Background()))

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started")
	}

	// Stop must wait for the in-flight job to finish
	require.NoError(t, worker.Stop())

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("in-flight job was not completed before Stop returned")
	}
	mockRepo.AssertExpectations(t)
}

func TestWorker_RegisterHandlers(t *testing.T) {
	t.Parallel()

	mockRepo := new(MockWorkerRepository)
	worker, err := queue.NewWorker(mockRepo)
	require.NoError(t, err)

	err = worker.RegisterHandlers(
		queue.NewNamedJobHandler("a", func(ctx context.Context, payload json.RawMessage) error { return nil }),
		queue.NewNamedJobHandler("b", func(ctx context.Context, payload json.RawMessage) error { return nil }),
	)
	assert.NoError(t, err)
}
