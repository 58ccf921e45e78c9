package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockPruneRepository struct {
	mock.Mock
}

func (m *MockPruneRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker("janitor", mockProcessor, 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(200 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("transient"))

	worker := NewWorker("janitor", mockProcessor, 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

func TestLogPruner_DeletesBeforeCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := new(MockPruneRepository)
	repo.On("DeleteOlderThan", mock.Anything, now.Add(-24*time.Hour)).Return(int64(3), nil).Once()

	pruner := NewLogPruner(repo, 24*time.Hour, nil)
	pruner.now = func() time.Time { return now }

	assert.NoError(t, pruner.ProcessJobs(context.Background()))
	repo.AssertExpectations(t)
}

func TestLogPruner_ZeroRetentionKeepsEverything(t *testing.T) {
	repo := new(MockPruneRepository)

	assert.NoError(t, NewLogPruner(repo, 0, nil).ProcessJobs(context.Background()))
	repo.AssertNotCalled(t, "DeleteOlderThan", mock.Anything, mock.Anything)
}

func TestLogPruner_RepositoryError(t *testing.T) {
	repo := new(MockPruneRepository)
	repo.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), errors.New("database error"))

	err := NewLogPruner(repo, time.Hour, nil).ProcessJobs(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune retrieval logs")
}
