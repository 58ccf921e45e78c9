package service

import (
	"context"
	"sync"
	"time"

	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockResultFetcher struct {
	mock.Mock
}

func (m *MockResultFetcher) Name() string {
	return "mock"
}

func (m *MockResultFetcher) Fetch(ctx context.Context, smiles string) (domain.ResultSet, error) {
	args := m.Called(ctx, smiles)
	return args.Get(0).(domain.ResultSet), args.Error(1)
}

type MockEditor struct {
	mock.Mock
}

func (m *MockEditor) LoadStructure(ctx context.Context, encoding string) error {
	args := m.Called(ctx, encoding)
	return args.Error(0)
}

func (m *MockEditor) StructureText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockRetrievalLogRepository struct {
	mock.Mock
}

func (m *MockRetrievalLogRepository) CreateRetrievalLog(ctx context.Context, entry RetrievalLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

type MockRetrievalMetrics struct {
	mock.Mock
}

func (m *MockRetrievalMetrics) ObserveRetrieval(strategy, outcome string, d time.Duration) {
	m.Called(strategy, outcome, d)
}

func (m *MockRetrievalMetrics) SetActivePanels(n int) {
	m.Called(n)
}

// recordingRecorder keeps every record it receives.
type recordingRecorder struct {
	mu      sync.Mutex
	records []RetrievalRecord
}

func (r *recordingRecorder) RecordRetrieval(ctx context.Context, rec RetrievalRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recordingRecorder) all() []RetrievalRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RetrievalRecord, len(r.records))
	copy(out, r.records)
	return out
}

// blockingEditor parks StructureText until release is closed.
type blockingEditor struct {
	entered chan struct{}
	release chan struct{}
	text    string
}

func newBlockingEditor(text string) *blockingEditor {
	return &blockingEditor{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		text:    text,
	}
}

func (e *blockingEditor) LoadStructure(ctx context.Context, encoding string) error {
	return nil
}

func (e *blockingEditor) StructureText(ctx context.Context) (string, error) {
	e.entered <- struct{}{}
	<-e.release
	return e.text, nil
}

type fakePartialError struct {
	failed []domain.Category
}

func (e *fakePartialError) Error() string {
	return "some categories failed"
}

func (e *fakePartialError) FailedCategories() []domain.Category {
	return e.failed
}

type fixedUUIDGen struct {
	ids []string
	i   int
}

func (g *fixedUUIDGen) NewString() string {
	id := g.ids[g.i%len(g.ids)]
	g.i++
	return id
}

// blockingRemoteEditor parks before reading the browser submission.
type blockingRemoteEditor struct {
	*RemoteEditor
	entered chan struct{}
	release chan struct{}
}

func newBlockingRemoteEditor() *blockingRemoteEditor {
	return &blockingRemoteEditor{
		RemoteEditor: NewRemoteEditor(),
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
}

func (e *blockingRemoteEditor) StructureText(ctx context.Context) (string, error) {
	e.entered <- struct{}{}
	<-e.release
	return e.RemoteEditor.StructureText(ctx)
}
