package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/logging"
	"github.com/google/uuid"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// RetrievalMetrics receives retrieval outcomes and the live panel count.
type RetrievalMetrics interface {
	ObserveRetrieval(strategy, outcome string, d time.Duration)
	SetActivePanels(n int)
}

// PanelService keeps the panels of connected pages in memory, keyed by ID.
// Panels are dropped on Close or once idle for longer than the TTL.
type PanelService struct {
	fetcher ResultFetcher
	logRepo RetrievalLogRepository
	metrics RetrievalMetrics
	logger  logging.Logger
	uuidGen UUIDGenerator
	ttl     time.Duration
	now     func() time.Time

	mu     sync.RWMutex
	panels map[string]*Panel
}

// NewPanelService creates a PanelService. logRepo and metrics may be nil.
func NewPanelService(
	fetcher ResultFetcher,
	logRepo RetrievalLogRepository,
	metrics RetrievalMetrics,
	logger logging.Logger,
	ttl time.Duration,
) *PanelService {
	return NewPanelServiceWithUUIDGen(fetcher, logRepo, metrics, logger, ttl, &DefaultUUIDGenerator{})
}

// NewPanelServiceWithUUIDGen creates a PanelService with custom UUID generator (for testing)
func NewPanelServiceWithUUIDGen(
	fetcher ResultFetcher,
	logRepo RetrievalLogRepository,
	metrics RetrievalMetrics,
	logger logging.Logger,
	ttl time.Duration,
	uuidGen UUIDGenerator,
) *PanelService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PanelService{
		fetcher: fetcher,
		logRepo: logRepo,
		metrics: metrics,
		logger:  logger.Named("panels"),
		uuidGen: uuidGen,
		ttl:     ttl,
		now:     time.Now,
		panels:  make(map[string]*Panel),
	}
}

// Strategy returns the name of the configured result strategy.
func (s *PanelService) Strategy() string {
	return s.fetcher.Name()
}

// Create starts a new panel with no editor attached.
func (s *PanelService) Create(ctx context.Context) (domain.PanelState, error) {
	id := s.uuidGen.NewString()
	p := newPanelWithClock(id, s.fetcher, s, s.logger, s.now)

	s.mu.Lock()
	s.panels[id] = p
	n := len(s.panels)
	s.mu.Unlock()

	s.setActive(n)
	s.logger.Debug("panel created", logging.String("panel_id", id))
	return p.Snapshot(), nil
}

func (s *PanelService) get(id string) (*Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.panels[id]
	if !ok {
		return nil, domain.ErrPanelNotFound
	}
	return p, nil
}

// Get returns the current state of a panel.
func (s *PanelService) Get(ctx context.Context, id string) (domain.PanelState, error) {
	p, err := s.get(id)
	if err != nil {
		return domain.PanelState{}, err
	}
	return p.Snapshot(), nil
}

// EditorReady attaches a remote editor to the panel and returns the structure
// the browser must load into it.
func (s *PanelService) EditorReady(ctx context.Context, id string) (string, domain.PanelState, error) {
	p, err := s.get(id)
	if err != nil {
		return "", domain.PanelState{}, err
	}

	editor := NewRemoteEditor()
	if err := p.EditorReady(ctx, editor); err != nil {
		return "", domain.PanelState{}, err
	}

	var structure string
	if pending := editor.TakePending(); len(pending) > 0 {
		structure = pending[len(pending)-1]
	}
	return structure, p.Snapshot(), nil
}

// EditorFailed records an editor-side error on the panel.
func (s *PanelService) EditorFailed(ctx context.Context, id, message string) (domain.PanelState, error) {
	p, err := s.get(id)
	if err != nil {
		return domain.PanelState{}, err
	}
	if message == "" {
		message = "unspecified editor error"
	}
	if err := p.EditorFailed(ctx, errors.New(message)); err != nil {
		return domain.PanelState{}, err
	}
	return p.Snapshot(), nil
}

// Retrieve runs the panel's retrieval with the encoding (or editor error)
// the browser submitted.
func (s *PanelService) Retrieve(ctx context.Context, id, smiles, editorErr string) (bool, domain.PanelState, error) {
	p, err := s.get(id)
	if err != nil {
		return false, domain.PanelState{}, err
	}

	performed, err := p.RetrieveSubmitted(ctx, smiles, editorErr)
	if err != nil {
		return false, domain.PanelState{}, err
	}
	return performed, p.Snapshot(), nil
}

// Close drops a panel. Closing an unknown panel is not an error.
func (s *PanelService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	p, ok := s.panels[id]
	delete(s.panels, id)
	n := len(s.panels)
	s.mu.Unlock()

	if ok {
		p.Close()
		s.setActive(n)
		s.logger.Debug("panel closed", logging.String("panel_id", id))
	}
	return nil
}

// Count returns the number of live panels.
func (s *PanelService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.panels)
}

// ProcessJobs evicts panels idle for longer than the TTL. It satisfies
// jobs.JobProcessor so the janitor worker can poll it.
func (s *PanelService) ProcessJobs(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.ttl)

	s.mu.Lock()
	var evicted []*Panel
	for id, p := range s.panels {
		if p.IdleSince(cutoff) {
			evicted = append(evicted, p)
			delete(s.panels, id)
		}
	}
	n := len(s.panels)
	s.mu.Unlock()

	for _, p := range evicted {
		p.Close()
	}
	if len(evicted) > 0 {
		s.setActive(n)
		s.logger.Info("evicted idle panels", logging.Int("count", len(evicted)), logging.Int("remaining", n))
	}
	return nil
}

// RecordRetrieval feeds metrics and the retrieval log. Log failures are
// logged and otherwise ignored.
func (s *PanelService) RecordRetrieval(ctx context.Context, rec RetrievalRecord) {
	if s.metrics != nil {
		s.metrics.ObserveRetrieval(rec.Strategy, rec.Outcome, rec.Duration)
	}

	if s.logRepo == nil || rec.Outcome == OutcomeNoop {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if _, err := s.logRepo.CreateRetrievalLog(ctx, NewRetrievalLogEntry(rec)); err != nil {
		s.logger.Warn("failed to write retrieval log",
			logging.String("panel_id", rec.PanelID),
			logging.Err(err))
	}
}

func (s *PanelService) setActive(n int) {
	if s.metrics != nil {
		s.metrics.SetActivePanels(n)
	}
}
