package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/molpanel/internal/logging"
)

// RetrievalLogPruneRepository deletes old retrieval logs.
type RetrievalLogPruneRepository interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LogPruner drops retrieval logs older than the retention window.
type LogPruner struct {
	repo      RetrievalLogPruneRepository
	retention time.Duration
	logger    logging.Logger
	now       func() time.Time
}

// NewLogPruner creates a new LogPruner instance
func NewLogPruner(repo RetrievalLogPruneRepository, retention time.Duration, logger logging.Logger) *LogPruner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogPruner{
		repo:      repo,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessJobs implements the JobProcessor interface
func (p *LogPruner) ProcessJobs(ctx context.Context) error {
	if p.retention <= 0 {
		return nil
	}

	cutoff := p.now().UTC().Add(-p.retention)
	n, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune retrieval logs: %w", err)
	}

	if n > 0 {
		p.logger.Info("pruned retrieval logs", logging.Int64("deleted", n), logging.String("cutoff", cutoff.Format(time.RFC3339)))
	}
	return nil
}
