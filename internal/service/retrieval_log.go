package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/molpanel/internal/domain"
)

// Retrieval outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
	OutcomeNoop    = "noop"
)

// RetrievalRecord describes one resolved retrieval.
type RetrievalRecord struct {
	PanelID  string
	SMILES   string
	Strategy string
	Outcome  string
	Counts   map[domain.Category]int
	Err      error
	Duration time.Duration
}

// RetrievalRecorder receives every resolved retrieval of a panel.
type RetrievalRecorder interface {
	RecordRetrieval(ctx context.Context, rec RetrievalRecord)
}

// RetrievalLogEntry captures a retrieval for later analysis.
type RetrievalLogEntry struct {
	PanelID         string `json:"panel_id"`
	SMILES          string `json:"smiles"`
	Strategy        string `json:"strategy"`
	Outcome         string `json:"outcome"`
	SimilarCount    int    `json:"similar_count"`
	CommercialCount int    `json:"commercial_count"`
	PubChemCount    int    `json:"pubchem_count"`
	Error           string `json:"error,omitempty"`
	DurationMs      int    `json:"duration_ms"`
}

// RetrievalLog is a stored retrieval log entry.
type RetrievalLog struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RetrievalLogEntry
}

// RetrievalLogRepository persists retrieval logs.
type RetrievalLogRepository interface {
	CreateRetrievalLog(ctx context.Context, entry RetrievalLogEntry) (string, error)
}

// NewRetrievalLogEntry flattens a record for storage.
func NewRetrievalLogEntry(rec RetrievalRecord) RetrievalLogEntry {
	entry := RetrievalLogEntry{
		PanelID:         rec.PanelID,
		SMILES:          rec.SMILES,
		Strategy:        rec.Strategy,
		Outcome:         rec.Outcome,
		SimilarCount:    rec.Counts[domain.CategorySimilar],
		CommercialCount: rec.Counts[domain.CategoryCommercial],
		PubChemCount:    rec.Counts[domain.CategoryPubChem],
		DurationMs:      int(rec.Duration.Milliseconds()),
	}
	if rec.Err != nil {
		entry.Error = rec.Err.Error()
	}
	return entry
}
