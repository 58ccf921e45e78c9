//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/molpanel/internal/pagination"
	"github.com/cloo-solutions/molpanel/internal/service"
	"github.com/cloo-solutions/molpanel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrievalLogRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc)
	defer pool.Close()

	repo := NewRetrievalLogRepository(pool)

	id, err := repo.CreateRetrievalLog(ctx, service.RetrievalLogEntry{
		PanelID:         "panel-1",
		SMILES:          "CCO",
		Strategy:        "static",
		Outcome:         service.OutcomeSuccess,
		SimilarCount:    2,
		CommercialCount: 2,
		PubChemCount:    2,
		DurationMs:      3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = repo.CreateRetrievalLog(ctx, service.RetrievalLogEntry{
		PanelID:  "panel-1",
		Strategy: "networked",
		Outcome:  service.OutcomeFailure,
		Error:    "search_pubchem: 500",
	})
	require.NoError(t, err)

	logs, err := repo.ListByPanel(ctx, "panel-1", 10, nil)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	byOutcome := map[string]service.RetrievalLog{}
	for _, l := range logs {
		byOutcome[l.Outcome] = l
	}
	assert.Equal(t, id, byOutcome[service.OutcomeSuccess].ID)
	assert.Equal(t, "CCO", byOutcome[service.OutcomeSuccess].SMILES)
	assert.Empty(t, byOutcome[service.OutcomeSuccess].Error)
	assert.Equal(t, "search_pubchem: 500", byOutcome[service.OutcomeFailure].Error)

	others, err := repo.ListByPanel(ctx, "panel-2", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestRetrievalLogRepository_RejectsUnknownOutcome(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc)
	defer pool.Close()

	_, err := NewRetrievalLogRepository(pool).CreateRetrievalLog(ctx, service.RetrievalLogEntry{
		PanelID:  "panel-1",
		Strategy: "static",
		Outcome:  service.OutcomeNoop,
	})
	assert.Error(t, err)
}

func TestRetrievalLogRepository_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc)
	defer pool.Close()

	repo := NewRetrievalLogRepository(pool)
	_, err := repo.CreateRetrievalLog(ctx, service.RetrievalLogEntry{
		PanelID:  "panel-1",
		Strategy: "static",
		Outcome:  service.OutcomeSuccess,
	})
	require.NoError(t, err)

	n, err := repo.DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRetrievalLogRepository_ListByPanel_Cursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc)
	defer pool.Close()

	repo := NewRetrievalLogRepository(pool)
	for _, smiles := range []string{"C", "CC", "CCC"} {
		_, err := repo.CreateRetrievalLog(ctx, service.RetrievalLogEntry{
			PanelID:  "panel-1",
			SMILES:   smiles,
			Strategy: "static",
			Outcome:  service.OutcomeSuccess,
		})
		require.NoError(t, err)
	}

	first, err := repo.ListByPanel(ctx, "panel-1", 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)

	last := first[len(first)-1]
	rest, err := repo.ListByPanel(ctx, "panel-1", 2, &pagination.Cursor{LastID: last.ID, Timestamp: last.CreatedAt})
	require.NoError(t, err)
	require.Len(t, rest, 1)

	seen := map[string]bool{}
	for _, l := range append(first, rest...) {
		seen[l.SMILES] = true
	}
	assert.Len(t, seen, 3)
}
