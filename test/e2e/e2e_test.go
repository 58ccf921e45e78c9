//go:build e2e

package e2e

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/cloo-solutions/molpanel/internal/api/handlers"
	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/pagination"
	"github.com/cloo-solutions/molpanel/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createReadyPanel(t *testing.T, env *E2ETestEnv) string {
	t.Helper()

	resp, err := env.Post("/api/panels", nil)
	require.NoError(t, err)
	var panel handlers.PanelResponse
	require.NoError(t, json.Unmarshal(resp.Data, &panel))
	assert.Equal(t, "networked", panel.Strategy)

	resp, err = env.Post("/api/panels/"+panel.ID+"/ready", nil)
	require.NoError(t, err)
	var ready handlers.ReadyResponse
	require.NoError(t, json.Unmarshal(resp.Data, &ready))
	assert.Equal(t, domain.DefaultStructure, ready.Structure)

	return panel.ID
}

func TestE2E_PanelRetrieval(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("networked retrieval fills all three lists", func(t *testing.T) {
		id := createReadyPanel(t, env)

		resp, err := env.Post("/api/panels/"+id+"/retrieve", handlers.RetrieveRequest{SMILES: "CCO"})
		require.NoError(t, err)
		var out handlers.RetrieveResponse
		require.NoError(t, json.Unmarshal(resp.Data, &out))

		require.True(t, out.Performed)
		assert.Empty(t, out.Panel.Error)
		require.Len(t, out.Panel.SimilarStructures, 1)
		assert.Equal(t, "CCO/generate_similar", out.Panel.SimilarStructures[0].SMILES)
		assert.Equal(t, "0.75", out.Panel.SimilarStructures[0].SimilarityLabel)
		require.Len(t, out.Panel.CommercialReagents, 1)
		require.Len(t, out.Panel.PubChemResults, 1)

		hist, err := env.Get("/api/panels/" + id + "/history")
		require.NoError(t, err)
		var page pagination.PageResult[service.RetrievalLog]
		require.NoError(t, json.Unmarshal(hist.Data, &page))
		logs := page.Items
		require.Len(t, logs, 1)
		assert.Equal(t, service.OutcomeSuccess, logs[0].Outcome)
		assert.Equal(t, "CCO", logs[0].SMILES)
		assert.Equal(t, 1, logs[0].SimilarCount)
	})

	t.Run("one failing category keeps the others", func(t *testing.T) {
		env.Search.Fail("/search_commercial")
		id := createReadyPanel(t, env)

		resp, err := env.Post("/api/panels/"+id+"/retrieve", handlers.RetrieveRequest{SMILES: "N"})
		require.NoError(t, err)
		var out handlers.RetrieveResponse
		require.NoError(t, json.Unmarshal(resp.Data, &out))

		assert.Equal(t, domain.MsgRetrievalFailure+" (Commercial Reagents)", out.Panel.Error)
		assert.Len(t, out.Panel.SimilarStructures, 1)
		assert.Empty(t, out.Panel.CommercialReagents)
		assert.Len(t, out.Panel.PubChemResults, 1)

		hist, err := env.Get("/api/panels/" + id + "/history")
		require.NoError(t, err)
		var page pagination.PageResult[service.RetrievalLog]
		require.NoError(t, json.Unmarshal(hist.Data, &page))
		logs := page.Items
		require.Len(t, logs, 1)
		assert.Equal(t, service.OutcomePartial, logs[0].Outcome)
		assert.NotEmpty(t, logs[0].Error)
	})

	t.Run("editor failure is reported and retrieval is not attempted", func(t *testing.T) {
		id := createReadyPanel(t, env)
		before := env.Search.Calls("/generate_similar")

		resp, err := env.Post("/api/panels/"+id+"/retrieve", handlers.RetrieveRequest{Error: "indigo: cannot serialize"})
		require.NoError(t, err)
		var out handlers.RetrieveResponse
		require.NoError(t, json.Unmarshal(resp.Data, &out))

		assert.Equal(t, domain.MsgRetrievalFailure, out.Panel.Error)
		assert.Equal(t, before, env.Search.Calls("/generate_similar"))
	})
}

func TestE2E_CLI(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.BuildBinaries()

	out, err := env.RunMolpanel("retrieve", "--smiles", "c1ccccc1", "--output")
	require.NoError(t, err, out)
	assert.True(t, strings.Contains(out, `"c1ccccc1/search_pubchem"`), out)

	out, err = env.RunMolpanel("retrieve")
	assert.Error(t, err, out)
}
