package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/molpanel/internal/api/handlers"
	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/server"
	"github.com/cloo-solutions/molpanel/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDaemon(t *testing.T, fetcher service.ResultFetcher) (*httptest.Server, *service.PanelService) {
	t.Helper()
	svc := service.NewPanelService(fetcher, nil, nil, nil, time.Minute)
	srv := httptest.NewServer(server.NewRouter(server.RouterConfig{
		PageHandler:  handlers.NewPageHandler(svc, handlers.PageConfig{}, nil),
		PanelHandler: handlers.NewPanelHandler(svc, nil),
	}))
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestReadStructure(t *testing.T) {
	s, err := readStructure("  CCO \n", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "CCO", s)

	path := filepath.Join(t.TempDir(), "in.smi")
	require.NoError(t, os.WriteFile(path, []byte("c1ccccc1 benzene\nignored\n"), 0o600))
	s, err = readStructure("", path, nil)
	require.NoError(t, err)
	assert.Equal(t, "c1ccccc1 benzene", s)

	s, err = readStructure("", "-", strings.NewReader("N\n"))
	require.NoError(t, err)
	assert.Equal(t, "N", s)

	_, err = readStructure("   ", "", nil)
	assert.True(t, errors.Is(err, domain.ErrEmptyStructure))

	_, err = readStructure("", filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestRunRetrieve_JSON(t *testing.T) {
	srv, svc := newDaemon(t, service.NewStaticFetcher())

	var out bytes.Buffer
	require.NoError(t, runRetrieve(NewAPIClientWithConfig(srv.URL), "CCO", true, &out))

	var panel Panel
	require.NoError(t, json.Unmarshal(out.Bytes(), &panel))
	assert.Equal(t, "CCO", panel.SMILES)
	assert.True(t, panel.EditorReady)
	assert.Equal(t, "static", panel.Strategy)
	require.Len(t, panel.SimilarStructures, 2)
	assert.Equal(t, "0.95", panel.SimilarStructures[0].SimilarityLabel)
	assert.Equal(t, service.DefaultMockResults(), panel.View().Results)

	// the panel is closed once the command finishes
	assert.Equal(t, 0, svc.Count())
}

func TestRunRetrieve_Styled(t *testing.T) {
	srv, _ := newDaemon(t, service.NewStaticFetcher())

	var out bytes.Buffer
	require.NoError(t, runRetrieve(NewAPIClientWithConfig(srv.URL), "CCO", false, &out))

	text := out.String()
	assert.Contains(t, text, "Commercial Reagents")
	assert.Contains(t, text, "CCCO (Similarity: 0.70)")
}

type failingFetcher struct{}

func (failingFetcher) Name() string { return "networked" }

func (failingFetcher) Fetch(ctx context.Context, smiles string) (domain.ResultSet, error) {
	return domain.EmptyResultSet(), errors.New("connection refused")
}

func TestRunRetrieve_EmptyResults(t *testing.T) {
	srv, _ := newDaemon(t, service.NewStaticFetcherWithData(domain.EmptyResultSet()))

	var out bytes.Buffer
	require.NoError(t, runRetrieve(NewAPIClientWithConfig(srv.URL), "CCO", false, &out))
	assert.Contains(t, out.String(), "(none)")
}

func TestRunRetrieve_FailureIsReported(t *testing.T) {
	srv, _ := newDaemon(t, failingFetcher{})

	var out bytes.Buffer
	err := runRetrieve(NewAPIClientWithConfig(srv.URL), "CCO", false, &out)
	require.Error(t, err)
	assert.Equal(t, domain.MsgRetrievalFailure, err.Error())
	assert.Contains(t, out.String(), domain.MsgRetrievalFailure)
}

func TestRunRetrieve_DaemonDown(t *testing.T) {
	srv, _ := newDaemon(t, service.NewStaticFetcher())
	url := srv.URL
	srv.Close()

	err := runRetrieve(NewAPIClientWithConfig(url), "CCO", false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create panel")
}

func TestRetrieveCmd_RequiresStructure(t *testing.T) {
	cmd := RetrieveCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}

func TestRootCmd_RetrieveThroughFlags(t *testing.T) {
	srv, _ := newDaemon(t, service.NewStaticFetcher())

	root := RootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"retrieve", "--api-url", srv.URL, "--smiles", "CCO", "--output"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"smiles": "CCO"`)
}
