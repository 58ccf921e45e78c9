//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/molpanel/internal/api/handlers"
	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/metrics"
	"github.com/cloo-solutions/molpanel/internal/repository"
	"github.com/cloo-solutions/molpanel/internal/searchapi"
	"github.com/cloo-solutions/molpanel/internal/server"
	"github.com/cloo-solutions/molpanel/internal/service"
	"github.com/cloo-solutions/molpanel/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	Search       *FakeSearchService
	SearchServer *httptest.Server
	Panels       *service.PanelService
	ServerURL    string
	ServerCloser func()
	BinaryDir    string
	HTTPClient   *http.Client
}

// FakeSearchService answers the three search endpoints. A category listed in
// failing answers 500.
type FakeSearchService struct {
	mu      sync.Mutex
	failing map[string]bool
	calls   map[string]int
}

func (f *FakeSearchService) Fail(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[path] = true
}

func (f *FakeSearchService) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *FakeSearchService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SMILES string `json:"smiles"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.calls[r.URL.Path]++
	failing := f.failing[r.URL.Path]
	f.mu.Unlock()

	if failing {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"search backend unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode([]domain.SearchResult{
		{SMILES: req.SMILES + r.URL.Path, Similarity: 0.75},
	})
}

// SetupE2EEnv starts Postgres, a fake search service and the panel server
// in independent fetch mode.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC)

	fake := &FakeSearchService{failing: map[string]bool{}, calls: map[string]int{}}
	searchSrv := httptest.NewServer(fake)

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	env := &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		Search:       fake,
		SearchServer: searchSrv,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
	env.ServerURL, env.ServerCloser = env.startServer(port)
	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.SearchServer != nil {
		e.SearchServer.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

func (e *E2ETestEnv) startServer(port int) (string, func()) {
	m := metrics.New(false)
	logRepo := repository.NewRetrievalLogRepository(e.Pool)

	client := searchapi.NewClient(e.SearchServer.URL, 5*time.Second, searchapi.WithObserver(m))
	fetcher := searchapi.NewFetcher(client, domain.FetchModeIndependent)
	e.Panels = service.NewPanelService(fetcher, logRepo, m, nil, time.Hour)

	router := server.NewRouter(server.RouterConfig{
		PageHandler:  handlers.NewPageHandler(e.Panels, handlers.PageConfig{}, nil),
		PanelHandler: handlers.NewPanelHandler(e.Panels, logRepo),
		Metrics:      m.Handler(),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.T.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(e.T, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// BuildBinaries compiles the molpanel CLI into a temporary directory.
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "molpanel-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "molpanel"), "./cmd/molpanel")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build molpanel: %v\n%s", err, out)
	}
}

// RunMolpanel runs the CLI against the test server.
func (e *E2ETestEnv) RunMolpanel(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "molpanel"), args...)
	cmd.Env = append(os.Environ(), "MOLPANEL_API_URL="+e.ServerURL)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil)
}

func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &APIResponse{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to parse %s %s: %w", method, path, err)
		}
	}
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, out.Error)
	}
	return out, nil
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
