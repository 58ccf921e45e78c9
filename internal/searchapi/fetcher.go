package searchapi

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloo-solutions/molpanel/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Searcher resolves one category for a structure. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, category domain.Category, smiles string) ([]domain.SearchResult, error)
}

// PartialError reports the categories whose request failed in independent
// mode. The result set returned alongside it holds the ones that succeeded.
type PartialError struct {
	Errors map[domain.Category]error
}

func (e *PartialError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, c := range e.FailedCategories() {
		parts = append(parts, fmt.Sprintf("%s: %v", c, e.Errors[c]))
	}
	return "search failed for " + strings.Join(parts, "; ")
}

// FailedCategories lists the failed categories in display order.
func (e *PartialError) FailedCategories() []domain.Category {
	var out []domain.Category
	for _, c := range domain.Categories {
		if _, ok := e.Errors[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (e *PartialError) Unwrap() []error {
	out := make([]error, 0, len(e.Errors))
	for _, c := range e.FailedCategories() {
		out = append(out, e.Errors[c])
	}
	return out
}

// Fetcher runs the three searches concurrently.
type Fetcher struct {
	searcher Searcher
	mode     domain.FetchMode
}

// NewFetcher creates a Fetcher. An unset mode means joint.
func NewFetcher(searcher Searcher, mode domain.FetchMode) *Fetcher {
	if mode == "" {
		mode = domain.FetchModeJoint
	}
	return &Fetcher{searcher: searcher, mode: mode}
}

func (f *Fetcher) Name() string {
	return string(domain.StrategyNetworked)
}

// Mode returns how the fetcher waits on its requests.
func (f *Fetcher) Mode() domain.FetchMode {
	return f.mode
}

func (f *Fetcher) Fetch(ctx context.Context, smiles string) (domain.ResultSet, error) {
	if f.mode == domain.FetchModeIndependent {
		return f.fetchIndependent(ctx, smiles)
	}
	return f.fetchJoint(ctx, smiles)
}

// fetchJoint fails as a whole on the first error and cancels the rest.
func (f *Fetcher) fetchJoint(ctx context.Context, smiles string) (domain.ResultSet, error) {
	g, gctx := errgroup.WithContext(ctx)
	collected := make([][]domain.SearchResult, len(domain.Categories))

	for i, c := range domain.Categories {
		g.Go(func() error {
			results, err := f.searcher.Search(gctx, c, smiles)
			if err != nil {
				return err
			}
			collected[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.EmptyResultSet(), err
	}

	rs := domain.EmptyResultSet()
	for i, c := range domain.Categories {
		rs.Set(c, collected[i])
	}
	return rs, nil
}

// fetchIndependent lets each request settle on its own.
func (f *Fetcher) fetchIndependent(ctx context.Context, smiles string) (domain.ResultSet, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		rs     = domain.EmptyResultSet()
		failed = make(map[domain.Category]error)
	)

	for _, c := range domain.Categories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := f.searcher.Search(ctx, c, smiles)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[c] = err
				return
			}
			rs.Set(c, results)
		}()
	}
	wg.Wait()

	if len(failed) > 0 {
		return rs, &PartialError{Errors: failed}
	}
	return rs, nil
}
