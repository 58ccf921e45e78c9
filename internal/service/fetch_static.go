package service

import (
	"context"
	"fmt"
	"os"

	"github.com/cloo-solutions/molpanel/internal/domain"
	"gopkg.in/yaml.v3"
)

// ResultFetcher populates the three result collections for a structure.
type ResultFetcher interface {
	Name() string
	Fetch(ctx context.Context, smiles string) (domain.ResultSet, error)
}

// PartialResultError is returned by fetchers that resolve each category on
// its own. The accompanying ResultSet holds the categories that succeeded.
type PartialResultError interface {
	error
	FailedCategories() []domain.Category
}

// DefaultMockResults returns the fixed collections served by the static strategy.
func DefaultMockResults() domain.ResultSet {
	return domain.ResultSet{
		Similar: []domain.SearchResult{
			{SMILES: "CC(=O)OC1=CC=CC=C1C(=O)O", Similarity: 0.95},
			{SMILES: "CC(=O)OC1=CC=C(C(=O)O)C=C1", Similarity: 0.92},
		},
		Commercial: []domain.SearchResult{
			{SMILES: "CCO", Similarity: 0.8},
			{SMILES: "CCCO", Similarity: 0.7},
		},
		PubChem: []domain.SearchResult{
			{SMILES: "CC(=O)OC1=CC=CC=C1C(=O)O", Similarity: 1.0},
			{SMILES: "CC1=CC=C(C=C1)C(=O)O", Similarity: 0.9},
		},
	}
}

// StaticFetcher returns the same collections for every structure without
// touching the network.
type StaticFetcher struct {
	data domain.ResultSet
}

func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{data: DefaultMockResults()}
}

// NewStaticFetcherWithData serves data instead of the defaults.
func NewStaticFetcherWithData(data domain.ResultSet) *StaticFetcher {
	return &StaticFetcher{data: data.Clone()}
}

// NewStaticFetcherFromFile reads the collections from a YAML fixture with the
// keys similar_structures, commercial_reagents and pubchem_results.
func NewStaticFetcherFromFile(path string) (*StaticFetcher, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mock data: %w", err)
	}

	var data domain.ResultSet
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse mock data %s: %w", path, err)
	}

	for _, c := range domain.Categories {
		for i, r := range data.Get(c) {
			if r.Similarity < 0 || r.Similarity > 1 {
				return nil, fmt.Errorf("mock data %s: %s[%d] similarity %.2f outside [0,1]", path, c, i, r.Similarity)
			}
		}
	}

	return NewStaticFetcherWithData(data), nil
}

func (f *StaticFetcher) Name() string {
	return string(domain.StrategyStatic)
}

func (f *StaticFetcher) Fetch(ctx context.Context, smiles string) (domain.ResultSet, error) {
	return f.data.Clone(), nil
}
