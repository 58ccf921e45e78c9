// Package cli holds wiring shared by molpanel and molpaneld.
package cli

import (
	"fmt"

	"github.com/cloo-solutions/molpanel/internal/config"
	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/searchapi"
	"github.com/cloo-solutions/molpanel/internal/service"
)

// NewFetcher builds the result strategy named by cfg. observer may be nil.
func NewFetcher(cfg *config.Config, observer searchapi.Observer) (service.ResultFetcher, error) {
	switch cfg.ResultStrategy() {
	case domain.StrategyStatic:
		if cfg.MockDataFile == "" {
			return service.NewStaticFetcher(), nil
		}
		return service.NewStaticFetcherFromFile(cfg.MockDataFile)

	case domain.StrategyNetworked:
		var opts []searchapi.Option
		if observer != nil {
			opts = append(opts, searchapi.WithObserver(observer))
		}
		client := searchapi.NewClient(cfg.APIURL, cfg.APITimeout, opts...)
		return searchapi.NewFetcher(client, cfg.ResultFetchMode()), nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStrategy, cfg.Strategy)
	}
}

// ApplyStrategyFlags overrides the strategy and fetch mode from flags and
// revalidates cfg.
func ApplyStrategyFlags(cfg *config.Config, strategy, fetchMode string) error {
	if strategy != "" {
		cfg.Strategy = strategy
	}
	if fetchMode != "" {
		cfg.FetchMode = fetchMode
	}
	return cfg.Validate()
}
