/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

// Package source fetches single figures from indexers and chain nodes.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kardiachain/circulation-backend/metrics"
	"github.com/kardiachain/circulation-backend/types"
)

const DefaultTimeout = 10 * time.Second

// Client fetches one figure, normalized to whole tokens.
type Client interface {
	FetchFigure(ctx context.Context, d types.SourceDescriptor) (decimal.Decimal, error)
}

type fetcher interface {
	fetch(ctx context.Context, d types.SourceDescriptor) (decimal.Decimal, error)
	close()
}

type Config struct {
	Timeout    time.Duration
	HTTPClient *http.Client

	Metrics *metrics.Provider
	Logger  *zap.Logger
}

// Router dispatches a descriptor to the fetcher of its kind. Node
// connections are opened on first use and shared afterwards.
type Router struct {
	timeout  time.Duration
	fetchers map[types.SourceKind]fetcher

	metrics *metrics.Provider
	logger  *zap.Logger
}

func New(cfg Config) *Router {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	lgr := cfg.Logger.With(zap.String("component", "source"))
	evmFetcher := newEVM(lgr)
	substrateFetcher := newSubstrate(lgr)
	return &Router{
		timeout: cfg.Timeout,
		fetchers: map[types.SourceKind]fetcher{
			types.SourceConstant:               constant{},
			types.SourceGraphQL:                &graphQL{client: cfg.HTTPClient},
			types.SourceERC20Balance:           evmFetcher,
			types.SourceERC20TotalSupply:       evmFetcher,
			types.SourceSubstrateFreeBalance:   substrateFetcher,
			types.SourceSubstrateTotalIssuance: substrateFetcher,
		},
		metrics: cfg.Metrics,
		logger:  lgr,
	}
}

func (r *Router) FetchFigure(ctx context.Context, d types.SourceDescriptor) (decimal.Decimal, error) {
	f, ok := r.fetchers[d.Kind]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown source kind %q", types.ErrInvalidChainConfig, d.Kind)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	value, err := f.fetch(ctx, d)
	if err != nil {
		err = classify(ctx, err)
		r.logger.Debug("cannot fetch figure", zap.Stringer("source", d), zap.Error(err))
	}
	r.metrics.ObserveSource(string(d.Kind), time.Since(start), err)
	return value, err
}

// Close releases every node connection.
func (r *Router) Close() {
	closed := make(map[fetcher]bool)
	for _, f := range r.fetchers {
		if closed[f] {
			continue
		}
		closed[f] = true
		f.close()
	}
}

// classify makes sure every error leaving the router is one of the
// documented source errors. Timeouts count as unavailable sources.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, types.ErrSourceUnavailable),
		errors.Is(err, types.ErrSourceMalformed),
		errors.Is(err, types.ErrInvalidChainConfig):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", types.ErrSourceUnavailable, ctx.Err())
	}
	return fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err)
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", types.ErrSourceMalformed, fmt.Sprintf(format, args...))
}

type constant struct{}

func (constant) fetch(_ context.Context, d types.SourceDescriptor) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(d.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: constant %q", types.ErrInvalidChainConfig, d.Value)
	}
	return v.Shift(-d.Decimals), nil
}

func (constant) close() {}
