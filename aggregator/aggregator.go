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

// Package aggregator reduces source figures into per-chain and total
// circulation.
package aggregator

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kardiachain/circulation-backend/source"
	"github.com/kardiachain/circulation-backend/types"
	"github.com/kardiachain/circulation-backend/utils"
)

type Aggregator struct {
	src    source.Client
	logger *zap.Logger
}

func New(src source.Client, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		src:    src,
		logger: logger.With(zap.String("component", "aggregator")),
	}
}

// Aggregate fetches every figure of the chain concurrently and computes its
// circulation. Any failed figure fails the whole chain.
func (a *Aggregator) Aggregate(ctx context.Context, chain types.ChainConfig) (*types.ChainSnapshot, error) {
	sources := make([]types.NamedSource, 0, 1+len(chain.Deductions)+len(chain.Extras))
	sources = append(sources, chain.Supply)
	sources = append(sources, chain.Deductions...)
	sources = append(sources, chain.Extras...)

	values := make([]decimal.Decimal, len(sources))
	g, gCtx := errgroup.WithContext(ctx)
	for i, ns := range sources {
		i, ns := i, ns
		g.Go(func() error {
			v, err := a.src.FetchFigure(gCtx, ns.Source)
			if err != nil {
				a.logger.Warn("cannot fetch figure", zap.String("chain", chain.Name),
					zap.String("figure", ns.Name), zap.Error(err))
				return err
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &types.ChainAggregationFailed{Chain: chain.Name, Cause: err}
	}

	snapshot := &types.ChainSnapshot{
		Chain:  chain.Name,
		Supply: types.NamedFigure{Name: chain.Supply.Name, Value: values[0]},
	}
	offset := 1
	deducted := make([]decimal.Decimal, len(chain.Deductions))
	for i, d := range chain.Deductions {
		deducted[i] = values[offset+i]
		snapshot.Deductions = append(snapshot.Deductions, types.NamedFigure{Name: d.Name, Value: values[offset+i]})
	}
	offset += len(chain.Deductions)
	for i, e := range chain.Extras {
		snapshot.Extras = append(snapshot.Extras, types.NamedFigure{Name: e.Name, Value: values[offset+i]})
	}
	snapshot.Circulation = utils.Subtract(snapshot.Supply.Value, deducted...)
	return snapshot, nil
}

// AggregateAll aggregates every chain concurrently. It returns the snapshots
// in table order, or the first chain failure.
func (a *Aggregator) AggregateAll(ctx context.Context, chains []types.ChainConfig) ([]*types.ChainSnapshot, error) {
	snapshots := make([]*types.ChainSnapshot, len(chains))
	g, gCtx := errgroup.WithContext(ctx)
	for i, chain := range chains {
		i, chain := i, chain
		g.Go(func() error {
			s, err := a.Aggregate(gCtx, chain)
			if err != nil {
				return err
			}
			snapshots[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ReduceTotal sums the circulation of every snapshot and truncates the
// result to utils.FigurePrecision decimal places.
func ReduceTotal(snapshots []*types.ChainSnapshot) decimal.Decimal {
	values := make([]decimal.Decimal, 0, len(snapshots))
	for _, s := range snapshots {
		values = append(values, s.Circulation)
	}
	return utils.TruncateFigure(utils.Sum(values...))
}
