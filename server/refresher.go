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

// Package server
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kardiachain/circulation-backend/aggregator"
	"github.com/kardiachain/circulation-backend/metrics"
	"github.com/kardiachain/circulation-backend/types"
	"github.com/kardiachain/circulation-backend/utils"
)

var (
	ErrRefreshInProgress = errors.New("refresh cycle already in progress")
	ErrNoSource          = errors.New("server has no source client")
)

// Refresh runs one refresh cycle. The cache is written only when every chain
// aggregated successfully, in a single multi-key write; otherwise it is left
// untouched and the error wraps types.ErrCycleAborted.
func (s *Server) Refresh(ctx context.Context) (*types.AggregateResult, error) {
	if s.aggregator == nil {
		return nil, ErrNoSource
	}
	if !atomic.CompareAndSwapInt32(&s.refreshing, 0, 1) {
		s.metrics.ObserveCycle(metrics.CycleSkipped, 0)
		return nil, ErrRefreshInProgress
	}
	defer atomic.StoreInt32(&s.refreshing, 0)

	lgr := s.logger.With(zap.String("method", "Refresh"))
	start := time.Now()
	snapshots, err := s.aggregator.AggregateAll(ctx, s.chains)
	if err != nil {
		s.metrics.ObserveCycle(metrics.CycleAborted, time.Since(start))
		return nil, fmt.Errorf("%w: %w", types.ErrCycleAborted, err)
	}

	result := &types.AggregateResult{
		Chains:           snapshots,
		TotalCirculation: aggregator.ReduceTotal(snapshots),
		LastUpdate:       s.now().UTC(),
	}
	entries := result.Entries(utils.FormatFigure)
	if err := s.cacheClient.MSet(ctx, entries); err != nil {
		s.metrics.ObserveCycle(metrics.CycleAborted, time.Since(start))
		return nil, fmt.Errorf("%w: write cache: %w", types.ErrCycleAborted, err)
	}
	s.metrics.ObserveCycle(metrics.CycleSuccess, time.Since(start))

	lgr.Info("Refreshed circulation",
		zap.String("totalCirculation", entries[types.KeyTotalCirculation]),
		zap.Int("figures", len(entries)),
		zap.Duration("elapsed", time.Since(start)))
	lgr.Debug("Written figures", zap.Any("entries", entries))
	return result, nil
}

// Watch refreshes once immediately, then on every tick of interval, until
// ctx is done. A tick that fires while a cycle is still running is skipped.
// Failed cycles are logged and retried on the next tick only.
func (s *Server) Watch(ctx context.Context, interval time.Duration) error {
	lgr := s.logger.With(zap.String("method", "Watch"))
	lgr.Info("Start refresh job", zap.Duration("interval", interval), zap.Int("chains", len(s.chains)))

	var wg sync.WaitGroup
	defer wg.Wait()
	cycle := func() {
		defer wg.Done()
		cycleCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		if _, err := s.Refresh(cycleCtx); err != nil {
			if errors.Is(err, ErrRefreshInProgress) {
				lgr.Warn("Skip tick, previous cycle still running")
				return
			}
			lgr.Error("Refresh cycle aborted, keep previous figures", zap.Error(err))
		}
	}

	wg.Add(1)
	go cycle()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			lgr.Info("Stop refresh job")
			return ctx.Err()
		case <-t.C:
			wg.Add(1)
			go cycle()
		}
	}
}
