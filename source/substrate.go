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

package source

import (
	"context"
	"fmt"
	"sync"

	gethrpc "github.com/centrifuge/go-substrate-rpc-client/v4/gethrpc"
	gstypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/shopspring/decimal"
	subkey "github.com/vedhavyas/go-subkey/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kardiachain/circulation-backend/types"
	"github.com/kardiachain/circulation-backend/utils"
)

type substrateNode struct {
	client *gethrpc.Client
	meta   *gstypes.Metadata
}

// storage reads the raw value under key at the best block. An absent entry
// yields no bytes.
func (n *substrateNode) storage(ctx context.Context, key gstypes.StorageKey) ([]byte, error) {
	var raw string
	if err := n.client.CallContext(ctx, &raw, "state_getStorage", key.Hex()); err != nil {
		return nil, unavailable(err)
	}
	bz, err := codec.HexDecodeString(raw)
	if err != nil {
		return nil, malformed("storage value is not hex: %v", err)
	}
	return bz, nil
}

// substrate reads System.Account free balances and Balances.TotalIssuance
// from substrate nodes. Every node call is bound to the caller context.
type substrate struct {
	mu    sync.Mutex
	nodes map[string]*substrateNode
	dials singleflight.Group

	lgr *zap.Logger
}

func newSubstrate(lgr *zap.Logger) *substrate {
	return &substrate{
		nodes: make(map[string]*substrateNode),
		lgr:   lgr.With(zap.String("fetcher", "substrate")),
	}
}

func (s *substrate) cached(url string) (*substrateNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[url]
	return n, ok
}

// node connects to url and loads its metadata once. Concurrent callers of
// the same url share the attempt; other urls are never blocked by it.
func (s *substrate) node(ctx context.Context, url string) (*substrateNode, error) {
	if n, ok := s.cached(url); ok {
		return n, nil
	}
	v, err, _ := s.dials.Do(url, func() (interface{}, error) {
		if n, ok := s.cached(url); ok {
			return n, nil
		}
		c, err := gethrpc.DialContext(ctx, url)
		if err != nil {
			return nil, unavailable(err)
		}
		var raw string
		if err := c.CallContext(ctx, &raw, "state_getMetadata"); err != nil {
			c.Close()
			return nil, unavailable(err)
		}
		var meta gstypes.Metadata
		if err := codec.DecodeFromHex(raw, &meta); err != nil {
			c.Close()
			return nil, malformed("metadata of %s: %v", url, err)
		}
		n := &substrateNode{client: c, meta: &meta}
		s.mu.Lock()
		s.nodes[url] = n
		s.mu.Unlock()
		s.lgr.Info("Connected to substrate node", zap.String("url", url))
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*substrateNode), nil
}

func (s *substrate) fetch(ctx context.Context, d types.SourceDescriptor) (decimal.Decimal, error) {
	switch d.Kind {
	case types.SourceSubstrateFreeBalance:
		return s.freeBalance(ctx, d)
	case types.SourceSubstrateTotalIssuance:
		return s.totalIssuance(ctx, d)
	}
	return decimal.Zero, fmt.Errorf("%w: substrate cannot serve %q", types.ErrInvalidChainConfig, d.Kind)
}

func (s *substrate) freeBalance(ctx context.Context, d types.SourceDescriptor) (decimal.Decimal, error) {
	_, pubKey, err := subkey.SS58Decode(d.Account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid ss58 address %q: %v", types.ErrInvalidChainConfig, d.Account, err)
	}
	n, err := s.node(ctx, d.Endpoint)
	if err != nil {
		return decimal.Zero, err
	}
	key, err := gstypes.CreateStorageKey(n.meta, "System", "Account", pubKey)
	if err != nil {
		return decimal.Zero, malformed("system account storage key: %v", err)
	}
	bz, err := n.storage(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if len(bz) == 0 {
		// Accounts that were never endowed have no storage entry.
		return decimal.Zero, nil
	}
	var info gstypes.AccountInfo
	if err := codec.Decode(bz, &info); err != nil {
		return decimal.Zero, malformed("account info of %s: %v", d.Account, err)
	}
	return utils.NormalizeBigInt(info.Data.Free.Int, d.Decimals), nil
}

func (s *substrate) totalIssuance(ctx context.Context, d types.SourceDescriptor) (decimal.Decimal, error) {
	n, err := s.node(ctx, d.Endpoint)
	if err != nil {
		return decimal.Zero, err
	}
	key, err := gstypes.CreateStorageKey(n.meta, "Balances", "TotalIssuance")
	if err != nil {
		return decimal.Zero, malformed("total issuance storage key: %v", err)
	}
	bz, err := n.storage(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if len(bz) == 0 {
		return decimal.Zero, malformed("no total issuance on %s", d.Endpoint)
	}
	var issuance gstypes.U128
	if err := codec.Decode(bz, &issuance); err != nil {
		return decimal.Zero, malformed("total issuance: %v", err)
	}
	return utils.NormalizeBigInt(issuance.Int, d.Decimals), nil
}

func (s *substrate) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for url, n := range s.nodes {
		n.client.Close()
		delete(s.nodes, url)
	}
}
