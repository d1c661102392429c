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
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kardiachain/circulation-backend/types"
	"github.com/kardiachain/circulation-backend/utils"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// evm reads ERC-20 figures through eth_call. It serves both the L1 and any
// EVM rollup; the descriptor endpoint picks the node.
type evm struct {
	abi abi.ABI

	mu    sync.Mutex
	nodes map[string]*ethclient.Client

	lgr *zap.Logger
}

func newEVM(lgr *zap.Logger) *evm {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(fmt.Sprintf("invalid erc20 abi: %v", err))
	}
	return &evm{
		abi:   parsed,
		nodes: make(map[string]*ethclient.Client),
		lgr:   lgr.With(zap.String("fetcher", "evm")),
	}
}

func (e *evm) node(ctx context.Context, url string) (*ethclient.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.nodes[url]; ok {
		return c, nil
	}
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	e.lgr.Info("Connected to evm node", zap.String("url", url))
	e.nodes[url] = c
	return c, nil
}

func (e *evm) fetch(ctx context.Context, d types.SourceDescriptor) (decimal.Decimal, error) {
	if !common.IsHexAddress(d.Contract) {
		return decimal.Zero, fmt.Errorf("%w: invalid contract address %q", types.ErrInvalidChainConfig, d.Contract)
	}

	var (
		method string
		args   []interface{}
	)
	switch d.Kind {
	case types.SourceERC20Balance:
		if !common.IsHexAddress(d.Account) {
			return decimal.Zero, fmt.Errorf("%w: invalid holder address %q", types.ErrInvalidChainConfig, d.Account)
		}
		method, args = "balanceOf", []interface{}{common.HexToAddress(d.Account)}
	case types.SourceERC20TotalSupply:
		method = "totalSupply"
	default:
		return decimal.Zero, fmt.Errorf("%w: evm cannot serve %q", types.ErrInvalidChainConfig, d.Kind)
	}

	payload, err := e.abi.Pack(method, args...)
	if err != nil {
		return decimal.Zero, err
	}
	client, err := e.node(ctx, d.Endpoint)
	if err != nil {
		return decimal.Zero, unavailable(err)
	}
	contract := common.HexToAddress(d.Contract)
	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: payload}, nil)
	if err != nil {
		return decimal.Zero, unavailable(err)
	}
	if len(res) == 0 {
		return decimal.Zero, malformed("empty %s result from %s", method, d.Contract)
	}
	out, err := e.abi.Unpack(method, res)
	if err != nil {
		return decimal.Zero, malformed("cannot unpack %s: %v", method, err)
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, malformed("unexpected %s result type %T", method, out[0])
	}
	return utils.NormalizeBigInt(amount, d.Decimals), nil
}

func (e *evm) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for url, c := range e.nodes {
		c.Close()
		delete(e.nodes, url)
	}
}
