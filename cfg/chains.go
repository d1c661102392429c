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

// Package cfg
package cfg

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kardiachain/circulation-backend/types"
)

const (
	DefaultEthereumRPCURL = "https://cloudflare-eth.com"
	DefaultPhalaRPCURL    = "https://phala-rpc.dwellir.com"
	DefaultKhalaRPCURL    = "https://khala-rpc.dwellir.com"
	DefaultIndexerURL     = "https://subsquid.phala.network"
)

const (
	evmDecimals       = 18
	substrateDecimals = 12

	ethereumTotalSupply = "1000000000"

	ethereumPHAToken          = "0x6c5bA91642F10282b576d91922Ae6448C9d52f4E"
	ethereumRewardAddress     = "0x4731bc41b3cca4c2883b8ebb68cb546d5b3b4dd6"
	ethereumPhalaChainbridge  = "0xcd38b15a419491c7c1238b0659f65c755792e257"
	ethereumKhalaChainbridge  = "0xeec0fb4913119567cdfc0c5fc2bf8f9f9b226c2d"
	ethereumSygmaBridge       = "0xC832588193cd5ED2185daDA4A531e0B26eC5B830"
	substrateCrowdloanAccount = "42fy3tTMPbgxbRqkQCyvLoSoPHwUPM3Dy5iqHYhF9RvD5XAP"
	substrateRewardAccount    = "5EYCAe5iixJKLJE7D1zaaRxUiy2bL4KUKqZBSckPw3iWSyvk"
	substrateChainbridge      = "436H4jat7TobTbNX4RCH5p7qgErHbGTo1MyZhLVaSX4FkKyz"
	substrateSygmaBridge      = "436H4jatj6ntHTVm3wh9zs1Mqa8p1ykfcdkNH7txmjmohTu3"
)

const (
	substrateCirculationDocument = `{
  circulationById(id: "0") {
    crowdloan
    reward
    sygmaBridge
    totalIssuance
  }
}`
	ethereumCirculationDocument = `{
  circulationById(id: "0") {
    phalaChainBridge
    khalaChainBridge
    reward
    sygmaBridge
    totalSupply
  }
}`
)

// Chains returns the chain table: the JSON file at ChainsFile when set,
// otherwise the built-in table of SourceMode.
func (c CirculationConfig) Chains() ([]types.ChainConfig, error) {
	var (
		chains []types.ChainConfig
		err    error
	)
	switch {
	case c.ChainsFile != "":
		chains, err = LoadChains(c.ChainsFile)
	case c.SourceMode == SourceModeIndexer:
		chains = IndexerChains(orDefault(c.IndexerURL, DefaultIndexerURL))
	case c.SourceMode == SourceModeRPC || c.SourceMode == "":
		chains = RPCChains(
			orDefault(c.EthereumRPCURL, DefaultEthereumRPCURL),
			orDefault(c.PhalaRPCURL, DefaultPhalaRPCURL),
			orDefault(c.KhalaRPCURL, DefaultKhalaRPCURL),
		)
	default:
		err = fmt.Errorf("%w: unknown source mode %q", types.ErrInvalidChainConfig, c.SourceMode)
	}
	if err != nil {
		return nil, err
	}
	if err := ValidateChains(chains); err != nil {
		return nil, err
	}
	return chains, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// LoadChains reads a JSON array of chain configs.
func LoadChains(path string) ([]types.ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var chains []types.ChainConfig
	if err := json.Unmarshal(data, &chains); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidChainConfig, path, err)
	}
	return chains, nil
}

func ValidateChains(chains []types.ChainConfig) error {
	if len(chains) == 0 {
		return fmt.Errorf("%w: empty chain table", types.ErrInvalidChainConfig)
	}
	seen := make(map[string]bool)
	for _, c := range chains {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicated chain %s", types.ErrInvalidChainConfig, c.Name)
		}
		seen[c.Name] = true
	}
	keys := make(map[string]bool)
	for _, k := range types.Keys(chains) {
		if keys[k] {
			return fmt.Errorf("%w: two figures share the cache key %s", types.ErrInvalidChainConfig, k)
		}
		keys[k] = true
	}
	return nil
}

func erc20Balance(node, name, holder string) types.NamedSource {
	return types.NamedSource{Name: name, Source: types.SourceDescriptor{
		Kind:     types.SourceERC20Balance,
		Endpoint: node,
		Contract: ethereumPHAToken,
		Account:  holder,
		Decimals: evmDecimals,
	}}
}

func substrateBalance(node, name, account string) types.NamedSource {
	return types.NamedSource{Name: name, Source: types.SourceDescriptor{
		Kind:     types.SourceSubstrateFreeBalance,
		Endpoint: node,
		Account:  account,
		Decimals: substrateDecimals,
	}}
}

func substrateRPCChain(name, node string) types.ChainConfig {
	return types.ChainConfig{
		Name: name,
		Supply: types.NamedSource{Name: "totalIssuance", Source: types.SourceDescriptor{
			Kind:     types.SourceSubstrateTotalIssuance,
			Endpoint: node,
			Decimals: substrateDecimals,
		}},
		Deductions: []types.NamedSource{
			substrateBalance(node, "miningRewards", substrateRewardAccount),
			substrateBalance(node, "crowdloan", substrateCrowdloanAccount),
			substrateBalance(node, "chainbridge", substrateChainbridge),
			substrateBalance(node, "sygmaBridge", substrateSygmaBridge),
		},
	}
}

// RPCChains reads every figure straight from the chains. The Ethereum supply
// is fixed; the reward pool balance is published but stays in circulation.
func RPCChains(ethereumNode, phalaNode, khalaNode string) []types.ChainConfig {
	return []types.ChainConfig{
		{
			Name: "ethereum",
			Supply: types.NamedSource{Name: "totalSupply", Source: types.SourceDescriptor{
				Kind:  types.SourceConstant,
				Value: ethereumTotalSupply,
			}},
			Deductions: []types.NamedSource{
				erc20Balance(ethereumNode, "phalaChainbridge", ethereumPhalaChainbridge),
				erc20Balance(ethereumNode, "khalaChainbridge", ethereumKhalaChainbridge),
				erc20Balance(ethereumNode, "sygmaBridge", ethereumSygmaBridge),
			},
			Extras: []types.NamedSource{
				erc20Balance(ethereumNode, "miningRewards", ethereumRewardAddress),
			},
		},
		substrateRPCChain("phala", phalaNode),
		substrateRPCChain("khala", khalaNode),
	}
}

func indexerField(endpoint, document, name, field string) types.NamedSource {
	return types.NamedSource{Name: name, Source: types.SourceDescriptor{
		Kind:     types.SourceGraphQL,
		Endpoint: endpoint,
		Query:    document,
		Path:     "data.circulationById." + field,
	}}
}

// IndexerChains reads the figures from the circulation indexers, which
// already report whole tokens.
func IndexerChains(base string) []types.ChainConfig {
	base = strings.TrimRight(base, "/")
	ethereum := base + "/ethereum-pha-circulation/graphql"
	chains := []types.ChainConfig{
		{
			Name:   "ethereum",
			Supply: indexerField(ethereum, ethereumCirculationDocument, "totalSupply", "totalSupply"),
			Deductions: []types.NamedSource{
				indexerField(ethereum, ethereumCirculationDocument, "phalaChainbridge", "phalaChainBridge"),
				indexerField(ethereum, ethereumCirculationDocument, "khalaChainbridge", "khalaChainBridge"),
				indexerField(ethereum, ethereumCirculationDocument, "sygmaBridge", "sygmaBridge"),
			},
			Extras: []types.NamedSource{
				indexerField(ethereum, ethereumCirculationDocument, "miningRewards", "reward"),
			},
		},
	}
	for _, name := range []string{"phala", "khala"} {
		endpoint := fmt.Sprintf("%s/%s-circulation/graphql", base, name)
		chains = append(chains, types.ChainConfig{
			Name:   name,
			Supply: indexerField(endpoint, substrateCirculationDocument, "totalIssuance", "totalIssuance"),
			Deductions: []types.NamedSource{
				indexerField(endpoint, substrateCirculationDocument, "miningRewards", "reward"),
				indexerField(endpoint, substrateCirculationDocument, "crowdloan", "crowdloan"),
				indexerField(endpoint, substrateCirculationDocument, "sygmaBridge", "sygmaBridge"),
			},
		})
	}
	return chains
}
