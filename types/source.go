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

// Package types
package types

import (
	"fmt"
)

type SourceKind string

const (
	SourceConstant               SourceKind = "constant"
	SourceGraphQL                SourceKind = "graphql"
	SourceERC20Balance           SourceKind = "erc20_balance"
	SourceERC20TotalSupply       SourceKind = "erc20_total_supply"
	SourceSubstrateFreeBalance   SourceKind = "substrate_free_balance"
	SourceSubstrateTotalIssuance SourceKind = "substrate_total_issuance"
)

// SourceDescriptor tells a source client where a figure lives and how to
// normalize it. Decimals is the exponent of the smallest unit of the source.
type SourceDescriptor struct {
	Kind     SourceKind `json:"kind"`
	Endpoint string     `json:"endpoint,omitempty"`
	Query    string     `json:"query,omitempty"`
	Path     string     `json:"path,omitempty"`
	Contract string     `json:"contract,omitempty"`
	Account  string     `json:"account,omitempty"`
	Value    string     `json:"value,omitempty"`
	Decimals int32      `json:"decimals"`
}

func (d SourceDescriptor) String() string {
	switch d.Kind {
	case SourceConstant:
		return fmt.Sprintf("constant(%s)", d.Value)
	case SourceGraphQL:
		return fmt.Sprintf("graphql(%s#%s)", d.Endpoint, d.Path)
	case SourceERC20Balance:
		return fmt.Sprintf("erc20_balance(%s,%s,%s)", d.Endpoint, d.Contract, d.Account)
	case SourceERC20TotalSupply:
		return fmt.Sprintf("erc20_total_supply(%s,%s)", d.Endpoint, d.Contract)
	case SourceSubstrateFreeBalance:
		return fmt.Sprintf("substrate_free_balance(%s,%s)", d.Endpoint, d.Account)
	case SourceSubstrateTotalIssuance:
		return fmt.Sprintf("substrate_total_issuance(%s)", d.Endpoint)
	}
	return string(d.Kind)
}

func (d SourceDescriptor) Validate() error {
	switch d.Kind {
	case SourceConstant:
		if d.Value == "" {
			return fmt.Errorf("%w: constant source without value", ErrInvalidChainConfig)
		}
	case SourceGraphQL:
		if d.Endpoint == "" || d.Query == "" || d.Path == "" {
			return fmt.Errorf("%w: graphql source needs endpoint, query and path", ErrInvalidChainConfig)
		}
	case SourceERC20Balance:
		if d.Endpoint == "" || d.Contract == "" || d.Account == "" {
			return fmt.Errorf("%w: erc20 balance source needs endpoint, contract and account", ErrInvalidChainConfig)
		}
	case SourceERC20TotalSupply:
		if d.Endpoint == "" || d.Contract == "" {
			return fmt.Errorf("%w: erc20 total supply source needs endpoint and contract", ErrInvalidChainConfig)
		}
	case SourceSubstrateFreeBalance:
		if d.Endpoint == "" || d.Account == "" {
			return fmt.Errorf("%w: substrate balance source needs endpoint and account", ErrInvalidChainConfig)
		}
	case SourceSubstrateTotalIssuance:
		if d.Endpoint == "" {
			return fmt.Errorf("%w: substrate issuance source needs endpoint", ErrInvalidChainConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalidChainConfig, d.Kind)
	}
	if d.Decimals < 0 {
		return fmt.Errorf("%w: negative decimals", ErrInvalidChainConfig)
	}
	return nil
}

// NamedSource binds a figure name (e.g. "sygmaBridge") to its source.
type NamedSource struct {
	Name   string           `json:"name"`
	Source SourceDescriptor `json:"source"`
}

// ChainConfig is one row of the chain table. Circulation of the chain is
// Supply minus every deduction. Extras are fetched and published but never
// deducted.
type ChainConfig struct {
	Name       string        `json:"name"`
	Supply     NamedSource   `json:"supply"`
	Deductions []NamedSource `json:"deductions"`
	Extras     []NamedSource `json:"extras,omitempty"`
}

func (c ChainConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: chain without name", ErrInvalidChainConfig)
	}
	seen := map[string]bool{FigureCirculation: true}
	all := append([]NamedSource{c.Supply}, c.Deductions...)
	all = append(all, c.Extras...)
	for _, ns := range all {
		if ns.Name == "" {
			return fmt.Errorf("%w: chain %s has an unnamed figure", ErrInvalidChainConfig, c.Name)
		}
		if seen[ns.Name] {
			return fmt.Errorf("%w: chain %s has duplicated figure %q", ErrInvalidChainConfig, c.Name, ns.Name)
		}
		seen[ns.Name] = true
		if err := ns.Source.Validate(); err != nil {
			return fmt.Errorf("chain %s figure %s: %w", c.Name, ns.Name, err)
		}
	}
	return nil
}
