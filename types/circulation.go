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
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FigureCirculation = "circulation"

	KeyTotalCirculation = "totalCirculation"
	KeyLastUpdate       = "lastUpdate"
)

type NamedFigure struct {
	Name  string
	Value decimal.Decimal
}

// ChainSnapshot holds every figure of one chain for one refresh cycle, at
// full precision.
type ChainSnapshot struct {
	Chain       string
	Supply      NamedFigure
	Deductions  []NamedFigure
	Extras      []NamedFigure
	Circulation decimal.Decimal
}

// AggregateResult is the outcome of one successful refresh cycle.
type AggregateResult struct {
	Chains           []*ChainSnapshot
	TotalCirculation decimal.Decimal
	LastUpdate       time.Time
}

// FigureKey flattens a chain figure name into its cache key,
// e.g. ("phala", "totalIssuance") -> "phalaTotalIssuance".
func FigureKey(chain, figure string) string {
	if figure == "" {
		return chain
	}
	return chain + strings.ToUpper(figure[:1]) + figure[1:]
}

// Keys returns every cache key a chain table produces, in table order,
// followed by the total and the update time.
func Keys(chains []ChainConfig) []string {
	var keys []string
	for _, c := range chains {
		keys = append(keys, FigureKey(c.Name, c.Supply.Name))
		for _, d := range c.Deductions {
			keys = append(keys, FigureKey(c.Name, d.Name))
		}
		for _, e := range c.Extras {
			keys = append(keys, FigureKey(c.Name, e.Name))
		}
		keys = append(keys, FigureKey(c.Name, FigureCirculation))
	}
	return append(keys, KeyTotalCirculation, KeyLastUpdate)
}

// Entries flattens the result into cache entries. format serializes a figure.
func (r *AggregateResult) Entries(format func(decimal.Decimal) string) map[string]string {
	entries := make(map[string]string)
	for _, s := range r.Chains {
		entries[FigureKey(s.Chain, s.Supply.Name)] = format(s.Supply.Value)
		for _, d := range s.Deductions {
			entries[FigureKey(s.Chain, d.Name)] = format(d.Value)
		}
		for _, e := range s.Extras {
			entries[FigureKey(s.Chain, e.Name)] = format(e.Value)
		}
		entries[FigureKey(s.Chain, FigureCirculation)] = format(s.Circulation)
	}
	entries[KeyTotalCirculation] = format(r.TotalCirculation)
	entries[KeyLastUpdate] = strconv.FormatInt(r.LastUpdate.UnixMilli(), 10)
	return entries
}
