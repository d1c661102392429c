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
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSourceMalformed   = errors.New("source malformed")
	ErrCycleAborted      = errors.New("refresh cycle aborted")
	ErrNotFound          = errors.New("not found")

	ErrInvalidChainConfig = errors.New("invalid chain config")
)

// ChainAggregationFailed is returned when any source of a chain fails.
type ChainAggregationFailed struct {
	Chain string
	Cause error
}

func (e *ChainAggregationFailed) Error() string {
	return fmt.Sprintf("aggregate chain %s: %v", e.Chain, e.Cause)
}

func (e *ChainAggregationFailed) Unwrap() error {
	return e.Cause
}
