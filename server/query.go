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

	"github.com/kardiachain/circulation-backend/types"
)

// Circulation returns the committed total circulation verbatim. It returns
// types.ErrNotFound until the first cycle succeeded.
func (s *Server) Circulation(ctx context.Context) (string, error) {
	return s.cacheClient.Get(ctx, types.KeyTotalCirculation)
}

// All reads every figure in a single MGet, so the values always come from
// one cycle. Figures that were never written are nil.
func (s *Server) All(ctx context.Context) (map[string]*string, error) {
	values, err := s.cacheClient.MGet(ctx, s.keys...)
	if err != nil {
		return nil, err
	}
	figures := make(map[string]*string, len(s.keys))
	for i, k := range s.keys {
		figures[k] = values[i]
	}
	return figures, nil
}
