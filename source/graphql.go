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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/kardiachain/circulation-backend/types"
	"github.com/kardiachain/circulation-backend/utils"
)

const maxGraphQLResponse = 1 << 20

type graphQLRequest struct {
	Query string `json:"query"`
}

// graphQL posts the descriptor query and extracts the figure found at the
// descriptor gjson path, e.g. "data.circulationById.reward". Figures of one
// document requested at the same time share a single request, so they come
// from the same indexed block.
type graphQL struct {
	client   *http.Client
	inflight singleflight.Group
}

func (g *graphQL) fetch(ctx context.Context, d types.SourceDescriptor) (decimal.Decimal, error) {
	ch := g.inflight.DoChan(d.Endpoint+"\n"+d.Query, func() (interface{}, error) {
		return g.post(ctx, d.Endpoint, d.Query)
	})
	var body []byte
	select {
	case <-ctx.Done():
		return decimal.Zero, unavailable(ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return decimal.Zero, r.Err
		}
		body = r.Val.([]byte)
	}

	res := gjson.ParseBytes(body)
	if errs := res.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return decimal.Zero, malformed("graphql error: %s", errs.Get("0.message").String())
	}
	field := res.Get(d.Path)
	var raw string
	switch field.Type {
	case gjson.String:
		raw = field.Str
	case gjson.Number:
		raw = field.Raw
	default:
		return decimal.Zero, malformed("no figure at %s", d.Path)
	}
	value, err := utils.NormalizeString(raw, d.Decimals)
	if err != nil {
		return decimal.Zero, malformed("figure at %s: %v", d.Path, err)
	}
	return value, nil
}

// post returns the raw response body once it is known to be valid json.
func (g *graphQL) post(ctx context.Context, endpoint, query string) ([]byte, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidChainConfig, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, unavailable(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(fmt.Errorf("graphql endpoint replied %s", resp.Status))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGraphQLResponse))
	if err != nil {
		return nil, unavailable(err)
	}
	if !gjson.ValidBytes(body) {
		return nil, malformed("graphql response is not json")
	}
	return body, nil
}

func (g *graphQL) close() {
	g.client.CloseIdleConnections()
}
