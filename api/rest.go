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

// Package api
package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/kardiachain/circulation-backend/types"
)

// Query is the read side of the circulation cache.
type Query interface {
	Circulation(ctx context.Context) (string, error)
	All(ctx context.Context) (map[string]*string, error)
}

type RestServer interface {
	Ping(c echo.Context) error
	Circulation(c echo.Context) error
	All(c echo.Context) error
}

type Handler struct {
	query  Query
	logger *zap.Logger
}

func NewHandler(q Query, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{query: q, logger: logger.With(zap.String("service", "api"))}
}

func (h *Handler) Register(gr *echo.Group) {
	bind(gr, h)
}

func bind(gr *echo.Group, srv RestServer) {
	apis := []restDefinition{
		{
			method:      echo.GET,
			path:        "/ping",
			fn:          srv.Ping,
			middlewares: nil,
		},
		{
			method: echo.GET,
			path:   "/circulation",
			fn:     srv.Circulation,
		},
		{
			method: echo.GET,
			path:   "/all",
			fn:     srv.All,
		},
	}
	for _, api := range apis {
		gr.Add(api.method, api.path, api.fn, api.middlewares...)
	}
}

func (h *Handler) Ping(c echo.Context) error {
	return OK.Build(c)
}

// Circulation answers the bare total as text/plain, the format supply
// trackers poll.
func (h *Handler) Circulation(c echo.Context) error {
	total, err := h.query.Circulation(c.Request().Context())
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return BuildResponse(c).NotFound()
		}
		h.logger.Warn("cannot read total circulation", zap.Error(err))
		return BuildResponse(c).Internal()
	}
	return c.String(200, total)
}

func (h *Handler) All(c echo.Context) error {
	figures, err := h.query.All(c.Request().Context())
	if err != nil {
		h.logger.Warn("cannot read figures", zap.Error(err))
		return BuildResponse(c).Internal()
	}
	record := make(map[string]interface{}, len(figures))
	for k, v := range figures {
		switch {
		case v == nil:
			record[k] = nil
		case k == types.KeyLastUpdate:
			ms, err := strconv.ParseInt(*v, 10, 64)
			if err != nil {
				h.logger.Warn("malformed last update", zap.String("value", *v))
				record[k] = *v
				continue
			}
			record[k] = ms
		default:
			record[k] = *v
		}
	}
	return c.JSON(200, record)
}
