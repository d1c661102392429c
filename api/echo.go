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
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kardiachain/circulation-backend/cfg"
	"github.com/kardiachain/circulation-backend/metrics"
)

// EchoServer define all API expose
type EchoServer interface {
	Register(gr *echo.Group)
}

type restDefinition struct {
	method      string
	path        string
	fn          func(c echo.Context) error
	middlewares []echo.MiddlewareFunc
}

// New builds the echo instance serving srv under the configured prefix and
// prometheus metrics under /metrics.
func New(srv EchoServer, c cfg.CirculationConfig, m *metrics.Provider) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.Gzip())
	e.Use(requestMetrics(m))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	gr := e.Group(c.APIPrefix, cacheControl(c.ResponseMaxAge, c.ResponseStaleWhileRevalidate))
	srv.Register(gr)
	return e
}

// cacheControl lets CDNs and browsers keep GET responses for maxAge and
// serve them stale for swr more while revalidating.
func cacheControl(maxAge, swr time.Duration) echo.MiddlewareFunc {
	value := fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", int(maxAge.Seconds()), int(swr.Seconds()))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodGet {
				c.Response().Header().Set("Cache-Control", value)
			}
			return next(c)
		}
	}
}

func requestMetrics(m *metrics.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			code := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
			m.ObserveRequest(c.Path(), code)
			return err
		}
	}
}
