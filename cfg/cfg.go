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
	"os"
	"strconv"
	"time"
)

const (
	ModeDev        = "dev"
	ModeProduction = "prod"
)

const (
	SourceModeRPC     = "rpc"
	SourceModeIndexer = "indexer"
)

type CirculationConfig struct {
	ServerMode  string
	Port        string
	MetricsPort string
	APIPrefix   string

	LogLevel  string
	SentryDSN string

	CacheEngine      string
	CacheURL         string
	CacheDB          int
	CachePassword    string
	CacheKeyPrefix   string
	CacheDatabase    string
	CacheDialTimeout time.Duration

	RefreshInterval time.Duration
	SourceTimeout   time.Duration

	SourceMode     string
	ChainsFile     string
	EthereumRPCURL string
	PhalaRPCURL    string
	KhalaRPCURL    string
	IndexerURL     string

	ResponseMaxAge               time.Duration
	ResponseStaleWhileRevalidate time.Duration
}

func New() (CirculationConfig, error) {
	cacheDB, err := strconv.Atoi(getEnv("CACHE_DB", "0"))
	if err != nil {
		return CirculationConfig{}, err
	}

	cfg := CirculationConfig{
		ServerMode:  getEnv("SERVER_MODE", ModeProduction),
		Port:        getEnv("PORT", ":3000"),
		MetricsPort: getEnv("METRICS_PORT", ":9100"),
		APIPrefix:   getEnv("API_PREFIX", "/api"),

		LogLevel:  os.Getenv("LOG_LEVEL"),
		SentryDSN: os.Getenv("SENTRY_DSN"),

		CacheEngine:      getEnv("CACHE_ENGINE", "redis"),
		CacheURL:         getEnv("CACHE_URI", "localhost:6379"),
		CacheDB:          cacheDB,
		CachePassword:    os.Getenv("CACHE_PASSWORD"),
		CacheKeyPrefix:   os.Getenv("CACHE_KEY_PREFIX"),
		CacheDatabase:    os.Getenv("CACHE_DATABASE"),
		CacheDialTimeout: getDuration("CACHE_DIAL_TIMEOUT", 10*time.Second),

		RefreshInterval: getDuration("REFRESH_INTERVAL", 10*time.Minute),
		SourceTimeout:   getDuration("SOURCE_TIMEOUT", 10*time.Second),

		SourceMode:     getEnv("SOURCE_MODE", SourceModeRPC),
		ChainsFile:     os.Getenv("CHAINS_FILE"),
		EthereumRPCURL: getEnv("ETHEREUM_RPC_URL", DefaultEthereumRPCURL),
		PhalaRPCURL:    getEnv("PHALA_RPC_URL", DefaultPhalaRPCURL),
		KhalaRPCURL:    getEnv("KHALA_RPC_URL", DefaultKhalaRPCURL),
		IndexerURL:     getEnv("INDEXER_URL", DefaultIndexerURL),

		ResponseMaxAge:               getDuration("CACHE_MAX_AGE", 60*time.Second),
		ResponseStaleWhileRevalidate: getDuration("CACHE_STALE_WHILE_REVALIDATE", 60*time.Second),
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("90s", "10m"); an invalid or empty value
// falls back to def.
func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
