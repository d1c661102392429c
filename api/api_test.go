package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardiachain/circulation-backend/cfg"
	"github.com/kardiachain/circulation-backend/types"
)

type stubQuery struct {
	total   string
	figures map[string]*string
	err     error
}

func (q *stubQuery) Circulation(context.Context) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	if q.total == "" {
		return "", fmt.Errorf("%w: %s", types.ErrNotFound, types.KeyTotalCirculation)
	}
	return q.total, nil
}

func (q *stubQuery) All(context.Context) (map[string]*string, error) {
	return q.figures, q.err
}

func strPtr(s string) *string { return &s }

func testConfig() cfg.CirculationConfig {
	return cfg.CirculationConfig{
		APIPrefix:                    "/api",
		ResponseMaxAge:               60 * time.Second,
		ResponseStaleWhileRevalidate: 60 * time.Second,
	}
}

func serve(t *testing.T, q Query, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := New(NewHandler(q, nil), testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCirculation(t *testing.T) {
	rec := serve(t, &stubQuery{total: "1700.000000000000"}, "/api/circulation")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1700.000000000000", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=60", rec.Header().Get("Cache-Control"))
}

func TestCirculation_NotComputed(t *testing.T) {
	rec := serve(t, &stubQuery{}, "/api/circulation")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCirculation_CacheDown(t *testing.T) {
	rec := serve(t, &stubQuery{err: errors.New("connection refused")}, "/api/circulation")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAll(t *testing.T) {
	q := &stubQuery{figures: map[string]*string{
		"phalaTotalIssuance":      strPtr("1000.000000000000"),
		"khalaCirculation":        nil,
		types.KeyTotalCirculation: strPtr("1700.000000000000"),
		types.KeyLastUpdate:       strPtr("1700000000000"),
	}}
	rec := serve(t, q, "/api/all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=60", rec.Header().Get("Cache-Control"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1000.000000000000", body["phalaTotalIssuance"])
	assert.Equal(t, "1700.000000000000", body["totalCirculation"])
	assert.Equal(t, float64(1700000000000), body["lastUpdate"])
	v, ok := body["khalaCirculation"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestAll_BeforeFirstCycle(t *testing.T) {
	q := &stubQuery{figures: map[string]*string{
		types.KeyTotalCirculation: nil,
		types.KeyLastUpdate:       nil,
	}}
	rec := serve(t, q, "/api/all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalCirculation":null,"lastUpdate":null}`, rec.Body.String())
}

func TestPing(t *testing.T) {
	rec := serve(t, &stubQuery{}, "/api/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":1000,"msg":"Success"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(t, &stubQuery{}, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}
